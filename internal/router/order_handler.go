package router

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/oakline/storefront/internal/checkout"
	"github.com/oakline/storefront/pkg/global"
	"github.com/oakline/storefront/pkg/models"
)

type createOrderItem struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

type createOrderRequest struct {
	Items           []createOrderItem     `json:"items"`
	ShippingAddress models.Address        `json:"shippingAddress" binding:"required"`
	BillingAddress  *models.Address       `json:"billingAddress"`
	PaymentMethod   string                `json:"paymentMethod" binding:"required,oneof=online cod"`
	PaymentInfo     *models.PaymentInfo   `json:"paymentInfo"`
	GuestCustomer   *models.GuestCustomer `json:"guestCustomer"`
}

// orderResponse is an order expanded with the owning user's contact fields,
// for registered orders.
type orderResponse struct {
	*models.Order
	Customer *models.User `json:"customer,omitempty"`
}

// CreateOrder places an order for a registered user or a guest. Item prices
// come from the current catalog, never from the request.
func CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request data", []global.ValidationError{
			{Field: "request", Message: err.Error(), Code: "validation_error"},
		}))
		return
	}

	items := make([]checkout.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := bson.ObjectIDFromHex(item.Product)
		if err != nil {
			c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid product ID format", []global.ValidationError{
				{Field: "items.product", Message: "Must be a valid MongoDB ObjectID", Code: "invalid_format"},
			}))
			return
		}
		items = append(items, checkout.ItemInput{Product: productID, Quantity: item.Quantity})
	}

	actor := checkout.GuestActor(req.GuestCustomer)
	if user := currentUser(c); user != nil {
		actor = checkout.RegisteredActor(user)
	}

	order, err := deps.Checkout.CreateOrder(c.Request.Context(), actor, checkout.CreateOrderInput{
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentInfo:     req.PaymentInfo,
		GuestCustomer:   req.GuestCustomer,
	})
	if err != nil {
		var notFound *checkout.ProductNotFoundError
		var noStock *checkout.InsufficientStockError
		switch {
		case errors.As(err, &notFound):
			c.JSON(http.StatusNotFound, global.ErrorResponse(err.Error(), nil))
		case errors.As(err, &noStock):
			c.JSON(http.StatusBadRequest, global.ErrorResponse(err.Error(), nil))
		case errors.Is(err, checkout.ErrNoItems):
			c.JSON(http.StatusBadRequest, global.ErrorResponse("No order items", []global.ValidationError{
				{Field: "items", Message: "At least one item is required", Code: "empty_items"},
			}))
		case errors.Is(err, checkout.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid item quantity", []global.ValidationError{
				{Field: "items.quantity", Message: "Quantity must be at least 1", Code: "invalid_quantity"},
			}))
		case errors.Is(err, checkout.ErrGuestInfoRequired):
			c.JSON(http.StatusBadRequest, global.ErrorResponse("Guest customer information is required", []global.ValidationError{
				{Field: "guestCustomer", Message: "Name, email and phone are required for guest checkout", Code: "missing_guest_info"},
			}))
		default:
			log.Printf("Error creating order: %v", err)
			c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to create order", nil))
		}
		return
	}

	c.JSON(http.StatusCreated, global.SuccessResponse(order))
}

// ListOrders returns the authenticated user's own orders, newest first.
func ListOrders(c *gin.Context) {
	user := currentUser(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	page, limit = checkout.NormalizePagination(page, limit)

	orders, total, err := deps.Checkout.ListOrders(c.Request.Context(), user.ID, page, limit)
	if err != nil {
		log.Printf("Error listing orders for user %s: %v", user.ID.Hex(), err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to fetch orders", nil))
		return
	}

	c.JSON(http.StatusOK, global.PaginatedResponse(orders, page, limit, total))
}

func GetOrder(c *gin.Context) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid order ID format", []global.ValidationError{
			{Field: "id", Message: "Must be a valid MongoDB ObjectID", Code: "invalid_format"},
		}))
		return
	}

	order, owner, err := deps.Checkout.GetOrder(c.Request.Context(), currentUser(c), id)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, global.ErrorResponse("Order not found", nil))
		case errors.Is(err, checkout.ErrNotOrderOwner):
			c.JSON(http.StatusForbidden, global.ErrorResponse("Not authorized to access this order", nil))
		default:
			log.Printf("Error fetching order %s: %v", id.Hex(), err)
			c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to fetch order", nil))
		}
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(orderResponse{Order: order, Customer: owner}))
}

// TrackOrder is the public tracking endpoint: status and history only, no
// addresses or payment details.
func TrackOrder(c *gin.Context) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid order ID format", []global.ValidationError{
			{Field: "id", Message: "Must be a valid MongoDB ObjectID", Code: "invalid_format"},
		}))
		return
	}

	tracking, err := deps.Checkout.TrackOrder(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, checkout.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, global.ErrorResponse("Order not found", nil))
			return
		}
		log.Printf("Error tracking order %s: %v", id.Hex(), err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to track order", nil))
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(tracking))
}

func CancelOrder(c *gin.Context) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid order ID format", []global.ValidationError{
			{Field: "id", Message: "Must be a valid MongoDB ObjectID", Code: "invalid_format"},
		}))
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	order, err := deps.Checkout.CancelOrder(c.Request.Context(), currentUser(c), id, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, global.ErrorResponse("Order not found", nil))
		case errors.Is(err, checkout.ErrNotOrderOwner):
			c.JSON(http.StatusForbidden, global.ErrorResponse("Not authorized to cancel this order", nil))
		case errors.Is(err, checkout.ErrOrderNotCancellable):
			c.JSON(http.StatusBadRequest, global.ErrorResponse("Cannot cancel order at this stage", nil))
		default:
			log.Printf("Error cancelling order %s: %v", id.Hex(), err)
			c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to cancel order", nil))
		}
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(order))
}

type updateOrderStatusRequest struct {
	Status       string               `json:"status" binding:"required"`
	Note         string               `json:"note"`
	TrackingInfo *models.TrackingInfo `json:"trackingInfo"`
}

// UpdateOrderStatus moves an order along the fulfillment path. Admin only.
func UpdateOrderStatus(c *gin.Context) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid order ID format", []global.ValidationError{
			{Field: "id", Message: "Must be a valid MongoDB ObjectID", Code: "invalid_format"},
		}))
		return
	}

	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request data", []global.ValidationError{
			{Field: "request", Message: err.Error(), Code: "validation_error"},
		}))
		return
	}

	order, err := deps.Checkout.UpdateStatus(c.Request.Context(), currentUser(c), id, req.Status, req.Note, req.TrackingInfo)
	if err != nil {
		var invalid *checkout.InvalidTransitionError
		switch {
		case errors.Is(err, checkout.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, global.ErrorResponse("Order not found", nil))
		case errors.As(err, &invalid):
			c.JSON(http.StatusBadRequest, global.ErrorResponse(err.Error(), []global.ValidationError{
				{Field: "status", Message: "Transition not allowed from the current status", Code: "invalid_transition"},
			}))
		default:
			log.Printf("Error updating status of order %s: %v", id.Hex(), err)
			c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to update order status", nil))
		}
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(order))
}
