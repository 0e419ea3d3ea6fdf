package router

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/oakline/storefront/internal/payments"
	"github.com/oakline/storefront/pkg/global"
)

type createPaymentOrderRequest struct {
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency"`
	Receipt  string  `json:"receipt"`
}

// CreatePaymentOrder opens a provider-side payment intent for the client
// payment sheet.
func CreatePaymentOrder(c *gin.Context) {
	var req createPaymentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request data", []global.ValidationError{
			{Field: "request", Message: err.Error(), Code: "validation_error"},
		}))
		return
	}

	providerOrder, err := deps.Payments.CreateProviderOrder(c.Request.Context(), req.Amount, req.Currency, req.Receipt)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, global.ErrorResponse("Amount must be greater than zero", []global.ValidationError{
				{Field: "amount", Message: "Must be a positive amount", Code: "invalid_amount"},
			}))
			return
		}
		log.Printf("Error creating payment order: %v", err)
		c.JSON(http.StatusBadGateway, global.ErrorResponse("Failed to create payment order", nil))
		return
	}

	c.JSON(http.StatusCreated, global.SuccessResponse(providerOrder))
}

type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
	OrderID           string `json:"orderId" binding:"required"`
}

// VerifyPayment authenticates the provider callback and marks the order paid.
func VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request data", []global.ValidationError{
			{Field: "request", Message: err.Error(), Code: "validation_error"},
		}))
		return
	}

	orderID, err := bson.ObjectIDFromHex(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid order ID format", []global.ValidationError{
			{Field: "orderId", Message: "Must be a valid MongoDB ObjectID", Code: "invalid_format"},
		}))
		return
	}

	order, err := deps.Payments.VerifyPayment(c.Request.Context(),
		req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, orderID)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrVerificationFailed):
			c.JSON(http.StatusBadRequest, global.ErrorResponse("Payment verification failed", nil))
		case errors.Is(err, payments.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, global.ErrorResponse("Order not found", nil))
		default:
			log.Printf("Error verifying payment for order %s: %v", req.OrderID, err)
			c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to verify payment", nil))
		}
		return
	}

	c.JSON(http.StatusOK, global.APIResponse{
		Success: true,
		Data:    order,
		Message: "Payment verified successfully",
	})
}

type refundRequest struct {
	PaymentID string  `json:"paymentId" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	OrderID   string  `json:"orderId" binding:"required"`
}

// RefundPayment issues a provider refund and reconciles the local order.
// Admin only.
func RefundPayment(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request data", []global.ValidationError{
			{Field: "request", Message: err.Error(), Code: "validation_error"},
		}))
		return
	}

	orderID, err := bson.ObjectIDFromHex(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid order ID format", []global.ValidationError{
			{Field: "orderId", Message: "Must be a valid MongoDB ObjectID", Code: "invalid_format"},
		}))
		return
	}

	refund, err := deps.Payments.Refund(c.Request.Context(), currentUser(c), req.PaymentID, req.Amount, orderID)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, global.ErrorResponse("Amount must be greater than zero", []global.ValidationError{
				{Field: "amount", Message: "Must be a positive amount", Code: "invalid_amount"},
			}))
			return
		}
		log.Printf("Error refunding payment %s: %v", req.PaymentID, err)
		c.JSON(http.StatusBadGateway, global.ErrorResponse("Failed to process refund", nil))
		return
	}

	c.JSON(http.StatusOK, global.APIResponse{
		Success: true,
		Data:    refund,
		Message: "Refund processed successfully",
	})
}

// GetPayment reads the provider-side payment record. Admin only.
func GetPayment(c *gin.Context) {
	paymentID := c.Param("paymentId")

	payment, err := deps.Payments.FetchPayment(c.Request.Context(), paymentID)
	if err != nil {
		log.Printf("Error fetching payment %s: %v", paymentID, err)
		c.JSON(http.StatusBadGateway, global.ErrorResponse("Failed to fetch payment details", nil))
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(payment))
}
