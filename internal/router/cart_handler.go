package router

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/oakline/storefront/pkg/global"
	"github.com/oakline/storefront/pkg/models"
)

func cartForUser(c *gin.Context, userID bson.ObjectID) (*models.Cart, bool) {
	cart, err := deps.Store.GetCartByUser(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Error fetching cart for user %s: %v", userID.Hex(), err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to fetch cart", nil))
		return nil, false
	}
	if cart == nil {
		// Carts are created lazily on first add.
		cart = &models.Cart{User: userID, Items: []models.CartItem{}}
	}
	return cart, true
}

func GetCart(c *gin.Context) {
	user := currentUser(c)
	cart, ok := cartForUser(c, user.ID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(cart))
}

// AddCartItem adds a product to the cart, merging quantities when the line
// already exists. The stored price is a display snapshot; checkout re-prices.
func AddCartItem(c *gin.Context) {
	user := currentUser(c)

	var req models.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request data", []global.ValidationError{
			{Field: "request", Message: err.Error(), Code: "validation_error"},
		}))
		return
	}

	productID, err := bson.ObjectIDFromHex(req.Product)
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid product ID format", []global.ValidationError{
			{Field: "product", Message: "Must be a valid MongoDB ObjectID", Code: "invalid_format"},
		}))
		return
	}

	product, err := deps.Store.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		log.Printf("Error fetching product for cart add: %v", err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to add item to cart", nil))
		return
	}
	if product == nil || !product.IsActive {
		c.JSON(http.StatusNotFound, global.ErrorResponse("Product not found", []global.ValidationError{
			{Field: "product", Message: "No active product exists with this ID", Code: "not_found"},
		}))
		return
	}
	if product.Stock < req.Quantity {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Insufficient stock for "+product.Name, []global.ValidationError{
			{Field: "quantity", Message: "Requested quantity exceeds available stock", Code: "insufficient_stock"},
		}))
		return
	}

	cart, ok := cartForUser(c, user.ID)
	if !ok {
		return
	}

	if i := cart.FindItem(productID); i >= 0 {
		cart.Items[i].Quantity += req.Quantity
		cart.Items[i].Price = product.Price
		cart.Items[i].DiscountPrice = product.DiscountPrice
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			Product:       productID,
			Quantity:      req.Quantity,
			Price:         product.Price,
			DiscountPrice: product.DiscountPrice,
		})
	}

	if err := deps.Store.SaveCart(c.Request.Context(), cart); err != nil {
		log.Printf("Error saving cart for user %s: %v", user.ID.Hex(), err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to add item to cart", nil))
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(cart))
}

func UpdateCartItem(c *gin.Context) {
	user := currentUser(c)

	productID, err := bson.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid product ID format", []global.ValidationError{
			{Field: "productId", Message: "Must be a valid MongoDB ObjectID", Code: "invalid_format"},
		}))
		return
	}

	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request data", []global.ValidationError{
			{Field: "request", Message: err.Error(), Code: "validation_error"},
		}))
		return
	}

	cart, ok := cartForUser(c, user.ID)
	if !ok {
		return
	}

	i := cart.FindItem(productID)
	if i < 0 {
		c.JSON(http.StatusNotFound, global.ErrorResponse("Item not in cart", []global.ValidationError{
			{Field: "productId", Message: "Cart has no item for this product", Code: "not_found"},
		}))
		return
	}
	cart.Items[i].Quantity = req.Quantity

	if err := deps.Store.SaveCart(c.Request.Context(), cart); err != nil {
		log.Printf("Error saving cart for user %s: %v", user.ID.Hex(), err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to update cart item", nil))
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(cart))
}

func RemoveCartItem(c *gin.Context) {
	user := currentUser(c)

	productID, err := bson.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid product ID format", []global.ValidationError{
			{Field: "productId", Message: "Must be a valid MongoDB ObjectID", Code: "invalid_format"},
		}))
		return
	}

	cart, ok := cartForUser(c, user.ID)
	if !ok {
		return
	}

	i := cart.FindItem(productID)
	if i < 0 {
		c.JSON(http.StatusNotFound, global.ErrorResponse("Item not in cart", []global.ValidationError{
			{Field: "productId", Message: "Cart has no item for this product", Code: "not_found"},
		}))
		return
	}
	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)

	if err := deps.Store.SaveCart(c.Request.Context(), cart); err != nil {
		log.Printf("Error saving cart for user %s: %v", user.ID.Hex(), err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to remove cart item", nil))
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(cart))
}

func ClearCart(c *gin.Context) {
	user := currentUser(c)

	if err := deps.Store.ClearCart(c.Request.Context(), user.ID); err != nil {
		log.Printf("Error clearing cart for user %s: %v", user.ID.Hex(), err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to clear cart", nil))
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(map[string]string{"message": "Cart cleared"}))
}
