package router

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/oakline/storefront/pkg/global"
	"github.com/oakline/storefront/pkg/models"
	"github.com/oakline/storefront/pkg/mongo"
	"github.com/oakline/storefront/pkg/redis"
)

func HealthCheck(c *gin.Context) {
	db := mongo.GetDatabase()
	if err := db.Client().Ping(c, nil); err != nil {
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Database connection failed", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]string{"status": "OK", "database": "Connected"}))
}

// ListProducts serves the shop page: active products with category, price
// range, featured filtering, sorting and pagination.
func ListProducts(c *gin.Context) {
	filter := mongo.ProductFilter{
		Category:    c.Query("category"),
		Subcategory: c.Query("subcategory"),
		Featured:    c.Query("featured") == "true",
		Sort:        c.Query("sort"),
	}

	if raw := c.Query("minPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MinPrice = &v
		}
	}
	if raw := c.Query("maxPrice"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			filter.MaxPrice = &v
		}
	}

	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "12"))
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 12
	}

	products, total, err := deps.Store.ListProducts(c.Request.Context(), filter)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to get products", nil))
		return
	}

	c.JSON(http.StatusOK, global.PaginatedResponse(products, filter.Page, filter.Limit, total))
}

// GetProduct retrieves a single product, Redis cache first.
func GetProduct(c *gin.Context) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid product ID format", []global.ValidationError{
			{Field: "id", Message: "Must be a valid MongoDB ObjectID", Code: "invalid_format"},
		}))
		return
	}

	ctx := c.Request.Context()

	if deps.CacheOn {
		if product, err := redis.GetProductFromCache(ctx, id.Hex()); err == nil {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, global.SuccessResponse(product))
			return
		}
	}

	product, err := deps.Store.GetProductByID(ctx, id)
	if err != nil {
		log.Printf("Error fetching product from MongoDB: %v", err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to fetch product", nil))
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, global.ErrorResponse("Product not found", []global.ValidationError{
			{Field: "id", Message: "No product exists with this ID", Code: "not_found"},
		}))
		return
	}

	if err := deps.Store.IncrementViews(ctx, id); err != nil {
		log.Printf("Warning: failed to bump views for product %s: %v", id.Hex(), err)
	}

	if deps.CacheOn {
		if cacheErr := redis.CacheProduct(ctx, product); cacheErr != nil {
			log.Printf("Warning: failed to cache product in Redis: %v", cacheErr)
		}
	}

	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, global.SuccessResponse(product))
}

func CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request data", []global.ValidationError{
			{Field: "request", Message: err.Error(), Code: "validation_error"},
		}))
		return
	}

	created, err := deps.Store.CreateProduct(c.Request.Context(), req.ToProduct())
	if err != nil {
		log.Printf("Error creating product: %v", err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to create product", nil))
		return
	}

	if deps.CacheOn {
		if cacheErr := redis.CacheProduct(c.Request.Context(), created); cacheErr != nil {
			log.Printf("Warning: failed to cache product in Redis: %v", cacheErr)
		}
	}

	c.JSON(http.StatusCreated, global.SuccessResponse(created))
}

// UpdateProduct applies a partial update. Immutable fields are stripped
// rather than rejected.
func UpdateProduct(c *gin.Context) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid product ID format", []global.ValidationError{
			{Field: "id", Message: "Must be a valid MongoDB ObjectID", Code: "invalid_format"},
		}))
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid JSON format", []global.ValidationError{
			{Field: "body", Message: err.Error(), Code: "json_parse_error"},
		}))
		return
	}

	for _, field := range []string{"_id", "id", "slug", "sold", "views", "created_at"} {
		delete(updates, field)
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("No updates provided", []global.ValidationError{
			{Field: "body", Message: "Request body must contain at least one updatable field", Code: "empty_updates"},
		}))
		return
	}

	updated, err := deps.Store.UpdateProduct(c.Request.Context(), id, updates)
	if err != nil {
		log.Printf("Error updating product: %v", err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to update product", nil))
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, global.ErrorResponse("Product not found", []global.ValidationError{
			{Field: "id", Message: "No product exists with this ID", Code: "not_found"},
		}))
		return
	}

	if deps.CacheOn {
		if cacheErr := redis.CacheProduct(c.Request.Context(), updated); cacheErr != nil {
			log.Printf("Warning: failed to refresh product cache in Redis: %v", cacheErr)
		}
		c.Header("X-Cache", "REFRESHED")
	}

	c.JSON(http.StatusOK, global.SuccessResponse(updated))
}

// DeleteProduct removes a product, refusing while any order still references
// it so order item snapshots keep a resolvable product id.
func DeleteProduct(c *gin.Context) {
	id, err := bson.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid product ID format", []global.ValidationError{
			{Field: "id", Message: "Must be a valid MongoDB ObjectID", Code: "invalid_format"},
		}))
		return
	}

	ctx := c.Request.Context()

	product, err := deps.Store.GetProductByID(ctx, id)
	if err != nil {
		log.Printf("Error fetching product for delete: %v", err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to delete product", nil))
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, global.ErrorResponse("Product not found", []global.ValidationError{
			{Field: "id", Message: "No product exists with this ID", Code: "not_found"},
		}))
		return
	}

	referencing, err := deps.Store.CountOrdersWithProduct(ctx, id)
	if err != nil {
		log.Printf("Error counting orders for product %s: %v", id.Hex(), err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to delete product", nil))
		return
	}
	if referencing > 0 {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Product has existing orders and cannot be deleted", []global.ValidationError{
			{Field: "id", Message: "Deactivate the product instead of deleting it", Code: "has_orders"},
		}))
		return
	}

	deleted, err := deps.Store.DeleteProduct(ctx, id)
	if err != nil {
		log.Printf("Error deleting product: %v", err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to delete product", nil))
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, global.ErrorResponse("Product not found", []global.ValidationError{
			{Field: "id", Message: "No product exists with this ID", Code: "not_found"},
		}))
		return
	}

	if deps.CacheOn {
		if cacheErr := redis.RemoveProductFromCache(ctx, product); cacheErr != nil {
			log.Printf("Warning: failed to remove product from Redis cache: %v", cacheErr)
		}
	}

	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{
		"deleted_product": product,
		"message":         "Product successfully deleted",
	}))
}

func ListCategories(c *gin.Context) {
	categories, err := deps.Store.ListCategories(c.Request.Context())
	if err != nil {
		log.Printf("Error listing categories: %v", err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to get categories", nil))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(categories))
}
