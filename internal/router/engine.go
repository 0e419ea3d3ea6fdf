package router

import (
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oakline/storefront/internal/checkout"
	"github.com/oakline/storefront/internal/identity"
	"github.com/oakline/storefront/internal/payments"
	"github.com/oakline/storefront/pkg/mongo"
)

var Router *gin.Engine

// Deps holds the services the handlers dispatch to. Wired once at startup.
type Deps struct {
	Store    *mongo.Store
	Checkout *checkout.Service
	Payments *payments.Service
	Bridge   *identity.Bridge
	CacheOn  bool
}

var deps Deps

func InitEngine() {
	Router = gin.Default()
	if os.Getenv("ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	origins := []string{"http://localhost:3000", "http://localhost:5173"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		origins = append(origins, strings.Split(extra, ",")...)
	}

	Router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

func InitializeRoutes(d Deps) {
	deps = d

	api := Router.Group("/api")
	{
		api.GET("/health", HealthCheck)

		products := api.Group("/products")
		{
			products.GET("", ListProducts)
			products.GET("/:id", GetProduct)
			products.POST("", Protect(deps.Bridge), AdminOnly(), CreateProduct)
			products.PUT("/:id", Protect(deps.Bridge), AdminOnly(), UpdateProduct)
			products.DELETE("/:id", Protect(deps.Bridge), AdminOnly(), DeleteProduct)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", ListCategories)
		}

		cart := api.Group("/cart")
		cart.Use(Protect(deps.Bridge))
		{
			cart.GET("", GetCart)
			cart.POST("/items", AddCartItem)
			cart.PUT("/items/:productId", UpdateCartItem)
			cart.DELETE("/items/:productId", RemoveCartItem)
			cart.DELETE("", ClearCart)
		}

		orders := api.Group("/orders")
		{
			// Guests may place and read orders; the order id acts as the
			// receipt capability.
			orders.POST("", OptionalProtect(deps.Bridge), CreateOrder)
			orders.GET("", Protect(deps.Bridge), ListOrders)
			orders.GET("/:id", OptionalProtect(deps.Bridge), GetOrder)
			orders.GET("/:id/track", TrackOrder)
			orders.PUT("/:id/cancel", Protect(deps.Bridge), CancelOrder)
			orders.PUT("/:id/status", Protect(deps.Bridge), AdminOnly(), UpdateOrderStatus)
		}

		pay := api.Group("/payments")
		{
			pay.POST("/create-order", OptionalProtect(deps.Bridge), CreatePaymentOrder)
			pay.POST("/verify", OptionalProtect(deps.Bridge), VerifyPayment)
			pay.POST("/refund", Protect(deps.Bridge), AdminOnly(), RefundPayment)
			pay.GET("/:paymentId", Protect(deps.Bridge), AdminOnly(), GetPayment)
		}

		analytics := api.Group("/analytics")
		analytics.Use(Protect(deps.Bridge), AdminOnly())
		{
			analytics.GET("/sales", GetSalesAnalytics)
			analytics.GET("/top-products", GetTopProducts)

			aiAnalytics := analytics.Group("/ai")
			{
				aiAnalytics.GET("/sales-report", GenerateAISalesReport)
			}
		}
	}
}
