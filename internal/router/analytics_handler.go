package router

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oakline/storefront/pkg/ai"
	"github.com/oakline/storefront/pkg/global"
)

// GetSalesAnalytics aggregates daily revenue over the requested window,
// defaulting to the last 30 days.
func GetSalesAnalytics(c *gin.Context) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if raw := c.Query("start"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			start = parsed
		}
	}
	if raw := c.Query("end"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			end = parsed.Add(24*time.Hour - time.Nanosecond)
		}
	}

	sales, err := deps.Store.GetSalesAnalytics(c.Request.Context(), start, end)
	if err != nil {
		log.Printf("Error fetching sales analytics: %v", err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to fetch sales analytics", nil))
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(sales))
}

func GetTopProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	products, err := deps.Store.GetTopProducts(c.Request.Context(), limit)
	if err != nil {
		log.Printf("Error fetching top products: %v", err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to fetch top products", nil))
		return
	}

	c.JSON(http.StatusOK, global.SuccessResponse(products))
}

// GenerateAISalesReport layers AI narrative over the last 30 days of sales
// and the current best sellers.
func GenerateAISalesReport(c *gin.Context) {
	ctx := c.Request.Context()
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	sales, err := deps.Store.GetSalesAnalytics(ctx, start, end)
	if err != nil {
		log.Printf("Error fetching sales analytics for AI report: %v", err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to fetch sales data", nil))
		return
	}

	topProducts, err := deps.Store.GetTopProducts(ctx, 10)
	if err != nil {
		log.Printf("Error fetching top products for AI report: %v", err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to fetch top products", nil))
		return
	}

	report := ai.GenerateSalesReport(ctx, sales, topProducts)
	c.JSON(http.StatusOK, global.SuccessResponse(report))
}
