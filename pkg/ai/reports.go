package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oakline/storefront/pkg/models"
	"github.com/oakline/storefront/pkg/mongo"
)

// AIReportResponse represents the structure of AI-generated reports
type AIReportResponse struct {
	Status      string     `json:"status"`
	Data        ReportData `json:"data"`
	GeneratedAt time.Time  `json:"generated_at"`
	AIEnabled   bool       `json:"ai_enabled"`
}

type ReportData struct {
	RawData    interface{} `json:"raw_data"`
	AIInsights string      `json:"ai_insights,omitempty"`
	Summary    string      `json:"summary"`
	Error      string      `json:"error,omitempty"`
}

type salesReportInput struct {
	Sales       *mongo.SalesAnalytics `json:"sales"`
	TopProducts []topProductSummary   `json:"top_products"`
}

type topProductSummary struct {
	Name       string   `json:"name"`
	Sold       int      `json:"sold"`
	Price      float64  `json:"price"`
	Categories []string `json:"categories"`
}

// GenerateSalesReport wraps sales analytics and the best sellers in an
// AI-generated narrative when the AI service is enabled, raw data otherwise.
func GenerateSalesReport(ctx context.Context, sales *mongo.SalesAnalytics, topProducts []models.Product) *AIReportResponse {
	summaries := make([]topProductSummary, len(topProducts))
	for i, p := range topProducts {
		summaries[i] = topProductSummary{
			Name:       p.Name,
			Sold:       p.Sold,
			Price:      p.Price,
			Categories: p.Categories,
		}
	}
	input := salesReportInput{Sales: sales, TopProducts: summaries}

	response := &AIReportResponse{
		Status:      "success",
		GeneratedAt: time.Now(),
		AIEnabled:   IsEnabled(),
		Data: ReportData{
			RawData: input,
			Summary: "Sales data retrieved successfully",
		},
	}

	if !IsEnabled() {
		response.Data.Summary = "Raw sales data (AI insights unavailable)"
		return response
	}

	userPrompt := formatSalesDataPrompt(input)
	aiInsights, err := generateCompletion(ctx, SalesReportSystemPrompt, userPrompt)
	if err != nil {
		response.Data.Error = "AI analysis failed: " + err.Error()
	} else {
		response.Data.AIInsights = aiInsights
		response.Data.Summary = "AI-generated sales insights and recommendations"
	}
	return response
}

func formatSalesDataPrompt(input salesReportInput) string {
	payload, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", input)
	}
	return "Analyze this storefront sales data:\n" + string(payload)
}
