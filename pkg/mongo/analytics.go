package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/oakline/storefront/pkg/models"
)

type DailySales struct {
	Day        string  `json:"day" bson:"_id"`
	Revenue    float64 `json:"revenue" bson:"revenue"`
	OrderCount int     `json:"order_count" bson:"order_count"`
	ItemsSold  int     `json:"items_sold" bson:"items_sold"`
}

type SalesAnalytics struct {
	Days         []DailySales `json:"days"`
	TotalRevenue float64      `json:"total_revenue"`
	TotalOrders  int          `json:"total_orders"`
}

// GetSalesAnalytics aggregates non-cancelled orders per day over the given
// window. Refunded orders stay in the figures; refunds are reconciled on
// the payment side, not re-stated here.
func (s *Store) GetSalesAnalytics(ctx context.Context, start, end time.Time) (*SalesAnalytics, error) {
	pipeline := bson.A{
		bson.D{
			{Key: "$match", Value: bson.D{
				{Key: "created_at", Value: bson.D{
					{Key: "$gte", Value: start},
					{Key: "$lte", Value: end},
				}},
				{Key: "orderStatus", Value: bson.D{{Key: "$ne", Value: models.OrderStatusCancelled}}},
			}},
		},
		bson.D{
			{Key: "$group", Value: bson.D{
				{Key: "_id", Value: bson.D{
					{Key: "$dateToString", Value: bson.D{
						{Key: "format", Value: "%Y-%m-%d"},
						{Key: "date", Value: "$created_at"},
					}},
				}},
				{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$totalPrice"}}},
				{Key: "order_count", Value: bson.D{{Key: "$sum", Value: 1}}},
				{Key: "items_sold", Value: bson.D{{Key: "$sum", Value: bson.D{
					{Key: "$sum", Value: "$items.quantity"},
				}}}},
			}},
		},
		bson.D{
			{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}},
		},
	}

	cursor, err := s.collection("orders").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var days []DailySales
	if err := cursor.All(ctx, &days); err != nil {
		return nil, err
	}

	result := &SalesAnalytics{Days: days}
	for _, day := range days {
		result.TotalRevenue += day.Revenue
		result.TotalOrders += day.OrderCount
	}
	return result, nil
}

// GetTopProducts returns the best-selling active products.
func (s *Store) GetTopProducts(ctx context.Context, limit int) ([]models.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "sold", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection("products").Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}
