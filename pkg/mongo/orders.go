package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/oakline/storefront/pkg/models"
)

func (s *Store) InsertOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.SetTimestamps()
	if _, err := s.collection("orders").InsertOne(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Store) GetOrderByID(ctx context.Context, id bson.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.collection("orders").FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder persists status-transition mutations. The item snapshots and
// price fields never change after creation; the whole document is replaced
// for simplicity since transitions own the record exclusively.
func (s *Store) UpdateOrder(ctx context.Context, order *models.Order) error {
	order.SetTimestamps()
	result, err := s.collection("orders").ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return errors.New("order vanished during update")
	}
	return nil
}

// ListOrdersByUser returns a page of the user's orders, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID bson.ObjectID, page, limit int) ([]models.Order, error) {
	skip := int64((page - 1) * limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(limit))

	cursor, err := s.collection("orders").Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) CountOrdersByUser(ctx context.Context, userID bson.ObjectID) (int64, error) {
	return s.collection("orders").CountDocuments(ctx, bson.M{"user": userID})
}

// CountOrdersWithProduct reports how many orders reference a product in
// their item snapshots. Products with a non-zero count must not be deleted.
func (s *Store) CountOrdersWithProduct(ctx context.Context, productID bson.ObjectID) (int64, error) {
	return s.collection("orders").CountDocuments(ctx, bson.M{"items.product": productID})
}
