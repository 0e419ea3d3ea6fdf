package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/oakline/storefront/pkg/models"
)

// GetCartByUser returns the user's cart, or (nil, nil) when none exists yet.
// Carts are created lazily on first add.
func (s *Store) GetCartByUser(ctx context.Context, userID bson.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := s.collection("carts").FindOne(ctx, bson.M{"user": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// SaveCart upserts the cart by owner, recomputing the derived total first.
// The total is never written independent of the items.
func (s *Store) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.RecalculateTotal()
	cart.SetTimestamps()

	opts := options.UpdateOne().SetUpsert(true)
	_, err := s.collection("carts").UpdateOne(
		ctx,
		bson.M{"user": cart.User},
		bson.M{
			"$set": bson.M{
				"items":      cart.Items,
				"totalPrice": cart.TotalPrice,
				"updated_at": cart.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": cart.CreatedAt},
		},
		opts,
	)
	return err
}

// ClearCart empties the cart without deleting the document.
func (s *Store) ClearCart(ctx context.Context, userID bson.ObjectID) error {
	_, err := s.collection("carts").UpdateOne(
		ctx,
		bson.M{"user": userID},
		bson.M{"$set": bson.M{
			"items":      []models.CartItem{},
			"totalPrice": 0.0,
			"updated_at": time.Now(),
		}},
	)
	return err
}
