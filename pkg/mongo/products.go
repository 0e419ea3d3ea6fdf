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

// ProductFilter describes catalog list queries: filtering, sorting and
// pagination, mirroring the shop page query parameters.
type ProductFilter struct {
	Category    string
	Subcategory string
	MinPrice    *float64
	MaxPrice    *float64
	Featured    bool
	Sort        string // price-asc, price-desc, newest, popular
	Page        int
	Limit       int
}

func (f *ProductFilter) query() bson.M {
	query := bson.M{"isActive": true}
	if f.Category != "" {
		query["categories"] = bson.M{"$in": []string{f.Category}}
	}
	if f.Subcategory != "" {
		query["subcategories"] = bson.M{"$in": []string{f.Subcategory}}
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		query["price"] = price
	}
	if f.Featured {
		query["isFeatured"] = true
	}
	return query
}

func (f *ProductFilter) sort() bson.D {
	switch f.Sort {
	case "price-asc":
		return bson.D{{Key: "price", Value: 1}}
	case "price-desc":
		return bson.D{{Key: "price", Value: -1}}
	case "popular":
		return bson.D{{Key: "sold", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

// ListProducts returns a page of active products and the total match count.
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	collection := s.collection("products")
	query := filter.query()

	skip := int64((filter.Page - 1) * filter.Limit)
	opts := options.Find().
		SetSort(filter.sort()).
		SetSkip(skip).
		SetLimit(int64(filter.Limit))

	cursor, err := collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}

	total, err := collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (s *Store) GetProductByID(ctx context.Context, id bson.ObjectID) (*models.Product, error) {
	var product models.Product
	err := s.collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.SetTimestamps()
	if _, err := s.collection("products").InsertOne(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// UpdateProduct applies a partial update and returns the updated document,
// or (nil, nil) when the product does not exist.
func (s *Store) UpdateProduct(ctx context.Context, id bson.ObjectID, updates bson.M) (*models.Product, error) {
	updates["updated_at"] = time.Now()
	if name, ok := updates["name"].(string); ok {
		updates["slug"] = models.Slugify(name)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := s.collection("products").FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
		opts,
	).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a product. Returns false when nothing was deleted.
// Callers must refuse deletion while any order still references the product.
func (s *Store) DeleteProduct(ctx context.Context, id bson.ObjectID) (bool, error) {
	result, err := s.collection("products").DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

// ReserveStock atomically decrements stock and increments sold, but only
// when stock >= quantity. Returns false when the condition fails, which is
// the overselling guard under concurrent checkouts.
func (s *Store) ReserveStock(ctx context.Context, id bson.ObjectID, quantity int) (bool, error) {
	result, err := s.collection("products").UpdateOne(
		ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": quantity}},
		bson.M{
			"$inc": bson.M{"stock": -quantity, "sold": quantity},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// ReleaseStock is the inverse of ReserveStock: restores stock and decrements
// sold. Used by checkout compensation and by order cancellation.
func (s *Store) ReleaseStock(ctx context.Context, id bson.ObjectID, quantity int) error {
	_, err := s.collection("products").UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"stock": quantity, "sold": -quantity},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

// IncrementViews bumps the product view counter. Best-effort.
func (s *Store) IncrementViews(ctx context.Context, id bson.ObjectID) error {
	_, err := s.collection("products").UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"views": 1}},
	)
	return err
}

// ListCategories returns the distinct category names of active products.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	result := s.collection("products").Distinct(ctx, "categories", bson.M{"isActive": true})
	if result.Err() != nil {
		return nil, result.Err()
	}
	var categories []string
	if err := result.Decode(&categories); err != nil {
		return nil, err
	}
	return categories, nil
}
