package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CartItem keeps a price snapshot taken when the item was added. The
// snapshot is for display only; checkout always re-prices against the
// current catalog.
type CartItem struct {
	Product       bson.ObjectID `json:"product" bson:"product" validate:"required"`
	Quantity      int           `json:"quantity" bson:"quantity" validate:"required,gte=1"`
	Price         float64       `json:"price" bson:"price"`
	DiscountPrice *float64      `json:"discountPrice,omitempty" bson:"discountPrice,omitempty"`
}

// Cart is owned by exactly one registered user. Guests carry cart state
// client-side and never hit this collection.
type Cart struct {
	ID         bson.ObjectID `json:"id" bson:"_id,omitempty"`
	User       bson.ObjectID `json:"user" bson:"user" validate:"required"`
	Items      []CartItem    `json:"items" bson:"items"`
	TotalPrice float64       `json:"totalPrice" bson:"totalPrice"`
	CreatedAt  time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time     `json:"updatedAt" bson:"updated_at"`
}

// RecalculateTotal recomputes TotalPrice from the items. Must be called
// before every save; the total is never stored independent of the items.
func (c *Cart) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range c.Items {
		price := item.Price
		if item.DiscountPrice != nil {
			price = *item.DiscountPrice
		}
		line := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	c.TotalPrice = total.Round(2).InexactFloat64()
}

// FindItem returns the index of the item for the given product, or -1.
func (c *Cart) FindItem(productID bson.ObjectID) int {
	for i := range c.Items {
		if c.Items[i].Product == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) SetTimestamps() {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
}

type AddCartItemRequest struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}
