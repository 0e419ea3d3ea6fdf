package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Oak Dining Table", "oak-dining-table"},
		{"  Velvet Sofa (3-Seater)!  ", "velvet-sofa-3-seater"},
		{"Chaise Longue", "chaise-longue"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.name))
	}
}

func TestEffectivePrice(t *testing.T) {
	discount := 1199.0

	full := &Product{Price: 1500}
	assert.Equal(t, 1500.0, full.EffectivePrice())

	discounted := &Product{Price: 1500, DiscountPrice: &discount}
	assert.Equal(t, 1199.0, discounted.EffectivePrice())
}

func TestCreateProductRequestToProduct(t *testing.T) {
	req := CreateProductRequest{
		Name:   "Teak Coffee Table",
		Price:  2400,
		Stock:  5,
		Images: []ProductImage{{URL: "https://cdn.example.com/table.jpg"}},
	}

	product := req.ToProduct()

	assert.False(t, product.ID.IsZero())
	assert.Equal(t, "teak-coffee-table", product.Slug)
	assert.True(t, product.IsActive)
	assert.NotNil(t, product.Categories)
	assert.False(t, product.CreatedAt.IsZero())
}
