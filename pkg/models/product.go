package models

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ProductImage is a CDN-hosted image reference. Upload/storage happens
// outside this service; we only keep the URL.
type ProductImage struct {
	URL string `json:"url" bson:"url" validate:"required,url"`
	Alt string `json:"alt,omitempty" bson:"alt,omitempty"`
}

// Ratings represents product review statistics
type Ratings struct {
	Average float64 `json:"average" bson:"average" validate:"gte=0,lte=5"`
	Count   int     `json:"count" bson:"count" validate:"gte=0"`
}

// Product represents a catalog item. Stock and Sold are mutated only through
// the store's atomic increment operations, never read-modify-write.
type Product struct {
	ID            bson.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name          string         `json:"name" bson:"name" validate:"required,min=2,max=200"`
	Slug          string         `json:"slug" bson:"slug"`
	Description   string         `json:"description,omitempty" bson:"description,omitempty" validate:"max=2000"`
	Price         float64        `json:"price" bson:"price" validate:"gte=0"`
	DiscountPrice *float64       `json:"discountPrice,omitempty" bson:"discountPrice,omitempty" validate:"omitempty,gte=0"`
	Stock         int            `json:"stock" bson:"stock" validate:"gte=0"`
	Sold          int            `json:"sold" bson:"sold" validate:"gte=0"`
	Categories    []string       `json:"categories" bson:"categories"`
	Subcategories []string       `json:"subcategories,omitempty" bson:"subcategories,omitempty"`
	Images        []ProductImage `json:"images" bson:"images" validate:"required,min=1,dive"`
	Material      string         `json:"material,omitempty" bson:"material,omitempty"`
	IsFeatured    bool           `json:"isFeatured" bson:"isFeatured"`
	IsActive      bool           `json:"isActive" bson:"isActive"`
	Ratings       Ratings        `json:"ratings" bson:"ratings"`
	Views         int            `json:"views" bson:"views"`
	CreatedAt     time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updated_at"`
}

// EffectivePrice is the unit price charged at checkout: the discount price
// when one is set, the list price otherwise.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// PrimaryImage returns the first image URL, or "" for an image-less record.
func (p *Product) PrimaryImage() string {
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

func (p *Product) SetTimestamps() {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from the product name.
func Slugify(name string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

type CreateProductRequest struct {
	Name          string         `json:"name" binding:"required"`
	Description   string         `json:"description"`
	Price         float64        `json:"price" binding:"gte=0"`
	DiscountPrice *float64       `json:"discountPrice"`
	Stock         int            `json:"stock" binding:"gte=0"`
	Categories    []string       `json:"categories"`
	Subcategories []string       `json:"subcategories"`
	Images        []ProductImage `json:"images" binding:"required,min=1,dive"`
	Material      string         `json:"material"`
	IsFeatured    bool           `json:"isFeatured"`
}

func (req *CreateProductRequest) ToProduct() *Product {
	product := &Product{
		ID:            bson.NewObjectID(),
		Name:          req.Name,
		Slug:          Slugify(req.Name),
		Description:   req.Description,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Stock:         req.Stock,
		Categories:    req.Categories,
		Subcategories: req.Subcategories,
		Images:        req.Images,
		Material:      req.Material,
		IsFeatured:    req.IsFeatured,
		IsActive:      true,
	}
	if product.Categories == nil {
		product.Categories = []string{}
	}
	product.SetTimestamps()
	return product
}
