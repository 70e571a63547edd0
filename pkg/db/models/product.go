package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry. Stock lives on the variants; TotalStock and
// SalesCount are aggregates maintained alongside variant stock changes.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Slug        string             `bson:"slug"`
	Description string             `bson:"description,omitempty"`
	Images      []ProductImage     `bson:"images,omitempty"`
	Price       decimal.Decimal    `bson:"price"`
	SalePrice   *decimal.Decimal   `bson:"salePrice,omitempty"`
	Category    primitive.ObjectID `bson:"category,omitempty"`
	Variants    []Variant          `bson:"variants"`
	TotalStock  int                `bson:"totalStock"`
	SalesCount  int                `bson:"salesCount"`
	ViewCount   int                `bson:"viewCount"`
	IsActive    bool               `bson:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type ProductImage struct {
	URL    string `bson:"url"`
	Alt    string `bson:"alt,omitempty"`
	IsMain bool   `bson:"isMain,omitempty"`
}

// Variant is a purchasable size/color combination. SKU is unique across the
// whole catalog.
type Variant struct {
	Size      string `bson:"size"`
	ColorName string `bson:"colorName"`
	ColorHex  string `bson:"colorHex"`
	SKU       string `bson:"sku"`
	Stock     int    `bson:"stock"`
}

// UnitPrice returns the sale price whenever one is set, even above the base
// price.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// ImageURL returns the first image URL, or "" when the product has none.
func (p *Product) ImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}
