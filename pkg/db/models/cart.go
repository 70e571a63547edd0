package models

import (
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cart is keyed by exactly one of User or SessionID. Line display fields and
// every aggregate are caches rewritten on each pricing pass.
type Cart struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty"`
	User               *primitive.ObjectID `bson:"user,omitempty"`
	SessionID          string              `bson:"sessionId,omitempty"`
	Items              []CartLine          `bson:"items"`
	Campaign           *AppliedCampaign    `bson:"campaign,omitempty"`
	Subtotal           decimal.Decimal     `bson:"subtotal"`
	DiscountAmount     decimal.Decimal     `bson:"discountAmount"`
	TaxAmount          decimal.Decimal     `bson:"taxAmount"`
	ShippingCost       decimal.Decimal     `bson:"shippingCost"`
	Total              decimal.Decimal     `bson:"total"`
	AnonymousUpdatedAt *time.Time          `bson:"anonymousUpdatedAt,omitempty"`
	CreatedAt          time.Time           `bson:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt"`
}

// CartLine references a product variant by SKU. Everything after Quantity is
// derived from the live product.
type CartLine struct {
	ID            primitive.ObjectID `bson:"_id"`
	Product       primitive.ObjectID `bson:"product"`
	Quantity      int                `bson:"quantity"`
	ProductName   string             `bson:"productName"`
	ProductSlug   string             `bson:"productSlug"`
	ProductImage  string             `bson:"productImage"`
	Variant       LineVariant        `bson:"variant"`
	Price         decimal.Decimal    `bson:"price"`
	OriginalPrice decimal.Decimal    `bson:"originalPrice"`
	Subtotal      decimal.Decimal    `bson:"subtotal"`
}

type LineVariant struct {
	Size      string `bson:"size"`
	ColorName string `bson:"colorName"`
	ColorHex  string `bson:"colorHex"`
	SKU       string `bson:"sku"`
}

// AppliedCampaign records the campaign attached to a cart or frozen on an order.
type AppliedCampaign struct {
	ID             primitive.ObjectID `bson:"id"`
	Code           string             `bson:"code"`
	DiscountType   enums.DiscountType `bson:"discountType"`
	DiscountValue  decimal.Decimal    `bson:"discountValue"`
	DiscountAmount decimal.Decimal    `bson:"discountAmount"`
}
