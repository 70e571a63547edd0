package models

import (
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"github.com/dovl-commerce/dovl-backend/pkg/types"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is the frozen result of a checkout. Only Status, ShippingInfo,
// Timeline, Notes and DeliveredAt change after creation.
type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty"`
	OrderNumber     string              `bson:"orderNumber"`
	User            *primitive.ObjectID `bson:"user"`
	UserEmail       string              `bson:"userEmail"`
	IsGuestCheckout bool                `bson:"isGuestCheckout"`
	Items           []OrderItem         `bson:"items"`
	ShippingAddress types.Address       `bson:"shippingAddress"`
	BillingAddress  types.Address       `bson:"billingAddress"`
	PaymentMethod   enums.PaymentMethod `bson:"paymentMethod"`
	PaymentDetails  PaymentDetails      `bson:"paymentDetails"`
	Campaign        *AppliedCampaign    `bson:"campaign"`
	Subtotal        decimal.Decimal     `bson:"subtotal"`
	DiscountAmount  decimal.Decimal     `bson:"discountAmount"`
	TaxAmount       decimal.Decimal     `bson:"taxAmount"`
	ShippingCost    decimal.Decimal     `bson:"shippingCost"`
	Total           decimal.Decimal     `bson:"total"`
	Status          enums.OrderStatus   `bson:"status"`
	Notes           string              `bson:"notes,omitempty"`
	ShippingInfo    ShippingInfo        `bson:"shippingInfo"`
	Timeline        []TimelineEvent     `bson:"timeline"`
	IsPaid          bool                `bson:"isPaid"`
	PaidAt          *time.Time          `bson:"paidAt,omitempty"`
	DeliveredAt     *time.Time          `bson:"deliveredAt,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt"`
}

// OrderItem is a cart line frozen at checkout.
type OrderItem struct {
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

type PaymentDetails struct {
	Reference     string              `bson:"reference,omitempty"`
	Provider      string              `bson:"provider,omitempty"`
	TransactionID string              `bson:"transactionId,omitempty"`
	Amount        decimal.Decimal     `bson:"amount"`
	Status        enums.PaymentStatus `bson:"status,omitempty"`
}

type ShippingInfo struct {
	Carrier               string     `bson:"carrier,omitempty"`
	TrackingNumber        string     `bson:"trackingNumber,omitempty"`
	TrackingURL           string     `bson:"trackingUrl,omitempty"`
	EstimatedDeliveryDate *time.Time `bson:"estimatedDeliveryDate,omitempty"`
}

type TimelineEvent struct {
	Status      enums.OrderStatus `bson:"status"`
	Date        time.Time         `bson:"date"`
	Description string            `bson:"description,omitempty"`
}

// FreezeLine copies a priced cart line into its order form.
func FreezeLine(line CartLine) OrderItem {
	return OrderItem{
		Product:       line.Product,
		Quantity:      line.Quantity,
		ProductName:   line.ProductName,
		ProductSlug:   line.ProductSlug,
		ProductImage:  line.ProductImage,
		Variant:       line.Variant,
		Price:         line.Price,
		OriginalPrice: line.OriginalPrice,
		Subtotal:      line.Subtotal,
	}
}
