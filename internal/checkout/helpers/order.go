package helpers

import (
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const orderCreatedDescription = "Order created"

// OrderSnapshot is what an order is frozen from.
type OrderSnapshot struct {
	Cart    *models.Cart
	User    *primitive.ObjectID
	Email   string
	Contact Contact
	Notes   string
	At      time.Time
}

// BuildOrder freezes a priced cart into a pending order. The order number
// and payment outcome are filled in by the caller.
func BuildOrder(s OrderSnapshot) *models.Order {
	items := make([]models.OrderItem, 0, len(s.Cart.Items))
	for _, line := range s.Cart.Items {
		items = append(items, models.FreezeLine(line))
	}

	var campaign *models.AppliedCampaign
	if s.Cart.Campaign != nil {
		c := *s.Cart.Campaign
		campaign = &c
	}

	billing := s.Contact.Shipping
	if s.Contact.Billing != nil {
		billing = *s.Contact.Billing
	}

	return &models.Order{
		User:            s.User,
		UserEmail:       s.Email,
		IsGuestCheckout: s.User == nil,
		Items:           items,
		ShippingAddress: s.Contact.Shipping,
		BillingAddress:  billing,
		PaymentMethod:   s.Contact.Method,
		PaymentDetails:  models.PaymentDetails{Amount: s.Cart.Total},
		Campaign:        campaign,
		Subtotal:        s.Cart.Subtotal,
		DiscountAmount:  s.Cart.DiscountAmount,
		TaxAmount:       s.Cart.TaxAmount,
		ShippingCost:    s.Cart.ShippingCost,
		Total:           s.Cart.Total,
		Status:          enums.OrderStatusPending,
		Notes:           s.Notes,
		Timeline: []models.TimelineEvent{
			{Status: enums.OrderStatusPending, Date: s.At, Description: orderCreatedDescription},
		},
		CreatedAt: s.At,
	}
}

// ItemCount sums the quantities on a cart.
func ItemCount(c *models.Cart) int {
	n := 0
	for _, line := range c.Items {
		n += line.Quantity
	}
	return n
}
