package helpers

import (
	"testing"
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/dovl-commerce/dovl-backend/pkg/types"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func validAddress() types.Address {
	return types.Address{
		Title:    "Home",
		FullName: "Deniz Yilmaz",
		Address:  "Bagdat Cd. No:12",
		City:     "Istanbul",
		District: "Kadikoy",
		Phone:    "05551234567",
	}
}

func TestNormalizeContactDefaultsBilling(t *testing.T) {
	t.Parallel()

	out, err := NormalizeContact(Contact{
		Shipping: validAddress(),
		Method:   enums.PaymentMethodCreditCard,
		Email:    "  Guest@Example.com ",
		Guest:    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Billing == nil || out.Billing.City != "Istanbul" {
		t.Fatalf("expected billing to default to shipping, got %+v", out.Billing)
	}
	if out.Shipping.Country != types.DefaultCountry {
		t.Fatalf("expected default country, got %q", out.Shipping.Country)
	}
	if out.Email != "guest@example.com" {
		t.Fatalf("expected normalized email, got %q", out.Email)
	}
}

func TestNormalizeContactReportsEveryProblem(t *testing.T) {
	t.Parallel()

	bad := validAddress()
	bad.Phone = "123"
	_, err := NormalizeContact(Contact{
		Shipping: bad,
		Method:   "cheque",
		Guest:    true,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %T", typed.Details())
	}
	for _, field := range []string{"shipping_address.phone", "billing_address.phone", "payment_method", "email"} {
		if _, ok := details[field]; !ok {
			t.Fatalf("expected %s in details %+v", field, details)
		}
	}
}

func TestNormalizeContactSignedInSkipsEmail(t *testing.T) {
	t.Parallel()

	if _, err := NormalizeContact(Contact{Shipping: validAddress(), Method: enums.PaymentMethodCashOnDelivery}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NormalizeContact(Contact{Shipping: validAddress(), Method: enums.PaymentMethodCashOnDelivery, Email: "nope", Guest: true}); err == nil {
		t.Fatal("expected invalid guest email to fail")
	}
}

func TestBuildOrderFreezesCart(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	campaignID := primitive.NewObjectID()
	cart := &models.Cart{
		Items: []models.CartLine{
			{Product: primitive.NewObjectID(), Quantity: 2, ProductName: "Tee", Variant: models.LineVariant{SKU: "T-S"}, Price: decimal.NewFromInt(100), Subtotal: decimal.NewFromInt(200)},
			{Product: primitive.NewObjectID(), Quantity: 1, ProductName: "Cap", Variant: models.LineVariant{SKU: "C-1"}, Price: decimal.NewFromInt(100), Subtotal: decimal.NewFromInt(100)},
		},
		Campaign: &models.AppliedCampaign{ID: campaignID, Code: "SPRING10", DiscountAmount: decimal.NewFromInt(30)},
		Subtotal: decimal.NewFromInt(300),
		Total:    decimal.RequireFromString("348.5"),
	}
	contact := Contact{Shipping: validAddress(), Method: enums.PaymentMethodBankTransfer}

	order := BuildOrder(OrderSnapshot{Cart: cart, Email: "guest@example.com", Contact: contact, At: at})

	if !order.IsGuestCheckout || order.User != nil {
		t.Fatal("expected guest order")
	}
	if order.Status != enums.OrderStatusPending || len(order.Timeline) != 1 || order.Timeline[0].Status != enums.OrderStatusPending {
		t.Fatalf("unexpected initial state %+v", order.Timeline)
	}
	if len(order.Items) != 2 || order.Items[0].Variant.SKU != "T-S" {
		t.Fatalf("unexpected items %+v", order.Items)
	}
	if order.BillingAddress.City != "Istanbul" {
		t.Fatal("expected billing to fall back to shipping")
	}
	if !order.PaymentDetails.Amount.Equal(cart.Total) {
		t.Fatalf("expected payment amount %s, got %s", cart.Total, order.PaymentDetails.Amount)
	}

	cart.Campaign.Code = "MUTATED"
	if order.Campaign.Code != "SPRING10" {
		t.Fatal("order campaign must not alias the cart")
	}
	if ItemCount(cart) != 3 {
		t.Fatalf("expected 3 units, got %d", ItemCount(cart))
	}
}
