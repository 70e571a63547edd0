package cart

import (
	"context"
	"testing"
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	if !got.Equal(d(want)) {
		t.Fatalf("%s: expected %s, got %s", field, want, got)
	}
}

func TestEnginePriceWithoutCampaign(t *testing.T) {
	p := product("100", models.Variant{SKU: "TEE-M", Size: "M", Stock: 5})
	engine := newTestEngine(newStubCatalog(p), newStubCampaigns(), newMemRepo())

	priced, err := engine.Price(context.Background(), &models.Cart{Items: []models.CartLine{line(p, "TEE-M", 3)}}, nil)
	require.NoError(t, err)

	c := priced.Cart
	assertDecimal(t, "300", c.Subtotal, "subtotal")
	assertDecimal(t, "0", c.DiscountAmount, "discount")
	assertDecimal(t, "54", c.TaxAmount, "tax")
	assertDecimal(t, "0", c.ShippingCost, "shipping")
	assertDecimal(t, "354", c.Total, "total")
	assert.False(t, priced.Adjustments.LinesChanged())
}

func TestEnginePriceWithPercentageCampaign(t *testing.T) {
	p := product("100", models.Variant{SKU: "TEE-M", Stock: 5})
	campaign := percentCampaign("10")
	engine := newTestEngine(newStubCatalog(p), newStubCampaigns(campaign), newMemRepo())

	stored := &models.Cart{Items: []models.CartLine{line(p, "TEE-M", 3)}, Campaign: applied(campaign)}
	priced, err := engine.Price(context.Background(), stored, nil)
	require.NoError(t, err)

	c := priced.Cart
	assertDecimal(t, "300", c.Subtotal, "subtotal")
	assertDecimal(t, "30", c.DiscountAmount, "discount")
	assertDecimal(t, "48.6", c.TaxAmount, "tax")
	assertDecimal(t, "29.90", c.ShippingCost, "shipping")
	assertDecimal(t, "348.5", c.Total, "total")
	require.NotNil(t, c.Campaign)
	assertDecimal(t, "30", c.Campaign.DiscountAmount, "campaign discount")
}

func TestEngineFreeShippingBoundary(t *testing.T) {
	cases := []struct {
		price    string
		shipping string
	}{
		{price: "300", shipping: "0"},
		{price: "299.99", shipping: "29.90"},
		{price: "300.01", shipping: "0"},
	}
	for _, tc := range cases {
		t.Run(tc.price, func(t *testing.T) {
			p := product(tc.price, models.Variant{SKU: "SKU", Stock: 1})
			engine := newTestEngine(newStubCatalog(p), newStubCampaigns(), newMemRepo())

			priced, err := engine.Price(context.Background(), &models.Cart{Items: []models.CartLine{line(p, "SKU", 1)}}, nil)
			require.NoError(t, err)
			assertDecimal(t, tc.shipping, priced.Cart.ShippingCost, "shipping")
		})
	}
}

func TestEngineClampsAndDropsLines(t *testing.T) {
	p := product("50",
		models.Variant{SKU: "LOW", Stock: 2},
		models.Variant{SKU: "OUT", Stock: 0},
	)
	inactive := product("10", models.Variant{SKU: "GONE", Stock: 10})
	inactive.IsActive = false
	engine := newTestEngine(newStubCatalog(p, inactive), newStubCampaigns(), newMemRepo())

	stored := &models.Cart{Items: []models.CartLine{
		line(p, "LOW", 5),
		line(p, "OUT", 1),
		line(p, "REMOVED-SKU", 1),
		line(inactive, "GONE", 1),
		{ID: primitive.NewObjectID(), Product: primitive.NewObjectID(), Quantity: 1, Variant: models.LineVariant{SKU: "X"}},
	}}

	priced, err := engine.Price(context.Background(), stored, nil)
	require.NoError(t, err)

	require.Len(t, priced.Cart.Items, 1)
	assert.Equal(t, "LOW", priced.Cart.Items[0].Variant.SKU)
	assert.Equal(t, 2, priced.Cart.Items[0].Quantity)
	assertDecimal(t, "100", priced.Cart.Items[0].Subtotal, "line subtotal")
	assert.Equal(t, 1, priced.Adjustments.ClampedLines)
	assert.Equal(t, 4, priced.Adjustments.DroppedLines)
	assert.True(t, priced.Adjustments.LinesChanged())

	assert.Len(t, stored.Items, 5, "stored cart must not be mutated")
	assert.Equal(t, 5, stored.Items[0].Quantity)
}

func TestEngineRefreshesDisplayFieldsAndSalePrice(t *testing.T) {
	p := product("120", models.Variant{SKU: "TEE-L", Size: "L", ColorName: "Black", ColorHex: "#000000", Stock: 3})
	sale := d("90")
	p.SalePrice = &sale
	engine := newTestEngine(newStubCatalog(p), newStubCampaigns(), newMemRepo())

	stale := line(p, "TEE-L", 2)
	stale.ProductName = "old name"
	stale.Price = d("1")

	priced, err := engine.Price(context.Background(), &models.Cart{Items: []models.CartLine{stale}}, nil)
	require.NoError(t, err)

	got := priced.Cart.Items[0]
	assert.Equal(t, stale.ID, got.ID)
	assert.Equal(t, "Oversize Tee", got.ProductName)
	assert.Equal(t, "https://cdn.example.com/tee.jpg", got.ProductImage)
	assert.Equal(t, "Black", got.Variant.ColorName)
	assertDecimal(t, "90", got.Price, "unit price")
	assertDecimal(t, "120", got.OriginalPrice, "original price")
	assertDecimal(t, "180", got.Subtotal, "line subtotal")
}

func TestEngineUsesSalePriceEvenAboveBase(t *testing.T) {
	p := product("100", models.Variant{SKU: "S", Stock: 1})
	higher := d("120")
	p.SalePrice = &higher
	engine := newTestEngine(newStubCatalog(p), newStubCampaigns(), newMemRepo())

	priced, err := engine.Price(context.Background(), &models.Cart{Items: []models.CartLine{line(p, "S", 1)}}, nil)
	require.NoError(t, err)
	assertDecimal(t, "120", priced.Cart.Items[0].Price, "unit price")
	assertDecimal(t, "100", priced.Cart.Items[0].OriginalPrice, "original price")
	assertDecimal(t, "120", priced.Cart.Subtotal, "subtotal")
}

func TestEngineClearsIneligibleCampaign(t *testing.T) {
	p := product("100", models.Variant{SKU: "S", Stock: 5})
	expired := percentCampaign("10")
	expired.EndDate = testNow.Add(-time.Minute)
	engine := newTestEngine(newStubCatalog(p), newStubCampaigns(expired), newMemRepo())

	priced, err := engine.Price(context.Background(), &models.Cart{
		Items:    []models.CartLine{line(p, "S", 1)},
		Campaign: applied(expired),
	}, nil)
	require.NoError(t, err)

	assert.Nil(t, priced.Cart.Campaign)
	assert.True(t, priced.Adjustments.CampaignCleared)
	assert.Equal(t, "expired", string(priced.Adjustments.CampaignReason))
	assertDecimal(t, "0", priced.Cart.DiscountAmount, "discount")
}

func TestEngineClearsDeletedCampaign(t *testing.T) {
	p := product("100", models.Variant{SKU: "S", Stock: 5})
	ghost := percentCampaign("10")
	engine := newTestEngine(newStubCatalog(p), newStubCampaigns(), newMemRepo())

	priced, err := engine.Price(context.Background(), &models.Cart{
		Items:    []models.CartLine{line(p, "S", 1)},
		Campaign: applied(ghost),
	}, nil)
	require.NoError(t, err)
	assert.True(t, priced.Adjustments.CampaignCleared)
}

func TestEngineNonNegativeTotals(t *testing.T) {
	p := product("40", models.Variant{SKU: "S", Stock: 5})
	fixed := percentCampaign("0")
	fixed.DiscountType = enums.DiscountTypeFixedAmount
	fixed.DiscountValue = d("1000")
	engine := newTestEngine(newStubCatalog(p), newStubCampaigns(fixed), newMemRepo())

	priced, err := engine.Price(context.Background(), &models.Cart{
		Items:    []models.CartLine{line(p, "S", 2)},
		Campaign: applied(fixed),
	}, nil)
	require.NoError(t, err)

	c := priced.Cart
	assertDecimal(t, "80", c.DiscountAmount, "discount")
	assert.False(t, c.DiscountAmount.GreaterThan(c.Subtotal))
	assertDecimal(t, "0", c.TaxAmount, "tax")
	assertDecimal(t, "29.90", c.ShippingCost, "shipping")
	assertDecimal(t, "29.90", c.Total, "total")
}

func TestEngineEmptyCartHasZeroTotals(t *testing.T) {
	engine := newTestEngine(newStubCatalog(), newStubCampaigns(), newMemRepo())

	priced, err := engine.Price(context.Background(), &models.Cart{}, nil)
	require.NoError(t, err)
	assert.Empty(t, priced.Cart.Items)
	assert.True(t, priced.Cart.Total.IsZero())
	assert.True(t, priced.Cart.ShippingCost.IsZero())
}

func TestEnginePriceIsIdempotent(t *testing.T) {
	p := product("33.33", models.Variant{SKU: "S", Stock: 9})
	campaign := percentCampaign("12.5")
	repo := newMemRepo()
	engine := newTestEngine(newStubCatalog(p), newStubCampaigns(campaign), repo)
	identity := SessionIdentity("b8a1d0f8-8b53-4a35-9a0c-0f0f1f6b7c11")

	first, err := engine.Commit(context.Background(), identity, &models.Cart{
		Items:    []models.CartLine{line(p, "S", 7)},
		Campaign: applied(campaign),
	}, nil)
	require.NoError(t, err)

	reloaded, err := repo.Find(context.Background(), identity)
	require.NoError(t, err)
	second, err := engine.Commit(context.Background(), identity, reloaded, nil)
	require.NoError(t, err)

	for _, pair := range []struct {
		name string
		a, b decimal.Decimal
	}{
		{"subtotal", first.Cart.Subtotal, second.Cart.Subtotal},
		{"discount", first.Cart.DiscountAmount, second.Cart.DiscountAmount},
		{"tax", first.Cart.TaxAmount, second.Cart.TaxAmount},
		{"shipping", first.Cart.ShippingCost, second.Cart.ShippingCost},
		{"total", first.Cart.Total, second.Cart.Total},
	} {
		if pair.a.String() != pair.b.String() {
			t.Fatalf("%s drifted between recomputes: %s vs %s", pair.name, pair.a, pair.b)
		}
	}
}

func TestEngineRecomputeSwallowsSaveFailure(t *testing.T) {
	p := product("100", models.Variant{SKU: "S", Stock: 5})
	repo := newMemRepo()
	repo.saveErr = errStore
	engine := newTestEngine(newStubCatalog(p), newStubCampaigns(), repo)
	identity := SessionIdentity("b8a1d0f8-8b53-4a35-9a0c-0f0f1f6b7c11")

	priced, err := engine.Recompute(context.Background(), identity, &models.Cart{Items: []models.CartLine{line(p, "S", 1)}}, nil)
	require.NoError(t, err)
	assertDecimal(t, "100", priced.Cart.Subtotal, "subtotal")
	assert.Equal(t, 1, repo.saves)

	_, err = engine.Commit(context.Background(), identity, &models.Cart{Items: []models.CartLine{line(p, "S", 1)}}, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestEnginePriceFailsOnCatalogError(t *testing.T) {
	cat := newStubCatalog()
	cat.err = errStore
	engine := newTestEngine(cat, newStubCampaigns(), newMemRepo())

	_, err := engine.Recompute(context.Background(), SessionIdentity("x"), &models.Cart{}, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
