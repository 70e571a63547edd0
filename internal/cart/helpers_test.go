package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dovl-commerce/dovl-backend/internal/campaigns"
	"github.com/dovl-commerce/dovl-backend/pkg/config"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func testRules() config.PricingConfig {
	return config.PricingConfig{
		TaxPercent:            d("18"),
		FreeShippingThreshold: d("300"),
		ShippingCost:          d("29.90"),
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-test", Level: zerolog.Disabled})
}

type stubCatalog struct {
	products map[primitive.ObjectID]*models.Product
	err      error
}

func newStubCatalog(products ...*models.Product) *stubCatalog {
	c := &stubCatalog{products: map[primitive.ObjectID]*models.Product{}}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (s *stubCatalog) FindActiveProduct(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok || !p.IsActive {
		return nil, nil
	}
	return p, nil
}

func (s *stubCatalog) FindActiveProducts(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := map[primitive.ObjectID]*models.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok && p.IsActive {
			out[id] = p
		}
	}
	return out, nil
}

type stubCampaigns struct {
	byID map[primitive.ObjectID]*models.Campaign
}

func newStubCampaigns(list ...*models.Campaign) *stubCampaigns {
	s := &stubCampaigns{byID: map[primitive.ObjectID]*models.Campaign{}}
	for _, c := range list {
		s.byID[c.ID] = c
	}
	return s
}

func (s *stubCampaigns) FindByID(_ context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	return s.byID[id], nil
}

func (s *stubCampaigns) FindActiveByCode(_ context.Context, code string) (*models.Campaign, error) {
	normalized := campaigns.NormalizeCode(code)
	for _, c := range s.byID {
		if c.Code == normalized && c.IsActive {
			return c, nil
		}
	}
	return nil, nil
}

type memRepo struct {
	mu      sync.Mutex
	carts   map[string]models.Cart
	saveErr error
	saves   int
}

func newMemRepo() *memRepo {
	return &memRepo{carts: map[string]models.Cart{}}
}

func (m *memRepo) Find(_ context.Context, identity Identity) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[identity.Key()]
	if !ok {
		return nil, nil
	}
	items := make([]models.CartLine, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return &c, nil
}

func (m *memRepo) Save(_ context.Context, identity Identity, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.carts[identity.Key()] = *cart
	return nil
}

func (m *memRepo) Delete(_ context.Context, identity Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, identity.Key())
	return nil
}

type stubBuyers struct {
	buyer *campaigns.BuyerContext
	err   error
}

func (s stubBuyers) BuyerContext(context.Context, primitive.ObjectID) (*campaigns.BuyerContext, error) {
	return s.buyer, s.err
}

var errStore = errors.New("store unavailable")

func product(price string, variants ...models.Variant) *models.Product {
	return &models.Product{
		ID:       primitive.NewObjectID(),
		Name:     "Oversize Tee",
		Slug:     "oversize-tee",
		Images:   []models.ProductImage{{URL: "https://cdn.example.com/tee.jpg"}},
		Price:    d(price),
		Category: primitive.NewObjectID(),
		Variants: variants,
		IsActive: true,
	}
}

func line(p *models.Product, sku string, qty int) models.CartLine {
	return models.CartLine{
		ID:       primitive.NewObjectID(),
		Product:  p.ID,
		Quantity: qty,
		Variant:  models.LineVariant{SKU: sku},
	}
}

func percentCampaign(value string) *models.Campaign {
	return &models.Campaign{
		ID:            primitive.NewObjectID(),
		Code:          "SAVE10",
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: d(value),
		ApplicableTo:  enums.CampaignScopeAllProducts,
		StartDate:     testNow.Add(-time.Hour),
		EndDate:       testNow.Add(time.Hour),
		IsActive:      true,
	}
}

func applied(c *models.Campaign) *models.AppliedCampaign {
	return &models.AppliedCampaign{ID: c.ID, Code: c.Code, DiscountType: c.DiscountType, DiscountValue: c.DiscountValue}
}

func newTestEngine(cat *stubCatalog, camps *stubCampaigns, repo *memRepo) *Engine {
	engine, err := NewEngine(cat, camps, campaigns.NewEvaluator(func() time.Time { return testNow }), repo, testRules(), testLogger(), nil)
	if err != nil {
		panic(err)
	}
	return engine
}
