package cart

import (
	"context"
	"fmt"

	"github.com/dovl-commerce/dovl-backend/internal/campaigns"
	"github.com/dovl-commerce/dovl-backend/internal/catalog"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Service exposes the cart operations behind the storefront cart routes.
// Every call returns the freshly priced cart.
type Service interface {
	GetCart(ctx context.Context, identity Identity) (*Priced, error)
	AddLine(ctx context.Context, identity Identity, input AddLineInput) (*Priced, error)
	UpdateLineQuantity(ctx context.Context, identity Identity, itemID primitive.ObjectID, quantity int) (*Priced, error)
	RemoveLine(ctx context.Context, identity Identity, itemID primitive.ObjectID) (*Priced, error)
	ApplyCampaign(ctx context.Context, identity Identity, code string) (*Priced, error)
	RemoveCampaign(ctx context.Context, identity Identity) (*Priced, error)
}

// AddLineInput identifies the variant to add and how many units.
type AddLineInput struct {
	ProductID primitive.ObjectID
	SKU       string
	Quantity  int
}

type service struct {
	repo      CartRepository
	engine    *Engine
	catalog   catalogReader
	campaigns campaignLookup
	buyers    campaigns.BuyerLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, engine *Engine, catalogRepo catalogReader, campaignRepo campaignLookup, buyers campaigns.BuyerLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if campaignRepo == nil {
		return nil, fmt.Errorf("campaign lookup required")
	}
	if buyers == nil {
		return nil, fmt.Errorf("buyer loader required")
	}
	return &service{
		repo:      repo,
		engine:    engine,
		catalog:   catalogRepo,
		campaigns: campaignRepo,
		buyers:    buyers,
	}, nil
}

// GetCart returns the priced cart, creating an empty one on first access.
func (s *service) GetCart(ctx context.Context, identity Identity) (*Priced, error) {
	stored, err := s.loadOrNew(ctx, identity)
	if err != nil {
		return nil, err
	}
	buyer, err := s.buyerFor(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.engine.Recompute(ctx, identity, stored, buyer)
}

// AddLine adds quantity units of a variant, merging with an existing line for
// the same product and SKU.
func (s *service) AddLine(ctx context.Context, identity Identity, input AddLineInput) (*Priced, error) {
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant sku is required")
	}

	_, variant, err := s.loadVariant(ctx, input.ProductID, input.SKU)
	if err != nil {
		return nil, err
	}
	if variant.Stock < input.Quantity {
		return nil, insufficientStock(variant.Stock)
	}

	stored, err := s.loadOrNew(ctx, identity)
	if err != nil {
		return nil, err
	}

	merged := false
	items := make([]models.CartLine, len(stored.Items))
	copy(items, stored.Items)
	for i := range items {
		if items[i].Product != input.ProductID || items[i].Variant.SKU != input.SKU {
			continue
		}
		next := items[i].Quantity + input.Quantity
		if next > variant.Stock {
			return nil, insufficientStock(max(variant.Stock-items[i].Quantity, 0))
		}
		items[i].Quantity = next
		merged = true
		break
	}
	if !merged {
		items = append(items, models.CartLine{
			ID:       primitive.NewObjectID(),
			Product:  input.ProductID,
			Quantity: input.Quantity,
			Variant:  models.LineVariant{SKU: input.SKU},
		})
	}
	stored.Items = items

	return s.commit(ctx, identity, stored)
}

// UpdateLineQuantity sets the quantity of one line. A line whose product or
// variant vanished is removed instead.
func (s *service) UpdateLineQuantity(ctx context.Context, identity Identity, itemID primitive.ObjectID, quantity int) (*Priced, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	stored, err := s.loadExisting(ctx, identity)
	if err != nil {
		return nil, err
	}
	idx := lineIndex(stored.Items, itemID)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	line := stored.Items[idx]
	product, err := s.catalog.FindActiveProduct(ctx, line.Product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	variant := catalog.FindVariant(product, line.Variant.SKU)
	if variant == nil {
		stored.Items = removeAt(stored.Items, idx)
		return s.commit(ctx, identity, stored)
	}
	if quantity > variant.Stock {
		return nil, insufficientStock(variant.Stock)
	}

	items := make([]models.CartLine, len(stored.Items))
	copy(items, stored.Items)
	items[idx].Quantity = quantity
	stored.Items = items

	return s.commit(ctx, identity, stored)
}

func (s *service) RemoveLine(ctx context.Context, identity Identity, itemID primitive.ObjectID) (*Priced, error) {
	stored, err := s.loadExisting(ctx, identity)
	if err != nil {
		return nil, err
	}
	idx := lineIndex(stored.Items, itemID)
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	stored.Items = removeAt(stored.Items, idx)
	return s.commit(ctx, identity, stored)
}

// ApplyCampaign attaches code to the cart. Unlike background repricing, an
// ineligible campaign is reported to the caller.
func (s *service) ApplyCampaign(ctx context.Context, identity Identity, code string) (*Priced, error) {
	if campaigns.NormalizeCode(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign code is required")
	}

	stored, err := s.loadExisting(ctx, identity)
	if err != nil {
		return nil, err
	}
	if len(stored.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "cart is empty")
	}

	campaign, err := s.campaigns.FindActiveByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}
	if campaign == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid or inactive campaign code")
	}

	buyer, err := s.buyerFor(ctx, identity)
	if err != nil {
		return nil, err
	}

	candidate := *stored
	candidate.Campaign = &models.AppliedCampaign{
		ID:            campaign.ID,
		Code:          campaign.Code,
		DiscountType:  campaign.DiscountType,
		DiscountValue: campaign.DiscountValue,
	}
	priced, err := s.engine.Price(ctx, &candidate, buyer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "price cart")
	}
	if priced.Adjustments.CampaignCleared {
		return nil, campaigns.IneligibleError(priced.Adjustments.CampaignReason)
	}
	if err := s.engine.commitPriced(ctx, identity, priced); err != nil {
		return nil, err
	}
	return priced, nil
}

func (s *service) RemoveCampaign(ctx context.Context, identity Identity) (*Priced, error) {
	stored, err := s.loadExisting(ctx, identity)
	if err != nil {
		return nil, err
	}
	stored.Campaign = nil
	return s.commit(ctx, identity, stored)
}

func (s *service) commit(ctx context.Context, identity Identity, stored *models.Cart) (*Priced, error) {
	buyer, err := s.buyerFor(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.engine.Commit(ctx, identity, stored, buyer)
}

func (s *service) loadVariant(ctx context.Context, productID primitive.ObjectID, sku string) (*models.Product, *models.Variant, error) {
	product, err := s.catalog.FindActiveProduct(ctx, productID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found or inactive")
	}
	variant := catalog.FindVariant(product, sku)
	if variant == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
	}
	return product, variant, nil
}

func (s *service) loadExisting(ctx context.Context, identity Identity) (*models.Cart, error) {
	if !identity.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	stored, err := s.repo.Find(ctx, identity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if stored == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return stored, nil
}

func (s *service) loadOrNew(ctx context.Context, identity Identity) (*models.Cart, error) {
	if !identity.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart identity is required")
	}
	stored, err := s.repo.Find(ctx, identity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if stored == nil {
		stored = &models.Cart{Items: []models.CartLine{}}
	}
	return stored, nil
}

func (s *service) buyerFor(ctx context.Context, identity Identity) (*campaigns.BuyerContext, error) {
	if !identity.IsUser() {
		return nil, nil
	}
	buyer, err := s.buyers.BuyerContext(ctx, *identity.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer history")
	}
	return buyer, nil
}

func insufficientStock(available int) error {
	return pkgerrors.New(pkgerrors.CodeInvalidState, "insufficient stock").
		WithDetails(map[string]int{"available": available})
}

func lineIndex(items []models.CartLine, id primitive.ObjectID) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func removeAt(items []models.CartLine, idx int) []models.CartLine {
	out := make([]models.CartLine, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}
