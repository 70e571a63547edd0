package cart

import (
	"context"
	"fmt"

	"github.com/dovl-commerce/dovl-backend/internal/campaigns"
	"github.com/dovl-commerce/dovl-backend/internal/catalog"
	"github.com/dovl-commerce/dovl-backend/pkg/config"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
	"github.com/dovl-commerce/dovl-backend/pkg/metrics"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var hundred = decimal.NewFromInt(100)

// Adjustments lists what pricing changed relative to the stored cart.
type Adjustments struct {
	DroppedLines    int
	ClampedLines    int
	CampaignCleared bool
	CampaignReason  campaigns.Reason
}

// LinesChanged reports whether any line was dropped or had its quantity cut.
func (a Adjustments) LinesChanged() bool {
	return a.DroppedLines > 0 || a.ClampedLines > 0
}

// Priced is a cart with every derived field recomputed from live state.
type Priced struct {
	Cart        *models.Cart
	Adjustments Adjustments
	// Categories maps each surviving line's product to its category.
	Categories map[primitive.ObjectID]primitive.ObjectID
}

// Engine recomputes carts against the live catalog and campaign state.
type Engine struct {
	catalog   catalogReader
	campaigns campaignLookup
	evaluator *campaigns.Evaluator
	repo      CartRepository
	rules     config.PricingConfig
	logg      *logger.Logger
	metrics   *metrics.CartMetrics
}

func NewEngine(
	catalogRepo catalogReader,
	campaignRepo campaignLookup,
	evaluator *campaigns.Evaluator,
	repo CartRepository,
	rules config.PricingConfig,
	logg *logger.Logger,
	cartMetrics *metrics.CartMetrics,
) (*Engine, error) {
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if campaignRepo == nil {
		return nil, fmt.Errorf("campaign lookup required")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("campaign evaluator required")
	}
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Engine{
		catalog:   catalogRepo,
		campaigns: campaignRepo,
		evaluator: evaluator,
		repo:      repo,
		rules:     rules,
		logg:      logg,
		metrics:   cartMetrics,
	}, nil
}

// Price recomputes stored without persisting it. stored is never mutated.
// Missing products, variants and campaigns are absorbed; store failures are
// returned because a cart priced on partial data must not be saved.
func (e *Engine) Price(ctx context.Context, stored *models.Cart, buyer *campaigns.BuyerContext) (*Priced, error) {
	if stored == nil {
		return nil, fmt.Errorf("cart is nil")
	}

	out := *stored
	out.Items = make([]models.CartLine, 0, len(stored.Items))
	out.Campaign = nil
	result := &Priced{Cart: &out, Categories: map[primitive.ObjectID]primitive.ObjectID{}}

	ids := make([]primitive.ObjectID, 0, len(stored.Items))
	for _, line := range stored.Items {
		ids = append(ids, line.Product)
	}
	products, err := e.catalog.FindActiveProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}

	subtotal := decimal.Zero
	scoped := make([]campaigns.ScopedLine, 0, len(stored.Items))
	for _, line := range stored.Items {
		product := products[line.Product]
		variant := catalog.FindVariant(product, line.Variant.SKU)
		if variant == nil || line.Quantity <= 0 {
			result.Adjustments.DroppedLines++
			continue
		}

		qty := line.Quantity
		if qty > variant.Stock {
			qty = variant.Stock
		}
		if qty <= 0 {
			result.Adjustments.DroppedLines++
			continue
		}
		if qty < line.Quantity {
			result.Adjustments.ClampedLines++
		}

		priced := priceLine(line, product, variant, qty)
		out.Items = append(out.Items, priced)
		subtotal = subtotal.Add(priced.Subtotal)
		result.Categories[product.ID] = product.Category
		scoped = append(scoped, campaigns.ScopedLine{
			Product:  product.ID,
			Category: product.Category,
			Subtotal: priced.Subtotal,
		})
	}

	discount := decimal.Zero
	if stored.Campaign != nil {
		applied, eval, err := e.evaluateApplied(ctx, stored.Campaign, subtotal, buyer, scoped)
		if err != nil {
			return nil, err
		}
		if applied == nil {
			result.Adjustments.CampaignCleared = true
			result.Adjustments.CampaignReason = eval.Reason
		} else {
			out.Campaign = applied
			discount = applied.DiscountAmount
		}
	}

	e.applyTotals(&out, subtotal, discount)
	return result, nil
}

func (e *Engine) evaluateApplied(
	ctx context.Context,
	ref *models.AppliedCampaign,
	subtotal decimal.Decimal,
	buyer *campaigns.BuyerContext,
	lines []campaigns.ScopedLine,
) (*models.AppliedCampaign, campaigns.Evaluation, error) {
	campaign, err := e.campaigns.FindByID(ctx, ref.ID)
	if err != nil {
		return nil, campaigns.Evaluation{}, fmt.Errorf("load campaign %s: %w", ref.ID.Hex(), err)
	}
	if campaign == nil {
		return nil, campaigns.Evaluation{Reason: campaigns.ReasonInactive}, nil
	}

	eval := e.evaluator.Evaluate(campaign, subtotal, buyer, lines)
	if !eval.Eligible {
		return nil, eval, nil
	}
	return &models.AppliedCampaign{
		ID:             campaign.ID,
		Code:           campaign.Code,
		DiscountType:   campaign.DiscountType,
		DiscountValue:  campaign.DiscountValue,
		DiscountAmount: eval.DiscountAmount,
	}, eval, nil
}

func priceLine(line models.CartLine, product *models.Product, variant *models.Variant, qty int) models.CartLine {
	unit := product.UnitPrice()
	return models.CartLine{
		ID:           line.ID,
		Product:      product.ID,
		Quantity:     qty,
		ProductName:  product.Name,
		ProductSlug:  product.Slug,
		ProductImage: product.ImageURL(),
		Variant: models.LineVariant{
			Size:      variant.Size,
			ColorName: variant.ColorName,
			ColorHex:  variant.ColorHex,
			SKU:       variant.SKU,
		},
		Price:         unit,
		OriginalPrice: product.Price,
		Subtotal:      unit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// applyTotals derives tax, shipping and total. An empty cart ships nothing and
// carries no shipping charge.
func (e *Engine) applyTotals(c *models.Cart, subtotal, discount decimal.Decimal) {
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	taxBase := nonNegative(subtotal.Sub(discount))
	tax := nonNegative(taxBase.Mul(e.rules.TaxPercent).Div(hundred))

	shipping := e.rules.ShippingCost
	if len(c.Items) == 0 || taxBase.GreaterThanOrEqual(e.rules.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	c.Subtotal = subtotal
	c.DiscountAmount = discount
	c.TaxAmount = tax
	c.ShippingCost = shipping
	c.Total = nonNegative(taxBase.Add(tax).Add(shipping))
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Recompute prices and saves the cart on a read path. A failed save is logged
// and the computed cart is still returned.
func (e *Engine) Recompute(ctx context.Context, identity Identity, stored *models.Cart, buyer *campaigns.BuyerContext) (*Priced, error) {
	priced, err := e.Price(ctx, stored, buyer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "price cart")
	}
	if err := e.persist(ctx, identity, priced); err != nil {
		e.metrics.IncPersistFailure()
		e.logg.Error(e.logg.WithCartKey(ctx, identity.Key()), "failed to save recomputed cart", err)
	}
	return priced, nil
}

// Commit prices and saves the cart on a mutation path. A failed save fails
// the call so the caller's change is never silently lost.
func (e *Engine) Commit(ctx context.Context, identity Identity, stored *models.Cart, buyer *campaigns.BuyerContext) (*Priced, error) {
	priced, err := e.Price(ctx, stored, buyer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "price cart")
	}
	if err := e.commitPriced(ctx, identity, priced); err != nil {
		return nil, err
	}
	return priced, nil
}

func (e *Engine) commitPriced(ctx context.Context, identity Identity, priced *Priced) error {
	if err := e.persist(ctx, identity, priced); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart")
	}
	return nil
}

func (e *Engine) persist(ctx context.Context, identity Identity, priced *Priced) error {
	e.recordAdjustments(ctx, identity, priced.Adjustments)
	return e.repo.Save(ctx, identity, priced.Cart)
}

func (e *Engine) recordAdjustments(ctx context.Context, identity Identity, adj Adjustments) {
	if !adj.LinesChanged() && !adj.CampaignCleared {
		return
	}
	e.metrics.AddAdjustments("dropped", adj.DroppedLines)
	e.metrics.AddAdjustments("clamped", adj.ClampedLines)
	if adj.CampaignCleared {
		e.metrics.AddAdjustments("campaign_cleared", 1)
	}
	ctx = e.logg.WithFields(ctx, map[string]any{
		"cart_key":         identity.Key(),
		"dropped_lines":    adj.DroppedLines,
		"clamped_lines":    adj.ClampedLines,
		"campaign_cleared": adj.CampaignCleared,
		"campaign_reason":  string(adj.CampaignReason),
	})
	e.logg.Info(ctx, "cart adjusted during pricing")
}
