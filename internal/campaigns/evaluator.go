package campaigns

import (
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reason explains why a campaign was rejected.
type Reason string

const (
	ReasonInactive              Reason = "inactive"
	ReasonNotStarted            Reason = "not_started"
	ReasonExpired               Reason = "expired"
	ReasonUsageLimitReached     Reason = "usage_limit_reached"
	ReasonMinPurchaseNotMet     Reason = "min_purchase_not_met"
	ReasonNewCustomersOnly      Reason = "new_customers_only"
	ReasonCustomerLimitReached  Reason = "customer_limit_reached"
	ReasonCategoryNotApplicable Reason = "category_not_applicable"
	ReasonProductNotApplicable  Reason = "product_not_applicable"
)

var reasonMessages = map[Reason]string{
	ReasonInactive:              "campaign is not active",
	ReasonNotStarted:            "campaign has not started yet",
	ReasonExpired:               "campaign has expired",
	ReasonUsageLimitReached:     "campaign usage limit reached",
	ReasonMinPurchaseNotMet:     "cart subtotal is below the campaign minimum",
	ReasonNewCustomersOnly:      "campaign is only valid for a first order",
	ReasonCustomerLimitReached:  "campaign already used the maximum number of times",
	ReasonCategoryNotApplicable: "campaign does not apply to any product category in the cart",
	ReasonProductNotApplicable:  "campaign does not apply to any product in the cart",
}

// Message returns the user-facing explanation for r.
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return "campaign is not applicable"
}

// BuyerContext is the purchase history of a known buyer.
type BuyerContext struct {
	UserID       primitive.ObjectID
	Email        string
	OrderCount   int
	CampaignUses map[primitive.ObjectID]int
}

// UsesOf returns how many times the buyer redeemed the campaign.
func (b *BuyerContext) UsesOf(campaignID primitive.ObjectID) int {
	if b == nil || b.CampaignUses == nil {
		return 0
	}
	return b.CampaignUses[campaignID]
}

// ScopedLine is the slice of a priced cart line the evaluator looks at.
type ScopedLine struct {
	Product  primitive.ObjectID
	Category primitive.ObjectID
	Subtotal decimal.Decimal
}

// Evaluation is the outcome of checking a campaign against a cart.
type Evaluation struct {
	Eligible       bool
	DiscountAmount decimal.Decimal
	Reason         Reason
}

func rejected(reason Reason) Evaluation {
	return Evaluation{Reason: reason, DiscountAmount: decimal.Zero}
}

// Evaluator decides campaign eligibility and computes the discount.
type Evaluator struct {
	now func() time.Time
}

// NewEvaluator builds an evaluator. A nil clock defaults to time.Now.
func NewEvaluator(now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{now: now}
}

// Evaluate checks campaign against the cart subtotal. buyer is nil for
// anonymous carts, which skips the per-buyer checks. lines nil means the cart
// composition is unknown: scope checks are skipped and the whole subtotal is
// the discount base.
func (e *Evaluator) Evaluate(campaign *models.Campaign, subtotal decimal.Decimal, buyer *BuyerContext, lines []ScopedLine) Evaluation {
	if campaign == nil || !campaign.IsActive {
		return rejected(ReasonInactive)
	}

	now := e.now()
	if now.Before(campaign.StartDate) {
		return rejected(ReasonNotStarted)
	}
	if now.After(campaign.EndDate) {
		return rejected(ReasonExpired)
	}
	if campaign.MaxUses != nil && campaign.UsageCount >= *campaign.MaxUses {
		return rejected(ReasonUsageLimitReached)
	}
	if campaign.MinPurchaseAmount != nil && subtotal.LessThan(*campaign.MinPurchaseAmount) {
		return rejected(ReasonMinPurchaseNotMet)
	}

	if buyer != nil {
		if campaign.ForNewCustomers && buyer.OrderCount > 0 {
			return rejected(ReasonNewCustomersOnly)
		}
		if campaign.UsagePerCustomer > 0 && buyer.UsesOf(campaign.ID) >= campaign.UsagePerCustomer {
			return rejected(ReasonCustomerLimitReached)
		}
	}

	base := subtotal
	if lines != nil {
		var matched bool
		base, matched = applicableBase(campaign, lines)
		if !matched {
			if campaign.ApplicableTo == enums.CampaignScopeSpecificCategories {
				return rejected(ReasonCategoryNotApplicable)
			}
			return rejected(ReasonProductNotApplicable)
		}
	}

	return Evaluation{
		Eligible:       true,
		DiscountAmount: discountFor(campaign, base),
	}
}

// applicableBase sums the subtotals of lines the campaign covers. matched is
// false when the cart has lines and none of them is covered.
func applicableBase(campaign *models.Campaign, lines []ScopedLine) (decimal.Decimal, bool) {
	if len(lines) == 0 {
		return decimal.Zero, campaign.ApplicableTo == enums.CampaignScopeAllProducts || campaign.ApplicableTo == ""
	}

	excludedProducts := idSet(campaign.ExcludedProducts)
	excludedCategories := idSet(campaign.ExcludedCategories)
	categories := idSet(campaign.Categories)
	products := idSet(campaign.Products)

	base := decimal.Zero
	matched := false
	for _, line := range lines {
		if _, ok := excludedProducts[line.Product]; ok {
			continue
		}
		if _, ok := excludedCategories[line.Category]; ok {
			continue
		}
		switch campaign.ApplicableTo {
		case enums.CampaignScopeSpecificCategories:
			if _, ok := categories[line.Category]; !ok {
				continue
			}
		case enums.CampaignScopeSpecificProducts:
			if _, ok := products[line.Product]; !ok {
				continue
			}
		}
		matched = true
		base = base.Add(line.Subtotal)
	}
	return base, matched
}

func discountFor(campaign *models.Campaign, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch campaign.DiscountType {
	case enums.DiscountTypePercentage:
		amount = base.Mul(campaign.DiscountValue).Div(decimal.NewFromInt(100))
		if campaign.MaxDiscount != nil && amount.GreaterThan(*campaign.MaxDiscount) {
			amount = *campaign.MaxDiscount
		}
	case enums.DiscountTypeFixedAmount:
		amount = campaign.DiscountValue
	default:
		return decimal.Zero
	}

	if amount.GreaterThan(base) {
		amount = base
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]struct{} {
	set := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
