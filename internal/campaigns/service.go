package campaigns

import (
	"context"
	"fmt"

	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BuyerLoader resolves the purchase history of an authenticated caller.
type BuyerLoader interface {
	BuyerContext(ctx context.Context, userID primitive.ObjectID) (*BuyerContext, error)
}

type codeFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Campaign, error)
}

type activeLister interface {
	ListActive(ctx context.Context) ([]models.Campaign, error)
}

// Service exposes the storefront campaign reads.
type Service interface {
	Check(ctx context.Context, code string, subtotal decimal.Decimal, userID *primitive.ObjectID) (*CheckResult, error)
	ListActive(ctx context.Context) ([]models.Campaign, error)
}

// CheckResult is a campaign that would apply to a cart of the given subtotal.
type CheckResult struct {
	Campaign       *models.Campaign
	DiscountAmount decimal.Decimal
}

type service struct {
	repo      codeFinder
	active    activeLister
	buyers    BuyerLoader
	evaluator *Evaluator
}

func NewService(repo codeFinder, active activeLister, buyers BuyerLoader, evaluator *Evaluator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("campaign repository required")
	}
	if active == nil {
		return nil, fmt.Errorf("active campaign lister required")
	}
	if buyers == nil {
		return nil, fmt.Errorf("buyer loader required")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator required")
	}
	return &service{repo: repo, active: active, buyers: buyers, evaluator: evaluator}, nil
}

// Check evaluates code against a bare subtotal. Scope rules need the cart
// lines and are enforced when the code is applied to a cart.
func (s *service) Check(ctx context.Context, code string, subtotal decimal.Decimal, userID *primitive.ObjectID) (*CheckResult, error) {
	if NormalizeCode(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign code is required")
	}
	if subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart total must not be negative")
	}

	campaign, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}
	if campaign == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid campaign code")
	}

	var buyer *BuyerContext
	if userID != nil {
		buyer, err = s.buyers.BuyerContext(ctx, *userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer history")
		}
	}

	eval := s.evaluator.Evaluate(campaign, subtotal, buyer, nil)
	if !eval.Eligible {
		return nil, IneligibleError(eval.Reason)
	}
	return &CheckResult{Campaign: campaign, DiscountAmount: eval.DiscountAmount}, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.Campaign, error) {
	list, err := s.active.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list campaigns")
	}
	return list, nil
}

// IneligibleError maps a rejection reason to the typed error returned to
// callers applying or checking a code.
func IneligibleError(reason Reason) error {
	return pkgerrors.New(pkgerrors.CodeInvalidState, reason.Message()).
		WithDetails(map[string]string{"reason": string(reason)})
}
