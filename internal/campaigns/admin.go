package campaigns

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	generatedCodeLen     = 8
	maxCodeAttempts      = 5
	codeAlphabet         = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultUsagePerBuyer = 1
	minNameLen           = 3
	maxNameLen           = 150
)

var codePattern = regexp.MustCompile(`^[A-Z0-9_]{3,50}$`)

type adminStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	Insert(ctx context.Context, campaign *models.Campaign) error
	Update(ctx context.Context, id primitive.ObjectID, patch Patch) (*models.Campaign, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
}

type listingInvalidator interface {
	Invalidate(ctx context.Context)
}

// AdminService manages the campaign catalog. Routes that reach it are limited
// to administrators; Get is also served to the storefront.
type AdminService interface {
	Create(ctx context.Context, draft Draft) (*models.Campaign, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	Update(ctx context.Context, id primitive.ObjectID, patch Patch) (*models.Campaign, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Draft is a new campaign. An empty Code is replaced by a generated one; nil
// UsagePerCustomer, IsActive and ShowInStore take their defaults (1, true,
// true) and an empty ApplicableTo means all products.
type Draft struct {
	Name               string
	Code               string
	Description        string
	DiscountType       enums.DiscountType
	DiscountValue      decimal.Decimal
	MinPurchaseAmount  *decimal.Decimal
	MaxDiscount        *decimal.Decimal
	MaxUses            *int
	UsagePerCustomer   *int
	ApplicableTo       enums.CampaignScope
	Categories         []primitive.ObjectID
	Products           []primitive.ObjectID
	ExcludedCategories []primitive.ObjectID
	ExcludedProducts   []primitive.ObjectID
	ForNewCustomers    bool
	ShowInStore        *bool
	StartDate          time.Time
	EndDate            time.Time
	IsActive           *bool
}

// Patch changes an existing campaign. Nil fields are left untouched. The code
// and usage count cannot be changed.
type Patch struct {
	Name               *string
	Description        *string
	DiscountType       *enums.DiscountType
	DiscountValue      *decimal.Decimal
	MinPurchaseAmount  *decimal.Decimal
	MaxDiscount        *decimal.Decimal
	MaxUses            *int
	UsagePerCustomer   *int
	ApplicableTo       *enums.CampaignScope
	Categories         *[]primitive.ObjectID
	Products           *[]primitive.ObjectID
	ExcludedCategories *[]primitive.ObjectID
	ExcludedProducts   *[]primitive.ObjectID
	ForNewCustomers    *bool
	ShowInStore        *bool
	StartDate          *time.Time
	EndDate            *time.Time
	IsActive           *bool
}

func (p Patch) empty() bool {
	return len(p.fields()) == 0
}

func (p Patch) apply(c models.Campaign) models.Campaign {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.DiscountType != nil {
		c.DiscountType = *p.DiscountType
	}
	if p.DiscountValue != nil {
		c.DiscountValue = *p.DiscountValue
	}
	if p.MinPurchaseAmount != nil {
		c.MinPurchaseAmount = p.MinPurchaseAmount
	}
	if p.MaxDiscount != nil {
		c.MaxDiscount = p.MaxDiscount
	}
	if p.MaxUses != nil {
		c.MaxUses = p.MaxUses
	}
	if p.UsagePerCustomer != nil {
		c.UsagePerCustomer = *p.UsagePerCustomer
	}
	if p.ApplicableTo != nil {
		c.ApplicableTo = *p.ApplicableTo
	}
	if p.Categories != nil {
		c.Categories = *p.Categories
	}
	if p.Products != nil {
		c.Products = *p.Products
	}
	if p.ExcludedCategories != nil {
		c.ExcludedCategories = *p.ExcludedCategories
	}
	if p.ExcludedProducts != nil {
		c.ExcludedProducts = *p.ExcludedProducts
	}
	if p.ForNewCustomers != nil {
		c.ForNewCustomers = *p.ForNewCustomers
	}
	if p.ShowInStore != nil {
		c.ShowInStore = *p.ShowInStore
	}
	if p.StartDate != nil {
		c.StartDate = p.StartDate.UTC()
	}
	if p.EndDate != nil {
		c.EndDate = p.EndDate.UTC()
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	return c
}

type adminService struct {
	repo    adminStore
	listing listingInvalidator
	logg    *logger.Logger
	newCode func() string
}

// NewAdminService builds the campaign admin service. listing may be nil when
// the active listing is not cached.
func NewAdminService(repo adminStore, listing listingInvalidator, logg *logger.Logger) (AdminService, error) {
	if repo == nil {
		return nil, fmt.Errorf("campaign repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &adminService{repo: repo, listing: listing, logg: logg, newCode: generateCode}, nil
}

func (s *adminService) Create(ctx context.Context, draft Draft) (*models.Campaign, error) {
	campaign := draft.toModel()
	generated := campaign.Code == ""
	if generated {
		campaign.Code = s.newCode()
	}
	if err := validateCampaign(campaign); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		err := s.repo.Insert(ctx, &campaign)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrDuplicateCode) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create campaign")
		}
		if !generated || attempt >= maxCodeAttempts {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "campaign code already in use").
				WithDetails(map[string]string{"code": campaign.Code})
		}
		campaign.Code = s.newCode()
	}

	s.invalidate(ctx)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"campaign_id": campaign.ID.Hex(), "code": campaign.Code}), "campaign.created")
	return &campaign, nil
}

func (s *adminService) Get(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}
	if campaign == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	}
	return campaign, nil
}

func (s *adminService) Update(ctx context.Context, id primitive.ObjectID, patch Patch) (*models.Campaign, error) {
	if patch.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateCampaign(patch.apply(*current)); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update campaign")
	}
	if updated == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	}

	s.invalidate(ctx)
	s.logg.Info(s.logg.WithField(ctx, "campaign_id", id.Hex()), "campaign.updated")
	return updated, nil
}

func (s *adminService) Delete(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete campaign")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	}

	s.invalidate(ctx)
	s.logg.Info(s.logg.WithField(ctx, "campaign_id", id.Hex()), "campaign.deleted")
	return nil
}

func (s *adminService) invalidate(ctx context.Context) {
	if s.listing != nil {
		s.listing.Invalidate(ctx)
	}
}

func (d Draft) toModel() models.Campaign {
	usagePerCustomer := defaultUsagePerBuyer
	if d.UsagePerCustomer != nil {
		usagePerCustomer = *d.UsagePerCustomer
	}
	scope := d.ApplicableTo
	if scope == "" {
		scope = enums.CampaignScopeAllProducts
	}
	return models.Campaign{
		Name:               strings.TrimSpace(d.Name),
		Code:               NormalizeCode(d.Code),
		Description:        strings.TrimSpace(d.Description),
		DiscountType:       d.DiscountType,
		DiscountValue:      d.DiscountValue,
		MinPurchaseAmount:  d.MinPurchaseAmount,
		MaxDiscount:        d.MaxDiscount,
		MaxUses:            d.MaxUses,
		UsagePerCustomer:   usagePerCustomer,
		ApplicableTo:       scope,
		Categories:         d.Categories,
		Products:           d.Products,
		ExcludedCategories: d.ExcludedCategories,
		ExcludedProducts:   d.ExcludedProducts,
		ForNewCustomers:    d.ForNewCustomers,
		ShowInStore:        boolOr(d.ShowInStore, true),
		StartDate:          d.StartDate.UTC(),
		EndDate:            d.EndDate.UTC(),
		IsActive:           boolOr(d.IsActive, true),
	}
}

func validateCampaign(c models.Campaign) error {
	details := map[string]string{}
	if n := len(strings.TrimSpace(c.Name)); n < minNameLen || n > maxNameLen {
		details["name"] = fmt.Sprintf("must be %d to %d characters", minNameLen, maxNameLen)
	}
	if !codePattern.MatchString(c.Code) {
		details["code"] = "must be 3 to 50 upper-case letters, digits or underscores"
	}
	if !c.DiscountType.IsValid() {
		details["discount_type"] = "is invalid"
	}
	if !c.DiscountValue.IsPositive() {
		details["discount_value"] = "must be greater than 0"
	} else if c.DiscountType == enums.DiscountTypePercentage && c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		details["discount_value"] = "must be at most 100 for percentage campaigns"
	}
	if c.MinPurchaseAmount != nil && c.MinPurchaseAmount.IsNegative() {
		details["min_purchase_amount"] = "must not be negative"
	}
	if c.MaxDiscount != nil && c.MaxDiscount.IsNegative() {
		details["max_discount"] = "must not be negative"
	}
	if c.MaxUses != nil && *c.MaxUses < 1 {
		details["max_uses"] = "must be at least 1"
	}
	if c.UsagePerCustomer < 0 {
		details["usage_per_customer"] = "must not be negative"
	}
	if !c.ApplicableTo.IsValid() {
		details["applicable_to"] = "is invalid"
	}
	switch {
	case c.StartDate.IsZero():
		details["start_date"] = "is required"
	case c.EndDate.IsZero():
		details["end_date"] = "is required"
	case c.EndDate.Before(c.StartDate):
		details["end_date"] = "must not be before start_date"
	}

	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid campaign").WithDetails(details)
	}
	return nil
}

// generateCode derives an 8 character code from a random uuid.
func generateCode() string {
	id := uuid.New()
	out := make([]byte, generatedCodeLen)
	for i := range out {
		out[i] = codeAlphabet[int(id[i])%len(codeAlphabet)]
	}
	return string(out)
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
