package controllers

import (
	"net/http"
	"time"

	"github.com/dovl-commerce/dovl-backend/api/responses"
	"github.com/dovl-commerce/dovl-backend/api/validators"
	"github.com/dovl-commerce/dovl-backend/internal/campaigns"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type campaignDetailResponse struct {
	campaignResponse
	MaxUses            *int      `json:"max_uses,omitempty"`
	UsagePerCustomer   int       `json:"usage_per_customer"`
	UsageCount         int       `json:"usage_count"`
	IsActive           bool      `json:"is_active"`
	ShowInStore        bool      `json:"show_in_store"`
	Categories         []string  `json:"categories"`
	Products           []string  `json:"products"`
	ExcludedCategories []string  `json:"excluded_categories"`
	ExcludedProducts   []string  `json:"excluded_products"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type campaignCreateRequest struct {
	Name               string              `json:"name" validate:"required,min=3,max=150"`
	Code               string              `json:"code" validate:"omitempty,min=3,max=50"`
	Description        string              `json:"description" validate:"max=1000"`
	DiscountType       enums.DiscountType  `json:"discount_type" validate:"required"`
	DiscountValue      decimal.Decimal     `json:"discount_value"`
	MinPurchaseAmount  *decimal.Decimal    `json:"min_purchase_amount"`
	MaxDiscount        *decimal.Decimal    `json:"max_discount"`
	MaxUses            *int                `json:"max_uses" validate:"omitempty,min=1"`
	UsagePerCustomer   *int                `json:"usage_per_customer" validate:"omitempty,min=0"`
	ApplicableTo       enums.CampaignScope `json:"applicable_to"`
	Categories         []string            `json:"categories"`
	Products           []string            `json:"products"`
	ExcludedCategories []string            `json:"excluded_categories"`
	ExcludedProducts   []string            `json:"excluded_products"`
	ForNewCustomers    bool                `json:"for_new_customers"`
	ShowInStore        *bool               `json:"show_in_store"`
	StartDate          time.Time           `json:"start_date" validate:"required"`
	EndDate            time.Time           `json:"end_date" validate:"required"`
	IsActive           *bool               `json:"is_active"`
}

type campaignUpdateRequest struct {
	Name               *string              `json:"name" validate:"omitempty,min=3,max=150"`
	Description        *string              `json:"description" validate:"omitempty,max=1000"`
	DiscountType       *enums.DiscountType  `json:"discount_type"`
	DiscountValue      *decimal.Decimal     `json:"discount_value"`
	MinPurchaseAmount  *decimal.Decimal     `json:"min_purchase_amount"`
	MaxDiscount        *decimal.Decimal     `json:"max_discount"`
	MaxUses            *int                 `json:"max_uses" validate:"omitempty,min=1"`
	UsagePerCustomer   *int                 `json:"usage_per_customer" validate:"omitempty,min=0"`
	ApplicableTo       *enums.CampaignScope `json:"applicable_to"`
	Categories         *[]string            `json:"categories"`
	Products           *[]string            `json:"products"`
	ExcludedCategories *[]string            `json:"excluded_categories"`
	ExcludedProducts   *[]string            `json:"excluded_products"`
	ForNewCustomers    *bool                `json:"for_new_customers"`
	ShowInStore        *bool                `json:"show_in_store"`
	StartDate          *time.Time           `json:"start_date"`
	EndDate            *time.Time           `json:"end_date"`
	IsActive           *bool                `json:"is_active"`
}

func newCampaignDetailResponse(c *models.Campaign) campaignDetailResponse {
	return campaignDetailResponse{
		campaignResponse:   newCampaignResponse(c),
		MaxUses:            c.MaxUses,
		UsagePerCustomer:   c.UsagePerCustomer,
		UsageCount:         c.UsageCount,
		IsActive:           c.IsActive,
		ShowInStore:        c.ShowInStore,
		Categories:         hexIDs(c.Categories),
		Products:           hexIDs(c.Products),
		ExcludedCategories: hexIDs(c.ExcludedCategories),
		ExcludedProducts:   hexIDs(c.ExcludedProducts),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func (req campaignCreateRequest) draft() (campaigns.Draft, error) {
	draft := campaigns.Draft{
		Name:              req.Name,
		Code:              req.Code,
		Description:       validators.SanitizeString(req.Description, 1000),
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		MinPurchaseAmount: req.MinPurchaseAmount,
		MaxDiscount:       req.MaxDiscount,
		MaxUses:           req.MaxUses,
		UsagePerCustomer:  req.UsagePerCustomer,
		ApplicableTo:      req.ApplicableTo,
		ForNewCustomers:   req.ForNewCustomers,
		ShowInStore:       req.ShowInStore,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		IsActive:          req.IsActive,
	}
	var err error
	if draft.Categories, err = parseIDs(req.Categories, "categories"); err != nil {
		return draft, err
	}
	if draft.Products, err = parseIDs(req.Products, "products"); err != nil {
		return draft, err
	}
	if draft.ExcludedCategories, err = parseIDs(req.ExcludedCategories, "excluded_categories"); err != nil {
		return draft, err
	}
	if draft.ExcludedProducts, err = parseIDs(req.ExcludedProducts, "excluded_products"); err != nil {
		return draft, err
	}
	return draft, nil
}

func (req campaignUpdateRequest) patch() (campaigns.Patch, error) {
	patch := campaigns.Patch{
		Name:              req.Name,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		MinPurchaseAmount: req.MinPurchaseAmount,
		MaxDiscount:       req.MaxDiscount,
		MaxUses:           req.MaxUses,
		UsagePerCustomer:  req.UsagePerCustomer,
		ApplicableTo:      req.ApplicableTo,
		ForNewCustomers:   req.ForNewCustomers,
		ShowInStore:       req.ShowInStore,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		IsActive:          req.IsActive,
	}
	if req.Description != nil {
		description := validators.SanitizeString(*req.Description, 1000)
		patch.Description = &description
	}
	lists := []struct {
		raw   *[]string
		dest  **[]primitive.ObjectID
		field string
	}{
		{req.Categories, &patch.Categories, "categories"},
		{req.Products, &patch.Products, "products"},
		{req.ExcludedCategories, &patch.ExcludedCategories, "excluded_categories"},
		{req.ExcludedProducts, &patch.ExcludedProducts, "excluded_products"},
	}
	for _, list := range lists {
		if list.raw == nil {
			continue
		}
		ids, err := parseIDs(*list.raw, list.field)
		if err != nil {
			return patch, err
		}
		if ids == nil {
			ids = []primitive.ObjectID{}
		}
		*list.dest = &ids
	}
	return patch, nil
}

// CampaignDetail returns one campaign by id.
func CampaignDetail(svc campaigns.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign admin unavailable"))
			return
		}

		id, err := validators.ParseID(chi.URLParam(r, "campaignId"), "campaignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaign, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCampaignDetailResponse(campaign))
	}
}

// CampaignCreate adds a campaign. A missing code is generated.
func CampaignCreate(svc campaigns.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign admin unavailable"))
			return
		}

		var payload campaignCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		draft, err := payload.draft()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaign, err := svc.Create(r.Context(), draft)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCampaignDetailResponse(campaign))
	}
}

func CampaignUpdate(svc campaigns.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign admin unavailable"))
			return
		}

		id, err := validators.ParseID(chi.URLParam(r, "campaignId"), "campaignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload campaignUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		patch, err := payload.patch()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaign, err := svc.Update(r.Context(), id, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCampaignDetailResponse(campaign))
	}
}

func CampaignDelete(svc campaigns.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign admin unavailable"))
			return
		}

		id, err := validators.ParseID(chi.URLParam(r, "campaignId"), "campaignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseIDs(raw []string, field string) ([]primitive.ObjectID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]primitive.ObjectID, 0, len(raw))
	for _, value := range raw {
		id, err := validators.ParseID(value, field)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}
