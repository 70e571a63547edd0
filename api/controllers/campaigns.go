package controllers

import (
	"net/http"
	"time"

	"github.com/dovl-commerce/dovl-backend/api/middleware"
	"github.com/dovl-commerce/dovl-backend/api/responses"
	"github.com/dovl-commerce/dovl-backend/api/validators"
	"github.com/dovl-commerce/dovl-backend/internal/campaigns"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
	"github.com/dovl-commerce/dovl-backend/pkg/types"
)

type campaignResponse struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Code              string              `json:"code"`
	Description       string              `json:"description,omitempty"`
	DiscountType      enums.DiscountType  `json:"discount_type"`
	DiscountValue     types.Money         `json:"discount_value"`
	MinPurchaseAmount *types.Money        `json:"min_purchase_amount,omitempty"`
	MaxDiscount       *types.Money        `json:"max_discount,omitempty"`
	ApplicableTo      enums.CampaignScope `json:"applicable_to"`
	ForNewCustomers   bool                `json:"for_new_customers"`
	StartDate         time.Time           `json:"start_date"`
	EndDate           time.Time           `json:"end_date"`
}

type campaignCheckResponse struct {
	Campaign       campaignResponse `json:"campaign"`
	DiscountAmount types.Money      `json:"discount_amount"`
}

type campaignCheckRequest struct {
	Code string `json:"code" validate:"required,min=1,max=64"`
}

func newCampaignResponse(c *models.Campaign) campaignResponse {
	out := campaignResponse{
		ID:              c.ID.Hex(),
		Name:            c.Name,
		Code:            c.Code,
		Description:     c.Description,
		DiscountType:    c.DiscountType,
		DiscountValue:   types.NewMoney(c.DiscountValue),
		ApplicableTo:    c.ApplicableTo,
		ForNewCustomers: c.ForNewCustomers,
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
	}
	if c.MinPurchaseAmount != nil {
		m := types.NewMoney(*c.MinPurchaseAmount)
		out.MinPurchaseAmount = &m
	}
	if c.MaxDiscount != nil {
		m := types.NewMoney(*c.MaxDiscount)
		out.MaxDiscount = &m
	}
	return out
}

// CampaignCheck previews the discount a code would give on a cart total
// passed as ?cartTotal=.
func CampaignCheck(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		subtotal, err := validators.ParseQueryAmount(r, "cartTotal")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload campaignCheckRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Check(r.Context(), payload.Code, subtotal, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, campaignCheckResponse{
			Campaign:       newCampaignResponse(result.Campaign),
			DiscountAmount: types.NewMoney(result.DiscountAmount),
		})
	}
}

// CampaignList returns the campaigns currently redeemable in the store.
func CampaignList(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		active, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]campaignResponse, 0, len(active))
		for i := range active {
			out = append(out, newCampaignResponse(&active[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
