package orders

import (
	"net/http"
	"strings"
	"time"

	"github.com/dovl-commerce/dovl-backend/api/middleware"
	"github.com/dovl-commerce/dovl-backend/api/validators"
	internalorders "github.com/dovl-commerce/dovl-backend/internal/orders"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/dovl-commerce/dovl-backend/pkg/pagination"
	"github.com/dovl-commerce/dovl-backend/pkg/types"
)

// checkoutRequest addresses are validated by the checkout service after
// normalization, so the decoder skips them.
type checkoutRequest struct {
	ShippingAddress types.Address       `json:"shipping_address" validate:"-"`
	BillingAddress  *types.Address      `json:"billing_address,omitempty" validate:"-"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method" validate:"required"`
	Email           string              `json:"email,omitempty" validate:"omitempty,max=254"`
	Notes           string              `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type fulfillmentRequest struct {
	Status            *enums.OrderStatus   `json:"status,omitempty"`
	StatusDescription *string              `json:"status_description,omitempty" validate:"omitempty,max=500"`
	ShippingInfo      *shippingInfoRequest `json:"shipping_info,omitempty"`
	Notes             *string              `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type shippingInfoRequest struct {
	Carrier               string     `json:"carrier" validate:"max=100"`
	TrackingNumber        string     `json:"tracking_number" validate:"max=100"`
	TrackingURL           string     `json:"tracking_url" validate:"omitempty,url,max=500"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date,omitempty"`
}

func (req fulfillmentRequest) toInput() internalorders.FulfillmentInput {
	input := internalorders.FulfillmentInput{
		Status:            req.Status,
		StatusDescription: req.StatusDescription,
		Notes:             req.Notes,
	}
	if s := req.ShippingInfo; s != nil {
		input.ShippingInfo = &models.ShippingInfo{
			Carrier:               strings.TrimSpace(s.Carrier),
			TrackingNumber:        strings.TrimSpace(s.TrackingNumber),
			TrackingURL:           strings.TrimSpace(s.TrackingURL),
			EstimatedDeliveryDate: s.EstimatedDeliveryDate,
		}
	}
	return input
}

func actorFromRequest(r *http.Request) (internalorders.Actor, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == nil {
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return internalorders.Actor{UserID: *userID, Role: middleware.RoleFromContext(r.Context())}, nil
}

func parseListQuery(r *http.Request) (internalorders.ListQuery, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return internalorders.ListQuery{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return internalorders.ListQuery{}, err
	}
	query := internalorders.ListQuery{Page: pagination.Params{Page: page, Limit: limit}}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return internalorders.ListQuery{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").
				WithDetails(map[string]any{"field": "status"})
		}
		query.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
		userID, err := validators.ParseID(raw, "user_id")
		if err != nil {
			return internalorders.ListQuery{}, err
		}
		query.UserID = &userID
	}
	return query, nil
}
