package orders

import (
	"net/http"

	"github.com/dovl-commerce/dovl-backend/api/middleware"
	"github.com/dovl-commerce/dovl-backend/api/responses"
	"github.com/dovl-commerce/dovl-backend/api/validators"
	"github.com/dovl-commerce/dovl-backend/internal/checkout"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
)

// Checkout turns the caller's cart into an order. Anonymous callers must
// supply an email.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		identity, ok := middleware.CartIdentityFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart identity unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), checkout.Input{
			Identity:        identity,
			ShippingAddress: payload.ShippingAddress,
			BillingAddress:  payload.BillingAddress,
			PaymentMethod:   payload.PaymentMethod,
			GuestEmail:      payload.Email,
			Notes:           validators.SanitizeString(payload.Notes, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OrderID:     result.OrderID.Hex(),
			OrderNumber: result.OrderNumber,
		})
	}
}
