package cart

import (
	"net/http"

	cartdto "github.com/dovl-commerce/dovl-backend/api/controllers/cart/dto"
	"github.com/dovl-commerce/dovl-backend/api/middleware"
	"github.com/dovl-commerce/dovl-backend/api/validators"
	cartsvc "github.com/dovl-commerce/dovl-backend/internal/cart"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
)

func identityFromRequest(r *http.Request) (cartsvc.Identity, error) {
	identity, ok := middleware.CartIdentityFromContext(r.Context())
	if !ok || !identity.Valid() {
		return cartsvc.Identity{}, pkgerrors.New(pkgerrors.CodeInternal, "cart identity unavailable")
	}
	return identity, nil
}

func toAddLineInput(payload cartdto.AddItemRequest) (cartsvc.AddLineInput, error) {
	productID, err := validators.ParseID(payload.ProductID, "product_id")
	if err != nil {
		return cartsvc.AddLineInput{}, err
	}
	qty := 1
	if payload.Quantity != nil {
		qty = *payload.Quantity
	}
	return cartsvc.AddLineInput{
		ProductID: productID,
		SKU:       validators.SanitizeString(payload.VariantSKU, 64),
		Quantity:  qty,
	}, nil
}
