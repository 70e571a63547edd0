// Package reservation takes variant stock for a set of order lines as a unit.
package reservation

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

type stockKeeper interface {
	DecrementVariantStock(ctx context.Context, productID primitive.ObjectID, sku string, qty int) (bool, error)
	ReleaseVariantStock(ctx context.Context, productID primitive.ObjectID, sku string, qty int) error
}

// InventoryReservationRequest asks for qty units of one variant.
type InventoryReservationRequest struct {
	ProductID primitive.ObjectID
	SKU       string
	Qty       int
}

// ShortageError reports the first request that could not be satisfied.
// ReleaseErr carries any failure returning the earlier reservations.
type ShortageError struct {
	Request    InventoryReservationRequest
	ReleaseErr error
}

func (e *ShortageError) Error() string {
	return fmt.Sprintf("insufficient stock for %s/%s (requested %d)", e.Request.ProductID.Hex(), e.Request.SKU, e.Request.Qty)
}

// Held is the set of reservations taken so far.
type Held []InventoryReservationRequest

// Release returns every held reservation, continuing past failures.
func (h Held) Release(ctx context.Context, keeper stockKeeper) error {
	var err error
	for i := len(h) - 1; i >= 0; i-- {
		req := h[i]
		if rerr := keeper.ReleaseVariantStock(ctx, req.ProductID, req.SKU, req.Qty); rerr != nil {
			err = multierr.Append(err, fmt.Errorf("release %s/%s: %w", req.ProductID.Hex(), req.SKU, rerr))
		}
	}
	return err
}

// ReserveInventory decrements stock for every request or for none. A
// request that finds too little stock yields *ShortageError; a store failure
// is returned wrapped. Either way earlier reservations are released.
func ReserveInventory(ctx context.Context, keeper stockKeeper, requests []InventoryReservationRequest) (Held, error) {
	held := make(Held, 0, len(requests))
	for _, req := range requests {
		if req.Qty <= 0 {
			releaseErr := held.Release(ctx, keeper)
			return nil, multierr.Append(fmt.Errorf("invalid reservation quantity %d for %s", req.Qty, req.SKU), releaseErr)
		}

		ok, err := keeper.DecrementVariantStock(ctx, req.ProductID, req.SKU, req.Qty)
		if err != nil {
			releaseErr := held.Release(ctx, keeper)
			return nil, multierr.Append(fmt.Errorf("reserve %s/%s: %w", req.ProductID.Hex(), req.SKU, err), releaseErr)
		}
		if !ok {
			return nil, &ShortageError{Request: req, ReleaseErr: held.Release(ctx, keeper)}
		}
		held = append(held, req)
	}
	return held, nil
}
