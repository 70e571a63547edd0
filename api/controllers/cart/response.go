package cart

import (
	cartdto "github.com/dovl-commerce/dovl-backend/api/controllers/cart/dto"
	cartsvc "github.com/dovl-commerce/dovl-backend/internal/cart"
	"github.com/dovl-commerce/dovl-backend/pkg/types"
)

func newCart(priced *cartsvc.Priced) cartdto.Cart {
	record := priced.Cart

	items := make([]cartdto.CartItem, 0, len(record.Items))
	count := 0
	for _, line := range record.Items {
		count += line.Quantity
		items = append(items, cartdto.CartItem{
			ID:           line.ID.Hex(),
			ProductID:    line.Product.Hex(),
			ProductName:  line.ProductName,
			ProductSlug:  line.ProductSlug,
			ProductImage: line.ProductImage,
			Variant: cartdto.Variant{
				Size:      line.Variant.Size,
				ColorName: line.Variant.ColorName,
				ColorHex:  line.Variant.ColorHex,
				SKU:       line.Variant.SKU,
			},
			Quantity:      line.Quantity,
			Price:         types.NewMoney(line.Price),
			OriginalPrice: types.NewMoney(line.OriginalPrice),
			Subtotal:      types.NewMoney(line.Subtotal),
		})
	}

	out := cartdto.Cart{
		Items:          items,
		ItemCount:      count,
		Subtotal:       types.NewMoney(record.Subtotal),
		DiscountAmount: types.NewMoney(record.DiscountAmount),
		TaxAmount:      types.NewMoney(record.TaxAmount),
		ShippingCost:   types.NewMoney(record.ShippingCost),
		Total:          types.NewMoney(record.Total),
	}
	if !record.ID.IsZero() {
		out.ID = record.ID.Hex()
	}
	if !record.UpdatedAt.IsZero() {
		updated := record.UpdatedAt
		out.UpdatedAt = &updated
	}
	if c := record.Campaign; c != nil {
		out.Campaign = &cartdto.CartCampaign{
			ID:             c.ID.Hex(),
			Code:           c.Code,
			DiscountType:   c.DiscountType,
			DiscountValue:  types.NewMoney(c.DiscountValue),
			DiscountAmount: types.NewMoney(c.DiscountAmount),
		}
	}

	adj := priced.Adjustments
	if adj.LinesChanged() || adj.CampaignCleared {
		out.Notices = &cartdto.CartNotices{
			DroppedLines:    adj.DroppedLines,
			ClampedLines:    adj.ClampedLines,
			CampaignCleared: adj.CampaignCleared,
			CampaignReason:  string(adj.CampaignReason),
		}
	}
	return out
}
