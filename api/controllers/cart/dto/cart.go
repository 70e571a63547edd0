package cartdto

import (
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"github.com/dovl-commerce/dovl-backend/pkg/types"
)

// Cart is the priced cart returned by every cart route.
type Cart struct {
	ID             string        `json:"id,omitempty"`
	Items          []CartItem    `json:"items"`
	Campaign       *CartCampaign `json:"campaign"`
	ItemCount      int           `json:"item_count"`
	Subtotal       types.Money   `json:"subtotal"`
	DiscountAmount types.Money   `json:"discount_amount"`
	TaxAmount      types.Money   `json:"tax_amount"`
	ShippingCost   types.Money   `json:"shipping_cost"`
	Total          types.Money   `json:"total"`
	Notices        *CartNotices  `json:"notices,omitempty"`
	UpdatedAt      *time.Time    `json:"updated_at,omitempty"`
}

type CartItem struct {
	ID            string      `json:"id"`
	ProductID     string      `json:"product_id"`
	ProductName   string      `json:"product_name"`
	ProductSlug   string      `json:"product_slug"`
	ProductImage  string      `json:"product_image"`
	Variant       Variant     `json:"variant"`
	Quantity      int         `json:"quantity"`
	Price         types.Money `json:"price"`
	OriginalPrice types.Money `json:"original_price"`
	Subtotal      types.Money `json:"subtotal"`
}

type Variant struct {
	Size      string `json:"size"`
	ColorName string `json:"color_name"`
	ColorHex  string `json:"color_hex"`
	SKU       string `json:"sku"`
}

type CartCampaign struct {
	ID             string             `json:"id"`
	Code           string             `json:"code"`
	DiscountType   enums.DiscountType `json:"discount_type"`
	DiscountValue  types.Money        `json:"discount_value"`
	DiscountAmount types.Money        `json:"discount_amount"`
}

// CartNotices tells the shopper what pricing changed since the last view.
type CartNotices struct {
	DroppedLines    int    `json:"dropped_lines,omitempty"`
	ClampedLines    int    `json:"clamped_lines,omitempty"`
	CampaignCleared bool   `json:"campaign_cleared,omitempty"`
	CampaignReason  string `json:"campaign_reason,omitempty"`
}
