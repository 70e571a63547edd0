package orders

import (
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"github.com/dovl-commerce/dovl-backend/pkg/pagination"
	"github.com/dovl-commerce/dovl-backend/pkg/types"
)

type orderResponse struct {
	ID              string                `json:"id"`
	OrderNumber     string                `json:"order_number"`
	UserID          *string               `json:"user_id"`
	UserEmail       string                `json:"user_email"`
	IsGuestCheckout bool                  `json:"is_guest_checkout"`
	Items           []orderItemResponse   `json:"items"`
	ShippingAddress types.Address         `json:"shipping_address"`
	BillingAddress  types.Address         `json:"billing_address"`
	PaymentMethod   enums.PaymentMethod   `json:"payment_method"`
	PaymentDetails  paymentResponse       `json:"payment_details"`
	Campaign        *campaignResponse     `json:"campaign"`
	Subtotal        types.Money           `json:"subtotal"`
	DiscountAmount  types.Money           `json:"discount_amount"`
	TaxAmount       types.Money           `json:"tax_amount"`
	ShippingCost    types.Money           `json:"shipping_cost"`
	Total           types.Money           `json:"total"`
	Status          enums.OrderStatus     `json:"status"`
	Notes           string                `json:"notes,omitempty"`
	ShippingInfo    shippingInfoResponse  `json:"shipping_info"`
	Timeline        []timelineEventResult `json:"timeline"`
	IsPaid          bool                  `json:"is_paid"`
	PaidAt          *time.Time            `json:"paid_at,omitempty"`
	DeliveredAt     *time.Time            `json:"delivered_at,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

type orderItemResponse struct {
	ProductID     string      `json:"product_id"`
	ProductName   string      `json:"product_name"`
	ProductSlug   string      `json:"product_slug"`
	ProductImage  string      `json:"product_image"`
	Size          string      `json:"size"`
	ColorName     string      `json:"color_name"`
	ColorHex      string      `json:"color_hex"`
	SKU           string      `json:"sku"`
	Quantity      int         `json:"quantity"`
	Price         types.Money `json:"price"`
	OriginalPrice types.Money `json:"original_price"`
	Subtotal      types.Money `json:"subtotal"`
}

type paymentResponse struct {
	Provider      string              `json:"provider,omitempty"`
	TransactionID string              `json:"transaction_id,omitempty"`
	Amount        types.Money         `json:"amount"`
	Status        enums.PaymentStatus `json:"status,omitempty"`
}

type campaignResponse struct {
	Code           string             `json:"code"`
	DiscountType   enums.DiscountType `json:"discount_type"`
	DiscountValue  types.Money        `json:"discount_value"`
	DiscountAmount types.Money        `json:"discount_amount"`
}

type shippingInfoResponse struct {
	Carrier               string     `json:"carrier,omitempty"`
	TrackingNumber        string     `json:"tracking_number,omitempty"`
	TrackingURL           string     `json:"tracking_url,omitempty"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date,omitempty"`
}

type timelineEventResult struct {
	Status      enums.OrderStatus `json:"status"`
	Date        time.Time         `json:"date"`
	Description string            `json:"description,omitempty"`
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	Pagination pagination.Meta `json:"pagination"`
}

type checkoutResponse struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

func newOrderResponse(o *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:     item.Product.Hex(),
			ProductName:   item.ProductName,
			ProductSlug:   item.ProductSlug,
			ProductImage:  item.ProductImage,
			Size:          item.Variant.Size,
			ColorName:     item.Variant.ColorName,
			ColorHex:      item.Variant.ColorHex,
			SKU:           item.Variant.SKU,
			Quantity:      item.Quantity,
			Price:         types.NewMoney(item.Price),
			OriginalPrice: types.NewMoney(item.OriginalPrice),
			Subtotal:      types.NewMoney(item.Subtotal),
		})
	}

	timeline := make([]timelineEventResult, 0, len(o.Timeline))
	for _, ev := range o.Timeline {
		timeline = append(timeline, timelineEventResult{Status: ev.Status, Date: ev.Date, Description: ev.Description})
	}

	out := orderResponse{
		ID:              o.ID.Hex(),
		OrderNumber:     o.OrderNumber,
		UserID:          types.FormatOptionalID(o.User),
		UserEmail:       o.UserEmail,
		IsGuestCheckout: o.IsGuestCheckout,
		Items:           items,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		PaymentMethod:   o.PaymentMethod,
		PaymentDetails: paymentResponse{
			Provider:      o.PaymentDetails.Provider,
			TransactionID: o.PaymentDetails.TransactionID,
			Amount:        types.NewMoney(o.PaymentDetails.Amount),
			Status:        o.PaymentDetails.Status,
		},
		Subtotal:       types.NewMoney(o.Subtotal),
		DiscountAmount: types.NewMoney(o.DiscountAmount),
		TaxAmount:      types.NewMoney(o.TaxAmount),
		ShippingCost:   types.NewMoney(o.ShippingCost),
		Total:          types.NewMoney(o.Total),
		Status:         o.Status,
		Notes:          o.Notes,
		ShippingInfo: shippingInfoResponse{
			Carrier:               o.ShippingInfo.Carrier,
			TrackingNumber:        o.ShippingInfo.TrackingNumber,
			TrackingURL:           o.ShippingInfo.TrackingURL,
			EstimatedDeliveryDate: o.ShippingInfo.EstimatedDeliveryDate,
		},
		Timeline:    timeline,
		IsPaid:      o.IsPaid,
		PaidAt:      o.PaidAt,
		DeliveredAt: o.DeliveredAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if c := o.Campaign; c != nil {
		out.Campaign = &campaignResponse{
			Code:           c.Code,
			DiscountType:   c.DiscountType,
			DiscountValue:  types.NewMoney(c.DiscountValue),
			DiscountAmount: types.NewMoney(c.DiscountAmount),
		}
	}
	return out
}
