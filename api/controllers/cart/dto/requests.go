package cartdto

type AddItemRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	VariantSKU string `json:"variant_sku" validate:"required,max=64"`
	// Quantity defaults to 1 when omitted.
	Quantity *int `json:"quantity" validate:"omitempty,min=1,max=1000"`
}

type UpdateItemRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=1000"`
}

type ApplyCampaignRequest struct {
	Code string `json:"code" validate:"required,min=1,max=64"`
}
