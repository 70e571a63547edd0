package models

import (
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Campaign is a promotional discount redeemable by code. UsageCount only grows
// and only at checkout commit.
type Campaign struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty"`
	Name               string               `bson:"name"`
	Code               string               `bson:"code"`
	Description        string               `bson:"description,omitempty"`
	DiscountType       enums.DiscountType   `bson:"discountType"`
	DiscountValue      decimal.Decimal      `bson:"discountValue"`
	MinPurchaseAmount  *decimal.Decimal     `bson:"minPurchaseAmount,omitempty"`
	MaxDiscount        *decimal.Decimal     `bson:"maxDiscount,omitempty"`
	MaxUses            *int                 `bson:"maxUses,omitempty"`
	UsagePerCustomer   int                  `bson:"usagePerCustomer"`
	ApplicableTo       enums.CampaignScope  `bson:"applicableTo"`
	Categories         []primitive.ObjectID `bson:"categories,omitempty"`
	Products           []primitive.ObjectID `bson:"products,omitempty"`
	ExcludedCategories []primitive.ObjectID `bson:"excludedCategories,omitempty"`
	ExcludedProducts   []primitive.ObjectID `bson:"excludedProducts,omitempty"`
	ForNewCustomers    bool                 `bson:"forNewCustomers"`
	ShowInStore        bool                 `bson:"showInStore"`
	StartDate          time.Time            `bson:"startDate"`
	EndDate            time.Time            `bson:"endDate"`
	IsActive           bool                 `bson:"isActive"`
	UsageCount         int                  `bson:"usageCount"`
	CreatedAt          time.Time            `bson:"createdAt"`
	UpdatedAt          time.Time            `bson:"updatedAt"`
}
