package models

import (
	"time"

	"github.com/dovl-commerce/dovl-backend/pkg/enums"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User holds the account fields read by pricing and checkout. Credentials are
// owned by the authentication service.
type User struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Email         string               `bson:"email"`
	Name          string               `bson:"name,omitempty"`
	Surname       string               `bson:"surname,omitempty"`
	Role          enums.Role           `bson:"role"`
	OrderHistory  []primitive.ObjectID `bson:"orderHistory,omitempty"`
	UsedCampaigns []CampaignUsage      `bson:"usedCampaigns,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"`
}

type CampaignUsage struct {
	Campaign   primitive.ObjectID `bson:"campaign"`
	UsageCount int                `bson:"usageCount"`
}
