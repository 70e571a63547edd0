package enums

import "fmt"

// CampaignScope declares which catalog items a campaign applies to.
type CampaignScope string

const (
	CampaignScopeAllProducts        CampaignScope = "all_products"
	CampaignScopeSpecificCategories CampaignScope = "specific_categories"
	CampaignScopeSpecificProducts   CampaignScope = "specific_products"
)

var validCampaignScopes = []CampaignScope{
	CampaignScopeAllProducts,
	CampaignScopeSpecificCategories,
	CampaignScopeSpecificProducts,
}

// String implements fmt.Stringer.
func (c CampaignScope) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CampaignScope.
func (c CampaignScope) IsValid() bool {
	for _, candidate := range validCampaignScopes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCampaignScope converts raw input into a CampaignScope.
func ParseCampaignScope(value string) (CampaignScope, error) {
	for _, candidate := range validCampaignScopes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid campaign scope %q", value)
}
