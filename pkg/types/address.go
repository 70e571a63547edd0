package types

import "strings"

// Address is a postal address captured at checkout and frozen on the order.
type Address struct {
	Title      string `json:"title" bson:"title" validate:"required,max=100"`
	FullName   string `json:"full_name" bson:"fullName" validate:"required,min=2,max=100"`
	Address    string `json:"address" bson:"address" validate:"required,min=5,max=255"`
	City       string `json:"city" bson:"city" validate:"required,min=2,max=50"`
	District   string `json:"district" bson:"district" validate:"required,min=2,max=50"`
	PostalCode string `json:"postal_code,omitempty" bson:"postalCode,omitempty" validate:"omitempty,max=10"`
	Country    string `json:"country" bson:"country" validate:"omitempty,max=50"`
	Phone      string `json:"phone" bson:"phone" validate:"required,min=10,max=20"`
}

// DefaultCountry is used when an address omits the country.
const DefaultCountry = "Türkiye"

// Normalize trims every field and fills the default country.
func (a Address) Normalize() Address {
	out := Address{
		Title:      strings.TrimSpace(a.Title),
		FullName:   strings.TrimSpace(a.FullName),
		Address:    strings.TrimSpace(a.Address),
		City:       strings.TrimSpace(a.City),
		District:   strings.TrimSpace(a.District),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
		Phone:      strings.TrimSpace(a.Phone),
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	return out
}
