package types

import "strings"

// AddressDetails is the courier or mail destination collected at checkout.
type AddressDetails struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Phone      string `json:"phone" validate:"required,phone"`
	Address    string `json:"address" validate:"required,min=5"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code,omitempty"`
	Notes      string `json:"notes,omitempty" validate:"max=500"`
}

// Line renders the single-line form the orders endpoint stores.
func (a AddressDetails) Line() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Address, a.City, a.PostalCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// ContactName joins first and last name.
func (a AddressDetails) ContactName() string {
	return strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (a AddressDetails) Trimmed() AddressDetails {
	return AddressDetails{
		FirstName:  strings.TrimSpace(a.FirstName),
		LastName:   strings.TrimSpace(a.LastName),
		Phone:      strings.TrimSpace(a.Phone),
		Address:    strings.TrimSpace(a.Address),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Notes:      strings.TrimSpace(a.Notes),
	}
}
