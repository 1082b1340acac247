package models

// Address holds the postal fields needed for shipping and tax computation.
// It is embedded into orders as a copy, not referenced, so historic orders
// are unaffected by later address edits.
type Address struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required,len=2"`
	Phone      string `json:"phone"`
}
