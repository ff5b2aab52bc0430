package models

import "fakegateway/pkg/platform/xmlcodec"

// Customer owns embedded snapshots of its credit cards. The snapshots are
// copies of what was stored at creation time, not references into the
// credit card table.
type Customer struct {
	ID          string        `json:"id"`
	FirstName   string        `json:"first_name,omitempty"`
	LastName    string        `json:"last_name,omitempty"`
	Email       string        `json:"email,omitempty"`
	Company     string        `json:"company,omitempty"`
	CreditCards []*CreditCard `json:"credit_cards"`
}

// Clone returns a deep copy.
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	out := *c
	out.CreditCards = make([]*CreditCard, len(c.CreditCards))
	for i, card := range c.CreditCards {
		out.CreditCards[i] = card.Clone()
	}
	return &out
}

// DefaultCards returns the tokens of the cards flagged as default.
func (c *Customer) DefaultCards() []string {
	var tokens []string
	for _, card := range c.CreditCards {
		if card.IsDefault() {
			tokens = append(tokens, card.TokenValue())
		}
	}
	return tokens
}

// Address is a stored billing address.
type Address struct {
	ID              string `json:"id"`
	CustomerID      string `json:"customer_id,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	Company         string `json:"company,omitempty"`
	StreetAddress   string `json:"street_address,omitempty"`
	ExtendedAddress string `json:"extended_address,omitempty"`
	Locality        string `json:"locality,omitempty"`
	Region          string `json:"region,omitempty"`
	PostalCode      string `json:"postal_code,omitempty"`
	CountryName     string `json:"country_name,omitempty"`
}

// Clone returns a copy.
func (a *Address) Clone() *Address {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}

// AddressFromMap reads an address from request parameters. Unknown fields
// are ignored.
func AddressFromMap(m xmlcodec.Map) *Address {
	a := &Address{}
	for _, f := range a.fields() {
		if v := stringValue(valueOf(m, f.name)); v != nil {
			*f.dst = *v
		}
	}
	return a
}

func valueOf(m xmlcodec.Map, name string) any {
	v, _ := m.Get(name)
	return v
}

// ToMap renders the non-empty address fields in a stable order.
func (a *Address) ToMap() xmlcodec.Map {
	var m xmlcodec.Map
	for _, f := range a.fields() {
		if *f.dst != "" {
			m = append(m, xmlcodec.Field{Name: f.name, Value: *f.dst})
		}
	}
	if m == nil {
		m = xmlcodec.Map{}
	}
	return m
}

type addressField struct {
	name string
	dst  *string
}

func (a *Address) fields() []addressField {
	return []addressField{
		{"id", &a.ID},
		{"customer_id", &a.CustomerID},
		{"first_name", &a.FirstName},
		{"last_name", &a.LastName},
		{"company", &a.Company},
		{"street_address", &a.StreetAddress},
		{"extended_address", &a.ExtendedAddress},
		{"locality", &a.Locality},
		{"region", &a.Region},
		{"postal_code", &a.PostalCode},
		{"country_name", &a.CountryName},
	}
}
