package models

import (
	"strconv"
	"strings"

	"fakegateway/pkg/platform/xmlcodec"
)

// Field names shared by request parameters and rendered documents.
const (
	FieldToken            = "token"
	FieldMerchantID       = "merchant_id"
	FieldCustomerID       = "customer_id"
	FieldDefault          = "default"
	FieldNumber           = "number"
	FieldBIN              = "bin"
	FieldLast4            = "last_4"
	FieldExpirationDate   = "expiration_date"
	FieldExpirationMonth  = "expiration_month"
	FieldExpirationYear   = "expiration_year"
	FieldBillingAddressID = "billing_address_id"
	FieldBillingAddress   = "billing_address"
)

const (
	binLength   = 6
	last4Length = 4
)

// CreditCard is a stored payment method. Every field is optional: absent
// request data stays nil rather than failing the operation.
type CreditCard struct {
	Token      *string
	MerchantID *string
	CustomerID *string
	Default    *bool

	Number *string
	BIN    *string
	Last4  *string

	ExpirationDate  *string
	ExpirationMonth *string
	ExpirationYear  *string

	BillingAddressID *string
	BillingAddress   *Address

	// Extra holds passthrough fields (cardholder_name, cvv, ...) in request order.
	Extra xmlcodec.Map

	// cleared names the typed fields a request sent as nil. Merge unsets them.
	cleared []string
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// CreditCardFromParams maps request parameters onto a CreditCard. Known
// fields are typed; everything else is kept verbatim in Extra.
func CreditCardFromParams(params xmlcodec.Map) *CreditCard {
	card := &CreditCard{}
	for _, f := range params {
		if f.Value == nil && card.unset(f.Name) {
			card.cleared = append(card.cleared, f.Name)
			continue
		}
		switch f.Name {
		case FieldToken:
			card.Token = stringValue(f.Value)
		case FieldMerchantID:
			card.MerchantID = stringValue(f.Value)
		case FieldCustomerID:
			card.CustomerID = stringValue(f.Value)
		case FieldDefault:
			card.Default = Flag(f.Value)
		case FieldNumber:
			card.Number = stringValue(f.Value)
		case FieldBIN:
			card.BIN = stringValue(f.Value)
		case FieldLast4:
			card.Last4 = stringValue(f.Value)
		case FieldExpirationDate:
			card.ExpirationDate = stringValue(f.Value)
		case FieldExpirationMonth:
			card.ExpirationMonth = stringValue(f.Value)
		case FieldExpirationYear:
			card.ExpirationYear = stringValue(f.Value)
		case FieldBillingAddressID:
			card.BillingAddressID = stringValue(f.Value)
		case FieldBillingAddress:
			if m, ok := f.Value.(xmlcodec.Map); ok {
				card.BillingAddress = AddressFromMap(m)
			}
		default:
			card.Extra = card.Extra.Set(f.Name, f.Value)
		}
	}
	card.Extra = card.Extra.Clone()
	return card
}

func stringValue(v any) *string {
	switch t := v.(type) {
	case string:
		return Ptr(t)
	case bool:
		return Ptr(strconv.FormatBool(t))
	case int:
		return Ptr(strconv.Itoa(t))
	default:
		return nil
	}
}

// Flag reads a boolean request value. Typed booleans and integers map
// directly; strings go through strconv.ParseBool and anything unreadable is
// false. Only a missing value yields nil.
func Flag(v any) *bool {
	switch t := v.(type) {
	case bool:
		return Ptr(t)
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return Ptr(err == nil && b)
	case int:
		return Ptr(t != 0)
	default:
		return nil
	}
}

// unset clears the typed field called name and reports whether name is one.
func (c *CreditCard) unset(name string) bool {
	switch name {
	case FieldToken:
		c.Token = nil
	case FieldMerchantID:
		c.MerchantID = nil
	case FieldCustomerID:
		c.CustomerID = nil
	case FieldDefault:
		c.Default = nil
	case FieldNumber:
		c.Number = nil
	case FieldBIN:
		c.BIN = nil
	case FieldLast4:
		c.Last4 = nil
	case FieldExpirationDate:
		c.ExpirationDate = nil
	case FieldExpirationMonth:
		c.ExpirationMonth = nil
	case FieldExpirationYear:
		c.ExpirationYear = nil
	case FieldBillingAddressID:
		c.BillingAddressID = nil
	case FieldBillingAddress:
		c.BillingAddress = nil
	default:
		return false
	}
	return true
}

// IsDefault reports whether the card is flagged as its customer's default.
func (c *CreditCard) IsDefault() bool {
	return c.Default != nil && *c.Default
}

// TokenValue returns the token or "" when unset.
func (c *CreditCard) TokenValue() string {
	return deref(c.Token)
}

// CustomerIDValue returns the customer id or "" when unset.
func (c *CreditCard) CustomerIDValue() string {
	return deref(c.CustomerID)
}

// NumberValue returns the raw card number or "" when unset.
func (c *CreditCard) NumberValue() string {
	return deref(c.Number)
}

// MerchantIDValue returns the merchant id or "" when unset.
func (c *CreditCard) MerchantIDValue() string {
	return deref(c.MerchantID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SplitExpirationDate fills ExpirationMonth and ExpirationYear from an
// "MM/YYYY" ExpirationDate. Dates without a "/" are left alone.
func (c *CreditCard) SplitExpirationDate() {
	if c.ExpirationDate == nil || !strings.Contains(*c.ExpirationDate, "/") {
		return
	}
	parts := strings.Split(*c.ExpirationDate, "/")
	if parts[0] != "" {
		c.ExpirationMonth = Ptr(parts[0])
	}
	if parts[1] != "" {
		c.ExpirationYear = Ptr(parts[1])
	}
}

// Clone returns a deep copy.
func (c *CreditCard) Clone() *CreditCard {
	if c == nil {
		return nil
	}
	out := &CreditCard{
		Token:            cloneString(c.Token),
		MerchantID:       cloneString(c.MerchantID),
		CustomerID:       cloneString(c.CustomerID),
		Number:           cloneString(c.Number),
		BIN:              cloneString(c.BIN),
		Last4:            cloneString(c.Last4),
		ExpirationDate:   cloneString(c.ExpirationDate),
		ExpirationMonth:  cloneString(c.ExpirationMonth),
		ExpirationYear:   cloneString(c.ExpirationYear),
		BillingAddressID: cloneString(c.BillingAddressID),
		BillingAddress:   c.BillingAddress.Clone(),
		Extra:            c.Extra.Clone(),
	}
	if c.Default != nil {
		out.Default = Ptr(*c.Default)
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	return Ptr(*s)
}

// Merge returns a copy of c with every field set on incoming applied over it.
// Fields incoming leaves nil keep their current values, unless incoming was
// built from a request that sent them as nil. The result carries incoming's
// cleared fields so a later Merge applies them again.
func (c *CreditCard) Merge(incoming *CreditCard) *CreditCard {
	out := c.Clone()
	if incoming == nil {
		return out
	}
	in := incoming.Clone()
	overlay(&out.Token, in.Token)
	overlay(&out.MerchantID, in.MerchantID)
	overlay(&out.CustomerID, in.CustomerID)
	overlay(&out.Default, in.Default)
	overlay(&out.Number, in.Number)
	overlay(&out.BIN, in.BIN)
	overlay(&out.Last4, in.Last4)
	overlay(&out.ExpirationDate, in.ExpirationDate)
	overlay(&out.ExpirationMonth, in.ExpirationMonth)
	overlay(&out.ExpirationYear, in.ExpirationYear)
	overlay(&out.BillingAddressID, in.BillingAddressID)
	overlay(&out.BillingAddress, in.BillingAddress)
	out.Extra = out.Extra.Merge(in.Extra)
	for _, name := range incoming.cleared {
		out.unset(name)
	}
	out.cleared = append([]string(nil), incoming.cleared...)
	return out
}

func overlay[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// Sanitize returns a copy without the raw number, carrying its first six
// characters as BIN and its last four as Last4. Short numbers yield what is
// there; a card that never had a number gets empty values.
func (c *CreditCard) Sanitize() *CreditCard {
	out := c.Clone()
	if out.Number != nil {
		number := *out.Number
		out.BIN = Ptr(leading(number, binLength))
		out.Last4 = Ptr(trailing(number, last4Length))
		out.Number = nil
	}
	if out.BIN == nil {
		out.BIN = Ptr("")
	}
	if out.Last4 == nil {
		out.Last4 = Ptr("")
	}
	return out
}

func leading(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func trailing(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// ToMap renders the card as an ordered field mapping. Token, merchant,
// customer and default are always present; other fields only when set.
func (c *CreditCard) ToMap() xmlcodec.Map {
	m := xmlcodec.Map{
		{Name: FieldToken, Value: optional(c.Token)},
		{Name: FieldMerchantID, Value: optional(c.MerchantID)},
		{Name: FieldCustomerID, Value: optional(c.CustomerID)},
		{Name: FieldDefault, Value: optional(c.Default)},
	}
	m = appendSet(m, FieldNumber, c.Number)
	m = appendSet(m, FieldBIN, c.BIN)
	m = appendSet(m, FieldLast4, c.Last4)
	m = appendSet(m, FieldExpirationDate, c.ExpirationDate)
	m = appendSet(m, FieldExpirationMonth, c.ExpirationMonth)
	m = appendSet(m, FieldExpirationYear, c.ExpirationYear)
	m = appendSet(m, FieldBillingAddressID, c.BillingAddressID)
	if c.BillingAddress != nil {
		m = append(m, xmlcodec.Field{Name: FieldBillingAddress, Value: c.BillingAddress.ToMap()})
	}
	for _, f := range c.Extra.Clone() {
		m = m.Set(f.Name, f.Value)
	}
	return m
}

// MarshalJSON renders the same mapping as ToMap.
func (c *CreditCard) MarshalJSON() ([]byte, error) {
	return c.ToMap().MarshalJSON()
}

func optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func appendSet(m xmlcodec.Map, name string, v *string) xmlcodec.Map {
	if v == nil {
		return m
	}
	return append(m, xmlcodec.Field{Name: name, Value: *v})
}
