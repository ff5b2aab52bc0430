package testutil

import (
	"fmt"

	"fakegateway/internal/models"
	"fakegateway/pkg/platform/xmlcodec"
)

// TestCards are sandbox numbers accepted by the default allow-list, plus one
// it rejects.
var TestCards = struct {
	Visa       string
	Mastercard string
	Amex       string
	Declined   string
}{
	Visa:       "4111111111111111",
	Mastercard: "5555555555554444",
	Amex:       "378282246310005",
	Declined:   "4000111111111115",
}

// CardParamsBuilder provides a fluent interface for building credit_card
// request parameters.
type CardParamsBuilder struct {
	params xmlcodec.Map
}

// NewCardParams starts from a Visa number expiring 09/2030.
func NewCardParams() *CardParamsBuilder {
	return &CardParamsBuilder{
		params: xmlcodec.Map{
			{Name: models.FieldNumber, Value: TestCards.Visa},
			{Name: models.FieldExpirationDate, Value: "09/2030"},
		},
	}
}

func (b *CardParamsBuilder) WithNumber(number string) *CardParamsBuilder {
	b.params = b.params.Set(models.FieldNumber, number)
	return b
}

// WithIndexedNumber derives a distinct 16 digit number from a Visa prefix.
func (b *CardParamsBuilder) WithIndexedNumber(idx int) *CardParamsBuilder {
	return b.WithNumber(fmt.Sprintf("4111%012d", idx))
}

func (b *CardParamsBuilder) WithExpiration(date string) *CardParamsBuilder {
	b.params = b.params.Set(models.FieldExpirationDate, date)
	return b
}

func (b *CardParamsBuilder) WithCustomer(customerID string) *CardParamsBuilder {
	b.params = b.params.Set(models.FieldCustomerID, customerID)
	return b
}

func (b *CardParamsBuilder) WithToken(token string) *CardParamsBuilder {
	b.params = b.params.Set(models.FieldToken, token)
	return b
}

func (b *CardParamsBuilder) WithField(name string, value any) *CardParamsBuilder {
	b.params = b.params.Set(name, value)
	return b
}

func (b *CardParamsBuilder) Build() xmlcodec.Map {
	return b.params.Clone()
}

// Customer returns a customer with id and no cards.
func Customer(id string) *models.Customer {
	return &models.Customer{ID: id, FirstName: "Test", LastName: "Customer", Email: id + "@example.com"}
}
