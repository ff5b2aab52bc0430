// Package registry is the process-wide table of fake gateway records shared
// by every resource handler: credit cards by token, customers and addresses
// by id. It lives only as long as the process and is reset between tests.
package registry

import (
	"context"
	"fmt"
	"sync"

	"fakegateway/internal/models"
	"fakegateway/internal/sentinel"
)

// ErrNotFound is returned when a record is not in the registry.
var ErrNotFound = sentinel.ErrNotFound

// Registry stores copies of records; callers never share memory with it.
type Registry struct {
	mu          sync.RWMutex
	creditCards map[string]*models.CreditCard
	customers   map[string]*models.Customer
	addresses   map[string]*models.Address
}

// Stats reports table sizes.
type Stats struct {
	CreditCards int `json:"credit_cards"`
	Customers   int `json:"customers"`
	Addresses   int `json:"addresses"`
}

// New creates an empty registry.
func New() *Registry {
	r := &Registry{}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.creditCards = make(map[string]*models.CreditCard)
	r.customers = make(map[string]*models.Customer)
	r.addresses = make(map[string]*models.Address)
}

// Reset drops every record.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// SaveCreditCard stores a copy of card under its token, replacing any
// previous record.
func (r *Registry) SaveCreditCard(_ context.Context, card *models.CreditCard) error {
	token := card.TokenValue()
	if token == "" {
		return fmt.Errorf("credit card token is required: %w", sentinel.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creditCards[token] = card.Clone()
	return nil
}

// FindCreditCard returns a copy of the card stored under token.
func (r *Registry) FindCreditCard(_ context.Context, token string) (*models.CreditCard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if card, ok := r.creditCards[token]; ok {
		return card.Clone(), nil
	}
	return nil, ErrNotFound
}

// SaveCustomer stores a copy of customer, replacing any previous record.
func (r *Registry) SaveCustomer(_ context.Context, customer *models.Customer) error {
	if customer.ID == "" {
		return fmt.Errorf("customer id is required: %w", sentinel.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[customer.ID] = customer.Clone()
	return nil
}

// FindCustomer returns a copy of the customer stored under id.
func (r *Registry) FindCustomer(_ context.Context, id string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.customers[id]; ok {
		return c.Clone(), nil
	}
	return nil, ErrNotFound
}

// AppendCustomerCard embeds a copy of card in the customer's card list. A
// customer holds one entry per token: an entry with the same token is
// replaced in place. When card is default every other entry is demoted in
// the same step.
func (r *Registry) AppendCustomerCard(_ context.Context, customerID string, card *models.CreditCard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[customerID]
	if !ok {
		return ErrNotFound
	}

	entry := card.Clone()
	token := entry.TokenValue()
	replaced := false
	for i, existing := range c.CreditCards {
		if token != "" && existing.TokenValue() == token {
			c.CreditCards[i] = entry
			replaced = true
		} else if entry.IsDefault() {
			existing.Default = models.Ptr(false)
		}
	}
	if !replaced {
		c.CreditCards = append(c.CreditCards, entry)
	}
	return nil
}

// MakeDefaultCard clears the default flag on every card embedded in the
// customer's list and sets it on the entry carrying token.
func (r *Registry) MakeDefaultCard(_ context.Context, customerID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[customerID]
	if !ok {
		return ErrNotFound
	}
	for _, card := range c.CreditCards {
		card.Default = models.Ptr(token != "" && card.TokenValue() == token)
	}
	return nil
}

// ClearDefaultCard unsets the default flag on the entry carrying token and
// leaves the rest of the list alone.
func (r *Registry) ClearDefaultCard(_ context.Context, customerID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[customerID]
	if !ok {
		return ErrNotFound
	}
	for _, card := range c.CreditCards {
		if token != "" && card.TokenValue() == token {
			card.Default = models.Ptr(false)
		}
	}
	return nil
}

// SaveAddress stores a copy of address, replacing any previous record.
func (r *Registry) SaveAddress(_ context.Context, address *models.Address) error {
	if address.ID == "" {
		return fmt.Errorf("address id is required: %w", sentinel.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addresses[address.ID] = address.Clone()
	return nil
}

// FindAddress returns a copy of the address stored under id.
func (r *Registry) FindAddress(_ context.Context, id string) (*models.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.addresses[id]; ok {
		return a.Clone(), nil
	}
	return nil, ErrNotFound
}

// Stats returns the current table sizes.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{
		CreditCards: len(r.creditCards),
		Customers:   len(r.customers),
		Addresses:   len(r.addresses),
	}
}

// Table names, as used in Stats.Tables and metric labels.
const (
	TableCreditCards = "credit_cards"
	TableCustomers   = "customers"
	TableAddresses   = "addresses"
)

// Tables lists every table name.
var Tables = []string{TableCreditCards, TableCustomers, TableAddresses}

// Tables returns the sizes keyed by table name.
func (s Stats) Tables() map[string]int {
	return map[string]int{
		TableCreditCards: s.CreditCards,
		TableCustomers:   s.Customers,
		TableAddresses:   s.Addresses,
	}
}

// Ping reports whether the registry can take its lock before ctx is done.
func (r *Registry) Ping(ctx context.Context) error {
	acquired := make(chan struct{})
	go func() {
		r.mu.RLock()
		r.mu.RUnlock()
		close(acquired)
	}()
	select {
	case <-acquired:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
