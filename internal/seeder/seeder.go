package seeder

import (
	"context"
	"fmt"
	"log/slog"

	"fakegateway/internal/models"
)

// CustomerStore defines methods for seeding customers
type CustomerStore interface {
	SaveCustomer(ctx context.Context, customer *models.Customer) error
}

// AddressStore defines methods for seeding addresses
type AddressStore interface {
	SaveAddress(ctx context.Context, address *models.Address) error
}

// Seeder populates the registry with demo customers and billing addresses so
// a fresh fixture can accept customer_id and billing_address_id right away.
type Seeder struct {
	customers CustomerStore
	addresses AddressStore
	logger    *slog.Logger
}

// New creates a new seeder
func New(customers CustomerStore, addresses AddressStore, logger *slog.Logger) *Seeder {
	return &Seeder{
		customers: customers,
		addresses: addresses,
		logger:    logger,
	}
}

// DemoCustomers are the customers SeedAll creates. Ids are stable so client
// tests can reference them.
var DemoCustomers = []models.Customer{
	{ID: "demo-customer-alice", FirstName: "Alice", LastName: "Anderson", Email: "alice@example.com"},
	{ID: "demo-customer-bob", FirstName: "Bob", LastName: "Brown", Email: "bob@example.com", Company: "Brown & Co"},
	{ID: "demo-customer-charlie", FirstName: "Charlie", LastName: "Chen", Email: "charlie@example.com"},
}

// DemoAddresses are the billing addresses SeedAll creates.
var DemoAddresses = []models.Address{
	{
		ID: "demo-address-alice", CustomerID: "demo-customer-alice",
		FirstName: "Alice", LastName: "Anderson",
		StreetAddress: "1 Main St", Locality: "Chicago", Region: "IL", PostalCode: "60622", CountryName: "United States of America",
	},
	{
		ID: "demo-address-bob", CustomerID: "demo-customer-bob",
		FirstName: "Bob", LastName: "Brown", Company: "Brown & Co",
		StreetAddress: "20 Market St", ExtendedAddress: "Suite 400", Locality: "San Francisco", Region: "CA", PostalCode: "94105", CountryName: "United States of America",
	},
}

// SeedAll populates all stores with demo data
func (s *Seeder) SeedAll(ctx context.Context) error {
	s.logger.Info("seeding demo data...")

	for _, c := range DemoCustomers {
		customer := c
		if err := s.customers.SaveCustomer(ctx, &customer); err != nil {
			return fmt.Errorf("failed to seed customer %s: %w", c.ID, err)
		}
	}

	for _, a := range DemoAddresses {
		address := a
		if err := s.addresses.SaveAddress(ctx, &address); err != nil {
			return fmt.Errorf("failed to seed address %s: %w", a.ID, err)
		}
	}

	s.logger.Info("demo data seeded successfully",
		"customers", len(DemoCustomers),
		"addresses", len(DemoAddresses),
	)

	return nil
}
