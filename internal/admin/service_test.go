package admin

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"fakegateway/internal/cardpolicy"
	"fakegateway/internal/models"
	"fakegateway/internal/platform/metrics"
	"fakegateway/internal/registry"
	dErrors "fakegateway/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	registry *registry.Registry
	policy   *cardpolicy.Policy
	metrics  *metrics.Metrics
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.registry = registry.New()
	s.policy = cardpolicy.New(cardpolicy.Settings{VerifyAll: true}, nil)
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.service = NewService(s.registry, s.policy,
		WithMetrics(s.metrics),
		WithIDGenerator(func() string { return "generated" }),
	)
}

func (s *ServiceSuite) TestReset() {
	s.Require().NoError(s.registry.SaveCreditCard(s.ctx, &models.CreditCard{Token: models.Ptr("tok")}))
	s.policy.Set(cardpolicy.Settings{DeclineAll: true})

	s.service.Reset(s.ctx)

	s.Equal(registry.Stats{}, s.registry.Stats())
	s.Equal(cardpolicy.Settings{VerifyAll: true}, s.policy.Settings(), "reset restores the configured flags")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Resets))
}

func (s *ServiceSuite) TestUpdatePolicy() {
	s.Run("changes only the named flags", func() {
		s.SetupTest()
		got := s.service.UpdatePolicy(s.ctx, &UpdatePolicyRequest{DeclineAll: models.Ptr(true)})

		s.True(got.DeclineAll)
		s.True(got.VerifyAll)
		s.Equal("decline_all", got.Mode)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.PolicyChanges.WithLabelValues("decline_all")))
	})

	s.Run("reports the allow-list", func() {
		s.SetupTest()
		got := s.service.Policy(s.ctx)
		s.Len(got.ValidCards, len(cardpolicy.DefaultValidCards))
		s.Equal("verify_all", got.Mode)
	})
}

func (s *ServiceSuite) TestCreateCustomer() {
	s.Run("generates an id when none is given", func() {
		s.SetupTest()
		customer, err := s.service.CreateCustomer(s.ctx, &CreateCustomerRequest{FirstName: "Ada"})
		s.Require().NoError(err)
		s.Equal("generated", customer.ID)
		s.Empty(customer.CreditCards)
	})

	s.Run("rejects a duplicate id", func() {
		s.SetupTest()
		_, err := s.service.CreateCustomer(s.ctx, &CreateCustomerRequest{ID: "c1"})
		s.Require().NoError(err)

		_, err = s.service.CreateCustomer(s.ctx, &CreateCustomerRequest{ID: "c1"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.RecordsSeeded.WithLabelValues("customer")))
	})
}

func (s *ServiceSuite) TestFindCustomer() {
	_, err := s.service.FindCustomer(s.ctx, "ghost")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Require().NoError(s.registry.SaveCustomer(s.ctx, &models.Customer{
		ID:          "c1",
		CreditCards: []*models.CreditCard{{Token: models.Ptr("tok"), Default: models.Ptr(true)}},
	}))
	customer, err := s.service.FindCustomer(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal([]string{"tok"}, customer.DefaultCards())
}

func (s *ServiceSuite) TestCreateAddress() {
	address, err := s.service.CreateAddress(s.ctx, &CreateAddressRequest{ID: "a1", PostalCode: "60622"})
	s.Require().NoError(err)
	s.Equal("60622", address.PostalCode)

	stored, err := s.registry.FindAddress(s.ctx, "a1")
	s.Require().NoError(err)
	s.Equal(address, stored)

	_, err = s.service.CreateAddress(s.ctx, &CreateAddressRequest{ID: "a1"})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestStats() {
	s.Require().NoError(s.registry.SaveAddress(s.ctx, &models.Address{ID: "a1"}))

	got := s.service.Stats(s.ctx)
	s.Equal(registry.Stats{Addresses: 1}, got.Stats)
	s.Equal("verify_all", got.PolicyMode)
	s.False(got.Timestamp.IsZero())
}
