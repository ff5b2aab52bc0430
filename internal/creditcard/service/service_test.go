package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"fakegateway/internal/cardpolicy"
	ccmetrics "fakegateway/internal/creditcard/metrics"
	"fakegateway/internal/failure"
	"fakegateway/internal/models"
	"fakegateway/internal/registry"
	dErrors "fakegateway/pkg/domain-errors"
	"fakegateway/pkg/platform/envelope"
	"fakegateway/pkg/platform/xmlcodec"
)

const visa = "4111111111111111"

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	registry *registry.Registry
	policy   *cardpolicy.Policy
	metrics  *ccmetrics.Metrics
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.registry = registry.New()
	s.policy = cardpolicy.New(cardpolicy.Settings{}, nil)
	s.metrics = ccmetrics.NewWithRegisterer(prometheus.NewRegistry())
	s.service = New(s.registry, s.policy, WithMetrics(s.metrics))
}

func (s *ServiceSuite) decode(resp *envelope.Response) (string, xmlcodec.Map) {
	s.T().Helper()
	root, m, err := resp.Decode()
	s.Require().NoError(err)
	return root, m
}

func (s *ServiceSuite) field(m xmlcodec.Map, name string) any {
	s.T().Helper()
	v, ok := m.Get(name)
	s.Require().True(ok, "missing field %q", name)
	return v
}

func (s *ServiceSuite) seedCustomer(id string, cards ...*models.CreditCard) {
	s.Require().NoError(s.registry.SaveCustomer(s.ctx, &models.Customer{ID: id, CreditCards: cards}))
}

func (s *ServiceSuite) TestCreateScenario() {
	resp, err := s.service.Create(s.ctx, xmlcodec.Map{
		{Name: "number", Value: visa},
		{Name: "expiration_date", Value: "09/2025"},
	}, Options{MerchantID: "m1", CustomerID: "c1"})
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.Status)

	root, m := s.decode(resp)
	s.Equal(RootElement, root)
	s.Equal("09", s.field(m, "expiration_month"))
	s.Equal("2025", s.field(m, "expiration_year"))
	s.Equal("411111", s.field(m, "bin"))
	s.Equal("1111", s.field(m, "last_4"))
	s.Equal("m1", s.field(m, "merchant_id"))
	s.Equal("c1", s.field(m, "customer_id"))
	s.False(m.Has("number"))
}

func (s *ServiceSuite) TestCreate() {
	s.Run("derives a deterministic token and stores the sanitized record", func() {
		s.SetupTest()
		resp, err := s.service.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: visa}}, Options{MerchantID: "m1"})
		s.Require().NoError(err)
		s.Equal(http.StatusOK, resp.Status)

		want := GenerateToken(visa, "m1")
		_, m := s.decode(resp)
		s.Equal(want, s.field(m, "token"))

		stored, err := s.registry.FindCreditCard(s.ctx, want)
		s.Require().NoError(err)
		s.Nil(stored.Number)
		s.Equal("411111", *stored.BIN)
		s.Equal("1111", *stored.Last4)
	})

	s.Run("keeps a supplied token and lets params win over options", func() {
		s.SetupTest()
		resp, err := s.service.Create(s.ctx, xmlcodec.Map{
			{Name: "number", Value: visa},
			{Name: "token", Value: "from-params"},
		}, Options{Token: "from-options", MerchantID: "m1"})
		s.Require().NoError(err)

		_, m := s.decode(resp)
		s.Equal("from-params", s.field(m, "token"))
		_, err = s.registry.FindCreditCard(s.ctx, "from-options")
		s.ErrorIs(err, registry.ErrNotFound)
	})

	s.Run("copies the billing address snapshot", func() {
		s.SetupTest()
		s.Require().NoError(s.registry.SaveAddress(s.ctx, &models.Address{ID: "a1", PostalCode: "60622"}))

		resp, err := s.service.Create(s.ctx, xmlcodec.Map{
			{Name: "number", Value: visa},
			{Name: "billing_address_id", Value: "a1"},
		}, Options{Token: "tok"})
		s.Require().NoError(err)

		_, m := s.decode(resp)
		addr, ok := m.Map("billing_address")
		s.Require().True(ok)
		s.Equal("60622", s.field(addr, "postal_code"))

		// Later address changes do not reach the stored card.
		s.Require().NoError(s.registry.SaveAddress(s.ctx, &models.Address{ID: "a1", PostalCode: "99999"}))
		stored, err := s.registry.FindCreditCard(s.ctx, "tok")
		s.Require().NoError(err)
		s.Equal("60622", stored.BillingAddress.PostalCode)
	})

	s.Run("unknown billing address is omitted", func() {
		s.SetupTest()
		resp, err := s.service.Create(s.ctx, xmlcodec.Map{
			{Name: "number", Value: visa},
			{Name: "billing_address_id", Value: "missing"},
		}, Options{Token: "tok"})
		s.Require().NoError(err)
		s.Equal(http.StatusOK, resp.Status)

		_, m := s.decode(resp)
		s.False(m.Has("billing_address"))
	})

	s.Run("malformed expiration date derives nothing", func() {
		s.SetupTest()
		resp, err := s.service.Create(s.ctx, xmlcodec.Map{
			{Name: "number", Value: visa},
			{Name: "expiration_date", Value: "092025"},
		}, Options{Token: "tok"})
		s.Require().NoError(err)

		_, m := s.decode(resp)
		s.False(m.Has("expiration_month"))
		s.False(m.Has("expiration_year"))
	})

	s.Run("links the unsanitized record to an existing customer", func() {
		s.SetupTest()
		s.seedCustomer("c1")

		_, err := s.service.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: visa}}, Options{Token: "tok", CustomerID: "c1"})
		s.Require().NoError(err)

		customer, err := s.registry.FindCustomer(s.ctx, "c1")
		s.Require().NoError(err)
		s.Require().Len(customer.CreditCards, 1)
		s.Equal(visa, customer.CreditCards[0].NumberValue())
	})

	s.Run("unknown customer leaves the card unlinked", func() {
		s.SetupTest()
		resp, err := s.service.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: visa}}, Options{Token: "tok", CustomerID: "ghost"})
		s.Require().NoError(err)
		s.Equal(http.StatusOK, resp.Status)
		s.Equal(1, s.registry.Stats().CreditCards)
	})
}

func (s *ServiceSuite) TestCreateVerifyAll() {
	s.policy.Set(cardpolicy.Settings{VerifyAll: true})

	for _, number := range cardpolicy.DefaultValidCards {
		resp, err := s.service.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: number}}, Options{MerchantID: "m1"})
		s.Require().NoError(err)
		s.Equal(http.StatusOK, resp.Status, number)

		stored, err := s.registry.FindCreditCard(s.ctx, GenerateToken(number, "m1"))
		s.Require().NoError(err)
		s.Equal(number[:6], *stored.BIN)
		s.Equal(number[len(number)-4:], *stored.Last4)
	}

	resp, err := s.service.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: "4111111111111112"}}, Options{})
	s.Require().NoError(err)
	s.Equal(http.StatusUnprocessableEntity, resp.Status)
}

func (s *ServiceSuite) TestCreateDeclineAll() {
	s.policy.Set(cardpolicy.Settings{DeclineAll: true, VerifyAll: true})
	s.seedCustomer("c1")

	for _, number := range []string{visa, "", "garbage"} {
		resp, err := s.service.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: number}}, Options{CustomerID: "c1"})
		s.Require().NoError(err)
		s.Equal(http.StatusUnprocessableEntity, resp.Status)

		root, m := s.decode(resp)
		s.Equal(failure.RootElement, root)
		s.Equal("Do Not Honor", s.field(m, "message"))

		params, ok := m.Map("params")
		s.Require().True(ok)
		card, ok := params.Map(RootElement)
		s.Require().True(ok)
		s.Equal(number, s.field(card, "number"), "rejected record is echoed unsanitized")
	}

	s.Equal(registry.Stats{Customers: 1}, s.registry.Stats())
	customer, err := s.registry.FindCustomer(s.ctx, "c1")
	s.Require().NoError(err)
	s.Empty(customer.CreditCards)
	s.Equal(3.0, testutil.ToFloat64(s.metrics.CardsDeclined))
}

func (s *ServiceSuite) TestCreateWithCustomFailureTemplate() {
	s.policy.Set(cardpolicy.Settings{DeclineAll: true})
	svc := New(s.registry, s.policy, WithFailureTemplate(failure.Template{Message: "Insufficient Funds", ProcessorResponseCode: "2001"}))

	resp, err := svc.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: visa}}, Options{})
	s.Require().NoError(err)

	_, m := s.decode(resp)
	s.Equal("Insufficient Funds", s.field(m, "message"))
}

func (s *ServiceSuite) TestDefaultCardInvariant() {
	s.Run("create with make_default demotes the previous default", func() {
		s.SetupTest()
		s.seedCustomer("c1",
			&models.CreditCard{Token: models.Ptr("a"), Default: models.Ptr(true)},
			&models.CreditCard{Token: models.Ptr("b"), Default: models.Ptr(false)},
		)

		resp, err := s.service.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: visa}},
			Options{Token: "new", CustomerID: "c1", MakeDefault: models.Ptr(true)})
		s.Require().NoError(err)

		_, m := s.decode(resp)
		s.Equal(true, s.field(m, "default"))

		customer, err := s.registry.FindCustomer(s.ctx, "c1")
		s.Require().NoError(err)
		s.Equal([]string{"new"}, customer.DefaultCards())
		s.Equal(1.0, testutil.ToFloat64(s.metrics.DefaultsEnforced))
	})

	s.Run("create without make_default leaves the list alone", func() {
		s.SetupTest()
		s.seedCustomer("c1", &models.CreditCard{Token: models.Ptr("a"), Default: models.Ptr(true)})

		_, err := s.service.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: visa}}, Options{Token: "new", CustomerID: "c1"})
		s.Require().NoError(err)

		customer, err := s.registry.FindCustomer(s.ctx, "c1")
		s.Require().NoError(err)
		s.Equal([]string{"a"}, customer.DefaultCards())
	})

	s.Run("update with make_default promotes the updated card", func() {
		s.SetupTest()
		s.seedCustomer("c1")
		for _, token := range []string{"a", "b", "c"} {
			_, err := s.service.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: visa}},
				Options{Token: token, CustomerID: "c1", MakeDefault: models.Ptr(token == "a")})
			s.Require().NoError(err)
		}

		resp, err := s.service.Update(s.ctx, nil, Options{Token: "c", MakeDefault: models.Ptr(true)})
		s.Require().NoError(err)
		s.Equal(http.StatusOK, resp.Status)

		customer, err := s.registry.FindCustomer(s.ctx, "c1")
		s.Require().NoError(err)
		s.Len(customer.CreditCards, 3)
		s.Equal([]string{"c"}, customer.DefaultCards())

		stored, err := s.registry.FindCreditCard(s.ctx, "c")
		s.Require().NoError(err)
		s.True(stored.IsDefault())
	})
	s.Run("creating the same card twice keeps one entry and one default", func() {
		s.SetupTest()
		s.seedCustomer("c1", &models.CreditCard{Token: models.Ptr("other"), Default: models.Ptr(true)})
		params := xmlcodec.Map{{Name: "number", Value: visa}}

		_, err := s.service.Create(s.ctx, params, Options{MerchantID: "m1", CustomerID: "c1"})
		s.Require().NoError(err)
		_, err = s.service.Create(s.ctx, params, Options{MerchantID: "m1", CustomerID: "c1", MakeDefault: models.Ptr(true)})
		s.Require().NoError(err)

		customer, err := s.registry.FindCustomer(s.ctx, "c1")
		s.Require().NoError(err)
		s.Len(customer.CreditCards, 2)
		s.Equal([]string{GenerateToken(visa, "m1")}, customer.DefaultCards())
	})

	s.Run("update with make_default false clears the customer's copy", func() {
		s.SetupTest()
		s.seedCustomer("c1")
		_, err := s.service.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: visa}},
			Options{Token: "a", CustomerID: "c1", MakeDefault: models.Ptr(true)})
		s.Require().NoError(err)

		resp, err := s.service.Update(s.ctx, nil, Options{Token: "a", MakeDefault: models.Ptr(false)})
		s.Require().NoError(err)
		_, m := s.decode(resp)
		s.Equal(false, s.field(m, "default"))

		customer, err := s.registry.FindCustomer(s.ctx, "c1")
		s.Require().NoError(err)
		s.Empty(customer.DefaultCards())

		stored, err := s.registry.FindCreditCard(s.ctx, "a")
		s.Require().NoError(err)
		s.False(stored.IsDefault())
	})
}

func (s *ServiceSuite) TestUpdate() {
	s.Run("merges over the stored record", func() {
		s.SetupTest()
		_, err := s.service.Create(s.ctx, xmlcodec.Map{
			{Name: "number", Value: visa},
			{Name: "expiration_date", Value: "09/2025"},
			{Name: "cardholder_name", Value: "Ada"},
		}, Options{Token: "tok", MerchantID: "m1", CustomerID: "c1"})
		s.Require().NoError(err)

		resp, err := s.service.Update(s.ctx, xmlcodec.Map{
			{Name: "cardholder_name", Value: "Grace"},
			{Name: "expiration_date", Value: "10/2030"},
		}, Options{Token: "tok", MerchantID: "m1"})
		s.Require().NoError(err)
		s.Equal(http.StatusOK, resp.Status)

		root, m := s.decode(resp)
		s.Equal(RootElement, root)
		s.Equal("Grace", s.field(m, "cardholder_name"))
		s.Equal("10", s.field(m, "expiration_month"))
		s.Equal("2030", s.field(m, "expiration_year"))
		s.Equal("c1", s.field(m, "customer_id"))
		s.Equal("411111", s.field(m, "bin"))
		s.Equal("1111", s.field(m, "last_4"))

		stored, err := s.registry.FindCreditCard(s.ctx, "tok")
		s.Require().NoError(err)
		s.Equal("Grace", stored.Extra[0].Value)
	})

	s.Run("new number is sanitized again", func() {
		s.SetupTest()
		_, err := s.service.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: visa}}, Options{Token: "tok"})
		s.Require().NoError(err)

		resp, err := s.service.Update(s.ctx, xmlcodec.Map{{Name: "number", Value: "5555555555554444"}}, Options{Token: "tok"})
		s.Require().NoError(err)

		_, m := s.decode(resp)
		s.False(m.Has("number"))
		s.Equal("555555", s.field(m, "bin"))
		s.Equal("4444", s.field(m, "last_4"))
	})

	s.Run("unknown token is 404 and changes nothing", func() {
		s.SetupTest()
		s.seedCustomer("c1")
		before := s.registry.Stats()

		resp, err := s.service.Update(s.ctx, xmlcodec.Map{{Name: "cardholder_name", Value: "x"}},
			Options{Token: "missing", MakeDefault: models.Ptr(true)})
		s.Require().NoError(err)
		s.Equal(http.StatusNotFound, resp.Status)

		root, m := s.decode(resp)
		s.Equal(failure.RootElement, root)
		// An empty params mapping reads back as an empty element.
		s.Equal("", s.field(m, "params"))

		s.Equal(before, s.registry.Stats())
		_, err = s.registry.FindCreditCard(s.ctx, "missing")
		s.ErrorIs(err, registry.ErrNotFound)
	})
}

func (s *ServiceSuite) TestFind() {
	_, err := s.service.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: visa}}, Options{Token: "tok"})
	s.Require().NoError(err)

	resp, err := s.service.Find(s.ctx, "tok")
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.Status)
	_, m := s.decode(resp)
	s.Equal("tok", s.field(m, "token"))

	resp, err = s.service.Find(s.ctx, "missing")
	s.Require().NoError(err)
	s.Equal(http.StatusNotFound, resp.Status)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Responses.WithLabelValues("find", "404")))
}

func (s *ServiceSuite) TestToXMLIsStable() {
	card := s.service.Build(s.ctx, xmlcodec.Map{
		{Name: "number", Value: visa},
		{Name: "expiration_date", Value: "09/2025"},
	}, Options{Token: "tok", MerchantID: "m1"})

	first, err := s.service.ToXML(card)
	s.Require().NoError(err)
	second, err := s.service.ToXML(card)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.NotContains(string(first), visa)
	s.Contains(string(first), "<credit_card>")
	s.Equal(visa, card.NumberValue(), "rendering does not strip the caller's record")
}

func (s *ServiceSuite) TestBuild() {
	s.Run("options fill gaps left by params", func() {
		card := s.service.Build(s.ctx, xmlcodec.Map{{Name: "customer_id", Value: "from-params"}},
			Options{Token: "t", MerchantID: "m", CustomerID: "c", MakeDefault: models.Ptr(false)})
		s.Equal("t", card.TokenValue())
		s.Equal("m", card.MerchantIDValue())
		s.Equal("from-params", card.CustomerIDValue())
		s.Require().NotNil(card.Default)
		s.False(*card.Default)
	})

	s.Run("params sent as nil override options", func() {
		card := s.service.Build(s.ctx, xmlcodec.Map{{Name: "token", Value: nil}}, Options{Token: "t", MerchantID: "m1"})
		s.Nil(card.Token)
		s.Equal("m1", card.MerchantIDValue())

		resp, err := s.service.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: visa}, {Name: "token", Value: nil}},
			Options{Token: "t", MerchantID: "m1"})
		s.Require().NoError(err)
		_, m := s.decode(resp)
		s.Equal(GenerateToken(visa, "m1"), s.field(m, "token"))
	})

	s.Run("empty options stay absent", func() {
		card := s.service.Build(s.ctx, nil, Options{})
		s.Nil(card.Token)
		s.Nil(card.MerchantID)
		s.Nil(card.CustomerID)
		s.Nil(card.Default)
	})
}

func (s *ServiceSuite) TestGenerateToken() {
	s.Equal(GenerateToken(visa, "m1"), GenerateToken(visa, "m1"))
	s.NotEqual(GenerateToken(visa, "m1"), GenerateToken(visa, "m2"))
	s.Len(GenerateToken("", ""), 32)
}

type failingRegistry struct {
	*registry.Registry
}

func (f failingRegistry) SaveCreditCard(context.Context, *models.CreditCard) error {
	return errors.New("disk full")
}

type unlinkableRegistry struct {
	*registry.Registry
}

func (u unlinkableRegistry) AppendCustomerCard(context.Context, string, *models.CreditCard) error {
	return errors.New("customer table unavailable")
}

func (s *ServiceSuite) TestLinkFailureStoresNothing() {
	s.seedCustomer("c1")
	svc := New(unlinkableRegistry{s.registry}, s.policy)

	resp, err := svc.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: visa}}, Options{Token: "tok", CustomerID: "c1"})
	s.Nil(resp)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal(0, s.registry.Stats().CreditCards)
}

func (s *ServiceSuite) TestStoreFailureIsInternalError() {
	svc := New(failingRegistry{s.registry}, s.policy)

	resp, err := svc.Create(s.ctx, xmlcodec.Map{{Name: "number", Value: visa}}, Options{Token: "tok"})
	s.Nil(resp)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
