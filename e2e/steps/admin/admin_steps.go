package admin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	SendJSON(method, path string, body interface{}) error
	AdminGET(path string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	Token(alias string) (string, error)
}

// RegisterSteps registers fixture control step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adminSteps{tc: tc}

	// Policy steps
	ctx.Step(`^the card policy declines all cards$`, steps.declineAllCards)
	ctx.Step(`^the card policy verifies all cards$`, steps.verifyAllCards)
	ctx.Step(`^I read the card policy$`, steps.readPolicy)

	// Seeding steps
	ctx.Step(`^a customer "([^"]*)" exists$`, steps.customerExists)
	ctx.Step(`^an address "([^"]*)" exists for customer "([^"]*)" on "([^"]*)"$`, steps.addressExists)
	ctx.Step(`^I create a customer "([^"]*)" with email "([^"]*)"$`, steps.createCustomer)
	ctx.Step(`^I look up customer "([^"]*)"$`, steps.lookUpCustomer)

	// Registry steps
	ctx.Step(`^I reset the fixture$`, steps.resetFixture)
	ctx.Step(`^I request the fixture stats$`, steps.requestStats)
	ctx.Step(`^I request the fixture stats without the admin token$`, steps.requestStatsWithoutToken)
	ctx.Step(`^the registry should hold (\d+) credit cards?$`, steps.registryShouldHoldCards)

	// Default card invariant
	ctx.Step(`^card "([^"]*)" should be the only default card of customer "([^"]*)"$`, steps.onlyDefaultCard)
}

type adminSteps struct {
	tc TestContext
}

func (s *adminSteps) expectStatus(expected int) error {
	if actual := s.tc.GetLastResponseStatus(); actual != expected {
		return fmt.Errorf("expected status %d but got %d\nResponse: %s", expected, actual, s.tc.GetLastResponseBody())
	}
	return nil
}

// Policy Steps

func (s *adminSteps) declineAllCards(ctx context.Context) error {
	if err := s.tc.SendJSON(http.MethodPut, "/_fake/policy", map[string]interface{}{"decline_all": true}); err != nil {
		return err
	}
	return s.expectStatus(http.StatusOK)
}

func (s *adminSteps) verifyAllCards(ctx context.Context) error {
	if err := s.tc.SendJSON(http.MethodPut, "/_fake/policy", map[string]interface{}{"verify_all": true}); err != nil {
		return err
	}
	return s.expectStatus(http.StatusOK)
}

func (s *adminSteps) readPolicy(ctx context.Context) error {
	return s.tc.AdminGET("/_fake/policy")
}

// Seeding Steps

func (s *adminSteps) customerExists(ctx context.Context, id string) error {
	if err := s.tc.SendJSON(http.MethodPost, "/_fake/customers", map[string]interface{}{"id": id}); err != nil {
		return err
	}
	return s.expectStatus(http.StatusCreated)
}

func (s *adminSteps) addressExists(ctx context.Context, id, customerID, street string) error {
	body := map[string]interface{}{
		"id":             id,
		"customer_id":    customerID,
		"street_address": street,
	}
	if err := s.tc.SendJSON(http.MethodPost, "/_fake/addresses", body); err != nil {
		return err
	}
	return s.expectStatus(http.StatusCreated)
}

func (s *adminSteps) createCustomer(ctx context.Context, id, email string) error {
	return s.tc.SendJSON(http.MethodPost, "/_fake/customers", map[string]interface{}{
		"id":    id,
		"email": email,
	})
}

func (s *adminSteps) lookUpCustomer(ctx context.Context, id string) error {
	return s.tc.AdminGET("/_fake/customers/" + id)
}

// Registry Steps

func (s *adminSteps) resetFixture(ctx context.Context) error {
	if err := s.tc.SendJSON(http.MethodPost, "/_fake/reset", nil); err != nil {
		return err
	}
	return s.expectStatus(http.StatusNoContent)
}

func (s *adminSteps) requestStats(ctx context.Context) error {
	return s.tc.AdminGET("/_fake/stats")
}

func (s *adminSteps) requestStatsWithoutToken(ctx context.Context) error {
	return s.tc.GET("/_fake/stats", nil)
}

func (s *adminSteps) registryShouldHoldCards(ctx context.Context, expected int) error {
	if err := s.requestStats(ctx); err != nil {
		return err
	}
	count, err := s.tc.GetResponseField("credit_cards")
	if err != nil {
		return err
	}
	if fmt.Sprint(count) != fmt.Sprint(expected) {
		return fmt.Errorf("expected %d credit cards but registry holds %v", expected, count)
	}
	return nil
}

// Default Card Steps

func (s *adminSteps) onlyDefaultCard(ctx context.Context, alias, customerID string) error {
	token, err := s.tc.Token(alias)
	if err != nil {
		return err
	}
	if err := s.lookUpCustomer(ctx, customerID); err != nil {
		return err
	}
	if err := s.expectStatus(http.StatusOK); err != nil {
		return err
	}

	field, err := s.tc.GetResponseField("credit_cards")
	if err != nil {
		return err
	}
	cards, ok := field.([]interface{})
	if !ok {
		return fmt.Errorf("credit_cards is %T, not a list", field)
	}

	found := false
	for _, c := range cards {
		card, ok := c.(map[string]interface{})
		if !ok {
			return fmt.Errorf("credit card entry is %T", c)
		}
		isDefault := card["default"] == true
		switch {
		case card["token"] == token && !isDefault:
			return fmt.Errorf("card %s is not the default", alias)
		case card["token"] == token && found:
			return fmt.Errorf("card %s is linked more than once", alias)
		case card["token"] == token:
			found = true
		case isDefault:
			return fmt.Errorf("card %v is also marked default", card["token"])
		}
	}
	if !found {
		return fmt.Errorf("card %s is not linked to customer %s", alias, customerID)
	}
	return nil
}
