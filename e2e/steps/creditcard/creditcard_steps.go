package creditcard

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"

	ccservice "fakegateway/internal/creditcard/service"
	"fakegateway/pkg/platform/xmlcodec"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	SendXML(method, path, body string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (interface{}, error)
	SaveToken(alias, token string)
	Token(alias string) (string, error)
}

// RegisterSteps registers payment method step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &creditCardSteps{tc: tc}

	ctx.Step(`^I create a credit card for merchant "([^"]*)" with:$`, steps.createCard)
	ctx.Step(`^I update the card "([^"]*)" for merchant "([^"]*)" with:$`, steps.updateCard)
	ctx.Step(`^I update the card with token "([^"]*)" for merchant "([^"]*)" with:$`, steps.updateCardByToken)
	ctx.Step(`^I find the card "([^"]*)" for merchant "([^"]*)"$`, steps.findCard)
	ctx.Step(`^I find the card with token "([^"]*)" for merchant "([^"]*)"$`, steps.findCardByToken)
	ctx.Step(`^I post the document "([^"]*)" to merchant "([^"]*)"$`, steps.postRawDocument)
	ctx.Step(`^I save the card token as "([^"]*)"$`, steps.saveToken)
	ctx.Step(`^the card token should be derived from number "([^"]*)" and merchant "([^"]*)"$`, steps.tokenShouldBeDerived)
}

type creditCardSteps struct {
	tc TestContext
}

func createPath(merchantID string) string {
	return fmt.Sprintf("/merchants/%s/payment_methods", merchantID)
}

func cardPath(merchantID, token string) string {
	return fmt.Sprintf("/merchants/%s/payment_methods/any/%s", merchantID, token)
}

func (s *creditCardSteps) createCard(ctx context.Context, merchantID string, table *godog.Table) error {
	doc, err := document(table)
	if err != nil {
		return err
	}
	return s.tc.SendXML(http.MethodPost, createPath(merchantID), doc)
}

func (s *creditCardSteps) updateCard(ctx context.Context, alias, merchantID string, table *godog.Table) error {
	token, err := s.tc.Token(alias)
	if err != nil {
		return err
	}
	return s.updateCardByToken(ctx, token, merchantID, table)
}

func (s *creditCardSteps) updateCardByToken(ctx context.Context, token, merchantID string, table *godog.Table) error {
	doc, err := document(table)
	if err != nil {
		return err
	}
	return s.tc.SendXML(http.MethodPut, cardPath(merchantID, token), doc)
}

func (s *creditCardSteps) findCard(ctx context.Context, alias, merchantID string) error {
	token, err := s.tc.Token(alias)
	if err != nil {
		return err
	}
	return s.findCardByToken(ctx, token, merchantID)
}

func (s *creditCardSteps) findCardByToken(ctx context.Context, token, merchantID string) error {
	return s.tc.GET(cardPath(merchantID, token), nil)
}

func (s *creditCardSteps) postRawDocument(ctx context.Context, doc, merchantID string) error {
	return s.tc.SendXML(http.MethodPost, createPath(merchantID), doc)
}

func (s *creditCardSteps) saveToken(ctx context.Context, alias string) error {
	token, err := s.tc.GetResponseField("token")
	if err != nil {
		return err
	}
	value, ok := token.(string)
	if !ok || value == "" {
		return fmt.Errorf("response token is %v", token)
	}
	s.tc.SaveToken(alias, value)
	return nil
}

func (s *creditCardSteps) tokenShouldBeDerived(ctx context.Context, number, merchantID string) error {
	token, err := s.tc.GetResponseField("token")
	if err != nil {
		return err
	}
	if expected := ccservice.GenerateToken(number, merchantID); token != expected {
		return fmt.Errorf("expected token %s but got %v", expected, token)
	}
	return nil
}

// document renders a two-column | field | value | table as a credit_card
// document. Dotted fields nest ("options.make_default"); true and false
// become typed booleans.
func document(table *godog.Table) (string, error) {
	var m xmlcodec.Map
	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return "", fmt.Errorf("expected | field | value | rows, got %d cells", len(row.Cells))
		}
		m = set(m, strings.Split(row.Cells[0].Value, "."), typed(row.Cells[1].Value))
	}
	doc, err := xmlcodec.Marshal(ccservice.RootElement, m)
	if err != nil {
		return "", err
	}
	return string(doc), nil
}

func set(m xmlcodec.Map, path []string, value any) xmlcodec.Map {
	if len(path) == 1 {
		return m.Set(path[0], value)
	}
	nested, _ := m.Map(path[0])
	return m.Set(path[0], set(nested, path[1:], value))
}

func typed(value string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}
