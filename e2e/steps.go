package e2e

import (
	"github.com/cucumber/godog"

	"fakegateway/e2e/steps/admin"
	"fakegateway/e2e/steps/common"
	"fakegateway/e2e/steps/creditcard"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	creditcard.RegisterSteps(ctx, tc)
	admin.RegisterSteps(ctx, tc)
}
