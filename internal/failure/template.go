// Package failure builds the api_error_response documents the fake gateway
// returns for declined cards and unknown records.
package failure

import "fakegateway/pkg/platform/xmlcodec"

// RootElement is the root of every failure document.
const RootElement = "api_error_response"

// Template is the configurable part of a failure response.
type Template struct {
	Message               string
	VerificationStatus    string
	ProcessorResponseCode string
	ProcessorResponseText string
}

// Default returns the processor decline the gateway sandbox sends for
// rejected cards.
func Default() Template {
	return Template{
		Message:               "Do Not Honor",
		VerificationStatus:    "processor_declined",
		ProcessorResponseCode: "2000",
		ProcessorResponseText: "Do Not Honor",
	}
}

// Map renders the template with an empty params mapping.
func (t Template) Map() xmlcodec.Map {
	return xmlcodec.Map{
		{Name: "message", Value: t.Message},
		{Name: "verification", Value: xmlcodec.Map{
			{Name: "status", Value: t.VerificationStatus},
			{Name: "processor_response_code", Value: t.ProcessorResponseCode},
			{Name: "processor_response_text", Value: t.ProcessorResponseText},
		}},
		{Name: "errors", Value: xmlcodec.Map{
			{Name: "errors", Value: xmlcodec.List{Item: "error"}},
		}},
		{Name: "params", Value: xmlcodec.Map{}},
	}
}

// WithParams renders the template with params in place of the empty mapping.
func (t Template) WithParams(params xmlcodec.Map) xmlcodec.Map {
	return t.Map().Set("params", params.Clone())
}
