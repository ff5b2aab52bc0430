// Package tracer provides a lightweight tracing abstraction for the fake
// gateway's resource handlers.
//
// Services depend on the Tracer interface instead of OpenTelemetry directly:
//   - NoopTracer: for tests
//   - OTelTracer: OpenTelemetry adapter for the running server
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks the span as failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	// Start creates a new span with the given name and attributes.
	//
	// Example:
	//   ctx, span := tracer.Start(ctx, tracer.SpanCreditCardCreate,
	//       tracer.String(tracer.AttrMerchantID, merchantID),
	//   )
	//   defer span.End(nil)
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an int attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashToken returns a short SHA-256 digest of a card token so spans can be
// correlated without carrying the token itself.
func HashToken(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:8])
}

// Span names used by the credit card handler.
const (
	SpanCreditCardCreate = "creditcard.create"
	SpanCreditCardUpdate = "creditcard.update"
	SpanCreditCardFind   = "creditcard.find"
)

// Attribute keys used by the credit card handler.
const (
	AttrMerchantID   = "merchant_id"
	AttrCustomerID   = "customer_id"
	AttrTokenHash    = "token_hash"
	AttrPolicyMode   = "policy.mode"
	AttrStatus       = "response.status"
	AttrMakeDefault  = "make_default"
	AttrCustomerLink = "customer.linked"
)

// Event names used by the credit card handler.
const (
	EventCardDeclined    = "card.declined"
	EventDefaultEnforced = "default.enforced"
)
