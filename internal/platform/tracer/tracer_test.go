package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"fakegateway/internal/platform/tracer"
)

func TestNoopTracer_Start(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, "test.span",
		tracer.String("key", "value"),
		tracer.Bool("flag", true),
	)

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.String("another", "attr"))
	span.AddEvent("test.event", tracer.Int64("count", 42))
	span.End(errors.New("test error"))
}

func TestOTelTracer_WithInjectedTracer(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	ctx, span := tr.Start(context.Background(), tracer.SpanCreditCardCreate,
		tracer.String(tracer.AttrMerchantID, "m1"),
		tracer.Int(tracer.AttrStatus, 200),
		tracer.Duration("latency", 150*time.Millisecond),
	)
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.Bool(tracer.AttrCustomerLink, true))
	span.AddEvent(tracer.EventDefaultEnforced)
	span.End(errors.New("boom"))
}

func TestOTelTracer_DefaultsToGlobalProvider(t *testing.T) {
	tr := tracer.NewOTel()
	_, span := tr.Start(context.Background(), tracer.SpanCreditCardFind)
	span.End(nil)
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, "", tracer.HashToken(""))
	assert.Len(t, tracer.HashToken("abc"), 16)
	assert.Equal(t, tracer.HashToken("abc"), tracer.HashToken("abc"))
	assert.NotEqual(t, tracer.HashToken("abc"), tracer.HashToken("abd"))
}

func TestAttributeConstructors(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		attr := tracer.String("key", "value")
		assert.Equal(t, "key", attr.Key)
		assert.Equal(t, "value", attr.Value)
	})

	t.Run("Int", func(t *testing.T) {
		attr := tracer.Int("status", 422)
		assert.Equal(t, 422, attr.Value)
	})

	t.Run("Duration", func(t *testing.T) {
		attr := tracer.Duration("latency", 150*time.Millisecond)
		assert.Equal(t, int64(150), attr.Value)
	})
}
