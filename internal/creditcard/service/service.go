package service

import (
	"context"
	"crypto/md5" //nolint:gosec // token derivation only needs determinism
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"fakegateway/internal/cardpolicy"
	ccmetrics "fakegateway/internal/creditcard/metrics"
	"fakegateway/internal/failure"
	"fakegateway/internal/models"
	"fakegateway/internal/platform/privacy"
	"fakegateway/internal/platform/tracer"
	"fakegateway/internal/sentinel"
	dErrors "fakegateway/pkg/domain-errors"
	"fakegateway/pkg/platform/envelope"
	request "fakegateway/pkg/platform/middleware/request"
	"fakegateway/pkg/platform/xmlcodec"
)

// RootElement is the root of every credit card document.
const RootElement = "credit_card"

const (
	opCreate = "create"
	opUpdate = "update"
	opFind   = "find"
)

// Registry is the slice of the shared record table the handler needs.
type Registry interface {
	SaveCreditCard(ctx context.Context, card *models.CreditCard) error
	FindCreditCard(ctx context.Context, token string) (*models.CreditCard, error)
	AppendCustomerCard(ctx context.Context, customerID string, card *models.CreditCard) error
	MakeDefaultCard(ctx context.Context, customerID, token string) error
	ClearDefaultCard(ctx context.Context, customerID, token string) error
	FindAddress(ctx context.Context, id string) (*models.Address, error)
}

// Policy decides whether a card number is accepted.
type Policy interface {
	Valid(number *string) bool
	Settings() cardpolicy.Settings
}

// Options is the request context that travels next to the card fields.
// Empty strings and a nil MakeDefault mean "not supplied".
type Options struct {
	Token       string
	MerchantID  string
	CustomerID  string
	MakeDefault *bool
}

// Service builds, validates, stores and renders credit card records.
// Declines and unknown tokens are ordinary responses; the error return is
// reserved for failures to store or render.
type Service struct {
	registry Registry
	policy   Policy
	failure  failure.Template
	tracer   tracer.Tracer
	metrics  *ccmetrics.Metrics
	logger   *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithMetrics(m *ccmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithFailureTemplate replaces the default decline document.
func WithFailureTemplate(t failure.Template) Option {
	return func(s *Service) {
		s.failure = t
	}
}

func New(registry Registry, policy Policy, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		policy:   policy,
		failure:  failure.Default(),
		tracer:   tracer.NewNoop(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build assembles a record from request params and options. Params win over
// options. A billing_address_id is resolved to a snapshot of the stored
// address, and an "MM/YYYY" expiration_date is split into month and year.
func (s *Service) Build(ctx context.Context, params xmlcodec.Map, opts Options) *models.CreditCard {
	defaults := &models.CreditCard{
		Token:      nonEmpty(opts.Token),
		MerchantID: nonEmpty(opts.MerchantID),
		CustomerID: nonEmpty(opts.CustomerID),
	}
	if opts.MakeDefault != nil {
		defaults.Default = models.Ptr(*opts.MakeDefault)
	}

	card := defaults.Merge(models.CreditCardFromParams(params))
	s.setBillingAddress(ctx, card)
	card.SplitExpirationDate()
	return card
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return models.Ptr(s)
}

func (s *Service) setBillingAddress(ctx context.Context, card *models.CreditCard) {
	if card.BillingAddressID == nil {
		return
	}
	addr, err := s.registry.FindAddress(ctx, *card.BillingAddressID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "billing address lookup failed",
				"error", err,
				"request_id", request.GetRequestID(ctx),
			)
		}
		card.BillingAddress = nil
		return
	}
	card.BillingAddress = addr
}

// Create validates the card number and, when accepted, stores the record and
// links it to its customer. Declined cards get a 422 failure document that
// echoes the submitted record; nothing is stored for them.
func (s *Service) Create(ctx context.Context, params xmlcodec.Map, opts Options) (*envelope.Response, error) {
	start := time.Now()
	settings := s.policy.Settings()
	ctx, span := s.tracer.Start(ctx, tracer.SpanCreditCardCreate,
		tracer.String(tracer.AttrMerchantID, opts.MerchantID),
		tracer.String(tracer.AttrCustomerID, opts.CustomerID),
		tracer.String(tracer.AttrPolicyMode, settings.Mode()),
	)

	card := s.Build(ctx, params, opts)
	resp, err := s.create(ctx, span, card)
	s.finish(span, opCreate, start, resp, err)
	return resp, err
}

func (s *Service) create(ctx context.Context, span tracer.Span, card *models.CreditCard) (*envelope.Response, error) {
	if !s.policy.Valid(card.Number) {
		span.AddEvent(tracer.EventCardDeclined)
		if s.metrics != nil {
			s.metrics.IncrementCardsDeclined()
		}
		s.logger.InfoContext(ctx, "credit card declined",
			"merchant_id", card.MerchantIDValue(),
			"card", privacy.MaskCardNumber(card.NumberValue()),
			"request_id", request.GetRequestID(ctx),
		)
		return s.invalidCard(card)
	}

	if card.TokenValue() == "" {
		card.Token = models.Ptr(GenerateToken(card.NumberValue(), card.MerchantIDValue()))
	}
	span.SetAttributes(tracer.String(tracer.AttrTokenHash, tracer.HashToken(card.TokenValue())))

	// The customer link goes first so a failed link stores nothing.
	if customerID := card.CustomerIDValue(); customerID != "" {
		err := s.registry.AppendCustomerCard(ctx, customerID, card)
		switch {
		case err == nil:
			span.SetAttributes(tracer.Bool(tracer.AttrCustomerLink, true))
			if card.IsDefault() {
				s.defaultEnforced(span, customerID)
			}
		case errors.Is(err, sentinel.ErrNotFound):
			// Unknown customers leave the card unlinked.
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to link credit card to customer")
		}
	}

	if err := s.registry.SaveCreditCard(ctx, card.Sanitize()); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credit card")
	}

	s.logger.InfoContext(ctx, "credit card created",
		"token_hash", tracer.HashToken(card.TokenValue()),
		"customer_id", card.CustomerIDValue(),
		"default", card.IsDefault(),
		"request_id", request.GetRequestID(ctx),
	)
	return s.success(card)
}

// Update merges the submitted fields over the stored record with the same
// token. Unknown tokens get a 404 failure document and change nothing.
func (s *Service) Update(ctx context.Context, params xmlcodec.Map, opts Options) (*envelope.Response, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanCreditCardUpdate,
		tracer.String(tracer.AttrMerchantID, opts.MerchantID),
	)

	resp, err := s.update(ctx, span, s.Build(ctx, params, opts))
	s.finish(span, opUpdate, start, resp, err)
	return resp, err
}

func (s *Service) update(ctx context.Context, span tracer.Span, incoming *models.CreditCard) (*envelope.Response, error) {
	token := incoming.TokenValue()
	span.SetAttributes(tracer.String(tracer.AttrTokenHash, tracer.HashToken(token)))

	stored, err := s.registry.FindCreditCard(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.notFound()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credit card")
	}

	merged := stored.Merge(incoming).Sanitize()
	if incoming.BillingAddressID != nil && incoming.BillingAddress == nil {
		merged.BillingAddress = nil
	}
	if err := s.syncDefault(ctx, span, merged); err != nil {
		return nil, err
	}
	if err := s.registry.SaveCreditCard(ctx, merged); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credit card")
	}

	s.logger.InfoContext(ctx, "credit card updated",
		"token_hash", tracer.HashToken(token),
		"request_id", request.GetRequestID(ctx),
	)
	return s.success(merged)
}

// Find renders the stored record for token, or a 404 failure document.
func (s *Service) Find(ctx context.Context, token string) (*envelope.Response, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, tracer.SpanCreditCardFind,
		tracer.String(tracer.AttrTokenHash, tracer.HashToken(token)),
	)

	resp, err := s.find(ctx, token)
	s.finish(span, opFind, start, resp, err)
	return resp, err
}

func (s *Service) find(ctx context.Context, token string) (*envelope.Response, error) {
	stored, err := s.registry.FindCreditCard(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.notFound()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credit card")
	}
	return s.success(stored)
}

// syncDefault carries the updated card's default flag into its customer's
// list. A default card demotes every other entry. An explicit false clears
// the flag on the customer's copy as well, so both records agree.
func (s *Service) syncDefault(ctx context.Context, span tracer.Span, card *models.CreditCard) error {
	customerID := card.CustomerIDValue()
	if card.Default == nil || customerID == "" {
		return nil
	}

	var err error
	if *card.Default {
		err = s.registry.MakeDefaultCard(ctx, customerID, card.TokenValue())
	} else {
		err = s.registry.ClearDefaultCard(ctx, customerID, card.TokenValue())
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update default card")
	}
	if *card.Default {
		s.defaultEnforced(span, customerID)
	}
	return nil
}

func (s *Service) defaultEnforced(span tracer.Span, customerID string) {
	span.AddEvent(tracer.EventDefaultEnforced, tracer.String(tracer.AttrCustomerID, customerID))
	if s.metrics != nil {
		s.metrics.IncrementDefaultsEnforced()
	}
}

// ToXML renders the sanitized record under the credit_card root.
func (s *Service) ToXML(card *models.CreditCard) ([]byte, error) {
	return xmlcodec.Marshal(RootElement, card.Sanitize().ToMap())
}

func (s *Service) success(card *models.CreditCard) (*envelope.Response, error) {
	return render(http.StatusOK, RootElement, card.Sanitize().ToMap())
}

func (s *Service) invalidCard(card *models.CreditCard) (*envelope.Response, error) {
	params := xmlcodec.Map{{Name: RootElement, Value: card.ToMap()}}
	return render(http.StatusUnprocessableEntity, failure.RootElement, s.failure.WithParams(params))
}

func (s *Service) notFound() (*envelope.Response, error) {
	return render(http.StatusNotFound, failure.RootElement, s.failure.Map())
}

// FailureResponse renders the configured failure document with status. The
// HTTP layer uses it for requests it cannot parse.
func (s *Service) FailureResponse(status int) (*envelope.Response, error) {
	return render(status, failure.RootElement, s.failure.Map())
}

func render(status int, root string, m xmlcodec.Map) (*envelope.Response, error) {
	resp, err := envelope.XML(status, root, m)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render "+root)
	}
	return resp, nil
}

func (s *Service) finish(span tracer.Span, operation string, start time.Time, resp *envelope.Response, err error) {
	if resp != nil {
		span.SetAttributes(tracer.Int(tracer.AttrStatus, resp.Status))
		if s.metrics != nil {
			s.metrics.ObserveResponse(operation, resp.Status, start)
		}
	}
	span.End(err)
}

// GenerateToken derives the token of a card created without one. It is an
// MD5 digest of number followed by merchantID: stable for fixtures, not
// secret.
func GenerateToken(number, merchantID string) string {
	sum := md5.Sum([]byte(number + merchantID)) //nolint:gosec // fixture identity, not a secret
	return hex.EncodeToString(sum[:])
}
