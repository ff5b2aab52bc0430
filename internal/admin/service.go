package admin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fakegateway/internal/cardpolicy"
	"fakegateway/internal/models"
	"fakegateway/internal/platform/metrics"
	"fakegateway/internal/registry"
	"fakegateway/internal/sentinel"
	dErrors "fakegateway/pkg/domain-errors"
	adminmw "fakegateway/pkg/platform/middleware/admin"
	request "fakegateway/pkg/platform/middleware/request"
)

// Store is the part of the registry the control surface manages.
type Store interface {
	Reset()
	Stats() registry.Stats
	SaveCustomer(ctx context.Context, customer *models.Customer) error
	FindCustomer(ctx context.Context, id string) (*models.Customer, error)
	SaveAddress(ctx context.Context, address *models.Address) error
	FindAddress(ctx context.Context, id string) (*models.Address, error)
}

// PolicyStore is the live card validation switch.
type PolicyStore interface {
	Settings() cardpolicy.Settings
	Set(s cardpolicy.Settings)
	Reset()
	ValidCards() []string
}

// Service lets a test suite put the fixture into a known state between cases.
type Service struct {
	store   Store
	policy  PolicyStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	newID   func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithIDGenerator replaces uuid.NewString for records created without an id.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

func NewService(store Store, policy PolicyStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		policy: policy,
		logger: slog.New(slog.DiscardHandler),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset empties the registry and restores the configured policy flags.
func (s *Service) Reset(ctx context.Context) {
	s.store.Reset()
	s.policy.Reset()
	if s.metrics != nil {
		s.metrics.IncrementResets()
	}
	s.logger.InfoContext(ctx, "fixture reset",
		"actor", adminmw.GetAdminActorID(ctx),
		"request_id", request.GetRequestID(ctx),
	)
}

func (s *Service) Policy(_ context.Context) *PolicyResponse {
	settings := s.policy.Settings()
	return &PolicyResponse{
		Settings:   settings,
		Mode:       settings.Mode(),
		ValidCards: s.policy.ValidCards(),
	}
}

func (s *Service) UpdatePolicy(ctx context.Context, req *UpdatePolicyRequest) *PolicyResponse {
	settings := req.apply(s.policy.Settings())
	s.policy.Set(settings)
	if s.metrics != nil {
		s.metrics.IncrementPolicyChanges(settings.Mode())
	}
	s.logger.InfoContext(ctx, "card policy changed",
		"mode", settings.Mode(),
		"actor", adminmw.GetAdminActorID(ctx),
		"request_id", request.GetRequestID(ctx),
	)
	return s.Policy(ctx)
}

// CreateCustomer seeds a customer with an empty card list. Ids must be unique
// until the next reset.
func (s *Service) CreateCustomer(ctx context.Context, req *CreateCustomerRequest) (*models.Customer, error) {
	id := req.ID
	if id == "" {
		id = s.newID()
	}
	if _, err := s.store.FindCustomer(ctx, id); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "customer already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}

	customer := req.customer(id)
	if err := s.store.SaveCustomer(ctx, customer); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save customer")
	}
	if s.metrics != nil {
		s.metrics.IncrementRecordsSeeded("customer")
	}
	return s.FindCustomer(ctx, id)
}

func (s *Service) FindCustomer(ctx context.Context, id string) (*models.Customer, error) {
	customer, err := s.store.FindCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}
	return customer, nil
}

// CreateAddress seeds an address that credit cards can reference by
// billing_address_id. The owning customer does not have to exist.
func (s *Service) CreateAddress(ctx context.Context, req *CreateAddressRequest) (*models.Address, error) {
	id := req.ID
	if id == "" {
		id = s.newID()
	}
	if _, err := s.store.FindAddress(ctx, id); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "address already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load address")
	}

	address := req.address(id)
	if err := s.store.SaveAddress(ctx, address); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save address")
	}
	if s.metrics != nil {
		s.metrics.IncrementRecordsSeeded("address")
	}
	return address, nil
}

type StatsResponse struct {
	registry.Stats
	PolicyMode string    `json:"policy_mode"`
	Timestamp  time.Time `json:"timestamp"`
}

func (s *Service) Stats(_ context.Context) *StatsResponse {
	return &StatsResponse{
		Stats:      s.store.Stats(),
		PolicyMode: s.policy.Settings().Mode(),
		Timestamp:  time.Now().UTC(),
	}
}
