package admin

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fakegateway/pkg/platform/httputil"
	request "fakegateway/pkg/platform/middleware/request"
)

// Handler serves the fixture control surface under /_fake.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func New(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the control routes. Callers wrap r with the admin token
// middleware when the surface must not be open.
func (h *Handler) Register(r chi.Router) {
	r.Post("/_fake/reset", h.HandleReset)
	r.Get("/_fake/policy", h.HandleGetPolicy)
	r.Put("/_fake/policy", h.HandleUpdatePolicy)
	r.Post("/_fake/customers", h.HandleCreateCustomer)
	r.Get("/_fake/customers/{id}", h.HandleGetCustomer)
	r.Post("/_fake/addresses", h.HandleCreateAddress)
	r.Get("/_fake/stats", h.HandleGetStats)
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.service.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Policy(r.Context()))
}

func (h *Handler) HandleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[UpdatePolicyRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.service.UpdatePolicy(ctx, req))
}

func (h *Handler) HandleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateCustomerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	customer, err := h.service.CreateCustomer(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create customer",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, customer)
}

func (h *Handler) HandleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.service.FindCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customer)
}

func (h *Handler) HandleCreateAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateAddressRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	address, err := h.service.CreateAddress(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create address",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, address)
}

func (h *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Stats(r.Context()))
}
