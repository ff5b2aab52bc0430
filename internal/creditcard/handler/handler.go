package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fakegateway/internal/creditcard/service"
	"fakegateway/internal/models"
	"fakegateway/pkg/platform/envelope"
	"fakegateway/pkg/platform/httputil"
	request "fakegateway/pkg/platform/middleware/request"
	"fakegateway/pkg/platform/xmlcodec"
)

type Service interface {
	Create(ctx context.Context, params xmlcodec.Map, opts service.Options) (*envelope.Response, error)
	Update(ctx context.Context, params xmlcodec.Map, opts service.Options) (*envelope.Response, error)
	Find(ctx context.Context, token string) (*envelope.Response, error)
	FailureResponse(status int) (*envelope.Response, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the gateway's payment method routes. The "any" path
// segment matches how client libraries address a payment method by token
// regardless of its type.
func (h *Handler) Register(r chi.Router) {
	r.Post("/merchants/{merchant_id}/payment_methods", h.HandleCreate)
	r.Put("/merchants/{merchant_id}/payment_methods/any/{token}", h.HandleUpdate)
	r.Get("/merchants/{merchant_id}/payment_methods/any/{token}", h.HandleFind)
}

// HandleCreate implements POST /merchants/{merchant_id}/payment_methods.
// Input: <credit_card><number>…</number><options><make_default type="boolean">true</make_default></options></credit_card>
// Output: 200 credit_card, or 422 api_error_response for declined numbers.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, makeDefault, ok := h.readParams(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Create(ctx, params, service.Options{
		MerchantID:  chi.URLParam(r, "merchant_id"),
		MakeDefault: makeDefault,
	})
	h.write(ctx, w, resp, err)
}

// HandleUpdate implements PUT /merchants/{merchant_id}/payment_methods/any/{token}.
// A token inside the body wins over the one in the path.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, makeDefault, ok := h.readParams(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Update(ctx, params, service.Options{
		Token:       chi.URLParam(r, "token"),
		MerchantID:  chi.URLParam(r, "merchant_id"),
		MakeDefault: makeDefault,
	})
	h.write(ctx, w, resp, err)
}

func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp, err := h.service.Find(ctx, chi.URLParam(r, "token"))
	h.write(ctx, w, resp, err)
}

// readParams parses the credit_card document in the body. The nested
// options mapping is split off; make_default is the only option the fixture
// honours. An empty body is an empty mapping.
func (h *Handler) readParams(w http.ResponseWriter, r *http.Request) (xmlcodec.Map, *bool, bool) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read request body",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, httputil.BodyError(err))
		return nil, nil, false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return xmlcodec.Map{}, nil, true
	}

	_, params, err := xmlcodec.Unmarshal(body)
	if err != nil {
		h.logger.WarnContext(ctx, "malformed credit card document",
			"error", err,
			"request_id", requestID,
		)
		resp, ferr := h.service.FailureResponse(http.StatusBadRequest)
		h.write(ctx, w, resp, ferr)
		return nil, nil, false
	}

	params = params.Underscore()
	var makeDefault *bool
	if options, ok := params.Map("options"); ok {
		if v, ok := options.Get("make_default"); ok {
			makeDefault = models.Flag(v)
		}
	}
	return params.Delete("options"), makeDefault, true
}

func (h *Handler) write(ctx context.Context, w http.ResponseWriter, resp *envelope.Response, err error) {
	if err != nil {
		h.logger.ErrorContext(ctx, "credit card request failed",
			"error", err,
			"request_id", request.GetRequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteEnvelope(w, resp)
}
