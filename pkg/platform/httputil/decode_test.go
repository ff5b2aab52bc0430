package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fakegateway/pkg/domain-errors"
)

type policyRequest struct {
	DeclineAll bool `json:"decline_all"`
}

type customerRequest struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	normalized bool
}

func (r *customerRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.normalized = true
}

func (r *customerRequest) Validate() error {
	if r.ID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	if r.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestDecodeJSON(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	t.Run("decodes the body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"decline_all":true}`))
		w := httptest.NewRecorder()

		got, ok := DecodeJSON[policyRequest](w, r, logger, ctx, "req-1")
		require.True(t, ok)
		assert.True(t, got.DeclineAll)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{decline_all`))
		w := httptest.NewRecorder()

		got, ok := DecodeJSON[policyRequest](w, r, logger, ctx, "req-1")
		assert.False(t, ok)
		assert.Nil(t, got)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decodeError(t, w)["error"])
	})

	t.Run("oversized body is payload too large", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"decline_all":true}`))
		r.Body = http.MaxBytesReader(w, r.Body, 4)

		_, ok := DecodeJSON[policyRequest](w, r, logger, ctx, "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	t.Run("normalizes before validating", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"id":"c1","email":" Ada@Example.COM "}`))
		w := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[customerRequest](w, r, logger, ctx, "req-1")
		require.True(t, ok)
		assert.True(t, got.normalized)
		assert.Equal(t, "ada@example.com", got.Email)
	})

	t.Run("keeps the code of domain validation errors", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[customerRequest](w, r, logger, ctx, "req-1")
		assert.False(t, ok)
		body := decodeError(t, w)
		assert.Equal(t, "bad_request", body["error"])
		assert.Equal(t, "id is required", body["error_description"])
	})

	t.Run("plain validation errors become validation_error", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"id":"c1","email":"  "}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[customerRequest](w, r, logger, ctx, "req-1")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", decodeError(t, w)["error"])
	})
}

func TestPrepareRequest(t *testing.T) {
	assert.NoError(t, PrepareRequest(&policyRequest{}))
	assert.EqualError(t, PrepareRequest(&customerRequest{ID: "c1"}), "email is required")
}
