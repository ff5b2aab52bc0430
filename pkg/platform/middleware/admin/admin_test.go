package admin

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
)

type AdminMiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestAdminMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AdminMiddlewareSuite))
}

func (s *AdminMiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.DiscardHandler)
}

// serve runs one request through the middleware and reports whether the
// wrapped handler ran, and with which actor id.
func (s *AdminMiddlewareSuite) serve(expected string, headers map[string]string) (*httptest.ResponseRecorder, bool, string) {
	var (
		called bool
		actor  string
	)
	handler := RequireAdminToken(expected, s.logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		actor = GetAdminActorID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/_fake/reset", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w, called, actor
}

func (s *AdminMiddlewareSuite) TestTokenValidation() {
	s.Run("matching token reaches the handler", func() {
		w, called, _ := s.serve("fixture-secret", map[string]string{"X-Admin-Token": "fixture-secret"})
		s.True(called)
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("wrong token is rejected", func() {
		w, called, _ := s.serve("fixture-secret", map[string]string{"X-Admin-Token": "guess"})
		s.False(called)
		s.Equal(http.StatusUnauthorized, w.Code)
		s.Contains(w.Body.String(), "unauthorized")
	})

	s.Run("missing token is rejected", func() {
		w, called, _ := s.serve("fixture-secret", nil)
		s.False(called)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("no configured token leaves the routes open", func() {
		w, called, _ := s.serve("", nil)
		s.True(called)
		s.Equal(http.StatusNoContent, w.Code)
	})
}

func (s *AdminMiddlewareSuite) TestActorID() {
	_, _, actor := s.serve("fixture-secret", map[string]string{
		"X-Admin-Token":    "fixture-secret",
		"X-Admin-Actor-ID": "checkout-suite",
	})
	s.Equal("checkout-suite", actor)

	_, _, actor = s.serve("", nil)
	s.Empty(actor)
}
