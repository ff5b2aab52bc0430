package e2e

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fakegateway/internal/cardpolicy"
	"fakegateway/internal/platform/config"
	"fakegateway/internal/registry"
	httptransport "fakegateway/internal/transport/http"
	"fakegateway/pkg/platform/xmlcodec"
)

const inProcessAdminToken = "e2e-admin-token"

// TestContext holds state between test steps
type TestContext struct {
	BaseURL    string
	HTTPClient *http.Client
	AdminToken string

	LastResponse        *http.Response
	LastResponseBody    []byte
	LastContentEncoding string
	LastRoot            string
	LastDocument        any

	// Tokens maps scenario aliases to saved card tokens.
	Tokens map[string]string

	server *httptest.Server
}

// NewTestContext creates a new test context. Without BASE_URL every scenario
// gets its own in-process gateway, so scenarios never share registry state.
func NewTestContext() *TestContext {
	tc := &TestContext{
		BaseURL:    os.Getenv("BASE_URL"),
		AdminToken: os.Getenv("ADMIN_API_TOKEN"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			// Bodies are decompressed by hand so steps can assert on the encoding.
			Transport: &http.Transport{DisableCompression: true},
		},
		Tokens: make(map[string]string),
	}

	if tc.BaseURL == "" {
		tc.AdminToken = inProcessAdminToken
		cfg := config.Server{
			Environment:    "test",
			AdminAPIToken:  inProcessAdminToken,
			MaxBodyBytes:   1 << 20,
			RequestTimeout: 5 * time.Second,
		}
		tc.server = httptest.NewServer(httptransport.NewRouter(httptransport.Dependencies{
			Config:   cfg,
			Logger:   slog.New(slog.DiscardHandler),
			Registry: registry.New(),
			Policy:   cardpolicy.New(cardpolicy.Settings{}, nil),
			Metrics:  prometheus.NewRegistry(),
		}))
		tc.BaseURL = tc.server.URL
	}

	return tc
}

// Close stops the in-process gateway, if any.
func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
	}
}

// SendXML sends an XML document and stores the response
func (tc *TestContext) SendXML(method, path, body string) error {
	return tc.do(method, path, strings.NewReader(body), map[string]string{
		"Content-Type": "application/xml",
	})
}

// SendJSON sends a JSON body to the control surface and stores the response
func (tc *TestContext) SendJSON(method, path string, body interface{}) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	return tc.do(method, path, reader, tc.adminHeaders(map[string]string{
		"Content-Type": "application/json",
	}))
}

// GET makes a GET request and stores the response
func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, http.NoBody, headers)
}

// AdminGET makes a GET request carrying the admin token
func (tc *TestContext) AdminGET(path string) error {
	return tc.GET(path, tc.adminHeaders(nil))
}

func (tc *TestContext) adminHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		headers = make(map[string]string)
	}
	if tc.AdminToken != "" {
		headers["X-Admin-Token"] = tc.AdminToken
	}
	return headers
}

func (tc *TestContext) do(method, path string, body io.Reader, headers map[string]string) error {
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "gzip")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	tc.LastResponse = resp
	tc.LastContentEncoding = resp.Header.Get("Content-Encoding")
	tc.LastRoot, tc.LastDocument = "", nil

	var reader io.Reader = resp.Body
	if tc.LastContentEncoding == "gzip" {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to open gzip body: %w", err)
		}
		defer zr.Close()
		reader = zr
	}
	tc.LastResponseBody, err = io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	return tc.parseBody(resp.Header.Get("Content-Type"))
}

func (tc *TestContext) parseBody(contentType string) error {
	if len(tc.LastResponseBody) == 0 {
		return nil
	}
	switch {
	case strings.Contains(contentType, "xml"):
		root, doc, err := xmlcodec.Unmarshal(tc.LastResponseBody)
		if err != nil {
			return fmt.Errorf("failed to parse XML response: %w", err)
		}
		tc.LastRoot, tc.LastDocument = root, doc
	case strings.Contains(contentType, "json"):
		var doc any
		if err := json.Unmarshal(tc.LastResponseBody, &doc); err != nil {
			return fmt.Errorf("failed to parse JSON response: %w", err)
		}
		tc.LastDocument = doc
	}
	return nil
}

// GetResponseField extracts a dotted path ("verification.status",
// "credit_cards.0.token") from the last XML or JSON document.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	value := tc.LastDocument
	for _, part := range strings.Split(field, ".") {
		next, ok := child(value, part)
		if !ok {
			return nil, fmt.Errorf("field %s not found in response", field)
		}
		value = next
	}
	return value, nil
}

func child(value any, name string) (any, bool) {
	switch v := value.(type) {
	case xmlcodec.Map:
		return v.Get(name)
	case map[string]any:
		out, ok := v[name]
		return out, ok
	case xmlcodec.List:
		return index(v.Items, name)
	case []any:
		return index(v, name)
	}
	return nil, false
}

func index(items []any, name string) (any, bool) {
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 || i >= len(items) {
		return nil, false
	}
	return items[i], true
}

// ResponseContains checks if the response body contains text
func (tc *TestContext) ResponseContains(text string) bool {
	return strings.Contains(string(tc.LastResponseBody), text)
}

// Getter methods for step package interfaces

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}

func (tc *TestContext) GetLastContentEncoding() string {
	return tc.LastContentEncoding
}

func (tc *TestContext) GetLastRoot() string {
	return tc.LastRoot
}

func (tc *TestContext) SaveToken(alias, token string) {
	tc.Tokens[alias] = token
}

func (tc *TestContext) Token(alias string) (string, error) {
	token, ok := tc.Tokens[alias]
	if !ok {
		return "", fmt.Errorf("no token saved as %q", alias)
	}
	return token, nil
}
