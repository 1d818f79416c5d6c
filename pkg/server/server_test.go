package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/chatrelay/pkg/bridge"
	"github.com/entrhq/chatrelay/pkg/browser"
	"github.com/entrhq/chatrelay/pkg/browser/browsertest"
	"github.com/entrhq/chatrelay/pkg/logging"
)

type stubExchanger struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
	formats  []bridge.Format
}

func (s *stubExchanger) ExchangeAs(_ context.Context, prompt string, format bridge.Format) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	s.formats = append(s.formats, format)
	return s.response, s.err
}

type stubReadiness bool

func (r stubReadiness) IsReady() bool { return bool(r) }

func serve(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

func TestChatQuery(t *testing.T) {
	ex := &stubExchanger{response: "4"}
	srv := New(ex, nil, nil)

	rec := serve(t, srv, httptest.NewRequest(http.MethodGet, "/chat?q=2%2B2%3F", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, []string{"2+2?"}, ex.prompts)
	assert.Equal(t, []bridge.Format{bridge.FormatText}, ex.formats)
}

func TestChatQuery_HTMLFormat(t *testing.T) {
	ex := &stubExchanger{response: "<p>4</p>"}
	rec := serve(t, New(ex, nil, nil), httptest.NewRequest(http.MethodGet, "/chat?q=sum&format=html", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, []bridge.Format{bridge.FormatHTML}, ex.formats)
}

func TestChatQuery_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"missing q", "/chat", "missing query parameter q"},
		{"bad format", "/chat?q=hi&format=pdf", "unknown response format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &stubExchanger{}
			rec := serve(t, New(ex, nil, nil), httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, errorBody(t, rec), tt.want)
			assert.Empty(t, ex.prompts, "no exchange for a bad request")
		})
	}
}

func TestChat_WhitespacePromptIsVerbatim(t *testing.T) {
	ex := &stubExchanger{response: "?"}
	srv := New(ex, nil, nil)

	rec := serve(t, srv, httptest.NewRequest(http.MethodGet, "/chat?q=%20%20", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, srv, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"prompt":" \n "}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"  ", " \n "}, ex.prompts)
}

func TestReady_ThroughBridgeLock(t *testing.T) {
	page := browsertest.NewPage()
	page.Add("#prompt-textarea", nil)
	session, err := browser.Open(browsertest.NewDriver(page), browser.Options{ProfileDir: t.TempDir()})
	require.NoError(t, err)
	relay := bridge.New(session)

	rec := serve(t, New(relay, relay, nil), httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	page.Remove("#prompt-textarea")
	rec = serve(t, New(relay, relay, nil), httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChatJSON(t *testing.T) {
	ex := &stubExchanger{response: "Paris"}
	body := `{"prompt":"Capital of France?","format":"text"}`

	rec := serve(t, New(ex, nil, nil), httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Paris", resp.Response)
	assert.Equal(t, "text", resp.Format)
	assert.Equal(t, []string{"Capital of France?"}, ex.prompts)
}

func TestChatJSON_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "prompt=hi"},
		{"empty prompt", `{"prompt":""}`},
		{"bad format", `{"prompt":"hi","format":"xml"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, New(&stubExchanger{}, nil, nil),
				httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestChat_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"input missing", &bridge.ExchangeError{Kind: bridge.ErrControlNotFound}, http.StatusServiceUnavailable},
		{"input rejected", &bridge.ExchangeError{Kind: bridge.ErrInputRejected}, http.StatusServiceUnavailable},
		{"submit missing", &bridge.ExchangeError{Kind: bridge.ErrSubmitControlNotFound}, http.StatusBadGateway},
		{"timeout", &bridge.ExchangeError{Kind: bridge.ErrResponseTimeout}, http.StatusGatewayTimeout},
		{"client gone", fmt.Errorf("exchange aborted: %w", context.Canceled), statusClientClosedRequest},
		{"provider failure", errors.New("browser has disconnected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))

			rec := serve(t, New(&stubExchanger{err: tt.err}, nil, nil),
				httptest.NewRequest(http.MethodGet, "/chat?q=hi", nil))
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.err.Error(), errorBody(t, rec))
		})
	}
}

func TestHealthAndReady(t *testing.T) {
	rec := serve(t, New(&stubExchanger{}, stubReadiness(false), nil), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = serve(t, New(&stubExchanger{}, stubReadiness(false), nil), httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "login required", errorBody(t, rec))

	rec = serve(t, New(&stubExchanger{}, stubReadiness(true), nil), httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, New(&stubExchanger{}, nil, nil), httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(t, New(&stubExchanger{}, nil, nil), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	srv := New(&stubExchanger{response: "hi"}, nil, logging.New("http", &buf))

	serve(t, srv, httptest.NewRequest(http.MethodGet, "/chat?q=hello", nil))

	line := buf.String()
	assert.Contains(t, line, "[http]")
	assert.Contains(t, line, "GET /chat 200")
}

func TestMethodNotAllowed(t *testing.T) {
	rec := serve(t, New(&stubExchanger{}, nil, nil), httptest.NewRequest(http.MethodDelete, "/chat", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
