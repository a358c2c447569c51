package services_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goliatone/go-joalistay"
	"github.com/goliatone/go-joalistay/services"
	"github.com/goliatone/go-joalistay/storage"
	"github.com/stretchr/testify/require"
)

type silentLogger struct{}

func (silentLogger) Debug(string, ...any) {}
func (silentLogger) Info(string, ...any)  {}
func (silentLogger) Warn(string, ...any)  {}
func (silentLogger) Error(string, ...any) {}

type captured struct {
	Method string
	Path   string
	Query  map[string]string
	Auth   string
	Body   string
}

// backend answers by "METHOD /path" and records every request.
type backend struct {
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []captured
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	q := map[string]string{}
	for k := range r.URL.Query() {
		q[k] = r.URL.Query().Get(k)
	}

	b.mu.Lock()
	b.requests = append(b.requests, captured{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  q,
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	b.mu.Unlock()

	if h, ok := b.routes[r.Method+" "+r.URL.Path]; ok {
		h(w, r)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (b *backend) last(t *testing.T) captured {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.requests)
	return b.requests[len(b.requests)-1]
}

func (b *backend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func jsonReply(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func newServices(t *testing.T, routes map[string]http.HandlerFunc) (*services.Services, *joalistay.Client, *backend) {
	t.Helper()

	b := &backend{routes: routes}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	client := joalistay.NewClient(joalistay.StaticConfig{
		BaseURL: srv.URL,
		APIKey:  "test-api-key",
	}, storage.NewMemory()).
		WithLogger(silentLogger{}).
		WithFallbackNavigator(joalistay.NavigatorFunc(func(string) {}))

	require.NoError(t, client.Sessions.Establish(context.Background(), joalistay.TokenPair{
		AccessToken:  "access",
		RefreshToken: "refresh",
	}, nil))

	return services.New(client.Gateway).WithLogger(silentLogger{}), client, b
}

func intPtr(n int) *int {
	return &n
}
