package joalistay_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-joalistay"
	"github.com/goliatone/go-joalistay/storage"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage implements joalistay.Storage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockStorage) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockStorage) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// recordingNavigator collects every forced navigation.
type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// recordingSink collects activity events.
type recordingSink struct {
	mu     sync.Mutex
	events []joalistay.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event joalistay.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Types() []joalistay.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]joalistay.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

type silentLogger struct{}

func (silentLogger) Debug(string, ...any) {}
func (silentLogger) Info(string, ...any)  {}
func (silentLogger) Warn(string, ...any)  {}
func (silentLogger) Error(string, ...any) {}

// mintToken signs claims with a throwaway key. The client never verifies
// signatures, any key works.
func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

func staffToken(t *testing.T) string {
	return mintToken(t, jwt.MapClaims{
		"name":       "Aishath",
		"userId":     "42",
		"email":      "aishath@joali.mv",
		"role":       "Staff",
		"staffRole":  "Manager",
		"OrgId":      "7",
		"hasBooking": "False",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
}

func customerToken(t *testing.T) string {
	return mintToken(t, jwt.MapClaims{
		"name":       "Guest",
		"userId":     "9",
		"email":      "guest@example.com",
		"role":       "Customer",
		"hasBooking": true,
	})
}

// newTestClient returns a client pointed at handler with in-memory storage.
func newTestClient(t *testing.T, handler http.Handler) (*joalistay.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := joalistay.StaticConfig{
		BaseURL: server.URL,
		APIKey:  "test-api-key",
	}

	client := joalistay.NewClient(cfg, storage.NewMemory()).
		WithLogger(silentLogger{})
	return client, server
}
