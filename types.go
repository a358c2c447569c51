package joalistay

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger receives a message followed by alternating key/value pairs,
// e.g. Error("Gateway request failed", "path", path, "error", err). The
// message is never used as a format string.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Storage is the key/value medium backing a session. Values are strings,
// mirroring the browser local storage the session keys were designed for.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Navigator moves the user to a different route. The web front end registers
// one per request, the CLI prints the target instead.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(path string) {
	if f == nil {
		return
	}
	f(path)
}

// Config holds client options
type Config interface {
	GetBaseURL() string
	GetAPIKey() string
	GetRequestTimeout() time.Duration
	GetLoginRoute() string
	GetUnauthorizedRoute() string
	GetClearPolicy() ClearPolicy
}

// ClearPolicy decides what the gateway removes from the session when the
// backend answers 401.
type ClearPolicy string

const (
	// ClearPolicyAll removes tokens and identity, same as an explicit logout.
	ClearPolicyAll ClearPolicy = "all"
	// ClearPolicyTokensOnly removes the token pair and leaves identity keys
	// in place until the next explicit logout.
	ClearPolicyTokensOnly ClearPolicy = "tokens"
)

const (
	DefaultBaseURL           = "http://144.91.126.109:5000"
	DefaultRequestTimeout    = 10 * time.Second
	DefaultLoginRoute        = "/login"
	DefaultUnauthorizedRoute = "/unauthorized"
)

// StaticConfig is a Config backed by plain fields. Zero values fall back to
// the package defaults.
type StaticConfig struct {
	BaseURL           string
	APIKey            string
	RequestTimeout    time.Duration
	LoginRoute        string
	UnauthorizedRoute string
	ClearPolicy       ClearPolicy
}

func (c StaticConfig) GetBaseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

func (c StaticConfig) GetAPIKey() string {
	return c.APIKey
}

func (c StaticConfig) GetRequestTimeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return c.RequestTimeout
}

func (c StaticConfig) GetLoginRoute() string {
	if c.LoginRoute == "" {
		return DefaultLoginRoute
	}
	return c.LoginRoute
}

func (c StaticConfig) GetUnauthorizedRoute() string {
	if c.UnauthorizedRoute == "" {
		return DefaultUnauthorizedRoute
	}
	return c.UnauthorizedRoute
}

func (c StaticConfig) GetClearPolicy() ClearPolicy {
	if c.ClearPolicy == "" {
		return ClearPolicyAll
	}
	return c.ClearPolicy
}

type defLogger struct{}

func (d defLogger) Error(msg string, keysAndValues ...any) {
	fmt.Print("[ERR] STAY " + render(msg, keysAndValues))
}

func (d defLogger) Warn(msg string, keysAndValues ...any) {
	fmt.Print("[WRN] STAY " + render(msg, keysAndValues))
}

func (d defLogger) Info(msg string, keysAndValues ...any) {
	fmt.Print("[INF] STAY " + render(msg, keysAndValues))
}

func (d defLogger) Debug(msg string, keysAndValues ...any) {
	fmt.Print("[DBG] STAY " + render(msg, keysAndValues))
}

// render prints msg followed by key=value pairs.
func render(msg string, keysAndValues []any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&b, " %v", keysAndValues[i])
		}
	}
	return newline(b.String())
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
