package joalistay

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenMalformed     = errors.TextCodeTokenMalformed
	TextCodeInvalidCreds       = errors.TextCodeInvalidCredentials
	TextCodeSessionNotFound    = errors.TextCodeSessionNotFound
	TextCodeAccessDenied       = "ACCESS_DENIED"
	TextCodeUpstreamFailure    = "UPSTREAM_FAILURE"
	TextCodeInitialPasswordReq = "INITIAL_PASSWORD_REQUIRED"
)

// ErrInvalidToken is returned when an access token cannot be split into
// header, payload and signature or its payload is not decodable.
var ErrInvalidToken = errors.New("invalid access token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(http.StatusUnauthorized)

// ErrLoginFailed is the sentinel behind every rejected login. The message of
// the returned error carries the backend reason.
var ErrLoginFailed = errors.New("Login failed", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(http.StatusUnauthorized)

// ErrUnauthorized is returned to callers whose request got a 401 response,
// after the session was cleared.
var ErrUnauthorized = errors.New("session is no longer authorized", errors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(http.StatusUnauthorized)

// ErrAccessDenied describes a route policy rejection. Guards report it as a
// decision, it is never returned from a call.
var ErrAccessDenied = errors.New("you don't have permission to access this page", errors.CategoryAuthz).
	WithTextCode(TextCodeAccessDenied).
	WithCode(http.StatusForbidden)

// ErrNetworkOrServer is the sentinel for transport failures and non 401
// error responses.
var ErrNetworkOrServer = errors.New("request failed", errors.CategoryExternal).
	WithTextCode(TextCodeUpstreamFailure).
	WithCode(http.StatusBadGateway)

// ErrNoRefreshToken is returned by RefreshToken when the session has no
// token pair to exchange.
var ErrNoRefreshToken = errors.New("no token pair to refresh", errors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound)

// LoginFailed builds an ErrLoginFailed with the given reason, or the generic
// message when reason is empty.
func LoginFailed(reason string, source ...error) *errors.Error {
	return derive(ErrLoginFailed, reason, source...)
}

// NetworkOrServerError builds an ErrNetworkOrServer for the given HTTP status.
// A zero status means the request never got a response.
func NetworkOrServerError(status int, message string, source ...error) *errors.Error {
	err := derive(ErrNetworkOrServer, message, source...)
	if status > 0 {
		err.Code = status
		err.Category = errors.HTTPStatusToCategory(status)
	}
	return err
}

func derive(sentinel *errors.Error, message string, source ...error) *errors.Error {
	clone := sentinel.Clone()
	if strings.TrimSpace(message) != "" {
		clone.Message = message
	}
	clone.Source = sentinel
	if len(source) > 0 && source[0] != nil {
		clone.WithMetadata(map[string]any{"cause": source[0].Error()})
	}
	return clone
}

// IsInvalidToken reports whether err is, or wraps, ErrInvalidToken.
func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

// IsLoginFailed reports whether err is, or wraps, ErrLoginFailed.
func IsLoginFailed(err error) bool {
	return errors.Is(err, ErrLoginFailed)
}

// IsUnauthorized reports whether err is, or wraps, ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNetworkOrServer reports whether err is, or wraps, ErrNetworkOrServer.
func IsNetworkOrServer(err error) bool {
	return errors.Is(err, ErrNetworkOrServer)
}

// MessageOrFallback returns the user facing message carried by err, or
// fallback when there is none.
func MessageOrFallback(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && strings.TrimSpace(richErr.Message) != "" {
		return richErr.Message
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
