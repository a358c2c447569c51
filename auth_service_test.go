package joalistay_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-joalistay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend routes auth endpoints to handlers, anything else answers 404.
type backend map[string]http.HandlerFunc

func (b backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := b[r.Method+" "+r.URL.Path]; ok {
		h(w, r)
		return
	}
	http.NotFound(w, r)
}

func jsonReply(status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}
}

func TestAuthService_LoginFlatShape(t *testing.T) {
	token := staffToken(t)
	var sent joalistay.LoginRequest

	client, _ := newTestClient(t, backend{
		"POST /api/Auth/Login": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			jsonReply(http.StatusOK, map[string]any{
				"success":      true,
				"message":      "Login successful",
				"accessToken":  token,
				"refreshToken": "R1",
			})(w, r)
		},
	})

	sink := &recordingSink{}
	client.WithActivitySink(sink)

	ctx := context.Background()
	result, err := client.Auth.Login(ctx, " aishath@joali.mv ", "secret")
	require.NoError(t, err)

	assert.Equal(t, "aishath@joali.mv", sent.Email)
	assert.Equal(t, "secret", sent.Password)
	assert.Equal(t, "test-api-key", sent.APIKey)

	assert.Equal(t, joalistay.LoginSucceeded, result.Outcome)
	assert.Equal(t, joalistay.TokenShapeFlat, result.Shape)
	assert.Equal(t, "Login successful", result.Message)
	require.NotNil(t, result.Claims)
	assert.Equal(t, "42", result.Session.UserID)
	assert.Equal(t, joalistay.DashboardLandingPath, result.Landing())

	access, _ := client.Sessions.Store().AccessToken(ctx)
	refresh, _ := client.Sessions.Store().RefreshToken(ctx)
	assert.Equal(t, token, access)
	assert.Equal(t, "R1", refresh)

	assert.Equal(t, []joalistay.ActivityEventType{joalistay.ActivityEventLoginSuccess}, sink.Types())
}

func TestAuthService_LoginNestedShapes(t *testing.T) {
	t.Run("token", func(t *testing.T) {
		token := customerToken(t)
		client, _ := newTestClient(t, backend{
			"POST /api/Auth/Login": jsonReply(http.StatusOK, map[string]any{
				"token": map[string]string{"accessToken": token, "refreshToken": "R2"},
			}),
		})

		result, err := client.Auth.Login(context.Background(), "guest@example.com", "pw")
		require.NoError(t, err)
		assert.Equal(t, joalistay.TokenShapeToken, result.Shape)
		assert.Equal(t, "/home/9", result.Landing())

		s := client.Sessions.Snapshot(context.Background())
		assert.Equal(t, token, s.AccessToken)
		assert.Equal(t, "R2", s.RefreshToken)
		assert.True(t, s.HasBooking)
	})

	t.Run("data", func(t *testing.T) {
		token := customerToken(t)
		client, _ := newTestClient(t, backend{
			"POST /api/Auth/Login": jsonReply(http.StatusOK, map[string]any{
				"data": map[string]string{"accessToken": token, "refreshToken": "R3"},
			}),
		})

		result, err := client.Auth.Login(context.Background(), "guest@example.com", "pw")
		require.NoError(t, err)
		assert.Equal(t, joalistay.TokenShapeData, result.Shape)
		assert.Equal(t, "R3", result.Session.RefreshToken)
	})
}

func TestAuthService_LoginInitialPassword(t *testing.T) {
	client, _ := newTestClient(t, backend{
		"POST /api/Auth/Login": jsonReply(http.StatusOK, map[string]any{
			"message": "RedirectToInitialPasswordPage",
			"data":    map[string]string{"email": "a@b.com", "code": "123456"},
		}),
	})

	ctx := context.Background()
	result, err := client.Auth.Login(ctx, "a@b.com", "temp")
	require.NoError(t, err)

	assert.Equal(t, joalistay.LoginInitialPasswordRequired, result.Outcome)
	require.NotNil(t, result.Challenge)
	assert.Equal(t, "a@b.com", result.Challenge.Email)
	assert.Equal(t, "123456", result.Challenge.Code)
	assert.Equal(t, "/initial-password-setup?email=a%40b.com&code=123456", result.Landing())

	_, ok := client.Sessions.Store().AccessToken(ctx)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), client.Sessions.Generation())
}

func TestAuthService_LoginFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		reason  string
	}{
		{
			name:    "backend message",
			handler: jsonReply(http.StatusBadRequest, map[string]string{"message": "Invalid email or password"}),
			reason:  "Invalid email or password",
		},
		{
			name:    "unauthorized with message",
			handler: jsonReply(http.StatusUnauthorized, map[string]string{"message": "Account disabled"}),
			reason:  "Account disabled",
		},
		{
			name:    "no message",
			handler: jsonReply(http.StatusInternalServerError, map[string]string{}),
			reason:  "Login failed",
		},
		{
			name:    "success without token",
			handler: jsonReply(http.StatusOK, map[string]any{"success": false, "message": "User not found"}),
			reason:  "User not found",
		},
		{
			name:    "success without token or message",
			handler: jsonReply(http.StatusOK, map[string]any{}),
			reason:  "Login failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, backend{"POST /api/Auth/Login": tt.handler})
			sink := &recordingSink{}
			client.WithActivitySink(sink)

			nav := &recordingNavigator{}
			ctx := joalistay.WithNavigator(context.Background(), nav)

			_, err := client.Auth.Login(ctx, "user@example.com", "pw")
			require.Error(t, err)
			assert.True(t, joalistay.IsLoginFailed(err))
			assert.Equal(t, tt.reason, joalistay.MessageOrFallback(err, ""))
			assert.Empty(t, nav.Paths())
			assert.Equal(t, []joalistay.ActivityEventType{joalistay.ActivityEventLoginFailure}, sink.Types())
		})
	}
}

func TestAuthService_LoginValidation(t *testing.T) {
	called := false
	client, _ := newTestClient(t, backend{
		"POST /api/Auth/Login": func(w http.ResponseWriter, r *http.Request) { called = true },
	})

	_, err := client.Auth.Login(context.Background(), "not-an-email", "")
	require.Error(t, err)
	assert.False(t, called)
	assert.True(t, joalistay.IsLoginFailed(err))

	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	fields := map[string]bool{}
	for _, fe := range richErr.ValidationErrors {
		fields[fe.Field] = true
	}
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
}

func TestAuthService_LoginUndecodableToken(t *testing.T) {
	client, _ := newTestClient(t, backend{
		"POST /api/Auth/Login": jsonReply(http.StatusOK, map[string]string{
			"accessToken":  "opaque-token",
			"refreshToken": "R",
		}),
	})

	ctx := context.Background()
	result, err := client.Auth.Login(ctx, "user@example.com", "pw")
	require.NoError(t, err)

	assert.Nil(t, result.Claims)
	assert.Equal(t, "opaque-token", result.Session.AccessToken)
	assert.Empty(t, result.Session.UserID)
	assert.Equal(t, joalistay.PublicLandingPath, result.Landing())
}

func TestAuthService_Logout(t *testing.T) {
	calls := 0
	client, _ := newTestClient(t, backend{
		"POST /api/Auth/Logout": func(w http.ResponseWriter, r *http.Request) {
			calls++
			assert.NotEmpty(t, r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusOK)
		},
	})

	ctx := context.Background()
	establish(t, client, staffToken(t))

	require.NoError(t, client.Auth.Logout(ctx))
	require.NoError(t, client.Auth.Logout(ctx))

	assert.Equal(t, 1, calls)
	_, ok := client.Sessions.Store().AccessToken(ctx)
	assert.False(t, ok)
	_, ok = client.Sessions.Store().RefreshToken(ctx)
	assert.False(t, ok)
	assert.Equal(t, joalistay.Session{}, client.Sessions.Snapshot(ctx))
}

func TestAuthService_LogoutRemoteFailureStillClears(t *testing.T) {
	client, _ := newTestClient(t, backend{
		"POST /api/Auth/Logout": jsonReply(http.StatusInternalServerError, map[string]string{"message": "boom"}),
	})

	ctx := context.Background()
	establish(t, client, staffToken(t))

	err := client.Auth.Logout(ctx)
	require.Error(t, err)
	assert.Equal(t, "boom", joalistay.MessageOrFallback(err, ""))
	assert.True(t, client.Sessions.Snapshot(ctx).IsAnonymous())

	require.NoError(t, client.Auth.Logout(ctx))
	assert.True(t, client.Sessions.Snapshot(ctx).IsAnonymous())
}

func TestAuthService_ResetInitialPassword(t *testing.T) {
	var sent joalistay.ResetPasswordRequest
	client, _ := newTestClient(t, backend{
		"POST /api/Auth/ResetPassword": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			w.WriteHeader(http.StatusOK)
		},
	})

	ctx := context.Background()
	require.NoError(t, client.Auth.ResetInitialPassword(ctx, "a@b.com", "123456", "new-password"))
	assert.Equal(t, joalistay.ResetPasswordRequest{Email: "a@b.com", TemporaryKey: "123456", NewPassword: "new-password"}, sent)
	assert.True(t, client.Sessions.Snapshot(ctx).IsAnonymous())

	err := client.Auth.ResetInitialPassword(ctx, "a@b.com", "", "123")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestAuthService_ResetInitialPasswordFailure(t *testing.T) {
	client, _ := newTestClient(t, backend{
		"POST /api/Auth/ResetPassword": jsonReply(http.StatusBadRequest, map[string]string{}),
	})

	err := client.Auth.ResetInitialPassword(context.Background(), "a@b.com", "123456", "new-password")
	require.Error(t, err)
	assert.Equal(t, "Password reset failed", joalistay.MessageOrFallback(err, ""))
}

func TestAuthService_RefreshToken(t *testing.T) {
	var sent joalistay.TokenPair
	var authHeader string
	client, _ := newTestClient(t, backend{
		"POST /api/Auth/RefreshToken": func(w http.ResponseWriter, r *http.Request) {
			authHeader = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			jsonReply(http.StatusOK, map[string]any{
				"token": map[string]string{"accessToken": "A2", "refreshToken": "R2"},
			})(w, r)
		},
	})

	ctx := context.Background()
	_, err := client.Auth.RefreshToken(ctx)
	assert.ErrorIs(t, err, joalistay.ErrNoRefreshToken)

	token := staffToken(t)
	establish(t, client, token)

	ok, err := client.Auth.RefreshToken(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, authHeader)
	assert.Equal(t, joalistay.TokenPair{AccessToken: token, RefreshToken: "refresh"}, sent)

	s := client.Sessions.Snapshot(ctx)
	assert.Equal(t, "A2", s.AccessToken)
	assert.Equal(t, "R2", s.RefreshToken)
	// identity is not re-derived from the new token
	assert.Equal(t, "42", s.UserID)
}

func TestAuthService_RefreshTokenRejected(t *testing.T) {
	client, _ := newTestClient(t, backend{
		"POST /api/Auth/RefreshToken": jsonReply(http.StatusUnauthorized, map[string]string{"message": "expired"}),
	})

	ctx := context.Background()
	establish(t, client, staffToken(t))

	ok, err := client.Auth.RefreshToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, client.Sessions.Snapshot(ctx).IsAnonymous())
}

func TestLandingPath(t *testing.T) {
	tests := []struct {
		name     string
		session  joalistay.Session
		expected string
	}{
		{"anonymous", joalistay.Session{}, "/"},
		{"no user id", joalistay.Session{AccessToken: "t", Role: "Admin"}, "/"},
		{"customer", joalistay.Session{AccessToken: "t", UserID: "3", Role: "Customer"}, "/home/3"},
		{"staff", joalistay.Session{AccessToken: "t", UserID: "3", Role: "Staff"}, "/dashboard/manage-bookings"},
		{"staff label", joalistay.Session{AccessToken: "t", UserID: "3", Role: "Customer", StaffRoleLabel: "Manager"}, "/dashboard/manage-bookings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, joalistay.LandingPath(tt.session))
		})
	}
}
