package joalistay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-errors"
)

// Backend auth endpoints.
const (
	LoginEndpoint         = "/api/Auth/Login"
	LogoutEndpoint        = "/api/Auth/Logout"
	ResetPasswordEndpoint = "/api/Auth/ResetPassword"
	RefreshTokenEndpoint  = "/api/Auth/RefreshToken"
)

// Post login destinations.
const (
	DashboardLandingPath = "/dashboard/manage-bookings"
	HomeLandingPrefix    = "/home/"
	PublicLandingPath    = "/"
)

// LoginRequest is the body of the login call.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	APIKey   string `json:"apiKey" form:"-"`
}

// Validate checks the credentials before they are sent.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
	)
}

// ResetPasswordRequest sets the first password of a provisioned account.
type ResetPasswordRequest struct {
	Email        string `json:"email" form:"email"`
	TemporaryKey string `json:"temporaryKey" form:"code"`
	NewPassword  string `json:"newPassword" form:"new_password"`
}

// Validate checks the reset payload.
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.TemporaryKey, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(6, 100)),
	)
}

// LoginOutcome tells the caller which flow a login resolved to.
type LoginOutcome string

const (
	LoginSucceeded               LoginOutcome = "succeeded"
	LoginInitialPasswordRequired LoginOutcome = "initial_password_required"
)

// LoginResult is returned by a login that was not rejected.
type LoginResult struct {
	Outcome   LoginOutcome
	Message   string
	Shape     TokenShape
	Session   Session
	Claims    *SessionClaims
	Challenge *InitialPasswordChallenge
}

// Landing returns where the user should be sent after this login.
func (r LoginResult) Landing() string {
	if r.Outcome == LoginInitialPasswordRequired && r.Challenge != nil {
		return InitialPasswordSetupPath(*r.Challenge)
	}
	return LandingPath(r.Session)
}

// InitialPasswordSetupPath builds the link to the password setup page.
func InitialPasswordSetupPath(c InitialPasswordChallenge) string {
	return fmt.Sprintf("/initial-password-setup?email=%s&code=%s",
		url.QueryEscape(c.Email),
		url.QueryEscape(c.Code),
	)
}

// LandingPath picks the post login destination: resort personnel go to the
// bookings dashboard, other identified users to their home page, and
// everybody else to the public landing page.
func LandingPath(s Session) string {
	if s.IsAnonymous() || s.UserID == "" {
		return PublicLandingPath
	}

	for _, role := range s.Roles() {
		if role.IsDashboardRole() {
			return DashboardLandingPath
		}
	}
	return HomePath(s.UserID)
}

// HomePath is the personal page of userID.
func HomePath(userID string) string {
	return HomeLandingPrefix + userID
}

// AuthService runs the credential flows against the backend and is the only
// writer of the session besides the gateway 401 handler.
type AuthService struct {
	cfg      Config
	gateway  *Gateway
	session  *SessionManager
	client   *http.Client
	decoder  TokenDecoder
	logger   Logger
	activity ActivitySink
}

// NewAuthService builds the service on top of gateway and the session the
// gateway is bound to.
func NewAuthService(gateway *Gateway) *AuthService {
	return &AuthService{
		cfg:      gateway.cfg,
		gateway:  gateway,
		session:  gateway.session,
		client:   &http.Client{Timeout: gateway.cfg.GetRequestTimeout()},
		decoder:  UnverifiedDecoder,
		logger:   defLogger{},
		activity: discardActivity{},
	}
}

func (s *AuthService) WithLogger(logger Logger) *AuthService {
	s.logger = normalizeLogger(logger)
	return s
}

func (s *AuthService) WithActivitySink(sink ActivitySink) *AuthService {
	s.activity = activitySinkOrDiscard(sink)
	return s
}

// WithDecoder replaces how login tokens are turned into claims.
func (s *AuthService) WithDecoder(decoder TokenDecoder) *AuthService {
	if decoder == nil {
		decoder = UnverifiedDecoder
	}
	s.decoder = decoder
	return s
}

// WithRefreshClient replaces the client used for token refresh, which does
// not go through the gateway.
func (s *AuthService) WithRefreshClient(client *http.Client) *AuthService {
	if client != nil {
		s.client = client
	}
	return s
}

// Session returns the session manager this service writes to.
func (s *AuthService) Session() *SessionManager {
	return s.session
}

// Login posts the credentials. A provisioned account that still has to set
// its password yields LoginInitialPasswordRequired and nothing is persisted.
// Any other non rejected response must carry an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	payload := LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
		APIKey:   s.cfg.GetAPIKey(),
	}

	if err := payload.Validate(); err != nil {
		verr := errors.FromOzzoValidation(err, "Please enter a valid email address and password.")
		lerr := LoginFailed(verr.Message, verr)
		lerr.ValidationErrors = verr.ValidationErrors
		s.loginFailed(ctx, payload.Email, lerr)
		return LoginResult{}, lerr
	}

	var res LoginResponse
	if err := s.gateway.Post(ctx, LoginEndpoint, payload, &res,
		WithoutSessionReset(),
		WithFallbackMessage(ErrLoginFailed.Message),
	); err != nil {
		lerr := LoginFailed(MessageOrFallback(err, ErrLoginFailed.Message), err)
		s.loginFailed(ctx, payload.Email, lerr)
		return LoginResult{}, lerr
	}

	if challenge, ok := res.Challenge(); ok {
		s.logger.Info("Login requires initial password setup", "email", payload.Email)
		recordActivity(ctx, s.activity, s.logger, ActivityEvent{
			EventType: ActivityEventInitialPassword,
			Email:     payload.Email,
		})
		return LoginResult{
			Outcome:   LoginInitialPasswordRequired,
			Message:   res.Message,
			Challenge: &challenge,
		}, nil
	}

	tokens, shape, ok := res.Tokens()
	if !ok {
		lerr := LoginFailed(res.Message)
		s.loginFailed(ctx, payload.Email, lerr)
		return LoginResult{}, lerr
	}

	var claims *SessionClaims
	if decoded, err := s.decoder.Decode(tokens.AccessToken); err != nil {
		s.logger.Warn("Login token is not decodable, continuing without identity", "error", err)
	} else {
		claims = &decoded
	}

	if err := s.session.Establish(ctx, tokens, claims); err != nil {
		lerr := LoginFailed("", err)
		s.loginFailed(ctx, payload.Email, lerr)
		return LoginResult{}, lerr
	}

	result := LoginResult{
		Outcome: LoginSucceeded,
		Message: res.Message,
		Shape:   shape,
		Session: s.session.Snapshot(ctx),
		Claims:  claims,
	}

	s.logger.Debug("Login succeeded", "user", result.Session.UserID, "shape", shape)
	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    result.Session.UserID,
		Email:     payload.Email,
		Metadata:  map[string]any{"shape": string(shape)},
	})

	return result, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email string, err *errors.Error) {
	s.logger.Info("Login failed", "email", email, "reason", err.Message)
	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Email:     email,
		Metadata:  map[string]any{"reason": err.Message},
	})
}

// Logout tells the backend to end the session and clears the local session
// whatever the outcome. The remote error, if any, is returned after the
// clear. Calling it on an empty session is safe.
func (s *AuthService) Logout(ctx context.Context) error {
	snapshot := s.session.Snapshot(ctx)

	var remoteErr error
	if !snapshot.IsAnonymous() {
		remoteErr = s.gateway.Post(ctx, LogoutEndpoint, nil, nil,
			WithFallbackMessage("Logout failed"),
		)
		if remoteErr != nil {
			s.logger.Warn("Logout call failed, clearing local session anyway", "error", remoteErr)
		}
	}

	if err := s.session.Clear(ctx, ReasonLogout, ClearPolicyAll); err != nil {
		return err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: ActivityEventLogout,
		UserID:    snapshot.UserID,
		Email:     snapshot.UserEmail,
	})

	if remoteErr != nil && !IsUnauthorized(remoteErr) {
		return remoteErr
	}
	return nil
}

// ResetInitialPassword sets the first password of a provisioned account.
// The session is left untouched.
func (s *AuthService) ResetInitialPassword(ctx context.Context, email, temporaryKey, newPassword string) error {
	payload := ResetPasswordRequest{
		Email:        strings.TrimSpace(email),
		TemporaryKey: strings.TrimSpace(temporaryKey),
		NewPassword:  newPassword,
	}

	if err := payload.Validate(); err != nil {
		return errors.FromOzzoValidation(err, "Invalid password reset request")
	}

	if err := s.gateway.Post(ctx, ResetPasswordEndpoint, payload, nil,
		WithoutSessionReset(),
		WithFallbackMessage("Password reset failed"),
	); err != nil {
		return err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: ActivityEventPasswordResetSuccess,
		Email:     payload.Email,
	})
	return nil
}

type refreshResponse struct {
	Token *TokenPair `json:"token"`
}

// RefreshToken exchanges the current token pair for a new one. It calls the
// backend directly, without the gateway, so no bearer header is injected and
// a failure never clears the session. Only the token pair is rotated.
func (s *AuthService) RefreshToken(ctx context.Context) (bool, error) {
	accessToken, okA := s.session.Store().AccessToken(ctx)
	refreshToken, okR := s.session.Store().RefreshToken(ctx)
	if !okA || !okR {
		return false, ErrNoRefreshToken
	}

	payload, err := json.Marshal(TokenPair{AccessToken: accessToken, RefreshToken: refreshToken})
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to encode refresh request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gateway.BaseURL()+RefreshTokenEndpoint, bytes.NewReader(payload))
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryBadInput, "failed to build refresh request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("Token refresh failed", "error", err)
		return false, NetworkOrServerError(0, "Token refresh failed", err)
	}
	defer res.Body.Close()

	var body refreshResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		s.logger.Warn("Token refresh returned an unreadable body", "status", res.StatusCode, "error", err)
		return false, nil
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 ||
		body.Token == nil || body.Token.AccessToken == "" || body.Token.RefreshToken == "" {
		return false, nil
	}

	if err := s.session.RotateTokens(ctx, *body.Token); err != nil {
		return false, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEvent{
		EventType: ActivityEventTokenRefreshed,
		UserID:    s.session.Snapshot(ctx).UserID,
	})
	return true, nil
}
