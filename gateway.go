package joalistay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// RequestObserver receives gateway telemetry.
type RequestObserver interface {
	ObserveRequest(method, endpoint string, status int, duration time.Duration)
	ObserveForcedLogout()
}

type noopObserver struct{}

func (noopObserver) ObserveRequest(string, string, int, time.Duration) {}
func (noopObserver) ObserveForcedLogout()                              {}

// Gateway is the single outbound channel to the backend. It injects the
// bearer token and reacts to 401 responses by clearing the session and
// sending the user to the login route.
type Gateway struct {
	cfg         Config
	baseURL     string
	client      *http.Client
	session     *SessionManager
	logger      Logger
	observer    RequestObserver
	activity    ActivitySink
	fallbackNav Navigator
	debug       bool
}

// NewGateway creates a gateway bound to session.
func NewGateway(cfg Config, session *SessionManager) *Gateway {
	if cfg == nil {
		cfg = StaticConfig{}
	}

	g := &Gateway{
		cfg:      cfg,
		baseURL:  strings.TrimRight(cfg.GetBaseURL(), "/"),
		client:   &http.Client{Timeout: cfg.GetRequestTimeout()},
		session:  session,
		logger:   defLogger{},
		observer: noopObserver{},
		activity: discardActivity{},
	}
	g.fallbackNav = hardRedirect{gateway: g}
	return g
}

func (g *Gateway) WithLogger(logger Logger) *Gateway {
	g.logger = normalizeLogger(logger)
	return g
}

// WithHTTPClient replaces the transport. The gateway keeps a copy, so a
// client shared between gateways is never written to. The configured
// timeout is applied when the client has none.
func (g *Gateway) WithHTTPClient(client *http.Client) *Gateway {
	if client == nil {
		return g
	}
	own := *client
	if own.Timeout <= 0 {
		own.Timeout = g.cfg.GetRequestTimeout()
	}
	g.client = &own
	return g
}

func (g *Gateway) WithObserver(observer RequestObserver) *Gateway {
	if observer == nil {
		observer = noopObserver{}
	}
	g.observer = observer
	return g
}

func (g *Gateway) WithActivitySink(sink ActivitySink) *Gateway {
	g.activity = activitySinkOrDiscard(sink)
	return g
}

// WithFallbackNavigator sets the navigation used when the request context
// carries no navigator.
func (g *Gateway) WithFallbackNavigator(nav Navigator) *Gateway {
	if nav == nil {
		nav = hardRedirect{gateway: g}
	}
	g.fallbackNav = nav
	return g
}

// WithDebug dumps response payloads at debug level.
func (g *Gateway) WithDebug(debug bool) *Gateway {
	g.debug = debug
	return g
}

// BaseURL returns the backend address without trailing slash.
func (g *Gateway) BaseURL() string {
	return g.baseURL
}

// APIKey returns the pre-shared client key.
func (g *Gateway) APIKey() string {
	return g.cfg.GetAPIKey()
}

// Session returns the session manager the gateway reads tokens from.
func (g *Gateway) Session() *SessionManager {
	return g.session
}

// Logger returns the logger the gateway reports through, so services built
// on top of it log to the same place.
func (g *Gateway) Logger() Logger {
	return g.logger
}

type requestOptions struct {
	query     url.Values
	apiKey    bool
	fallback  string
	anonymous bool
}

// RequestOption customizes a single gateway call.
type RequestOption func(*requestOptions)

// WithAPIKey appends the pre-shared client key as the apiKey query param.
func WithAPIKey() RequestOption {
	return func(o *requestOptions) {
		o.apiKey = true
	}
}

// WithQuery merges params into the request query string. Empty values are
// dropped.
func WithQuery(params url.Values) RequestOption {
	return func(o *requestOptions) {
		for k, vs := range params {
			for _, v := range vs {
				if v == "" {
					continue
				}
				o.query.Add(k, v)
			}
		}
	}
}

// WithFallbackMessage sets the message used when the backend error response
// carries none.
func WithFallbackMessage(msg string) RequestOption {
	return func(o *requestOptions) {
		o.fallback = msg
	}
}

// WithoutSessionReset sends the call without a bearer token and treats a 401
// as a plain failure. Credential endpoints answer 401 for a wrong password,
// which must not end the current session.
func WithoutSessionReset() RequestOption {
	return func(o *requestOptions) {
		o.anonymous = true
	}
}

// Get issues a GET request and decodes the response into out.
func (g *Gateway) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return g.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST request with a JSON body.
func (g *Gateway) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return g.Do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put issues a PUT request with a JSON body.
func (g *Gateway) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return g.Do(ctx, http.MethodPut, path, body, out, opts...)
}

// Do sends a request to the backend. A []byte body is sent as is, anything
// else is JSON encoded. The response is decoded into out when out is not nil
// and the response has a body.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	if ctx == nil {
		ctx = context.Background()
	}

	o := &requestOptions{query: url.Values{}}
	for _, opt := range opts {
		opt(o)
	}

	req, err := g.newRequest(ctx, method, path, body, o)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := g.client.Do(req)
	if err != nil {
		g.observer.ObserveRequest(method, path, 0, time.Since(start))
		g.logger.Error("Gateway request failed", "method", method, "path", path, "error", err)
		return NetworkOrServerError(0, o.fallback, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	g.observer.ObserveRequest(method, path, res.StatusCode, time.Since(start))
	if err != nil {
		return NetworkOrServerError(res.StatusCode, o.fallback, err)
	}

	if g.debug {
		g.logger.Debug("Gateway response", "method", method, "path", path, "status", res.StatusCode, "body", dumpBody(raw))
	}

	if res.StatusCode == http.StatusUnauthorized && !o.anonymous {
		g.handleUnauthorized(ctx)
		return derive(ErrUnauthorized, backendMessage(raw))
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg := backendMessage(raw)
		if msg == "" {
			msg = o.fallback
		}
		return NetworkOrServerError(res.StatusCode, msg)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		g.logger.Error("Gateway could not decode response", "path", path, "error", err)
		return NetworkOrServerError(res.StatusCode, "unexpected response from server", err)
	}
	return nil
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, body any, o *requestOptions) (*http.Request, error) {
	endpoint := g.baseURL + "/" + strings.TrimLeft(path, "/")

	if o.apiKey {
		o.query.Set("apiKey", g.cfg.GetAPIKey())
	}

	if len(o.query) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint += sep + o.query.Encode()
	}

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to build request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if g.session != nil && !o.anonymous {
		if token, ok := g.session.AccessToken(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

// handleUnauthorized clears the session and forces the login route. Every
// 401 navigates; the navigator decides whether a later navigation wins.
func (g *Gateway) handleUnauthorized(ctx context.Context) {
	if g.session == nil {
		return
	}

	snapshot := g.session.Snapshot(ctx)
	if err := g.session.Clear(ctx, ReasonUnauthorized, g.cfg.GetClearPolicy()); err != nil {
		g.logger.Error("Gateway could not clear session after 401", "error", err)
	}

	g.observer.ObserveForcedLogout()
	recordActivity(ctx, g.activity, g.logger, ActivityEvent{
		EventType: ActivityEventForcedLogout,
		UserID:    snapshot.UserID,
		Email:     snapshot.UserEmail,
	})

	route := g.cfg.GetLoginRoute()
	if nav, ok := NavigatorFromContext(ctx); ok {
		nav.Navigate(route)
		return
	}
	g.fallbackNav.Navigate(route)
}

// hardRedirect is used when no navigator was registered for the call.
type hardRedirect struct {
	gateway *Gateway
}

func (h hardRedirect) Navigate(path string) {
	h.gateway.logger.Info("Session expired, redirect required", "location", path)
}

type messageEnvelope struct {
	Message string   `json:"message"`
	Title   string   `json:"title"`
	Errors  []string `json:"errors"`
}

// backendMessage extracts the human readable message of an error payload.
func backendMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var env messageEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// plain text bodies are used as is when short enough to show
		if raw[0] != '<' && len(raw) <= 200 {
			return strings.Trim(string(raw), `"`)
		}
		return ""
	}

	switch {
	case strings.TrimSpace(env.Message) != "":
		return env.Message
	case strings.TrimSpace(env.Title) != "":
		return env.Title
	case len(env.Errors) > 0:
		return strings.Join(env.Errors, ", ")
	}
	return ""
}

func dumpBody(raw []byte) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return print.MaybePrettyJSON(v)
}
