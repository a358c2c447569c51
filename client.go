package joalistay

import "net/http"

// Client bundles every component bound to one session: the session manager,
// the gateway, the auth flows and both guards.
type Client struct {
	Config   Config
	Sessions *SessionManager
	Gateway  *Gateway
	Auth     *AuthService
	Guard    *Guard
	Booking  *BookingGuard
}

// NewClient wires a client over storage using the default route policy.
func NewClient(cfg Config, storage Storage) *Client {
	return NewClientWithPolicy(cfg, storage, nil)
}

// NewClientWithPolicy wires a client with a custom route policy.
func NewClientWithPolicy(cfg Config, storage Storage, policy *RouteAccessPolicy) *Client {
	if cfg == nil {
		cfg = StaticConfig{}
	}

	sessions := NewSessionManager(storage)
	gateway := NewGateway(cfg, sessions)

	return &Client{
		Config:   cfg,
		Sessions: sessions,
		Gateway:  gateway,
		Auth:     NewAuthService(gateway),
		Guard:    NewGuard(cfg, sessions, policy),
		Booking:  NewBookingGuard(sessions),
	}
}

func (c *Client) WithLogger(logger Logger) *Client {
	c.Sessions.WithLogger(logger)
	c.Gateway.WithLogger(logger)
	c.Auth.WithLogger(logger)
	c.Guard.WithLogger(logger)
	return c
}

func (c *Client) WithActivitySink(sink ActivitySink) *Client {
	c.Gateway.WithActivitySink(sink)
	c.Auth.WithActivitySink(sink)
	return c
}

func (c *Client) WithObserver(observer RequestObserver) *Client {
	c.Gateway.WithObserver(observer)
	return c
}

func (c *Client) WithFallbackNavigator(nav Navigator) *Client {
	c.Gateway.WithFallbackNavigator(nav)
	return c
}

// WithHTTPClient routes both gateway and refresh calls through client.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.Gateway.WithHTTPClient(client)
	c.Auth.WithRefreshClient(client)
	return c
}

func (c *Client) WithDebug(debug bool) *Client {
	c.Gateway.WithDebug(debug)
	return c
}
