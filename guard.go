package joalistay

import (
	"context"
	"fmt"
	"time"
)

// UnauthorizedCountdown is how long the unauthorized page waits before it
// moves the user on.
const UnauthorizedCountdown = 5 * time.Second

// GuardState is the state of a route check.
type GuardState int

const (
	GuardChecking GuardState = iota
	GuardAuthorized
	GuardRedirectLogin
	GuardRedirectUnauthorized
)

func (s GuardState) String() string {
	switch s {
	case GuardChecking:
		return "checking"
	case GuardAuthorized:
		return "authorized"
	case GuardRedirectLogin:
		return "redirect_login"
	case GuardRedirectUnauthorized:
		return "redirect_unauthorized"
	default:
		return fmt.Sprintf("guard_state(%d)", int(s))
	}
}

// GuardDecision is the settled result of a route check.
type GuardDecision struct {
	State    GuardState
	Path     string
	Redirect string
	Session  Session
}

// Authorized reports whether the page may render.
func (d GuardDecision) Authorized() bool {
	return d.State == GuardAuthorized
}

// Err returns the error matching a redirect decision, nil when authorized.
func (d GuardDecision) Err() error {
	switch d.State {
	case GuardRedirectLogin:
		return ErrUnauthorized
	case GuardRedirectUnauthorized:
		return ErrAccessDenied
	default:
		return nil
	}
}

// Guard decides whether the current session may open a page. It reads the
// session on every call, so each navigation runs the full check.
type Guard struct {
	cfg     Config
	session *SessionManager
	policy  *RouteAccessPolicy
	logger  Logger
}

// NewGuard builds a guard over session. A nil policy uses the default table.
func NewGuard(cfg Config, session *SessionManager, policy *RouteAccessPolicy) *Guard {
	if cfg == nil {
		cfg = StaticConfig{}
	}
	if policy == nil {
		policy = DefaultRoutePolicy()
	}
	return &Guard{
		cfg:     cfg,
		session: session,
		policy:  policy,
		logger:  defLogger{},
	}
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	g.logger = normalizeLogger(logger)
	return g
}

// Policy returns the route policy in use.
func (g *Guard) Policy() *RouteAccessPolicy {
	return g.policy
}

// Check settles the guard for path. Without an access token the result is
// always a login redirect.
func (g *Guard) Check(ctx context.Context, path string) GuardDecision {
	s := g.session.Snapshot(ctx)
	decision := GuardDecision{State: GuardChecking, Path: path, Session: s}

	switch {
	case s.IsAnonymous():
		decision.State = GuardRedirectLogin
		decision.Redirect = g.cfg.GetLoginRoute()
	case !g.policy.AllowsSession(path, s):
		decision.State = GuardRedirectUnauthorized
		decision.Redirect = g.cfg.GetUnauthorizedRoute()
	default:
		decision.State = GuardAuthorized
	}

	g.logger.Debug("Guard decision", "path", path, "state", decision.State, "user", s.UserID)
	return decision
}

// UnauthorizedRedirectTarget is where the unauthorized page sends the user
// once the countdown ends: the home page of a known user, else login.
func UnauthorizedRedirectTarget(s Session, loginRoute string) string {
	if s.UserID == "" {
		if loginRoute == "" {
			return DefaultLoginRoute
		}
		return loginRoute
	}
	return HomePath(s.UserID)
}

// BookingState is the state of a booking check.
type BookingState int

const (
	BookingChecking BookingState = iota
	BookingAllowed
	BookingBlocked
)

func (s BookingState) String() string {
	switch s {
	case BookingChecking:
		return "checking"
	case BookingAllowed:
		return "allowed"
	case BookingBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("booking_state(%d)", int(s))
	}
}

// BookingLink is an exit offered on the booking required page.
type BookingLink struct {
	Label string
	Path  string
}

// BookingRequiredLinks lists where a user without a booking can get one.
func BookingRequiredLinks() []BookingLink {
	return []BookingLink{
		{Label: "Book a Hotel", Path: "/hotels"},
		{Label: "Browse Tickets", Path: "/tickets"},
	}
}

// BookingDecision is the settled result of a booking check.
type BookingDecision struct {
	State   BookingState
	Session Session
}

// Allowed reports whether the gated page may render.
func (d BookingDecision) Allowed() bool {
	return d.State == BookingAllowed
}

// BookingGuard gates pages behind the hasBooking flag. A blocked check does
// not redirect, the caller renders the booking required page in place.
type BookingGuard struct {
	session *SessionManager
}

func NewBookingGuard(session *SessionManager) *BookingGuard {
	return &BookingGuard{session: session}
}

// Check reads the hasBooking flag of the current session.
func (g *BookingGuard) Check(ctx context.Context) BookingDecision {
	s := g.session.Snapshot(ctx)
	if s.HasBooking {
		return BookingDecision{State: BookingAllowed, Session: s}
	}
	return BookingDecision{State: BookingBlocked, Session: s}
}
