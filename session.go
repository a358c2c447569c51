package joalistay

import (
	"context"
	"fmt"
	"sync"
)

// Session is a point in time snapshot of the client held credentials and
// decoded identity.
type Session struct {
	AccessToken    string `json:"-"`
	RefreshToken   string `json:"-"`
	UserID         string `json:"user_id,omitempty"`
	UserName       string `json:"user_name,omitempty"`
	UserEmail      string `json:"user_email,omitempty"`
	Role           string `json:"role,omitempty"`
	StaffRoleLabel string `json:"staff_role,omitempty"`
	OrgID          *int   `json:"org_id,omitempty"`
	HasBooking     bool   `json:"has_booking"`
}

// IsAnonymous reports whether the session holds no access token.
func (s Session) IsAnonymous() bool {
	return s.AccessToken == ""
}

// EffectiveRole returns the staff role label when it names a known role,
// else the primary role. Anonymous sessions have no role.
func (s Session) EffectiveRole() UserRole {
	if s.IsAnonymous() {
		return ""
	}
	return effectiveRole(s.Role, s.StaffRoleLabel)
}

// HasRole checks both the primary role and the staff role label.
func (s Session) HasRole(role UserRole) bool {
	if s.IsAnonymous() {
		return false
	}
	for _, r := range s.Roles() {
		if r == role {
			return true
		}
	}
	return false
}

// Roles returns the parsed primary role and staff role label, skipping
// values that do not name a known role.
func (s Session) Roles() []UserRole {
	var out []UserRole
	if r, ok := ParseRole(s.Role); ok {
		out = append(out, r)
	}
	if r, ok := ParseRole(s.StaffRoleLabel); ok && (len(out) == 0 || out[0] != r) {
		out = append(out, r)
	}
	return out
}

// InOrganization reports whether the session is scoped to orgID.
func (s Session) InOrganization(orgID int) bool {
	return s.OrgID != nil && *s.OrgID == orgID
}

func (s Session) String() string {
	org := "<nil>"
	if s.OrgID != nil {
		org = fmt.Sprint(*s.OrgID)
	}
	return fmt.Sprintf(
		"user=%s name=%s role=%s staff_role=%s org=%s booking=%t anonymous=%t",
		s.UserID,
		s.UserName,
		s.Role,
		s.StaffRoleLabel,
		org,
		s.HasBooking,
		s.IsAnonymous(),
	)
}

// SessionEventType enumerates session state changes.
type SessionEventType string

const (
	SessionEstablished SessionEventType = "session.established"
	SessionRotated     SessionEventType = "session.rotated"
	SessionCleared     SessionEventType = "session.cleared"
)

// ClearReason tells subscribers why a session went away.
type ClearReason string

const (
	ReasonLogout       ClearReason = "logout"
	ReasonUnauthorized ClearReason = "unauthorized"
)

// SessionEvent is delivered to subscribers after a write completed.
type SessionEvent struct {
	Type       SessionEventType
	Reason     ClearReason
	Generation uint64
	Session    Session
}

// SessionManager is the single owner of a session. Auth flows and the
// gateway write through it, everything else reads snapshots.
type SessionManager struct {
	store  *TokenStore
	logger Logger

	mu          sync.Mutex
	generation  uint64
	nextSubID   int
	subscribers map[int]func(SessionEvent)
}

// NewSessionManager builds a manager on top of storage.
func NewSessionManager(storage Storage) *SessionManager {
	return &SessionManager{
		store:       NewTokenStore(storage),
		logger:      defLogger{},
		subscribers: map[int]func(SessionEvent){},
	}
}

func (m *SessionManager) WithLogger(logger Logger) *SessionManager {
	m.logger = normalizeLogger(logger)
	m.store.WithLogger(m.logger)
	return m
}

// Store exposes the underlying token store for read access.
func (m *SessionManager) Store() *TokenStore {
	return m.store
}

// Snapshot reads the current session.
func (m *SessionManager) Snapshot(ctx context.Context) Session {
	return m.store.Load(ctx)
}

// AccessToken returns the current access token.
func (m *SessionManager) AccessToken(ctx context.Context) (string, bool) {
	return m.store.AccessToken(ctx)
}

// Generation returns a counter bumped by every Establish.
func (m *SessionManager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Subscribe registers fn for session events and returns a function that
// removes it.
func (m *SessionManager) Subscribe(fn func(SessionEvent)) func() {
	if fn == nil {
		return func() {}
	}

	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// Establish persists a fresh login: tokens first, then identity.
func (m *SessionManager) Establish(ctx context.Context, tokens TokenPair, claims *SessionClaims) error {
	if err := m.store.Clear(ctx); err != nil {
		return err
	}

	if err := m.store.Save(ctx, tokens.AccessToken, tokens.RefreshToken); err != nil {
		return err
	}

	if claims != nil {
		if err := m.store.SaveIdentity(ctx, *claims); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	m.publish(ctx, SessionEvent{Type: SessionEstablished, Generation: gen})
	return nil
}

// RotateTokens replaces the token pair only. Identity keys are left as they
// were decoded at login.
func (m *SessionManager) RotateTokens(ctx context.Context, tokens TokenPair) error {
	if err := m.store.Save(ctx, tokens.AccessToken, tokens.RefreshToken); err != nil {
		return err
	}
	m.publish(ctx, SessionEvent{Type: SessionRotated, Generation: m.Generation()})
	return nil
}

// Clear removes the session according to policy.
func (m *SessionManager) Clear(ctx context.Context, reason ClearReason, policy ClearPolicy) error {
	var err error
	if policy == ClearPolicyTokensOnly {
		err = m.store.ClearTokens(ctx)
	} else {
		err = m.store.Clear(ctx)
	}

	if err != nil {
		m.logger.Error("SessionManager clear failed", "reason", reason, "error", err)
		return err
	}

	m.publish(ctx, SessionEvent{Type: SessionCleared, Reason: reason, Generation: m.Generation()})
	return nil
}

func (m *SessionManager) publish(ctx context.Context, event SessionEvent) {
	event.Session = m.store.Load(ctx)

	m.mu.Lock()
	subs := make([]func(SessionEvent), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}
