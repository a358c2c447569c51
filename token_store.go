package joalistay

import (
	"context"
	"strconv"
	"strings"
)

// Storage keys. The casing matches what the backend era front end wrote, so
// values stay readable by tooling that inspects an exported session.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserID       = "user_id"
	KeyUserName     = "user_name"
	KeyUserEmail    = "user_email"
	KeyRole         = "role"
	KeyStaffRole    = "staffRole"
	KeyOrgID        = "OrgId"
	KeyHasBooking   = "hasBooking"
)

var tokenKeys = []string{KeyAccessToken, KeyRefreshToken}

var identityKeys = []string{
	KeyUserID,
	KeyUserName,
	KeyUserEmail,
	KeyRole,
	KeyStaffRole,
	KeyOrgID,
	KeyHasBooking,
}

// SessionKeys returns every key owned by the session.
func SessionKeys() []string {
	keys := make([]string, 0, len(tokenKeys)+len(identityKeys))
	keys = append(keys, tokenKeys...)
	return append(keys, identityKeys...)
}

// TokenPair is the credential pair issued by the backend.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenStore persists the session keys in a Storage. Reads never fail: a
// missing medium or a storage error reads as absent.
type TokenStore struct {
	storage Storage
	logger  Logger
}

// NewTokenStore wraps storage. A nil storage is allowed and behaves as an
// empty, read only medium.
func NewTokenStore(storage Storage) *TokenStore {
	return &TokenStore{
		storage: storage,
		logger:  defLogger{},
	}
}

func (s *TokenStore) WithLogger(logger Logger) *TokenStore {
	s.logger = normalizeLogger(logger)
	return s
}

// Save persists both tokens, overwriting prior values.
func (s *TokenStore) Save(ctx context.Context, accessToken, refreshToken string) error {
	if s.storage == nil {
		return nil
	}
	if err := s.storage.Set(ctx, KeyAccessToken, accessToken); err != nil {
		return err
	}
	return s.storage.Set(ctx, KeyRefreshToken, refreshToken)
}

// Clear removes every session key.
func (s *TokenStore) Clear(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Delete(ctx, SessionKeys()...)
}

// ClearTokens removes the token pair and keeps identity keys.
func (s *TokenStore) ClearTokens(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	return s.storage.Delete(ctx, tokenKeys...)
}

// AccessToken returns the persisted access token.
func (s *TokenStore) AccessToken(ctx context.Context) (string, bool) {
	return s.get(ctx, KeyAccessToken)
}

// RefreshToken returns the persisted refresh token.
func (s *TokenStore) RefreshToken(ctx context.Context) (string, bool) {
	return s.get(ctx, KeyRefreshToken)
}

// SaveIdentity persists the decoded identity keys.
func (s *TokenStore) SaveIdentity(ctx context.Context, claims SessionClaims) error {
	if s.storage == nil {
		return nil
	}

	values := map[string]string{
		KeyUserID:     claims.UserID,
		KeyUserName:   claims.Name,
		KeyUserEmail:  claims.Email,
		KeyRole:       claims.Role,
		KeyStaffRole:  claims.StaffRole,
		KeyOrgID:      claims.OrgID,
		KeyHasBooking: formatBool(claims.HasBooking),
	}

	for _, key := range identityKeys {
		if err := s.storage.Set(ctx, key, values[key]); err != nil {
			return err
		}
	}
	return nil
}

// Load assembles a session snapshot. Without an access token the snapshot
// is anonymous and carries no identity, whatever else is stored.
func (s *TokenStore) Load(ctx context.Context) Session {
	accessToken, ok := s.AccessToken(ctx)
	if !ok {
		return Session{}
	}

	refreshToken, _ := s.RefreshToken(ctx)
	userID, _ := s.get(ctx, KeyUserID)
	name, _ := s.get(ctx, KeyUserName)
	email, _ := s.get(ctx, KeyUserEmail)
	role, _ := s.get(ctx, KeyRole)
	staffRole, _ := s.get(ctx, KeyStaffRole)
	orgID, _ := s.get(ctx, KeyOrgID)
	hasBooking, _ := s.get(ctx, KeyHasBooking)

	return Session{
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		UserID:         userID,
		UserName:       name,
		UserEmail:      email,
		Role:           role,
		StaffRoleLabel: staffRole,
		OrgID:          parseOrgID(orgID),
		HasBooking:     parseBool(hasBooking),
	}
}

func (s *TokenStore) get(ctx context.Context, key string) (string, bool) {
	if s.storage == nil {
		return "", false
	}

	value, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		s.logger.Warn("TokenStore read failed, treating as absent", "key", key, "error", err)
		return "", false
	}

	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// formatBool writes booleans the way the backend spells them.
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func parseOrgID(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &id
}
