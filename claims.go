package joalistay

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names issued by the JoaliStay backend.
const (
	ClaimName       = "name"
	ClaimUserID     = "userId"
	ClaimEmail      = "email"
	ClaimRole       = "role"
	ClaimStaffRole  = "staffRole"
	ClaimOrgID      = "OrgId"
	ClaimHasBooking = "hasBooking"
)

// DefaultDisplayName is used when the token carries no name claim.
const DefaultDisplayName = "User"

// SessionClaims is the identity extracted from an access token. The values
// are read for display and route gating only, the signature is never checked.
type SessionClaims struct {
	UserID     string     `json:"user_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	StaffRole  string     `json:"staff_role"`
	OrgID      string     `json:"org_id"`
	HasBooking bool       `json:"has_booking"`
	IssuedAt   *time.Time `json:"issued_at,omitempty"`
	Expiration *time.Time `json:"expires_at,omitempty"`
}

// EffectiveRole returns the staff role when it names a known role, falling
// back to the primary role claim.
func (c SessionClaims) EffectiveRole() UserRole {
	return effectiveRole(c.Role, c.StaffRole)
}

// ExpiresAt returns the expiration time, zero when the claim is missing.
func (c SessionClaims) ExpiresAt() time.Time {
	if c.Expiration == nil {
		return time.Time{}
	}
	return *c.Expiration
}

// Expired reports whether the token carried an exp claim in the past.
func (c SessionClaims) Expired(now time.Time) bool {
	if c.Expiration == nil {
		return false
	}
	return !now.Before(*c.Expiration)
}

var unverifiedParser = jwt.NewParser()

// DecodeToken reads the claim set of an access token without verifying its
// signature. Verification is the backend's job on every call.
func DecodeToken(token string) (SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return SessionClaims{}, ErrInvalidToken
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := unverifiedParser.ParseUnverified(token, mapClaims); err != nil {
		return SessionClaims{}, derive(ErrInvalidToken, "", err)
	}

	claims := SessionClaims{
		UserID:     claimString(mapClaims, ClaimUserID),
		Name:       claimString(mapClaims, ClaimName),
		Email:      claimString(mapClaims, ClaimEmail),
		Role:       claimString(mapClaims, ClaimRole),
		StaffRole:  claimString(mapClaims, ClaimStaffRole),
		OrgID:      claimString(mapClaims, ClaimOrgID),
		HasBooking: claimBool(mapClaims, ClaimHasBooking),
	}

	if claims.Name == "" {
		claims.Name = DefaultDisplayName
	}

	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		claims.IssuedAt = &t
	}

	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		claims.Expiration = &t
	}

	return claims, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	raw, ok := claims[key]
	if !ok || raw == nil {
		return ""
	}

	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		// staffRole is emitted as false for customers
		if !v {
			return ""
		}
		return "true"
	case []any:
		// .NET backends emit repeated claims as arrays, the first one wins
		if len(v) == 0 {
			return ""
		}
		return claimString(jwt.MapClaims{key: v[0]}, key)
	default:
		return fmt.Sprint(v)
	}
}

func claimBool(claims jwt.MapClaims, key string) bool {
	raw, ok := claims[key]
	if !ok || raw == nil {
		return false
	}

	switch v := raw.(type) {
	case bool:
		return v
	case string:
		return parseBool(v)
	case float64:
		return v != 0
	default:
		return false
	}
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(s)))
	return err == nil && b
}

func effectiveRole(role, staffRole string) UserRole {
	if r, ok := ParseRole(staffRole); ok {
		return r
	}
	r, _ := ParseRole(role)
	return r
}
