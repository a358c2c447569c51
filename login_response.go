package joalistay

import (
	"encoding/json"
	"strings"
)

// InitialPasswordSentinel is the login message the backend sends to staff
// accounts that still carry their provisioning password.
const InitialPasswordSentinel = "RedirectToInitialPasswordPage"

// TokenShape names one of the layouts the login endpoint uses to return the
// token pair.
type TokenShape string

const (
	// TokenShapeFlat: {"accessToken": "...", "refreshToken": "..."}
	TokenShapeFlat TokenShape = "flat"
	// TokenShapeData: {"data": {"accessToken": "...", "refreshToken": "..."}}
	TokenShapeData TokenShape = "data"
	// TokenShapeToken: {"token": {"accessToken": "...", "refreshToken": "..."}}
	TokenShapeToken TokenShape = "token"
)

// TokenShapePrecedence is the order in which login response layouts are
// tried. The first layout carrying an access token wins.
var TokenShapePrecedence = []TokenShape{
	TokenShapeFlat,
	TokenShapeData,
	TokenShapeToken,
}

// InitialPasswordChallenge carries the one time code needed to set the
// first password of a provisioned account.
type InitialPasswordChallenge struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type loginData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Email        string `json:"email"`
	Code         string `json:"code"`
}

// LoginResponse is the decoded body of the login endpoint.
type LoginResponse struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	Data         json.RawMessage `json:"data,omitempty"`
	Token        *TokenPair      `json:"token,omitempty"`
	Errors       []string        `json:"errors,omitempty"`
}

// data decodes the data member when it is an object. Any other layout reads
// as empty.
func (r LoginResponse) data() (loginData, bool) {
	var d loginData
	raw := strings.TrimSpace(string(r.Data))
	if raw == "" || raw[0] != '{' {
		return d, false
	}
	if err := json.Unmarshal(r.Data, &d); err != nil {
		return d, false
	}
	return d, true
}

// Challenge returns the initial password challenge when the response carries
// the sentinel message together with an email and code.
func (r LoginResponse) Challenge() (InitialPasswordChallenge, bool) {
	if r.Message != InitialPasswordSentinel {
		return InitialPasswordChallenge{}, false
	}
	d, ok := r.data()
	if !ok || d.Email == "" || d.Code == "" {
		return InitialPasswordChallenge{}, false
	}
	return InitialPasswordChallenge{Email: d.Email, Code: d.Code}, true
}

// TokensFor reads the token pair using a single layout.
func (r LoginResponse) TokensFor(shape TokenShape) (TokenPair, bool) {
	var pair TokenPair
	switch shape {
	case TokenShapeFlat:
		pair = TokenPair{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
	case TokenShapeData:
		d, ok := r.data()
		if !ok {
			return TokenPair{}, false
		}
		pair = TokenPair{AccessToken: d.AccessToken, RefreshToken: d.RefreshToken}
	case TokenShapeToken:
		if r.Token == nil {
			return TokenPair{}, false
		}
		pair = *r.Token
	default:
		return TokenPair{}, false
	}

	if strings.TrimSpace(pair.AccessToken) == "" {
		return TokenPair{}, false
	}
	return pair, true
}

// Tokens walks TokenShapePrecedence and returns the first pair found along
// with the layout it came from.
func (r LoginResponse) Tokens() (TokenPair, TokenShape, bool) {
	for _, shape := range TokenShapePrecedence {
		if pair, ok := r.TokensFor(shape); ok {
			return pair, shape, true
		}
	}
	return TokenPair{}, "", false
}
