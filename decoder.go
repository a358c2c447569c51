package joalistay

// TokenDecoder extracts session claims from an access token.
type TokenDecoder interface {
	Decode(token string) (SessionClaims, error)
}

// TokenDecoderFunc adapts a function into a TokenDecoder.
type TokenDecoderFunc func(token string) (SessionClaims, error)

// Decode satisfies the TokenDecoder interface.
func (f TokenDecoderFunc) Decode(token string) (SessionClaims, error) {
	if f == nil {
		return SessionClaims{}, ErrInvalidToken
	}
	return f(token)
}

// UnverifiedDecoder reads claims without checking the signature.
var UnverifiedDecoder TokenDecoder = TokenDecoderFunc(DecodeToken)
