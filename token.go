package jwtclaims

import "errors"

// Token pairs a header with a claims body. Both parts are fixed at
// construction; changing their content goes through the held objects.
type Token struct {
	headers *Headers
	claims  *Claims
}

// NewToken requires both parts and keeps references to them.
func NewToken(headers *Headers, claims *Claims) (*Token, error) {
	if headers == nil {
		return nil, newError(ErrCodeMissingHeaders, errors.New("headers are required"))
	}
	if claims == nil {
		return nil, newError(ErrCodeMissingClaims, errors.New("claims are required"))
	}
	return &Token{headers: headers, claims: claims}, nil
}

// Headers returns the held header view.
func (t *Token) Headers() *Headers { return t.headers }

// Claims returns the held claims view.
func (t *Token) Claims() *Claims { return t.claims }

// Equal reports whether both tokens carry equal headers and equal claims.
func (t *Token) Equal(other *Token) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.headers.Equal(other.headers) && t.claims.Equal(other.claims)
}

// Hash is order sensitive: headers and claims are weighted differently.
func (t *Token) Hash() uint64 {
	return t.headers.Hash() + 37*t.claims.Hash()
}

// Clone deep-copies both parts.
func (t *Token) Clone() *Token {
	return &Token{headers: t.headers.Clone(), claims: t.claims.Clone()}
}
