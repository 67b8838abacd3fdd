package jwtclaims

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// FromJWT copies the claims of a jwx token. Timestamps become NumericDate
// seconds and a one-element audience list collapses to a single string.
func FromJWT(t jwt.Token) (*Claims, error) {
	values, err := t.AsMap(context.Background())
	if err != nil {
		return nil, fmt.Errorf("read jwt claims: %w", err)
	}
	if aud, ok := values[ClaimAudience].([]string); ok && len(aud) == 1 {
		values[ClaimAudience] = aud[0]
	}
	return NewClaimsFrom(values)
}

// ToJWT builds a jwx token holding the same claims, in insertion order.
func (c *Claims) ToJWT() (jwt.Token, error) {
	t := jwt.New()
	for name, v := range c.set.All() {
		if err := t.Set(name, v.Interface()); err != nil {
			return nil, fmt.Errorf("set claim %q: %w", name, err)
		}
	}
	return t, nil
}

// FromJWSHeaders copies the protected header of a jwx message. Parameters with
// no JSON value form, such as an embedded jwk, are rejected.
func FromJWSHeaders(h jws.Headers) (*Headers, error) {
	values, err := h.AsMap(context.Background())
	if err != nil {
		return nil, fmt.Errorf("read jws headers: %w", err)
	}
	return NewHeadersFrom(values)
}
