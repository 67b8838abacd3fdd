package jwtclaims

import "time"

const devBypassLifetime = time.Hour

// DevBypassClaims describes the synthetic identity used when token checks
// are bypassed in local development.
type DevBypassClaims struct {
	Subject  string
	Issuer   string
	Audience string
	Email    string
}

// DefaultDevBypassClaims returns a baseline identity for local development.
func DefaultDevBypassClaims(audience string) DevBypassClaims {
	if audience == "" {
		audience = "https://dev.local"
	}
	return DevBypassClaims{
		Subject:  "dev-bypass",
		Issuer:   "jwtclaims.dev",
		Audience: audience,
	}
}

// Token builds an unsecured token carrying the synthetic identity, issued at
// now and valid for an hour.
func (d DevBypassClaims) Token(now time.Time) *Token {
	headers := NewHeaders()
	headers.SetAlgorithm(AlgorithmNone)
	headers.SetType("JWT")

	claims := NewClaims()
	claims.SetIssuer(d.Issuer)
	claims.SetSubject(d.Subject)
	claims.SetAudience(d.Audience)
	claims.SetIssuedAt(NewNumericDate(now))
	claims.SetExpiryTime(NewNumericDate(now.Add(devBypassLifetime)))
	if d.Email != "" {
		claims.SetClaim("email", d.Email)
	}
	return &Token{headers: headers, claims: claims}
}

// ToCaller wraps the synthetic token as a bypass caller.
func (d DevBypassClaims) ToCaller() Caller {
	return Caller{Token: d.Token(timeNow()), DevBypass: true}
}
