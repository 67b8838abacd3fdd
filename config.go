package jwtclaims

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	defaultClockSkew    = 30 * time.Second
	defaultMinRefresh   = 5 * time.Minute
	defaultHTTPTimeout  = 5 * time.Second
	defaultGoogleIssuer = "https://accounts.google.com"
)

// defaultAlgorithms are accepted in the alg header when an issuer does not
// list its own.
var defaultAlgorithms = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512", "PS256", "PS384", "PS512", "EdDSA"}

// ValidatorConfig lists the issuers whose tokens a Validator accepts.
type ValidatorConfig struct {
	Issuers []IssuerConfig
}

// IssuerConfig describes how tokens from one issuer are checked.
//
// An empty JWKSURL selects Google mode, where signatures are checked by the
// Google ID token verifier.
type IssuerConfig struct {
	Name            string
	JWKSURL         string
	Issuer          string
	Audience        string
	AllowedSubjects []string
	// Algorithms restricts the alg header in JWKS mode.
	Algorithms []string
	// RequireExpiry rejects tokens without an exp claim.
	RequireExpiry bool
	ClockSkew     time.Duration
	MinRefresh    time.Duration
	HTTPTimeout   time.Duration
}

func (c IssuerConfig) googleMode() bool { return c.JWKSURL == "" }

// withDefaults returns a copy with unset optional fields filled in.
func (c IssuerConfig) withDefaults() IssuerConfig {
	if c.googleMode() && c.Issuer == "" {
		c.Issuer = defaultGoogleIssuer
	}
	if len(c.Algorithms) == 0 {
		c.Algorithms = defaultAlgorithms
	}
	c.Algorithms = slices.Clone(c.Algorithms)
	c.AllowedSubjects = slices.Clone(c.AllowedSubjects)
	if c.ClockSkew <= 0 {
		c.ClockSkew = defaultClockSkew
	}
	if c.MinRefresh <= 0 {
		c.MinRefresh = defaultMinRefresh
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
	return c
}

func (c IssuerConfig) validate() error {
	switch {
	case c.Name == "":
		return errors.New("issuer name is required")
	case c.Audience == "":
		return errors.New("audience is required")
	case c.googleMode():
		return nil
	case c.Issuer == "":
		return errors.New("expected iss value is required in JWKS mode")
	case slices.Contains(c.Algorithms, AlgorithmNone):
		return errors.New(`algorithm "none" cannot be allowed`)
	}
	return nil
}

// resolve validates every issuer and returns them keyed by name.
func (c ValidatorConfig) resolve() (map[string]IssuerConfig, error) {
	if len(c.Issuers) == 0 {
		return nil, errors.New("at least one issuer must be configured")
	}
	out := make(map[string]IssuerConfig, len(c.Issuers))
	for _, issuer := range c.Issuers {
		if err := issuer.validate(); err != nil {
			return nil, fmt.Errorf("issuer %q: %w", issuer.Name, err)
		}
		if _, dup := out[issuer.Name]; dup {
			return nil, fmt.Errorf("duplicate issuer name %q", issuer.Name)
		}
		out[issuer.Name] = issuer.withDefaults()
	}
	return out, nil
}
