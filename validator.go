package jwtclaims

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"google.golang.org/api/idtoken"
)

var (
	googleValidate = idtoken.Validate
	timeNow        = time.Now
)

// Validator verifies compact tokens from the configured issuers and returns
// them as *Token. It is safe for concurrent use.
type Validator struct {
	mu            sync.RWMutex
	issuers       map[string]*issuerState
	defaultIssuer string
}

type issuerState struct {
	cfg             IssuerConfig
	cache           *jwk.Cache
	allowedSubjects map[string]struct{}
}

// NewValidator builds a validator from the given configuration. JWKS
// endpoints are registered but not fetched; call Warmup to fetch eagerly.
func NewValidator(cfg ValidatorConfig) (*Validator, error) {
	resolved, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	v := &Validator{issuers: make(map[string]*issuerState, len(resolved))}
	if len(cfg.Issuers) == 1 {
		v.defaultIssuer = cfg.Issuers[0].Name
	}
	for name, issuerCfg := range resolved {
		state := &issuerState{
			cfg:             issuerCfg,
			allowedSubjects: lowerSet(issuerCfg.AllowedSubjects),
		}
		if !issuerCfg.googleMode() {
			cache := jwk.NewCache(context.Background())
			httpClient := &http.Client{
				Timeout:   issuerCfg.HTTPTimeout,
				Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
			}
			if err := cache.Register(
				issuerCfg.JWKSURL,
				jwk.WithMinRefreshInterval(issuerCfg.MinRefresh),
				jwk.WithHTTPClient(httpClient),
			); err != nil {
				return nil, fmt.Errorf("register jwks for %q: %w", name, err)
			}
			state.cache = cache
		}
		v.issuers[name] = state
	}
	return v, nil
}

// Warmup refreshes the key set of the named issuer.
func (v *Validator) Warmup(ctx context.Context, issuerName string) error {
	state, ok := v.lookupIssuer(issuerName)
	if !ok {
		return newError(ErrCodeIssuerNotRegistered, fmt.Errorf("issuer %q not found", issuerName))
	}
	if state.cache == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, state.cfg.HTTPTimeout)
	defer cancel()
	if _, err := state.cache.Refresh(ctx, state.cfg.JWKSURL); err != nil {
		return newError(ErrCodeJWKSUnavailable, err)
	}
	return nil
}

// Validate verifies compact against the named issuer, or the only configured
// issuer when issuerName is empty.
func (v *Validator) Validate(ctx context.Context, compact, issuerName string) (*Token, error) {
	if issuerName == "" {
		issuerName = v.defaultIssuer
	}
	if issuerName == "" {
		return nil, newError(ErrCodeIssuerNotRegistered, errors.New("issuer not specified"))
	}
	compact = strings.TrimSpace(compact)
	if compact == "" {
		return nil, newError(ErrCodeInvalidToken, errors.New("token is empty"))
	}
	state, ok := v.lookupIssuer(issuerName)
	if !ok {
		return nil, newError(ErrCodeIssuerNotRegistered, fmt.Errorf("issuer %q not found", issuerName))
	}
	if state.cache == nil {
		return v.validateGoogle(ctx, compact, state)
	}
	return v.validateJWKS(ctx, compact, state)
}

func (v *Validator) validateJWKS(ctx context.Context, compact string, state *issuerState) (*Token, error) {
	tok, _, err := Decode(compact)
	if err != nil {
		return nil, newError(ErrCodeInvalidToken, err)
	}
	alg, _, err := tok.Headers().Algorithm()
	if err != nil {
		return nil, newError(ErrCodeInvalidToken, err)
	}
	if !slices.Contains(state.cfg.Algorithms, alg) {
		return nil, newError(ErrCodeInvalidToken, fmt.Errorf("algorithm %q not accepted", alg))
	}

	keySet, err := state.cache.Get(ctx, state.cfg.JWKSURL)
	if err != nil {
		return nil, newError(ErrCodeJWKSUnavailable, err)
	}
	if _, err := jws.Verify([]byte(compact), jws.WithKeySet(keySet)); err != nil {
		return nil, newError(ErrCodeInvalidToken, err)
	}

	if err := state.checkClaims(tok.Claims(), timeNow); err != nil {
		return nil, err
	}
	return tok, nil
}

func (v *Validator) validateGoogle(ctx context.Context, compact string, state *issuerState) (*Token, error) {
	ctx, cancel := context.WithTimeout(ctx, state.cfg.HTTPTimeout)
	defer cancel()

	payload, err := googleValidate(ctx, compact, state.cfg.Audience)
	if err != nil {
		return nil, mapGoogleError(err)
	}
	if !strings.EqualFold(payload.Issuer, state.cfg.Issuer) {
		return nil, newError(ErrCodeInvalidIssuer, fmt.Errorf("issuer mismatch: got %s, want %s", payload.Issuer, state.cfg.Issuer))
	}

	decoded, _, err := Decode(compact)
	if err != nil {
		return nil, newError(ErrCodeInvalidToken, err)
	}
	claims, err := claimsFromGooglePayload(payload)
	if err != nil {
		return nil, newError(ErrCodeInvalidToken, err)
	}
	if !state.subjectAllowed(claims) {
		sub, _, _ := claims.Subject()
		return nil, newError(ErrCodeSubjectNotAllowed, fmt.Errorf("subject %q not allowed", sub))
	}
	return NewToken(decoded.Headers(), claims)
}

// checkClaims reads the time claims through the typed accessors, then runs
// the jwt validators for iss, aud, exp, nbf and iat with the issuer's skew.
func (s *issuerState) checkClaims(claims *Claims, clock func() time.Time) error {
	if _, _, err := claims.Issuer(); err != nil {
		return newError(ErrCodeInvalidIssuer, err)
	}
	for _, get := range []func() (NumericDate, bool, error){claims.ExpiryTime, claims.NotBefore, claims.IssuedAt} {
		if _, _, err := get(); err != nil {
			return newError(ErrCodeInvalidToken, err)
		}
	}
	if _, ok, _ := claims.ExpiryTime(); !ok && s.cfg.RequireExpiry {
		return newError(ErrCodeInvalidToken, errors.New(`"exp" claim is required`))
	}

	parsed, err := claims.ToJWT()
	if err != nil {
		return newError(ErrCodeInvalidToken, err)
	}
	err = jwt.Validate(parsed,
		jwt.WithClock(jwt.ClockFunc(clock)),
		jwt.WithAcceptableSkew(s.cfg.ClockSkew),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
	)
	if err != nil {
		return classifyValidationError(err)
	}

	if !s.subjectAllowed(claims) {
		sub, _, _ := claims.Subject()
		return newError(ErrCodeSubjectNotAllowed, fmt.Errorf("subject %q not allowed", sub))
	}
	return nil
}

func classifyValidationError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrInvalidIssuer()):
		return newError(ErrCodeInvalidIssuer, err)
	case errors.Is(err, jwt.ErrInvalidAudience()):
		return newError(ErrCodeInvalidAudience, err)
	case errors.Is(err, jwt.ErrTokenExpired()):
		return newError(ErrCodeExpired, err)
	case errors.Is(err, jwt.ErrTokenNotYetValid()):
		return newError(ErrCodeNotYetValid, err)
	}
	return newError(ErrCodeInvalidToken, err)
}

func (v *Validator) lookupIssuer(name string) (*issuerState, bool) {
	if name == "" {
		name = v.defaultIssuer
	}
	if name == "" {
		return nil, false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	state, ok := v.issuers[name]
	return state, ok
}

func (s *issuerState) subjectAllowed(claims *Claims) bool {
	if len(s.allowedSubjects) == 0 {
		return true
	}
	if sub, ok, err := claims.Subject(); ok && err == nil {
		if _, allowed := s.allowedSubjects[strings.ToLower(sub)]; allowed {
			return true
		}
	}
	if email, ok := claims.Claim("email"); ok {
		if e, isText := email.(string); isText && e != "" {
			_, allowed := s.allowedSubjects[strings.ToLower(e)]
			return allowed
		}
	}
	return false
}

func claimsFromGooglePayload(payload *idtoken.Payload) (*Claims, error) {
	values := make(map[string]any, len(payload.Claims)+5)
	for k, v := range payload.Claims {
		values[k] = v
	}
	values[ClaimIssuer] = payload.Issuer
	values[ClaimSubject] = payload.Subject
	values[ClaimAudience] = payload.Audience
	values[ClaimExpiry] = payload.Expires
	values[ClaimIssuedAt] = payload.IssuedAt
	if email, ok := values["email"].(string); ok {
		values["email"] = strings.ToLower(email)
	}
	return NewClaimsFrom(values)
}

func lowerSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}

func mapGoogleError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newError(ErrCodeJWKSUnavailable, err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "audience provided does not match"):
		return newError(ErrCodeInvalidAudience, err)
	case strings.Contains(msg, "token expired"):
		return newError(ErrCodeExpired, err)
	}
	return newError(ErrCodeInvalidToken, err)
}
