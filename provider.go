package jwtclaims

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/impersonate"
)

// TokenFactory creates the token source used for one audience and parameter
// combination. Overriding it lets callers mint tokens from any issuer.
type TokenFactory func(context.Context, string, ProviderParams) (oauth2.TokenSource, error)

// ProviderConfig holds the defaults applied to every request.
type ProviderConfig struct {
	ServiceAccount string
	IncludeEmail   bool
	Delegates      []string
	TokenFactory   TokenFactory
}

// ProviderParams are the per-request minting parameters.
type ProviderParams struct {
	ServiceAccount string
	IncludeEmail   bool
	Delegates      []string
}

func (p ProviderParams) cacheKey(audience string) sourceKey {
	return sourceKey{
		audience:       audience,
		serviceAccount: p.ServiceAccount,
		includeEmail:   p.IncludeEmail,
		delegates:      strings.Join(p.Delegates, ","),
	}
}

type sourceKey struct {
	audience       string
	serviceAccount string
	includeEmail   bool
	delegates      string
}

// TokenOption adjusts the parameters of a single request.
type TokenOption func(*ProviderParams)

// WithServiceAccount mints the token by impersonating email.
func WithServiceAccount(email string) TokenOption {
	return func(p *ProviderParams) { p.ServiceAccount = email }
}

// WithIncludeEmail asks for the email claim in impersonated tokens.
func WithIncludeEmail(include bool) TokenOption {
	return func(p *ProviderParams) { p.IncludeEmail = include }
}

// WithDelegates sets the impersonation delegation chain.
func WithDelegates(delegates ...string) TokenOption {
	return func(p *ProviderParams) { p.Delegates = slices.Clone(delegates) }
}

// Provider mints identity tokens, by default Google ID tokens, and caches one
// reusable token source per parameter combination.
type Provider struct {
	mu       sync.RWMutex
	factory  TokenFactory
	sources  map[sourceKey]oauth2.TokenSource
	defaults ProviderParams
}

// NewProvider returns a provider that uses Google credentials unless
// cfg.TokenFactory is set.
func NewProvider(cfg ProviderConfig) *Provider {
	factory := cfg.TokenFactory
	if factory == nil {
		factory = googleFactory
	}
	return &Provider{
		factory: factory,
		sources: make(map[sourceKey]oauth2.TokenSource),
		defaults: ProviderParams{
			ServiceAccount: cfg.ServiceAccount,
			IncludeEmail:   cfg.IncludeEmail,
			Delegates:      slices.Clone(cfg.Delegates),
		},
	}
}

// Token returns the compact token for audience.
func (p *Provider) Token(ctx context.Context, audience string, opts ...TokenOption) (string, error) {
	if strings.TrimSpace(audience) == "" {
		return "", errors.New("audience is required")
	}
	params := p.defaults
	params.Delegates = slices.Clone(p.defaults.Delegates)
	for _, opt := range opts {
		opt(&params)
	}

	source, err := p.source(ctx, audience, params)
	if err != nil {
		return "", err
	}
	tok, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("empty access token returned")
	}
	return tok.AccessToken, nil
}

// Parsed is Token followed by Decode. The signature is not checked; the
// issuer is trusted as the source.
func (p *Provider) Parsed(ctx context.Context, audience string, opts ...TokenOption) (*Token, error) {
	compact, err := p.Token(ctx, audience, opts...)
	if err != nil {
		return nil, err
	}
	tok, _, err := Decode(compact)
	if err != nil {
		return nil, fmt.Errorf("decode minted token: %w", err)
	}
	return tok, nil
}

func (p *Provider) source(ctx context.Context, audience string, params ProviderParams) (oauth2.TokenSource, error) {
	key := params.cacheKey(audience)

	p.mu.RLock()
	src, ok := p.sources[key]
	p.mu.RUnlock()
	if ok {
		return src, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if src, ok = p.sources[key]; ok {
		return src, nil
	}
	// The source outlives this call and refreshes later, so it must not
	// inherit the caller's cancellation.
	if ctx == nil {
		ctx = context.Background()
	}
	ts, err := p.factory(context.WithoutCancel(ctx), audience, params)
	if err != nil {
		return nil, err
	}
	src = oauth2.ReuseTokenSource(nil, ts)
	p.sources[key] = src
	return src, nil
}

func googleFactory(ctx context.Context, audience string, params ProviderParams) (oauth2.TokenSource, error) {
	if params.ServiceAccount == "" {
		return idtoken.NewTokenSource(ctx, audience)
	}
	return impersonate.IDTokenSource(ctx, impersonate.IDTokenConfig{
		Audience:        audience,
		TargetPrincipal: params.ServiceAccount,
		IncludeEmail:    params.IncludeEmail,
		Delegates:       params.Delegates,
	})
}
