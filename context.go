package jwtclaims

import "context"

type callerKey struct{}

// Caller is the authenticated token stored in a request context.
type Caller struct {
	Token     *Token
	DevBypass bool
}

// Subject returns the sub claim of the caller's token, or "" when unknown.
func (c Caller) Subject() string {
	if c.Token == nil {
		return ""
	}
	sub, _, err := c.Token.Claims().Subject()
	if err != nil {
		return ""
	}
	return sub
}

// BindCaller stores the caller in ctx for downstream handlers.
func BindCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller stored by BindCaller.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}
