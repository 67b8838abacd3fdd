package jwtclaims

import (
	"context"
	"testing"
	"time"
)

func TestCallerContextRoundTrip(t *testing.T) {
	if _, ok := CallerFromContext(context.Background()); ok {
		t.Fatal("empty context should hold no caller")
	}

	tok := mustToken(t, buildHeaders("k1"), buildClaims("user-42"))
	ctx := BindCaller(context.Background(), Caller{Token: tok})

	caller, ok := CallerFromContext(ctx)
	if !ok {
		t.Fatal("caller not found")
	}
	if caller.Token != tok || caller.DevBypass {
		t.Fatalf("unexpected caller: %+v", caller)
	}
	if caller.Subject() != "user-42" {
		t.Fatalf("Subject = %q", caller.Subject())
	}
	if (Caller{}).Subject() != "" {
		t.Fatal("caller without token has no subject")
	}
}

func TestDevBypassToken(t *testing.T) {
	now := time.Unix(1700000000, 0)
	d := DefaultDevBypassClaims("")
	d.Email = "dev@example.com"
	tok := d.Token(now)

	if alg, _, _ := tok.Headers().Algorithm(); alg != AlgorithmNone {
		t.Fatalf("alg = %q", alg)
	}
	claims := tok.Claims()
	if aud, _, _ := claims.Audience(); aud != "https://dev.local" {
		t.Fatalf("aud = %q", aud)
	}
	if iat, _, _ := claims.IssuedAt(); iat != 1700000000 {
		t.Fatalf("iat = %d", iat)
	}
	if exp, _, _ := claims.ExpiryTime(); exp != 1700003600 {
		t.Fatalf("exp = %d", exp)
	}
	if email, _ := claims.Claim("email"); email != "dev@example.com" {
		t.Fatalf("email = %v", email)
	}

	// The bypass token is unsigned and encodes as such.
	if _, err := EncodeUnsigned(tok); err != nil {
		t.Fatalf("EncodeUnsigned: %v", err)
	}
}

func TestDevBypassToCaller(t *testing.T) {
	original := timeNow
	defer func() { timeNow = original }()
	timeNow = func() time.Time { return time.Unix(1700000000, 0) }

	caller := DefaultDevBypassClaims("https://api.local.dev").ToCaller()
	if !caller.DevBypass {
		t.Fatal("expected bypass caller")
	}
	if caller.Subject() != "dev-bypass" {
		t.Fatalf("Subject = %q", caller.Subject())
	}
	if iat, _, _ := caller.Token.Claims().IssuedAt(); iat != 1700000000 {
		t.Fatalf("iat = %d", iat)
	}
}
