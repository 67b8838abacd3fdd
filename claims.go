package jwtclaims

// Registered claim names.
const (
	ClaimIssuer    = "iss"
	ClaimSubject   = "sub"
	ClaimAudience  = "aud"
	ClaimExpiry    = "exp"
	ClaimNotBefore = "nbf"
	ClaimIssuedAt  = "iat"
	ClaimTokenID   = "jti"
)

// Claims is the typed view over a token body. Registered claims are stored
// under their standard names in the wrapped ClaimSet; any other claim goes
// through SetClaim and Claim.
//
// Getters return ok == false for a claim that was never set and an
// ErrCodeTypeMismatch error when the stored value has the wrong type.
type Claims struct {
	set *ClaimSet
	err error
}

// NewClaims returns an empty claims view.
func NewClaims() *Claims {
	return &Claims{set: NewClaimSet()}
}

// NewClaimsFrom deep-copies values into a new claims view.
func NewClaimsFrom(values map[string]any) (*Claims, error) {
	cs, err := NewClaimSetFrom(values)
	if err != nil {
		return nil, err
	}
	return &Claims{set: cs}, nil
}

// ClaimsOf wraps an existing claim set without copying it.
func ClaimsOf(cs *ClaimSet) *Claims {
	if cs == nil {
		cs = NewClaimSet()
	}
	return &Claims{set: cs}
}

// ClaimSet exposes the underlying container.
func (c *Claims) ClaimSet() *ClaimSet { return c.set }

// SetIssuer sets the "iss" claim.
func (c *Claims) SetIssuer(issuer string) { c.setTyped(ClaimIssuer, String(issuer)) }

// Issuer returns the "iss" claim.
func (c *Claims) Issuer() (string, bool, error) { return textOf(c.set, ClaimIssuer) }

// SetSubject sets the "sub" claim.
func (c *Claims) SetSubject(subject string) { c.setTyped(ClaimSubject, String(subject)) }

// Subject returns the "sub" claim.
func (c *Claims) Subject() (string, bool, error) { return textOf(c.set, ClaimSubject) }

// SetAudience stores a single audience string.
func (c *Claims) SetAudience(audience string) { c.setTyped(ClaimAudience, String(audience)) }

// Audience returns the single audience. A stored array is a type mismatch.
func (c *Claims) Audience() (string, bool, error) { return textOf(c.set, ClaimAudience) }

// SetExpiryTime sets the "exp" claim.
func (c *Claims) SetExpiryTime(exp NumericDate) { c.setTyped(ClaimExpiry, Int(int64(exp))) }

// ExpiryTime returns the "exp" claim.
func (c *Claims) ExpiryTime() (NumericDate, bool, error) { return dateOf(c.set, ClaimExpiry) }

// SetNotBefore sets the "nbf" claim.
func (c *Claims) SetNotBefore(nbf NumericDate) { c.setTyped(ClaimNotBefore, Int(int64(nbf))) }

// NotBefore returns the "nbf" claim.
func (c *Claims) NotBefore() (NumericDate, bool, error) { return dateOf(c.set, ClaimNotBefore) }

// SetIssuedAt sets the "iat" claim.
func (c *Claims) SetIssuedAt(iat NumericDate) { c.setTyped(ClaimIssuedAt, Int(int64(iat))) }

// IssuedAt returns the "iat" claim.
func (c *Claims) IssuedAt() (NumericDate, bool, error) { return dateOf(c.set, ClaimIssuedAt) }

// SetTokenID sets the "jti" claim.
func (c *Claims) SetTokenID(id string) { c.setTyped(ClaimTokenID, String(id)) }

// TokenID returns the "jti" claim.
func (c *Claims) TokenID() (string, bool, error) { return textOf(c.set, ClaimTokenID) }

// SetClaim stores an arbitrary claim and returns c so calls can be chained.
// The first conversion failure is kept and reported by Err; later calls
// still apply.
func (c *Claims) SetClaim(name string, value any) *Claims {
	if c.set == nil {
		c.set = NewClaimSet()
	}
	c.record(c.set.Set(name, value))
	return c
}

// Claim returns any claim as a plain Go value.
func (c *Claims) Claim(name string) (any, bool) { return c.set.Get(name) }

// Err reports the first value rejected by SetClaim or a typed setter.
func (c *Claims) Err() error { return c.err }

// Equal compares the underlying claim sets.
func (c *Claims) Equal(other *Claims) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.set.Equal(other.set)
}

// Hash returns a digest consistent with Equal.
func (c *Claims) Hash() uint64 { return c.set.Hash() }

// Clone returns a deep copy without the recorded error.
func (c *Claims) Clone() *Claims { return &Claims{set: c.set.Clone()} }

// MarshalJSON writes the claims in insertion order.
func (c *Claims) MarshalJSON() ([]byte, error) { return c.set.MarshalJSON() }

// UnmarshalJSON replaces the claims with the decoded object.
func (c *Claims) UnmarshalJSON(data []byte) error {
	if c.set == nil {
		c.set = NewClaimSet()
	}
	return c.set.UnmarshalJSON(data)
}

// String returns the JSON encoding of the claims.
func (c *Claims) String() string { return c.set.String() }

// setTyped stores a registered claim. The name is a constant, so only the
// value can be rejected; the failure is kept for Err.
func (c *Claims) setTyped(name string, v Value) {
	if c.set == nil {
		c.set = NewClaimSet()
	}
	c.record(c.set.SetValue(name, v))
}

func (c *Claims) record(err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
}

func textOf(cs *ClaimSet, name string) (string, bool, error) {
	v, ok := cs.Value(name)
	if !ok {
		return "", false, nil
	}
	s, err := v.Text()
	if err != nil {
		return "", true, claimMismatch(name, err)
	}
	return s, true, nil
}

func dateOf(cs *ClaimSet, name string) (NumericDate, bool, error) {
	v, ok := cs.Value(name)
	if !ok {
		return 0, false, nil
	}
	i, err := v.Int64()
	if err != nil {
		return 0, true, claimMismatch(name, err)
	}
	return NumericDate(i), true, nil
}
