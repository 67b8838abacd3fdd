package jwtclaims

// Registered header names.
const (
	HeaderAlgorithm   = "alg"
	HeaderType        = "typ"
	HeaderKeyID       = "kid"
	HeaderContentType = "cty"
)

// Headers is the typed view over a token header (the JOSE header). It follows
// the same storage and coercion rules as Claims.
type Headers struct {
	set *ClaimSet
	err error
}

// NewHeaders returns an empty header view.
func NewHeaders() *Headers {
	return &Headers{set: NewClaimSet()}
}

// NewHeadersFrom deep-copies values into a new header view.
func NewHeadersFrom(values map[string]any) (*Headers, error) {
	cs, err := NewClaimSetFrom(values)
	if err != nil {
		return nil, err
	}
	return &Headers{set: cs}, nil
}

// HeadersOf wraps an existing claim set without copying it.
func HeadersOf(cs *ClaimSet) *Headers {
	if cs == nil {
		cs = NewClaimSet()
	}
	return &Headers{set: cs}
}

// ClaimSet exposes the underlying container.
func (h *Headers) ClaimSet() *ClaimSet { return h.set }

// SetAlgorithm stores the signing or encryption algorithm, e.g. "RS256".
func (h *Headers) SetAlgorithm(alg string) { h.setTyped(HeaderAlgorithm, String(alg)) }

// Algorithm returns the "alg" header.
func (h *Headers) Algorithm() (string, bool, error) { return textOf(h.set, HeaderAlgorithm) }

// SetType sets the "typ" header.
func (h *Headers) SetType(typ string) { h.setTyped(HeaderType, String(typ)) }

// Type returns the "typ" header.
func (h *Headers) Type() (string, bool, error) { return textOf(h.set, HeaderType) }

// SetKeyID sets the "kid" header.
func (h *Headers) SetKeyID(kid string) { h.setTyped(HeaderKeyID, String(kid)) }

// KeyID returns the "kid" header.
func (h *Headers) KeyID() (string, bool, error) { return textOf(h.set, HeaderKeyID) }

// SetContentType sets the "cty" header.
func (h *Headers) SetContentType(cty string) { h.setTyped(HeaderContentType, String(cty)) }

// ContentType returns the "cty" header.
func (h *Headers) ContentType() (string, bool, error) { return textOf(h.set, HeaderContentType) }

// SetHeader stores an arbitrary header parameter and returns h for chaining.
// Failures are reported by Err.
func (h *Headers) SetHeader(name string, value any) *Headers {
	if h.set == nil {
		h.set = NewClaimSet()
	}
	h.record(h.set.Set(name, value))
	return h
}

// Header returns any header parameter as a plain Go value.
func (h *Headers) Header(name string) (any, bool) { return h.set.Get(name) }

// Err reports the first value rejected by SetHeader or a typed setter.
func (h *Headers) Err() error { return h.err }

// Equal compares the underlying claim sets.
func (h *Headers) Equal(other *Headers) bool {
	if h == nil || other == nil {
		return h == other
	}
	return h.set.Equal(other.set)
}

// Hash returns a digest consistent with Equal.
func (h *Headers) Hash() uint64 { return h.set.Hash() }

// Clone returns a deep copy without the recorded error.
func (h *Headers) Clone() *Headers { return &Headers{set: h.set.Clone()} }

// MarshalJSON writes the parameters in insertion order.
func (h *Headers) MarshalJSON() ([]byte, error) { return h.set.MarshalJSON() }

// UnmarshalJSON replaces the parameters with the decoded object.
func (h *Headers) UnmarshalJSON(data []byte) error {
	if h.set == nil {
		h.set = NewClaimSet()
	}
	return h.set.UnmarshalJSON(data)
}

// String returns the JSON encoding of the header.
func (h *Headers) String() string { return h.set.String() }

func (h *Headers) setTyped(name string, v Value) {
	if h.set == nil {
		h.set = NewClaimSet()
	}
	h.record(h.set.SetValue(name, v))
}

func (h *Headers) record(err error) {
	if err != nil && h.err == nil {
		h.err = err
	}
}
