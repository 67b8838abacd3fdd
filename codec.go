package jwtclaims

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
)

// AlgorithmNone marks an unsecured token.
const AlgorithmNone = string(jwa.NoSignature)

var segmentEncoding = base64.RawURLEncoding

// EncodeUnsigned produces the compact form with an empty signature segment.
// When alg is unset the encoded header carries "none"; any other algorithm is
// rejected so that a token meant to be signed is never emitted unsigned.
func EncodeUnsigned(tok *Token) (string, error) {
	headers := tok.Headers()
	alg, ok, err := headers.Algorithm()
	if err != nil {
		return "", err
	}
	switch {
	case !ok:
		headers = headers.Clone()
		headers.SetAlgorithm(AlgorithmNone)
	case alg != AlgorithmNone:
		return "", newError(ErrCodeUnsupportedAlgorithm, fmt.Errorf("algorithm %q requires a key, use Sign", alg))
	}
	input, err := signingInput(headers, tok.Claims())
	if err != nil {
		return "", err
	}
	return input + ".", nil
}

// Sign serializes tok and signs it with the algorithm named by its alg header.
// key is whatever the jws signer for that algorithm accepts: []byte for HMAC,
// crypto private keys or jwk.Key otherwise.
func Sign(tok *Token, key any) (string, error) {
	alg, err := signatureAlgorithm(tok.Headers())
	if err != nil {
		return "", err
	}
	signer, err := jws.NewSigner(alg)
	if err != nil {
		return "", newError(ErrCodeUnsupportedAlgorithm, err)
	}
	input, err := signingInput(tok.Headers(), tok.Claims())
	if err != nil {
		return "", err
	}
	sig, err := signer.Sign([]byte(input), key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return input + "." + segmentEncoding.EncodeToString(sig), nil
}

// Decode parses the compact form without checking the signature. It returns
// the token and the raw signature bytes.
func Decode(compact string) (*Token, []byte, error) {
	parts, err := splitCompact(compact)
	if err != nil {
		return nil, nil, err
	}
	headers := NewHeaders()
	if err := decodeSegment(parts[0], headers.set); err != nil {
		return nil, nil, newError(ErrCodeMalformed, fmt.Errorf("header: %w", err))
	}
	claims := NewClaims()
	if err := decodeSegment(parts[1], claims.set); err != nil {
		return nil, nil, newError(ErrCodeMalformed, fmt.Errorf("claims: %w", err))
	}
	sig, err := segmentEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, nil, newError(ErrCodeMalformed, fmt.Errorf("signature: %w", err))
	}
	tok, err := NewToken(headers, claims)
	if err != nil {
		return nil, nil, err
	}
	return tok, sig, nil
}

// Verify decodes compact and checks its signature with key. Unsecured tokens
// are rejected.
func Verify(compact string, key any) (*Token, error) {
	compact = strings.TrimSpace(compact)
	tok, sig, err := Decode(compact)
	if err != nil {
		return nil, err
	}
	alg, err := signatureAlgorithm(tok.Headers())
	if err != nil {
		return nil, err
	}
	verifier, err := jws.NewVerifier(alg)
	if err != nil {
		return nil, newError(ErrCodeUnsupportedAlgorithm, err)
	}
	input := compact[:strings.LastIndexByte(compact, '.')]
	if err := verifier.Verify([]byte(input), sig, key); err != nil {
		return nil, newError(ErrCodeInvalidSignature, err)
	}
	return tok, nil
}

func signatureAlgorithm(headers *Headers) (jwa.SignatureAlgorithm, error) {
	alg, ok, err := headers.Algorithm()
	if err != nil {
		return "", err
	}
	if !ok || alg == "" {
		return "", newError(ErrCodeUnsupportedAlgorithm, errors.New("alg header is not set"))
	}
	if alg == AlgorithmNone {
		return "", newError(ErrCodeUnsupportedAlgorithm, errors.New("unsecured token"))
	}
	return jwa.SignatureAlgorithm(alg), nil
}

func signingInput(headers *Headers, claims *Claims) (string, error) {
	h, err := headers.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode header: %w", err)
	}
	c, err := claims.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode claims: %w", err)
	}
	return segmentEncoding.EncodeToString(h) + "." + segmentEncoding.EncodeToString(c), nil
}

func splitCompact(compact string) ([]string, error) {
	compact = strings.TrimSpace(compact)
	if compact == "" {
		return nil, newError(ErrCodeMalformed, errors.New("token is empty"))
	}
	parts := strings.Split(compact, ".")
	if len(parts) != 3 {
		return nil, newError(ErrCodeMalformed, fmt.Errorf("expected 3 segments, got %d", len(parts)))
	}
	return parts, nil
}

func decodeSegment(segment string, into *ClaimSet) error {
	raw, err := segmentEncoding.DecodeString(segment)
	if err != nil {
		return err
	}
	return into.UnmarshalJSON(raw)
}
