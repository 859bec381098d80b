package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
)

// StateCodec signs and verifies the OAuth state parameter so the callback
// can be handled with no server-side session affinity. The encoded form is
// base64url(payload) + "." + base64url(hmac-sha256(payload)).
type StateCodec struct {
	secret []byte
	maxAge time.Duration
}

// NewStateCodec builds a codec with the server-held secret. maxAge bounds
// how old a signed state may be at verification; zero disables the check.
func NewStateCodec(secret string, maxAge time.Duration) (*StateCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("state codec requires a non-empty secret")
	}
	return &StateCodec{secret: []byte(secret), maxAge: maxAge}, nil
}

// Encode serializes and signs the state.
func (c *StateCodec) Encode(state models.LinkState) (string, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal link state: %w", err)
	}
	mac := c.sign(payload)
	return base64.RawURLEncoding.EncodeToString(payload) + "." + base64.RawURLEncoding.EncodeToString(mac), nil
}

// Decode verifies the signature in constant time and only then parses the
// payload. Any parse or MAC failure yields ErrStateInvalid; no field is
// trusted before the signature verifies byte-for-byte.
func (c *StateCodec) Decode(encoded string) (models.LinkState, error) {
	var state models.LinkState

	parts := strings.Split(encoded, ".")
	if len(parts) != 2 {
		return state, domainErrors.ErrStateInvalid
	}
	// Strict decoding rejects non-canonical trailing bits, so two encodings
	// never alias the same bytes.
	payload, err := base64.RawURLEncoding.Strict().DecodeString(parts[0])
	if err != nil {
		return state, domainErrors.ErrStateInvalid
	}
	mac, err := base64.RawURLEncoding.Strict().DecodeString(parts[1])
	if err != nil {
		return state, domainErrors.ErrStateInvalid
	}
	if !hmac.Equal(mac, c.sign(payload)) {
		return state, domainErrors.ErrStateInvalid
	}
	if err := json.Unmarshal(payload, &state); err != nil {
		return state, domainErrors.ErrStateInvalid
	}
	if c.maxAge > 0 {
		issued := time.Unix(state.IssuedAt, 0)
		if time.Since(issued) > c.maxAge {
			return models.LinkState{}, domainErrors.ErrStateInvalid
		}
	}
	return state, nil
}

func (c *StateCodec) sign(payload []byte) []byte {
	h := hmac.New(sha256.New, c.secret)
	h.Write(payload)
	return h.Sum(nil)
}
