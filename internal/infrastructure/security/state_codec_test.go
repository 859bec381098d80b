package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/ldgsmhrd/selfstar/internal/domain/errors"
	"github.com/ldgsmhrd/selfstar/internal/domain/models"
)

func TestStateCodec_RoundTrip(t *testing.T) {
	codec, err := NewStateCodec("test-secret", 10*time.Minute)
	require.NoError(t, err)

	state := models.LinkState{
		UserID:     42,
		PersonaNum: 3,
		Nonce:      "nonce-123",
		IssuedAt:   time.Now().Unix(),
	}

	encoded, err := codec.Encode(state)
	require.NoError(t, err)
	assert.Contains(t, encoded, ".")

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, state, decoded)
}

func TestStateCodec_BitFlipFailsVerification(t *testing.T) {
	codec, err := NewStateCodec("test-secret", 0)
	require.NoError(t, err)

	encoded, err := codec.Encode(models.LinkState{UserID: 1, PersonaNum: 1, Nonce: "n", IssuedAt: time.Now().Unix()})
	require.NoError(t, err)

	// Flip one bit in every position; each mutation must fail.
	for i := 0; i < len(encoded); i++ {
		mutated := []byte(encoded)
		mutated[i] ^= 0x01
		_, err := codec.Decode(string(mutated))
		assert.ErrorIs(t, err, domainErrors.ErrStateInvalid, "mutation at %d accepted", i)
	}
}

func TestStateCodec_WrongSecret(t *testing.T) {
	signer, err := NewStateCodec("secret-a", 0)
	require.NoError(t, err)
	verifier, err := NewStateCodec("secret-b", 0)
	require.NoError(t, err)

	encoded, err := signer.Encode(models.LinkState{UserID: 7, PersonaNum: 0, Nonce: "n", IssuedAt: time.Now().Unix()})
	require.NoError(t, err)

	_, err = verifier.Decode(encoded)
	assert.ErrorIs(t, err, domainErrors.ErrStateInvalid)
}

func TestStateCodec_Garbage(t *testing.T) {
	codec, err := NewStateCodec("test-secret", 0)
	require.NoError(t, err)

	for _, input := range []string{"", ".", "a.b.c", "not-base64!.%%%", strings.Repeat("x", 512)} {
		_, err := codec.Decode(input)
		assert.ErrorIs(t, err, domainErrors.ErrStateInvalid, "input %q", input)
	}
}

func TestStateCodec_Expired(t *testing.T) {
	codec, err := NewStateCodec("test-secret", time.Minute)
	require.NoError(t, err)

	encoded, err := codec.Encode(models.LinkState{UserID: 1, PersonaNum: 1, Nonce: "n", IssuedAt: time.Now().Add(-time.Hour).Unix()})
	require.NoError(t, err)

	_, err = codec.Decode(encoded)
	assert.ErrorIs(t, err, domainErrors.ErrStateInvalid)
}
