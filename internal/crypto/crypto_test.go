package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealer_roundtrip(t *testing.T) {
	s, err := NewSealer("machine-a")
	require.NoError(t, err)

	for _, in := range []string{"sk-test", "", "密钥 🔑", strings.Repeat("x", 64*1024)} {
		sealed, err := s.Seal([]byte(in))
		require.NoError(t, err)

		out, err := s.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, in, string(out))
	}
}

func TestSealer_nonceVaries(t *testing.T) {
	s, err := NewSealer("machine-a")
	require.NoError(t, err)

	a, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_rejectsBadInput(t *testing.T) {
	s, err := NewSealer("machine-a")
	require.NoError(t, err)

	_, err = s.Open("not base64 !!")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	_, err = s.Open(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)

	sealed, err := s.Seal([]byte("payload"))
	require.NoError(t, err)
	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0xff
	_, err = s.Open(base64.StdEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestDeriveKey(t *testing.T) {
	assert.Len(t, DeriveKey("m"), 32)
	assert.Equal(t, DeriveKey("m"), DeriveKey("m"))
	assert.NotEqual(t, DeriveKey("m"), DeriveKey("n"))
	assert.Equal(t, DeriveKey(""), DeriveKey(defaultMachine))
}

func TestAPIKey_roundtrip(t *testing.T) {
	enc, err := EncryptAPIKey("sk-deepseek", "machine-a")
	require.NoError(t, err)
	assert.NotContains(t, enc, "sk-deepseek")

	dec, err := DecryptAPIKey(enc, "machine-a")
	require.NoError(t, err)
	assert.Equal(t, "sk-deepseek", dec)

	_, err = DecryptAPIKey(enc, "machine-b")
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestAPIKey_empty(t *testing.T) {
	_, err := EncryptAPIKey("", "machine-a")
	assert.ErrorIs(t, err, ErrEmptySecret)

	dec, err := DecryptAPIKey("", "machine-a")
	require.NoError(t, err)
	assert.Empty(t, dec)
}

func TestMachineID(t *testing.T) {
	// Either /etc/machine-id or the hostname; both are stable within a run.
	assert.Equal(t, MachineID(), MachineID())
}
