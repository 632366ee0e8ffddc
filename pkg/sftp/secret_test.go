package sftp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret_Length(t *testing.T) {
	secret, err := generateSecret(SecretLength)
	require.NoError(t, err)
	assert.Len(t, secret, SecretLength)
}

func TestGenerateSecret_Alphabet(t *testing.T) {
	secret, err := generateSecret(64)
	require.NoError(t, err)
	for _, r := range secret {
		assert.True(t, strings.ContainsRune(secretAlphabet, r),
			"unexpected character %q in secret", r)
	}
}

func TestGenerateSecret_Varies(t *testing.T) {
	a, err := generateSecret(SecretLength)
	require.NoError(t, err)
	b, err := generateSecret(SecretLength)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
