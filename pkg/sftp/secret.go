package sftp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// secretAlphabet is the character set for generated passwords
	secretAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// SecretLength is the length of generated tenant passwords
	SecretLength = 12
)

// generateSecret draws a random password of the given length from the
// alphanumeric alphabet using a cryptographically secure source. No
// uniqueness is guaranteed; the password is not usable as a key.
func generateSecret(length int) (string, error) {
	max := big.NewInt(int64(len(secretAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		b[i] = secretAlphabet[n.Int64()]
	}
	return string(b), nil
}
