// internal/core/credentials.go
package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	roleNameAlphabet = "abcdefghijklmnopqrstuvwxyz"
	passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	roleNameLength = 12
	passwordLength = 16
)

// GenerateRoleName produces a random lowercase role name usable as a SQL
// identifier. No collision check is performed: at 26^12 possible names the
// chance of ever colliding within one installation is negligible.
func GenerateRoleName() (string, error) {
	return randomToken(roleNameAlphabet, roleNameLength)
}

// GeneratePassword produces a random alphanumeric database credential.
// Same no-collision-check stance as GenerateRoleName (62^16 space).
func GeneratePassword() (string, error) {
	return randomToken(passwordAlphabet, passwordLength)
}

// randomToken draws length characters uniformly from alphabet using
// crypto/rand. These become live database credentials, so a statistical
// PRNG is not acceptable here.
func randomToken(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
