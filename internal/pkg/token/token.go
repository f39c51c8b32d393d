package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const byteLen = 32

// Generate returns 32 random bytes, hex encoded (64 characters).
func Generate() (string, error) {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
