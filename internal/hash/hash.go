package hash

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// rounds must never change: stored digests are only reproducible with the
// exact same stretch count.
const rounds = 6969

const saltBytes = 32

// HashPassword stretches password with salt through repeated SHA-256. An
// empty salt means a fresh random one is generated and returned alongside
// the digest.
func HashPassword(password, salt string) (string, string, error) {
	if salt == "" {
		buf := make([]byte, saltBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", "", fmt.Errorf("generating salt: %w", err)
		}
		salt = hex.EncodeToString(buf)
	}

	digest := password + salt
	for i := 0; i < rounds; i++ {
		sum := sha256.Sum256([]byte(digest))
		digest = hex.EncodeToString(sum[:])
	}

	return digest, salt, nil
}

// CheckPassword recomputes the digest with the stored salt and compares it
// to the stored one.
func CheckPassword(password, storedDigest, storedSalt string) bool {
	digest, _, err := HashPassword(password, storedSalt)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(digest), []byte(storedDigest)) == 1
}
