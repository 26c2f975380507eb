package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashUserKey derives a fixed-width, path-safe directory name from a user
// ID. Raw IDs can carry separators or characters a store key cannot.
func HashUserKey(userID string) string {
	digest := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(digest[:])
}
