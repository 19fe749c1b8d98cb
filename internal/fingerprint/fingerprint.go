package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NormalizeAddress replaces commas so that "A, B" and the stored form "A - B" agree.
func NormalizeAddress(address string) string {
	return strings.ReplaceAll(address, ",", " -")
}

// Compute returns the hex-encoded sha256 of name followed by the normalized address.
// The result is the document id in the store and in the search index.
func Compute(name, address string) string {
	sum := sha256.Sum256([]byte(name + NormalizeAddress(address)))
	return hex.EncodeToString(sum[:])
}
