package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign returns the hex HMAC-SHA256 of part1|part2 keyed by secret.
func Sign(secret, part1, part2 string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(part1 + "|" + part2))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether candidate is the gateway signature over part1|part2.
// Malformed input (empty fields, non-hex or wrong-length candidate) yields false.
func VerifySignature(secret, part1, part2, candidate string) bool {
	if secret == "" || part1 == "" || part2 == "" || candidate == "" {
		return false
	}
	got, err := hex.DecodeString(strings.ToLower(candidate))
	if err != nil || len(got) != sha256.Size {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(part1 + "|" + part2))
	return hmac.Equal(mac.Sum(nil), got)
}
