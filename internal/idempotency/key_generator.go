package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// GenerateKey returns "<kind>:<sha256 of parts>". Parts are joined with a separator so that
// ("1", "2") and ("12") hash differently.
func GenerateKey(kind string, parts ...any) string {
	h := sha256.New()
	for _, part := range parts {
		fmt.Fprintf(h, "%v\x1f", part)
	}

	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}
