// Package boundary generates the per-query untrusted-content markers that
// frame document-derived text inside the driver conversation, and wraps
// strings with them. See spec.md section 4.1.
package boundary

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Prefix is the literal prefix every boundary token carries.
const Prefix = "UNTRUSTED_CONTENT_"

// Token is a single per-query untrusted-content marker of the form
// UNTRUSTED_CONTENT_<32 lowercase hex>. It must never be reused across
// queries and is discarded once the query completes.
type Token string

// Generate draws 16 bytes (128 bits) from a CSPRNG and returns a fresh
// Token. Panics only if the system CSPRNG itself fails, which indicates a
// fatal environment problem rather than a recoverable error.
func Generate() Token {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("boundary: failed to read from CSPRNG: %v", err))
	}
	return Token(Prefix + hex.EncodeToString(buf))
}

// Wrap frames content with the BEGIN/END markers derived from t. It does
// not escape or scan content; safety comes from the unpredictability of
// the token, not from syntactic defenses.
func Wrap(content string, t Token) string {
	return fmt.Sprintf("%s_BEGIN\n%s\n%s_END", t, content, t)
}

// String returns the token's literal text.
func (t Token) String() string {
	return string(t)
}
