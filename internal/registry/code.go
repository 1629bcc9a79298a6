package registry

import (
	"math/rand"
	"strings"
)

// Room codes are short and human-typeable. The alphabet drops characters
// that read ambiguously when spoken or scribbled: 0/O, 1/I/L stay out.
const (
	codeAlphabet  = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength    = 5
	maxCodeLength = 16
)

// NormalizeCode canonicalizes a client-typed room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether a caller-supplied code sticks to the alphabet.
func ValidCode(code string) bool {
	if code == "" || len(code) > maxCodeLength {
		return false
	}
	for _, c := range code {
		if !strings.ContainsRune(codeAlphabet, c) {
			return false
		}
	}
	return true
}

func generateCode(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[rng.Intn(len(codeAlphabet))])
	}
	return b.String()
}
