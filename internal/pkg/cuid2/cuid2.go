// Package cuid2 generates collision-resistant, URL-safe identifiers with an
// optional time-sortable prefix for B-tree index locality.
package cuid2

import (
	crand "crypto/rand"
	"strings"
	"time"
)

// Base62 alphabet: 0-9, A-Z, a-z.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// EncodeTimestampBase62 encodes a Unix timestamp (seconds) as a 6-character
// base62 string. Lexicographic order follows timestamp order.
func EncodeTimestampBase62(seconds int64) string {
	n := seconds
	out := make([]byte, 6)
	for i := 5; i >= 0; i-- {
		out[i] = alphabet[n%62]
		n /= 62
	}
	return string(out)
}

// randomBase62 produces length uniformly distributed base62 characters.
// Extracts 6 bits at a time and rejects values >= 62 to keep the
// distribution uniform.
func randomBase62(length int) string {
	buf := make([]byte, (length*6)/8+4)
	if _, err := crand.Read(buf); err != nil {
		panic("failed to read random bytes: " + err.Error())
	}

	var result strings.Builder
	var bits uint64
	var nbits uint
	idx := 0

	for result.Len() < length {
		for nbits < 6 && idx < len(buf) {
			bits = bits<<8 | uint64(buf[idx])
			nbits += 8
			idx++
		}

		v := (bits >> (nbits - 6)) & 0x3f
		nbits -= 6

		if v < 62 {
			result.WriteByte(alphabet[v])
		}

		if idx >= len(buf) && result.Len() < length {
			if _, err := crand.Read(buf); err != nil {
				panic("failed to read random bytes: " + err.Error())
			}
			idx, bits, nbits = 0, 0, 0
		}
	}

	return result.String()
}

// NewID generates a prefixed, time-sortable identifier,
// e.g. NewID("prd") -> "prd_0CL2KwaB3cD5eF7gH9iJ1k".
func NewID(prefix string) string {
	return prefix + "_" + EncodeTimestampBase62(time.Now().Unix()) + randomBase62(18)
}
