// Package id mints opaque identifiers for custody receipts.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// ReceiptLen is the length of a receipt id in characters.
const ReceiptLen = 32

// Source is the entropy reader. Tests may swap it.
var Source io.Reader = rand.Reader

// NewReceiptID returns 32 lowercase hex characters drawn from Source.
func NewReceiptID() (string, error) {
	b := make([]byte, ReceiptLen/2)
	if _, err := io.ReadFull(Source, b); err != nil {
		return "", fmt.Errorf("id: read entropy: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IsReceiptID reports whether s has the shape produced by NewReceiptID.
func IsReceiptID(s string) bool {
	if len(s) != ReceiptLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
