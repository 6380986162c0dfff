package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxClockSkew is the accepted distance between X-Request-At and server time.
const maxClockSkew = 10 * time.Minute

// requestKey addresses one stored response: the same token replayed by another
// caller or on another route never collides.
type requestKey struct {
	Method string
	Route  string
	Scope  string
	Token  string
}

func (k requestKey) String() string {
	return strings.Join([]string{"idemp", "escrow", strings.ToLower(k.Method), k.Route, k.Scope, k.Token}, ":")
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// validToken accepts 32 lowercase hex characters or a canonical lowercase RFC 4122 UUID (v1-v5).
func validToken(s string) bool {
	if isHex32(s) {
		return true
	}
	u, err := uuid.Parse(s)
	if err != nil || u.String() != s || u.Variant() != uuid.RFC4122 {
		return false
	}
	v := u.Version()
	return v >= 1 && v <= 5
}

func isHex32(s string) bool {
	if len(s) != 32 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if c := s[i]; (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// requestTime parses X-Request-At and checks it against now.
// Accepted: epoch seconds, epoch milliseconds, RFC3339 with a zone. Naive local times are rejected.
func requestTime(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	var at time.Time
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			at = time.UnixMilli(n).UTC()
		} else {
			at = time.Unix(n, 0).UTC()
		}
	} else if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		at = t.UTC()
	} else {
		return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return time.Time{}, errors.New(HeaderRequestAt + " too skewed")
	}
	return at, nil
}
