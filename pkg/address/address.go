// Package address canonicalises caller identifiers. Identifiers are opaque to the
// ledger; hex account addresses are normalised to their checksummed form so that
// differently-cased spellings refer to the same account.
package address

import (
	"errors"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalid = errors.New("address: invalid identifier")

var reOpaque = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]{0,127}$`)

func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if common.IsHexAddress(s) {
		return common.HexToAddress(s).Hex(), nil
	}
	if strings.HasPrefix(strings.ToLower(s), "0x") || !reOpaque.MatchString(s) {
		return "", ErrInvalid
	}
	return s, nil
}
