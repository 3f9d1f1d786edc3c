package engine

import (
	"strconv"
	"strings"
	"time"
)

// tokenWidth is the rendered width of a certificate token: the largest
// 32-bit value is seven base-36 digits.
const tokenWidth = 7

// Certificate records one completion event. Immutable once issued; a
// re-finished module gets a fresh certificate with a new token.
type Certificate struct {
	ModuleName string    `json:"module_name"`
	IssuedAt   time.Time `json:"issued_at"`
	Token      string    `json:"token"`
}

// NewCertificate issues a certificate for moduleName at the given time.
func NewCertificate(moduleName string, issuedAt time.Time) Certificate {
	return Certificate{
		ModuleName: moduleName,
		IssuedAt:   issuedAt,
		Token:      certificateToken(moduleName, issuedAt),
	}
}

// certificateToken derives the display token from the module name and
// issuance timestamp: a 31-multiplier rolling hash over the bytes,
// truncated to 32 bits and rendered as fixed-width base-36. This is a
// human-facing verification identifier, not a security boundary.
func certificateToken(moduleName string, issuedAt time.Time) string {
	input := moduleName + "|" + issuedAt.UTC().Format(time.RFC3339)

	var h uint32
	for _, b := range []byte(input) {
		h = h*31 + uint32(b)
	}

	tok := strconv.FormatUint(uint64(h), 36)
	if pad := tokenWidth - len(tok); pad > 0 {
		tok = strings.Repeat("0", pad) + tok
	}
	return strings.ToUpper(tok)
}
