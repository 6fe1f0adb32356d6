package card

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify derives the deterministic ASCII identifier used in object keys.
// Diacritics are folded away via compatibility decomposition; any run of
// characters without an ASCII representation collapses to a single dash.
// Inputs that leave nothing behind fall back to a hex rendering of the
// original code points so distinct cities never share a key.
func Slugify(city string) string {
	trimmed := strings.TrimSpace(city)

	var b strings.Builder
	b.Grow(len(trimmed))
	pendingDash := false
	for _, r := range norm.NFKD.String(trimmed) {
		if r >= 0x0300 && r <= 0x036F {
			// combining diacritical marks split off by NFKD
			continue
		}
		if r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingDash = true
	}

	if compact := b.String(); compact != "" {
		return compact
	}

	if trimmed == "" {
		return "unknown-city"
	}

	var hex strings.Builder
	for _, r := range trimmed {
		hex.WriteString(fmt.Sprintf("%04x", r))
	}
	return "u-" + hex.String()
}
