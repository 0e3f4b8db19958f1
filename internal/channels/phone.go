package channels

import (
	"fmt"
	"strings"
)

// PhoneNormalizer converts user-entered numbers into the provider's local format:
// separators stripped and a +<country code> prefix replaced by the trunk prefix.
type PhoneNormalizer struct {
	CountryCode string // e.g. "82"
	TrunkPrefix string // e.g. "0"
}

// Normalize returns the provider-format number for raw
func (n PhoneNormalizer) Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	international := strings.HasPrefix(raw, "+")

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return "", fmt.Errorf("%w: phone %q has no digits", ErrRecipientDataMissing, raw)
	}

	if international && n.CountryCode != "" && strings.HasPrefix(digits, n.CountryCode) {
		local := digits[len(n.CountryCode):]
		// "+82 010-..." already carries the trunk prefix
		if !strings.HasPrefix(local, n.TrunkPrefix) {
			local = n.TrunkPrefix + local
		}
		return local, nil
	}
	return digits, nil
}
