package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// rangePattern matches "between $10 and $20" style phrasings, with an
// optional currency symbol and optional thousands separators/decimals.
var rangePattern = regexp.MustCompile(`(?i)between\s+\$?([0-9][0-9,]*(?:\.[0-9]+)?)\s+and\s+\$?([0-9][0-9,]*(?:\.[0-9]+)?)`)

// NormalizePosition maps heterogeneous outcome representations to a
// canonical label. A non-empty name wins over the index; index 0 is
// YES by Polymarket convention, anything else NO. Never fails —
// unusable inputs collapse to "UNKNOWN".
func NormalizePosition(name string, index *int) string {
	if s := strings.TrimSpace(name); s != "" {
		return strings.ToUpper(s)
	}
	if index != nil {
		if *index == 0 {
			return "YES"
		}
		return "NO"
	}
	return "UNKNOWN"
}

// ApplyRangeHint enriches a plain YES/NO label with the price range
// mentioned in the market text, for display only. Labels other than
// YES/NO, or texts without a range, pass through unchanged.
func ApplyRangeHint(marketText, label string) string {
	m := rangePattern.FindStringSubmatch(marketText)
	if m == nil {
		return label
	}
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "YES":
		return fmt.Sprintf("Yes (IN RANGE $%s–$%s)", m[1], m[2])
	case "NO":
		return fmt.Sprintf("No (OUTSIDE RANGE <$%s OR >$%s)", m[1], m[2])
	}
	return label
}
