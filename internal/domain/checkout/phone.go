package checkout

import "strings"

// trunkPrefix is the national dialing prefix dropped before adding a calling
// code.
const trunkPrefix = "0"

// NormalizePhone turns a raw phone number into the digits-only international
// form expected by messaging deep links.
//
// Separators and a leading "+" are stripped. A leading trunk prefix is
// replaced by callingCode, a number already starting with callingCode is kept
// as is, anything else gets callingCode prepended. It never fails: input
// without digits yields callingCode alone.
func NormalizePhone(raw, callingCode string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch {
	case strings.HasPrefix(digits, trunkPrefix):
		return callingCode + digits[len(trunkPrefix):]
	case callingCode != "" && strings.HasPrefix(digits, callingCode):
		return digits
	default:
		return callingCode + digits
	}
}
