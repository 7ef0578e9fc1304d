package ledger

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Customs MRNs are 18 characters: two digits of year, a two-letter country
// code, thirteen alphanumerics, and a trailing check digit computed over the
// first seventeen characters.
var customsMrnPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{2}[A-Z0-9]{13}[0-9]$`)

// Synthetic MRNs are minted by the system for untracked intake and for
// balancing lots created during correction. They are exempt from the customs
// format and check-digit rules.
var syntheticMrnPattern = regexp.MustCompile(`^SYS-(UNTRACKED|BALANCE)-[0-9a-f]{10}$`)

// ValidMrn reports whether the string is an acceptable lot identifier:
// either a well-formed customs MRN (pattern plus check digit) or a synthetic
// sentinel.
func ValidMrn(mrn string) bool {
	if syntheticMrnPattern.MatchString(mrn) {
		return true
	}
	if !customsMrnPattern.MatchString(mrn) {
		return false
	}
	return mrnCheckDigit(mrn[:17]) == int(mrn[17]-'0')
}

// IsSyntheticMrn reports whether the MRN was system-generated.
func IsSyntheticMrn(mrn string) bool {
	return syntheticMrnPattern.MatchString(mrn)
}

// mrnCheckDigit computes the ISO 6346-style check digit used by customs
// transit systems: digits keep their value, letters map to 10..35, each
// value is weighted by 2^position, and the sum is reduced mod 11 (10 wraps
// to 0).
func mrnCheckDigit(body string) int {
	sum := 0
	weight := 1
	for i := 0; i < len(body); i++ {
		c := body[i]
		var v int
		switch {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case c >= 'A' && c <= 'Z':
			v = int(c-'A') + 10
		default:
			return -1
		}
		sum += v * weight
		weight *= 2
	}
	return (sum % 11) % 10
}

// NewUntrackedMrn mints a sentinel MRN for intake that arrived without
// customs paperwork.
func NewUntrackedMrn() string {
	return "SYS-UNTRACKED-" + randomMrnSuffix()
}

// NewBalancingMrn mints a sentinel MRN for a balancing lot created during
// correction.
func NewBalancingMrn() string {
	return "SYS-BALANCE-" + randomMrnSuffix()
}

func randomMrnSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
