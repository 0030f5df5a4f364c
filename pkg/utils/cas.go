// Package utils provides small helpers shared by the CLI, the API and the
// fetch layer: CAS registry number handling and value formatting.
package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidCAS is returned for strings that are not CAS registry numbers.
var ErrInvalidCAS = errors.New("invalid CAS registry number")

var casPattern = regexp.MustCompile(`^(\d{2,7})-(\d{2})-(\d)$`)

// Common substance names accepted in place of their CAS number.
var casAliases = map[string]string{
	"atrazine":     "1912-24-9",
	"benzene":      "71-43-2",
	"copper":       "7440-50-8",
	"formaldehyde": "50-00-0",
	"glyphosate":   "1071-83-6",
	"imidacloprid": "138261-41-3",
	"toluene":      "108-88-3",
}

// NormalizeCAS converts user input into canonical "NNNNNNN-NN-N" form.
// It strips a leading "CAS" label, resolves known substance names and
// re-hyphenates bare digit strings. The result is not validated; use
// ValidateCAS for that.
func NormalizeCAS(input string) string {
	s := strings.TrimSpace(input)
	if len(s) > 3 && strings.EqualFold(s[:3], "cas") && strings.ContainsRune(" :#", rune(s[3])) {
		s = strings.TrimLeft(s[3:], " :#")
	}
	if cas, ok := casAliases[strings.ToLower(s)]; ok {
		return cas
	}
	if isDigits(s) && len(s) >= 5 && len(s) <= 10 {
		n := len(s)
		return s[:n-3] + "-" + s[n-3:n-1] + "-" + s[n-1:]
	}
	return s
}

// ValidateCAS checks the format and the check digit of a CAS number.
func ValidateCAS(cas string) error {
	m := casPattern.FindStringSubmatch(cas)
	if m == nil {
		return fmt.Errorf("%w: %q", ErrInvalidCAS, cas)
	}
	digits := m[1] + m[2]
	sum := 0
	for i := len(digits) - 1; i >= 0; i-- {
		weight := len(digits) - i
		sum += int(digits[i]-'0') * weight
	}
	if want := int(m[3][0] - '0'); sum%10 != want {
		return fmt.Errorf("%w: %q fails the check digit", ErrInvalidCAS, cas)
	}
	return nil
}

// ParseCAS normalizes and validates input in one step.
func ParseCAS(input string) (string, error) {
	cas := NormalizeCAS(input)
	if err := ValidateCAS(cas); err != nil {
		return "", err
	}
	return cas, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
