package utils

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`\D`)

// FormatPhoneNumber normalizes a Myanmar phone number to international form
// without the plus sign: 959XXXXXXXXX. Accepts local (09...), bare (9...)
// and international (+959.../959...) inputs.
func FormatPhoneNumber(phoneNumber string) string {
	digits := nonDigits.ReplaceAllString(phoneNumber, "")

	if strings.HasPrefix(digits, "95") && len(digits) > 2 {
		digits = digits[2:]
	}
	// Strip the local trunk prefix
	digits = strings.TrimLeft(digits, "0")

	if digits == "" {
		return ""
	}
	return "95" + digits
}

// ValidatePhoneNumber validates a Myanmar mobile number. After stripping the
// country code and trunk prefix, mobile numbers start with 9 and carry 8 to 10
// digits in total (e.g. 9xxxxxxxx for MPT, 97xxxxxxxx / 99xxxxxxxx for the
// newer operators).
func ValidatePhoneNumber(phoneNumber string) bool {
	digits := nonDigits.ReplaceAllString(phoneNumber, "")

	if strings.HasPrefix(digits, "95") && len(digits) > 2 {
		digits = digits[2:]
	}
	digits = strings.TrimLeft(digits, "0")

	if len(digits) < 8 || len(digits) > 10 {
		return false
	}
	return digits[0] == '9'
}

// NormalizePhoneNumber normalizes phone number for database storage
func NormalizePhoneNumber(phoneNumber string) string {
	return FormatPhoneNumber(phoneNumber)
}

// DisplayPhoneNumber formats phone number for display (+95 9 xxx xxx xxx)
func DisplayPhoneNumber(phoneNumber string) string {
	formatted := FormatPhoneNumber(phoneNumber)
	if strings.HasPrefix(formatted, "959") && len(formatted) >= 10 {
		rest := formatted[3:]
		var parts []string
		for len(rest) > 3 {
			parts = append(parts, rest[:3])
			rest = rest[3:]
		}
		if rest != "" {
			parts = append(parts, rest)
		}
		return "+95 9 " + strings.Join(parts, " ")
	}
	return phoneNumber
}
