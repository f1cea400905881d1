// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var koreanMobile = regexp.MustCompile(`^01[0-9][0-9]{3,4}[0-9]{4}$`)

// NormalizePhone keeps only the digits of a phone-like string.
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateKoreanMobile accepts 010-1234-5678 style numbers, with or without separators.
func ValidateKoreanMobile(phone string) bool {
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	return koreanMobile.MatchString(cleaned)
}
