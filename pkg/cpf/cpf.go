// Package cpf validates Brazilian individual taxpayer identifiers.
package cpf

import (
	"errors"
	"regexp"
	"strings"
)

// Length is the number of digits in a CPF once punctuation is removed.
const Length = 11

var shape = regexp.MustCompile(`^[0-9]{3}\.?[0-9]{3}\.?[0-9]{3}-?[0-9]{2}$`)

var ErrInvalidBase = errors.New("cpf: base must be 9 digits")

// IsValid reports whether s is a well-formed CPF with correct check digits.
// Accepted shapes are 00000000000 and 000.000.000-00, with each separator optional.
func IsValid(s string) bool {
	if !shape.MatchString(s) {
		return false
	}
	d := Digits(s)
	if len(d) != Length || allSame(d) {
		return false
	}
	d1, d2, err := CheckDigits(d[:9])
	if err != nil {
		return false
	}
	return int(d[9]-'0') == d1 && int(d[10]-'0') == d2
}

// IsValidPtr is IsValid for optional values. A nil candidate is valid,
// presence is checked by whoever requires the field.
func IsValidPtr(s *string) bool {
	if s == nil {
		return true
	}
	return IsValid(*s)
}

// CheckDigits computes both verification digits for a 9 digit base.
func CheckDigits(base string) (int, int, error) {
	if len(base) != 9 || Digits(base) != base {
		return 0, 0, ErrInvalidBase
	}
	d1 := checkDigit(base)
	d2 := checkDigit(base + string(rune('0'+d1)))
	return d1, d2, nil
}

// checkDigit weights the digits from len+1 down to 2 and reduces mod 11.
func checkDigit(digits string) int {
	sum := 0
	weight := len(digits) + 1
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * weight
		weight--
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

// Digits drops every character that is not 0-9.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Format renders an 11 digit CPF as ddd.ddd.ddd-dd. Anything else is returned unchanged.
func Format(s string) string {
	d := Digits(s)
	if len(d) != Length {
		return s
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}
