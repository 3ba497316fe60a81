package cpf

import (
	"fmt"

	"github.com/kailas-cloud/cpfvariants/internal/domain"
)

// CheckDigit computes a check digit over digits with weights starting at
// startWeight and decreasing by one per position.
func CheckDigit(digits []uint8, startWeight int) uint8 {
	sum := 0
	for i, v := range digits {
		sum += int(v) * (startWeight - i)
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return uint8(11 - rem)
}

// IsValid reports whether both check digits match. Sequences of 11 identical
// digits are rejected even though they satisfy the arithmetic.
func IsValid(d Digits) bool {
	if isRepeated(d) {
		return false
	}
	if d[9] != CheckDigit(d[:9], 10) {
		return false
	}
	return d[10] == CheckDigit(d[:10], 11)
}

// IsValidString is IsValid for raw text; anything other than 11 digits is false.
func IsValidString(s string) bool {
	d, err := Parse(s)
	if err != nil {
		return false
	}
	return IsValid(d)
}

// Validate parses raw digits and checks them, returning ErrInvalidFormat or
// ErrInvalidChecksum so callers can tell the two precondition failures apart.
func Validate(s string) (Digits, error) {
	d, err := Parse(s)
	if err != nil {
		return Digits{}, err
	}
	if !IsValid(d) {
		return Digits{}, fmt.Errorf("%w: %s", domain.ErrInvalidChecksum, d.Format())
	}
	return d, nil
}

func isRepeated(d Digits) bool {
	for _, v := range d[1:] {
		if v != d[0] {
			return false
		}
	}
	return true
}
