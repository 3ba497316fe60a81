// Package cpf holds the CPF digit sequence and its two-check-digit checksum.
package cpf

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/cpfvariants/internal/domain"
)

// Length is the number of digits in a CPF.
const Length = 11

// RegionIndex is the zero-based position of the fiscal region digit.
const RegionIndex = 8

// Digits is an unformatted CPF: 11 values in [0,9].
type Digits [Length]uint8

// Parse converts exactly 11 ASCII digits into Digits.
// Formatted input must go through Normalize first.
func Parse(s string) (Digits, error) {
	var d Digits
	if len(s) != Length {
		return d, fmt.Errorf("%w: got %d characters", domain.ErrInvalidFormat, len(s))
	}
	for i := 0; i < Length; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return Digits{}, fmt.Errorf("%w: non-digit at position %d", domain.ErrInvalidFormat, i)
		}
		d[i] = c - '0'
	}
	return d, nil
}

// MustParse is Parse for literals known to be well-formed.
func MustParse(s string) Digits {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Normalize strips every non-digit character.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// String returns the raw 11-digit form.
func (d Digits) String() string {
	var buf [Length]byte
	for i, v := range d {
		buf[i] = '0' + v
	}
	return string(buf[:])
}

// Format returns the canonical XXX.XXX.XXX-YY grouping.
func (d Digits) Format() string {
	s := d.String()
	return s[0:3] + "." + s[3:6] + "." + s[6:9] + "-" + s[9:11]
}

// RegionDigit returns the fiscal region digit (the 9th digit).
func (d Digits) RegionDigit() uint8 { return d[RegionIndex] }

// CountDifferences returns the number of positions where a and b disagree.
func CountDifferences(a, b Digits) int {
	n := 0
	for i := range a {
		if a[i] != b[i] {
			n++
		}
	}
	return n
}

// FormatPartial masks a partially typed CPF: at most 11 digits are kept and
// separators appear only once the following group has started.
func FormatPartial(value string) string {
	d := Normalize(value)
	if len(d) > Length {
		d = d[:Length]
	}
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + "." + d[3:]
	case len(d) <= 9:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	default:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	}
}
