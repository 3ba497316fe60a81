// Package region maps Brazilian federative units to the CPF fiscal region
// digit and builds the digit filters used by searches.
package region

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/cpfvariants/internal/domain"
)

// AnyState selects no restriction on the region digit.
const AnyState = "ANY"

// State is a federative unit and the region digit its CPFs are issued under.
type State struct {
	UF    string `json:"uf"`
	Name  string `json:"name"`
	Digit uint8  `json:"region_digit"`
}

var states = []State{
	{"AC", "Acre", 2},
	{"AL", "Alagoas", 4},
	{"AP", "Amapa", 2},
	{"AM", "Amazonas", 2},
	{"BA", "Bahia", 5},
	{"CE", "Ceara", 3},
	{"DF", "Distrito Federal", 1},
	{"ES", "Espirito Santo", 7},
	{"GO", "Goias", 1},
	{"MA", "Maranhao", 3},
	{"MT", "Mato Grosso", 1},
	{"MS", "Mato Grosso do Sul", 1},
	{"MG", "Minas Gerais", 6},
	{"PA", "Para", 2},
	{"PB", "Paraiba", 4},
	{"PR", "Parana", 9},
	{"PE", "Pernambuco", 4},
	{"PI", "Piaui", 3},
	{"RJ", "Rio de Janeiro", 7},
	{"RN", "Rio Grande do Norte", 4},
	{"RS", "Rio Grande do Sul", 0},
	{"RO", "Rondonia", 2},
	{"RR", "Roraima", 2},
	{"SC", "Santa Catarina", 9},
	{"SP", "Sao Paulo", 8},
	{"SE", "Sergipe", 5},
	{"TO", "Tocantins", 1},
}

// All returns a copy of the state table.
func All() []State {
	out := make([]State, len(states))
	copy(out, states)
	return out
}

// Lookup finds a state by UF code, case-insensitively.
func Lookup(uf string) (State, bool) {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	for _, s := range states {
		if s.UF == uf {
			return s, true
		}
	}
	return State{}, false
}

// ByDigit returns every state issuing CPFs under digit.
func ByDigit(digit uint8) []State {
	var out []State
	for _, s := range states {
		if s.Digit == digit {
			out = append(out, s)
		}
	}
	return out
}

// Filter is a set of allowed region digits. The zero value allows every digit.
type Filter struct {
	mask uint16
}

// NewFilter builds a filter from digits in [0,9].
func NewFilter(digits ...uint8) (Filter, error) {
	var f Filter
	for _, d := range digits {
		if d > 9 {
			return Filter{}, fmt.Errorf("%w: region digit %d out of range", domain.ErrInvalidRequest, d)
		}
		f.mask |= 1 << d
	}
	return f, nil
}

// FilterForState returns the filter for a UF code; empty or AnyState means unrestricted.
func FilterForState(uf string) (Filter, error) {
	if strings.TrimSpace(uf) == "" || strings.EqualFold(strings.TrimSpace(uf), AnyState) {
		return Filter{}, nil
	}
	s, ok := Lookup(uf)
	if !ok {
		return Filter{}, fmt.Errorf("%w: %q", domain.ErrUnknownState, uf)
	}
	return Filter{mask: 1 << s.Digit}, nil
}

// Union returns a filter allowing the digits of both. An unrestricted
// operand is ignored so that combining with "any" keeps the other restriction.
func (f Filter) Union(o Filter) Filter {
	return Filter{mask: f.mask | o.mask}
}

// IsEmpty reports whether the filter allows every digit.
func (f Filter) IsEmpty() bool { return f.mask == 0 }

// Allows reports whether digit passes the filter.
func (f Filter) Allows(digit uint8) bool {
	return f.mask == 0 || f.mask&(1<<digit) != 0
}

// Digits returns the allowed digits in ascending order; nil when unrestricted.
func (f Filter) Digits() []uint8 {
	var out []uint8
	for d := uint8(0); d <= 9; d++ {
		if f.mask&(1<<d) != 0 {
			out = append(out, d)
		}
	}
	return out
}
