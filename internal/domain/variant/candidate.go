package variant

import (
	"iter"

	"github.com/kailas-cloud/cpfvariants/internal/domain/cpf"
)

// substitutes is the number of replacement values per changed position.
const substitutes = 9

// VariantCount returns 9^k, the number of candidates for one ChangeSet of size k.
func VariantCount(k int) int {
	n := 1
	for i := 0; i < k; i++ {
		n *= substitutes
	}
	return n
}

// TierSize returns the number of candidates in tier k over all ChangeSets.
func TierSize(k int) int {
	return Binomial(cpf.Length, k) * VariantCount(k)
}

// Substitute maps an offset in [0,9) to a digit, skipping original.
func Substitute(offset, original uint8) uint8 {
	if offset < original {
		return offset
	}
	return offset + 1
}

// Build returns the candidate for a linear index in [0, 9^k). The index is
// read in base 9, least significant digit first, one digit per position of
// set in order. Positions outside set keep their original digit.
func Build(original cpf.Digits, set ChangeSet, index int) cpf.Digits {
	candidate := original
	rest := index
	for _, pos := range set {
		offset := uint8(rest % substitutes)
		rest /= substitutes
		candidate[pos] = Substitute(offset, original[pos])
	}
	return candidate
}

// Candidates yields every candidate for set in index order 0..9^k-1.
func Candidates(original cpf.Digits, set ChangeSet) iter.Seq2[int, cpf.Digits] {
	return func(yield func(int, cpf.Digits) bool) {
		total := VariantCount(len(set))
		for i := 0; i < total; i++ {
			if !yield(i, Build(original, set, i)) {
				return
			}
		}
	}
}
