// Package variant enumerates CPF candidates that differ from an original
// at a fixed set of positions, and holds the search result types.
package variant

// MaxChanges is the largest supported change-count tier.
const MaxChanges = 3

// ChangeSet is a strictly increasing list of positions allowed to change.
type ChangeSet []int

// Size returns the change-count tier of the set.
func (c ChangeSet) Size() int { return len(c) }

// Contains reports whether pos is one of the changed positions.
func (c ChangeSet) Contains(pos int) bool {
	for _, p := range c {
		if p == pos {
			return true
		}
	}
	return false
}

// Combinations returns every k-position subset of [0,n) in lexicographic order.
func Combinations(n, k int) []ChangeSet {
	if k <= 0 || k > n {
		return nil
	}

	out := make([]ChangeSet, 0, Binomial(n, k))
	cur := make([]int, k)
	for i := range cur {
		cur[i] = i
	}

	for {
		set := make(ChangeSet, k)
		copy(set, cur)
		out = append(out, set)

		// rightmost position that can still advance
		i := k - 1
		for i >= 0 && cur[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		cur[i]++
		for j := i + 1; j < k; j++ {
			cur[j] = cur[j-1] + 1
		}
	}
}

// Binomial returns C(n, k).
func Binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	r := 1
	for i := 1; i <= k; i++ {
		r = r * (n - k + i) / i
	}
	return r
}
