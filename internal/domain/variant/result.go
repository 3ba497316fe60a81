package variant

import "github.com/kailas-cloud/cpfvariants/internal/domain/cpf"

// Record is one valid candidate kept by a search.
type Record struct {
	digits      cpf.Digits
	formatted   string
	differences int
}

// NewRecord builds a record for candidate, counting differences against
// original position by position.
func NewRecord(original, candidate cpf.Digits) Record {
	return Record{
		digits:      candidate,
		formatted:   candidate.Format(),
		differences: cpf.CountDifferences(original, candidate),
	}
}

// Digits returns the raw candidate.
func (r Record) Digits() cpf.Digits { return r.digits }

// Raw returns the candidate as 11 plain digits.
func (r Record) Raw() string { return r.digits.String() }

// Formatted returns the candidate as XXX.XXX.XXX-YY.
func (r Record) Formatted() string { return r.formatted }

// Differences returns how many positions differ from the original.
func (r Record) Differences() int { return r.differences }

// Outcome is the result of one search invocation.
type Outcome struct {
	results      []Record
	totalChecked int
	changesUsed  int
}

// NewOutcome creates an outcome for a tier that produced results.
func NewOutcome(results []Record, totalChecked, changesUsed int) Outcome {
	return Outcome{results: results, totalChecked: totalChecked, changesUsed: changesUsed}
}

// NotFound creates an outcome for an exhaustive search with no results.
func NotFound(totalChecked int) Outcome {
	return Outcome{results: []Record{}, totalChecked: totalChecked}
}

// Results returns the kept records in traversal order.
func (o Outcome) Results() []Record { return o.results }

// TotalChecked returns the number of candidates evaluated across all tiers.
func (o Outcome) TotalChecked() int { return o.totalChecked }

// ChangesUsed returns the tier that produced results; ok is false when no tier did.
func (o Outcome) ChangesUsed() (k int, ok bool) {
	return o.changesUsed, o.changesUsed > 0
}

// Progress is a snapshot reported to an observer while a search runs.
type Progress struct {
	Message            string `json:"message"`
	TotalChecked       int    `json:"total_checked"`
	CurrentChangeCount int    `json:"current_change_count"`
}
