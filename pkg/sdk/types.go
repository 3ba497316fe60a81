package cpfvariants

// Variant is one valid CPF found by a search.
type Variant struct {
	CPF         string // 11 digits
	Formatted   string // XXX.XXX.XXX-YY
	Differences int    // positions that differ from the original
	RegionDigit uint8
	States      []string // UF codes sharing the region digit
}

// Outcome is the result of a search.
type Outcome struct {
	SearchID     string
	Original     string
	Variants     []Variant
	TotalChecked int
	ChangesUsed  int // 0 when nothing was found
}

// Found reports whether any variant was found.
func (o Outcome) Found() bool { return o.ChangesUsed > 0 }

// Progress is a snapshot reported while a search runs.
type Progress struct {
	Message            string
	TotalChecked       int
	CurrentChangeCount int
}

// State is a federative unit and its CPF region digit.
type State struct {
	UF          string
	Name        string
	RegionDigit uint8
}

// CPFInfo describes a valid CPF.
type CPFInfo struct {
	CPF         string
	Formatted   string
	RegionDigit uint8
	States      []string
}
