package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/kailas-cloud/cpfvariants/internal/domain/cpf"
	"github.com/kailas-cloud/cpfvariants/internal/domain/region"
	"github.com/kailas-cloud/cpfvariants/internal/domain/variant"
)

// Palette
var (
	ColorGreen  = lipgloss.Color("#2EB872")
	ColorYellow = lipgloss.Color("#FFC857")
	ColorBlue   = lipgloss.Color("#3C91E6")
	ColorRed    = lipgloss.Color("#E74C3C")
	ColorMuted  = lipgloss.Color("#6B7B8C")
)

// Styles are the pre-configured terminal styles.
var Styles = struct {
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorBlue),
	Muted:     lipgloss.NewStyle().Foreground(ColorMuted),
	Success:   lipgloss.NewStyle().Foreground(ColorGreen),
	Warning:   lipgloss.NewStyle().Foreground(ColorYellow),
	Error:     lipgloss.NewStyle().Foreground(ColorRed),
	Highlight: lipgloss.NewStyle().Foreground(ColorGreen).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlue).
		Padding(0, 1),
}

// Icons
const (
	IconSuccess = "✓"
	IconWarning = "⚠"
	IconError   = "✗"
	IconPending = "○"
)

// Phase is the stage of a CLI search, used only for rendering.
type Phase int

// Phases in order.
const (
	PhaseInput Phase = iota
	PhaseValidating
	PhaseSearching
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseValidating:
		return "validating"
	case PhaseSearching:
		return "searching"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Renderer prints results to out and transient status to status.
// Colors are used only when out is a terminal; the live progress line is
// drawn only when status is a terminal.
type Renderer struct {
	out    io.Writer
	status io.Writer
	styled bool
	live   bool
	phase  Phase
}

// NewRenderer creates a renderer, detecting terminals on both writers.
func NewRenderer(out, status io.Writer) *Renderer {
	return &Renderer{
		out:    out,
		status: status,
		styled: isTerminal(out),
		live:   isTerminal(status),
	}
}

// WithLive forces the live progress line on or off.
func (r *Renderer) WithLive(live bool) *Renderer {
	r.live = live
	return r
}

// Out returns the result writer.
func (r *Renderer) Out() io.Writer { return r.out }

// Phase returns the current phase.
func (r *Renderer) Phase() Phase { return r.phase }

// SetPhase moves to p and clears any progress line when the search ends.
func (r *Renderer) SetPhase(p Phase) {
	prev := r.phase
	r.phase = p
	if !r.live || prev == p {
		return
	}
	switch p {
	case PhaseValidating:
		fmt.Fprintf(r.status, "%s %s\n", r.paint(Styles.Muted, IconPending), r.paint(Styles.Muted, "validating input"))
	case PhaseDone:
		if prev == PhaseSearching {
			fmt.Fprint(r.status, "\r\033[K")
		}
	}
}

// Progress redraws the live progress line.
func (r *Renderer) Progress(p variant.Progress) {
	if !r.live {
		return
	}
	fmt.Fprintf(r.status, "\r\033[K%s %s %s",
		r.paint(Styles.Warning, IconPending),
		p.Message,
		r.paint(Styles.Muted, fmt.Sprintf("(%d checked)", p.TotalChecked)),
	)
}

// Outcome prints the search results.
func (r *Renderer) Outcome(original cpf.Digits, maxChanges int, out variant.Outcome) {
	fmt.Fprintln(r.out, r.paint(Styles.Title, "Variants of "+original.Format()))

	k, found := out.ChangesUsed()
	if !found {
		fmt.Fprintf(r.out, "%s No valid variants with up to %d changed digit(s) %s\n",
			r.paint(Styles.Warning, IconWarning),
			maxChanges,
			r.paint(Styles.Muted, fmt.Sprintf("(%d candidates checked)", out.TotalChecked())),
		)
		return
	}

	fmt.Fprintf(r.out, "%s %d valid variant(s) with %d changed digit(s) %s\n",
		r.paint(Styles.Success, IconSuccess),
		len(out.Results()),
		k,
		r.paint(Styles.Muted, fmt.Sprintf("(%d candidates checked)", out.TotalChecked())),
	)
	for _, rec := range out.Results() {
		fmt.Fprintf(r.out, "  %s  %s\n",
			r.paint(Styles.Highlight, rec.Formatted()),
			r.paint(Styles.Muted, StateNames(rec.Digits().RegionDigit())),
		)
	}
}

// Valid prints a validation success line.
func (r *Renderer) Valid(d cpf.Digits) {
	fmt.Fprintf(r.out, "%s %s is valid %s\n",
		r.paint(Styles.Success, IconSuccess),
		r.paint(Styles.Highlight, d.Format()),
		r.paint(Styles.Muted, fmt.Sprintf("(region %d: %s)", d.RegionDigit(), StateNames(d.RegionDigit()))),
	)
}

// Regions prints the state table.
func (r *Renderer) Regions(states []region.State) {
	var b strings.Builder
	for i, s := range states {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %d  %s", s.UF, s.Digit, s.Name)
	}
	if r.styled {
		fmt.Fprintln(r.out, Styles.Box.Render(b.String()))
		return
	}
	fmt.Fprintln(r.out, b.String())
}

// Error prints err as a failure line.
func (r *Renderer) Error(err error) {
	fmt.Fprintf(r.out, "%s %s\n", r.paint(Styles.Error, IconError), r.paint(Styles.Error, err.Error()))
}

func (r *Renderer) paint(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

// StateNames lists the UF codes sharing a region digit.
func StateNames(digit uint8) string {
	states := region.ByDigit(digit)
	codes := make([]string, len(states))
	for i, s := range states {
		codes[i] = s.UF
	}
	return strings.Join(codes, ", ")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
