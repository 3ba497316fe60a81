package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/cpfvariants/internal/domain"
	"github.com/kailas-cloud/cpfvariants/internal/domain/cpf"
	"github.com/kailas-cloud/cpfvariants/internal/domain/region"
	"github.com/kailas-cloud/cpfvariants/internal/domain/variant"
	searchuc "github.com/kailas-cloud/cpfvariants/internal/usecase/search"
)

// SearchOptions holds the parsed arguments for "search".
type SearchOptions struct {
	CPF          string
	MaxChanges   int
	State        string
	RegionDigits []int
	Workers      int
	JSON         bool
}

// Request validates the options and builds a search request.
func (o SearchOptions) Request(id string) (searchuc.Request, error) {
	original, err := cpf.Validate(cpf.Normalize(o.CPF))
	if err != nil {
		return searchuc.Request{}, err
	}

	if o.MaxChanges < 0 || o.MaxChanges > variant.MaxChanges {
		return searchuc.Request{}, fmt.Errorf("%w: --max-changes must be between 0 and %d, got %d",
			domain.ErrInvalidRequest, variant.MaxChanges, o.MaxChanges)
	}
	if o.Workers < 0 || o.Workers > searchuc.MaxWorkers {
		return searchuc.Request{}, fmt.Errorf("%w: --workers must be between 0 and %d, got %d",
			domain.ErrInvalidRequest, searchuc.MaxWorkers, o.Workers)
	}

	filter, err := region.FilterForState(o.State)
	if err != nil {
		return searchuc.Request{}, err
	}
	for _, d := range o.RegionDigits {
		if d < 0 || d > 9 {
			return searchuc.Request{}, fmt.Errorf("%w: --region-digit must be between 0 and 9, got %d",
				domain.ErrInvalidRequest, d)
		}
		digit, _ := region.NewFilter(uint8(d))
		filter = filter.Union(digit)
	}

	return searchuc.Request{
		ID:         id,
		Original:   original,
		MaxChanges: o.MaxChanges,
		Filter:     filter,
	}, nil
}

// SearchRunFunc is the handler for "search", injected by cmd/cpfvariants.
type SearchRunFunc func(ctx context.Context, opts SearchOptions) error

// NewSearchCmd creates the "search" subcommand.
func NewSearchCmd(runFunc SearchRunFunc) *cobra.Command {
	var opts SearchOptions

	cmd := &cobra.Command{
		Use:   "search <cpf>",
		Short: "Find valid CPFs that differ from the given one in a few digits",
		Long: "Search tiers of 1, 2 and 3 changed digits in order and print every valid CPF " +
			"found in the first tier that yields any.",
		Example: "  cpfvariants search 111.444.777-35\n" +
			"  cpfvariants search 11144477735 --state SP --max-changes 2 --json",
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.CPF = args[0]
			_, err := opts.Request("")
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.MaxChanges, "max-changes", 0, "Highest number of changed digits to try, 1-3 (0 uses search.max_changes from config)")
	cmd.Flags().StringVar(&opts.State, "state", "", "Only keep variants issued in this state (UF code, or ANY)")
	cmd.Flags().IntSliceVar(&opts.RegionDigits, "region-digit", nil, "Only keep variants with this region digit (repeatable)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Evaluate change sets on this many goroutines (0 uses search.workers from config)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the outcome as JSON")

	return cmd
}

// Searcher runs a search for the CLI and renders it.
type Searcher struct {
	svc    *searchuc.Service
	render *Renderer
}

// NewSearcher creates a searcher.
func NewSearcher(svc *searchuc.Service, render *Renderer) *Searcher {
	return &Searcher{svc: svc, render: render}
}

// Run implements SearchRunFunc.
func (s *Searcher) Run(ctx context.Context, opts SearchOptions) error {
	s.render.SetPhase(PhaseValidating)
	req, err := opts.Request(uuid.NewString())
	if err != nil {
		s.render.SetPhase(PhaseInput)
		return err
	}

	var observe searchuc.Observer
	if !opts.JSON {
		observe = s.render.Progress
	}

	s.render.SetPhase(PhaseSearching)
	out, err := s.svc.Search(ctx, req, observe)
	s.render.SetPhase(PhaseDone)
	if err != nil {
		return err
	}

	if opts.JSON {
		return writeJSON(s.render.Out(), newSearchOutput(req, out))
	}

	maxChanges := req.MaxChanges
	if maxChanges == 0 {
		maxChanges = s.svc.MaxChanges()
	}
	s.render.Outcome(req.Original, maxChanges, out)
	return nil
}

type variantOutput struct {
	CPF         string `json:"cpf"`
	Formatted   string `json:"formatted"`
	Differences int    `json:"differences"`
	States      string `json:"states"`
}

type searchOutput struct {
	SearchID     string          `json:"search_id"`
	Original     string          `json:"original"`
	Results      []variantOutput `json:"results"`
	TotalChecked int             `json:"total_checked"`
	ChangesUsed  *int            `json:"changes_used"`
}

func newSearchOutput(req searchuc.Request, out variant.Outcome) searchOutput {
	results := make([]variantOutput, len(out.Results()))
	for i, rec := range out.Results() {
		results[i] = variantOutput{
			CPF:         rec.Raw(),
			Formatted:   rec.Formatted(),
			Differences: rec.Differences(),
			States:      StateNames(rec.Digits().RegionDigit()),
		}
	}

	o := searchOutput{
		SearchID:     req.ID,
		Original:     req.Original.String(),
		Results:      results,
		TotalChecked: out.TotalChecked(),
	}
	if k, ok := out.ChangesUsed(); ok {
		o.ChangesUsed = &k
	}
	return o
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
