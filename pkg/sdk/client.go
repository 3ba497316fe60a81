package cpfvariants

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/cpfvariants/internal/domain"
	"github.com/kailas-cloud/cpfvariants/internal/domain/cpf"
	"github.com/kailas-cloud/cpfvariants/internal/domain/region"
	"github.com/kailas-cloud/cpfvariants/internal/domain/variant"
	healthuc "github.com/kailas-cloud/cpfvariants/internal/usecase/health"
	searchuc "github.com/kailas-cloud/cpfvariants/internal/usecase/search"
)

// Internal interface so tests can substitute the engine.
type searchUseCase interface {
	Search(ctx context.Context, req searchuc.Request, observe searchuc.Observer) (variant.Outcome, error)
}

// Client is the cpfvariants SDK entry point. It is safe for concurrent use.
type Client struct {
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.maxChanges < 0 || cfg.maxChanges > variant.MaxChanges {
		return nil, fmt.Errorf("cpfvariants: max changes must be between 1 and %d, got %d",
			variant.MaxChanges, cfg.maxChanges)
	}
	if cfg.workers < 0 || cfg.workers > searchuc.MaxWorkers {
		return nil, fmt.Errorf("cpfvariants: workers must be between 1 and %d, got %d",
			searchuc.MaxWorkers, cfg.workers)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	searchSvc := searchuc.New(nil).
		WithMaxChanges(cfg.maxChanges).
		WithWorkers(cfg.workers).
		WithProgressEvery(cfg.progressEvery).
		WithYieldEvery(cfg.yieldEvery)
	healthSvc := healthuc.New().
		WithChecker("search_engine", searchuc.NewSelfTest())

	return &Client{
		searchSvc: searchSvc,
		healthSvc: healthSvc,
		obs:       obs,
	}, nil
}

// Search finds valid CPFs closest to raw. raw may contain separators; only
// its digits are used. A search that finds nothing is not an error.
func (c *Client) Search(ctx context.Context, raw string, opts ...SearchOption) (out Outcome, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	var sc searchConfig
	for _, o := range opts {
		o(&sc)
	}

	req, err := buildRequest(raw, sc)
	if err != nil {
		return Outcome{}, err
	}

	var observe searchuc.Observer
	if sc.progress != nil {
		observe = func(p variant.Progress) {
			sc.progress(Progress{
				Message:            p.Message,
				TotalChecked:       p.TotalChecked,
				CurrentChangeCount: p.CurrentChangeCount,
			})
		}
	}

	res, err := c.searchSvc.Search(ctx, req, observe)
	if err != nil {
		return Outcome{}, fmt.Errorf("search: %w", err)
	}
	return outcomeFromDomain(req, res), nil
}

// Validate checks raw and describes it when valid.
func (c *Client) Validate(raw string) (info CPFInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("validate", start, err) }()

	d, err := cpf.Validate(cpf.Normalize(raw))
	if err != nil {
		return CPFInfo{}, err
	}
	return CPFInfo{
		CPF:         d.String(),
		Formatted:   d.Format(),
		RegionDigit: d.RegionDigit(),
		States:      stateCodes(d.RegionDigit()),
	}, nil
}

// IsValid reports whether raw is exactly 11 digits with matching check digits.
func (c *Client) IsValid(raw string) bool {
	return cpf.IsValidString(raw)
}

// Format masks partial or complete input as XXX.XXX.XXX-YY.
func (c *Client) Format(raw string) string {
	return cpf.FormatPartial(raw)
}

// Regions returns the state table.
func (c *Client) Regions() []State {
	all := region.All()
	out := make([]State, len(all))
	for i, s := range all {
		out[i] = State{UF: s.UF, Name: s.Name, RegionDigit: s.Digit}
	}
	return out
}

func buildRequest(raw string, sc searchConfig) (searchuc.Request, error) {
	original, err := cpf.Validate(cpf.Normalize(raw))
	if err != nil {
		return searchuc.Request{}, err
	}

	filter, err := region.FilterForState(sc.state)
	if err != nil {
		return searchuc.Request{}, err
	}
	digits, err := region.NewFilter(sc.digits...)
	if err != nil {
		return searchuc.Request{}, err
	}

	if sc.maxChanges < 0 {
		return searchuc.Request{}, fmt.Errorf("%w: max changes must not be negative", domain.ErrInvalidRequest)
	}

	return searchuc.Request{
		ID:         uuid.NewString(),
		Original:   original,
		MaxChanges: sc.maxChanges,
		Filter:     filter.Union(digits),
	}, nil
}

func outcomeFromDomain(req searchuc.Request, res variant.Outcome) Outcome {
	variants := make([]Variant, len(res.Results()))
	for i, r := range res.Results() {
		digit := r.Digits().RegionDigit()
		variants[i] = Variant{
			CPF:         r.Raw(),
			Formatted:   r.Formatted(),
			Differences: r.Differences(),
			RegionDigit: digit,
			States:      stateCodes(digit),
		}
	}

	k, _ := res.ChangesUsed()
	return Outcome{
		SearchID:     req.ID,
		Original:     req.Original.String(),
		Variants:     variants,
		TotalChecked: res.TotalChecked(),
		ChangesUsed:  k,
	}
}

func stateCodes(digit uint8) []string {
	states := region.ByDigit(digit)
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.UF
	}
	return out
}
