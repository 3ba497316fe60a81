package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/cpfvariants/internal/domain"
	"github.com/kailas-cloud/cpfvariants/internal/domain/cpf"
	"github.com/kailas-cloud/cpfvariants/internal/domain/region"
	"github.com/kailas-cloud/cpfvariants/internal/domain/variant"
	logpkg "github.com/kailas-cloud/cpfvariants/internal/logger"
)

// Search tuning defaults.
const (
	DefaultProgressEvery = 250
	DefaultYieldEvery    = 2000
	MaxWorkers           = 64
)

// Status classifies how a search ended.
type Status string

// Search status values.
const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusAborted  Status = "aborted"
	StatusError    Status = "error"
)

// StatusOf classifies a search result.
func StatusOf(out variant.Outcome, err error) Status {
	switch {
	case errors.Is(err, domain.ErrAborted):
		return StatusAborted
	case err != nil:
		return StatusError
	}
	if _, ok := out.ChangesUsed(); ok {
		return StatusFound
	}
	return StatusNotFound
}

// Request is a search over an already validated original CPF.
type Request struct {
	ID         string
	Original   cpf.Digits
	MaxChanges int // 0 uses the service default
	Filter     region.Filter
}

// Service searches checksum-valid variants tier by tier, stopping at the
// first tier that yields any.
type Service struct {
	maxChanges    int
	progressEvery int
	yieldEvery    int
	workers       int
	yielder       Yielder
	recorder      Recorder
	tracer        trace.Tracer
	logger        *zap.Logger
}

// New creates a search service with sequential evaluation and default cadences.
func New(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		maxChanges:    variant.MaxChanges,
		progressEvery: DefaultProgressEvery,
		yieldEvery:    DefaultYieldEvery,
		workers:       1,
		yielder:       GoschedYielder{},
		recorder:      nopRecorder{},
		tracer:        otel.Tracer("github.com/kailas-cloud/cpfvariants/internal/usecase/search"),
		logger:        logger,
	}
}

// WithMaxChanges sets the default highest tier, clamped to [1, variant.MaxChanges].
func (s *Service) WithMaxChanges(k int) *Service {
	if k > 0 {
		s.maxChanges = min(k, variant.MaxChanges)
	}
	return s
}

// WithProgressEvery sets the progress cadence in candidates.
func (s *Service) WithProgressEvery(n int) *Service {
	if n > 0 {
		s.progressEvery = n
	}
	return s
}

// WithYieldEvery sets how many candidates are evaluated between yield points.
func (s *Service) WithYieldEvery(n int) *Service {
	if n > 0 {
		s.yieldEvery = n
	}
	return s
}

// WithWorkers shards each tier's ChangeSets across n goroutines.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = min(n, MaxWorkers)
	}
	return s
}

// WithYielder replaces the yield point implementation.
func (s *Service) WithYielder(y Yielder) *Service {
	if y != nil {
		s.yielder = y
	}
	return s
}

// WithRecorder attaches a metrics recorder.
func (s *Service) WithRecorder(r Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithTracer replaces the tracer.
func (s *Service) WithTracer(t trace.Tracer) *Service {
	if t != nil {
		s.tracer = t
	}
	return s
}

// MaxChanges returns the default highest tier.
func (s *Service) MaxChanges() int { return s.maxChanges }

// Search runs tiers 1..MaxChanges. Cancellation of ctx is observed at yield
// points and returned as domain.ErrAborted. A panic anywhere in the search is
// returned as domain.ErrInternal; a panicking observer is logged and ignored.
func (s *Service) Search(ctx context.Context, req Request, observe Observer) (out variant.Outcome, err error) {
	maxChanges := req.MaxChanges
	if maxChanges == 0 {
		maxChanges = s.maxChanges
	}
	if maxChanges < 1 || maxChanges > variant.MaxChanges {
		return variant.Outcome{}, fmt.Errorf("%w: max changes must be between 1 and %d, got %d",
			domain.ErrInvalidRequest, variant.MaxChanges, maxChanges)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	logger := logpkg.FromContextOr(ctx, s.logger).With(zap.String("search_id", req.ID))
	ctx, span := s.tracer.Start(ctx, "search.variants", trace.WithAttributes(
		attribute.String("search.id", req.ID),
		attribute.Int("search.max_changes", maxChanges),
		attribute.Bool("search.filtered", !req.Filter.IsEmpty()),
	))
	defer span.End()

	r := &run{
		svc:      s,
		original: req.Original,
		filter:   req.Filter,
		observe:  observe,
		logger:   logger,
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("search panicked", zap.Any("panic", rec), zap.Stack("stacktrace"))
			out, err = variant.Outcome{}, domain.NewPanicError(rec)
		}
		status := StatusOf(out, err)
		checked := r.total()
		s.recorder.ObserveSearch(status, checked, time.Since(start))
		span.SetAttributes(
			attribute.String("search.status", string(status)),
			attribute.Int("search.total_checked", checked),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(status))
		}
		logger.Info("search finished",
			zap.String("status", string(status)),
			zap.Int("total_checked", checked),
			zap.Int("results", len(out.Results())),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()

	for k := 1; k <= maxChanges; k++ {
		if err := ctx.Err(); err != nil {
			return variant.Outcome{}, fmt.Errorf("%w: %w", domain.ErrAborted, err)
		}

		r.emit(k)
		tierStart := time.Now()
		before := r.total()

		results, err := r.tier(ctx, k)
		if err != nil {
			return variant.Outcome{}, err
		}

		s.recorder.ObserveTier(k, r.total()-before, time.Since(tierStart))
		logger.Debug("tier finished",
			zap.Int("changes", k),
			zap.Int("results", len(results)),
			zap.Int("total_checked", r.total()),
		)

		if len(results) > 0 {
			span.SetAttributes(attribute.Int("search.changes_used", k))
			return variant.NewOutcome(results, r.total(), k), nil
		}
	}

	return variant.NotFound(r.total()), nil
}

// run is the state of a single Search invocation.
type run struct {
	svc      *Service
	original cpf.Digits
	filter   region.Filter
	observe  Observer
	logger   *zap.Logger

	mu      sync.Mutex
	checked int
}

func (r *run) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checked
}

// tier evaluates every candidate of tier k and returns the kept records in
// ChangeSet order, then index order.
func (r *run) tier(ctx context.Context, k int) ([]variant.Record, error) {
	sets := variant.Combinations(cpf.Length, k)
	perSet := make([][]variant.Record, len(sets))

	workers := min(r.svc.workers, len(sets))
	if workers <= 1 {
		if err := r.scan(ctx, k, sets, perSet, 0, 1); err != nil {
			return nil, err
		}
		return merge(perSet), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = domain.NewPanicError(rec)
				}
			}()
			return r.scan(gctx, k, sets, perSet, w, workers)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merge(perSet), nil
}

// scan evaluates sets[offset], sets[offset+stride], ... Each worker writes
// only its own perSet slots.
func (r *run) scan(
	ctx context.Context, k int,
	sets []variant.ChangeSet, perSet [][]variant.Record,
	offset, stride int,
) error {
	pending := 0
	sinceYield := 0

	for i := offset; i < len(sets); i += stride {
		for _, candidate := range variant.Candidates(r.original, sets[i]) {
			pending++
			if r.filter.Allows(candidate.RegionDigit()) && cpf.IsValid(candidate) {
				perSet[i] = append(perSet[i], variant.NewRecord(r.original, candidate))
			}

			if pending == r.svc.progressEvery {
				r.flush(k, pending)
				pending = 0
			}

			sinceYield++
			if sinceYield >= r.svc.yieldEvery {
				sinceYield = 0
				if err := r.yield(ctx); err != nil {
					r.flush(k, pending)
					return err
				}
			}
		}
	}

	if pending > 0 {
		r.flush(k, pending)
	}
	return nil
}

func (r *run) yield(ctx context.Context) error {
	if err := r.svc.yielder.Yield(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAborted, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAborted, err)
	}
	return nil
}

// flush adds n checked candidates to the running total and reports progress.
func (r *run) flush(k, n int) {
	if n == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checked += n
	r.notify(k)
}

// emit reports progress without adding to the total.
func (r *run) emit(k int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notify(k)
}

// notify must be called with mu held.
func (r *run) notify(k int) {
	if r.observe == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("progress observer panicked", zap.Any("panic", rec), zap.Stack("stacktrace"))
		}
	}()
	r.observe(variant.Progress{
		Message:            fmt.Sprintf("searching variants with %d changed digit(s)", k),
		TotalChecked:       r.checked,
		CurrentChangeCount: k,
	})
}

// merge concatenates per-set records, dropping repeated digit sequences.
func merge(perSet [][]variant.Record) []variant.Record {
	seen := make(map[cpf.Digits]struct{})
	var out []variant.Record
	for _, records := range perSet {
		for _, rec := range records {
			if _, dup := seen[rec.Digits()]; dup {
				continue
			}
			seen[rec.Digits()] = struct{}{}
			out = append(out, rec)
		}
	}
	return out
}
