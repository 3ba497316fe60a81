package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/cpfvariants/internal/domain"
	"github.com/kailas-cloud/cpfvariants/internal/domain/cpf"
	"github.com/kailas-cloud/cpfvariants/internal/domain/region"
	"github.com/kailas-cloud/cpfvariants/internal/domain/variant"
)

// --- Mocks ---

type countingYielder struct {
	calls int
	hook  func(calls int)
}

func (y *countingYielder) Yield(ctx context.Context) error {
	y.calls++
	if y.hook != nil {
		y.hook(y.calls)
	}
	return ctx.Err()
}

type mockRecorder struct {
	mu       sync.Mutex
	tiers    []int
	statuses []Status
	checked  int
}

func (m *mockRecorder) ObserveTier(k, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiers = append(m.tiers, k)
}

func (m *mockRecorder) ObserveSearch(status Status, checked int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
	m.checked = checked
}

type progressLog struct {
	events []variant.Progress
}

func (p *progressLog) observe(ev variant.Progress) { p.events = append(p.events, ev) }

func newService() *Service {
	return New(nil).WithYielder(NopYielder{})
}

func mustFilter(t *testing.T, digits ...uint8) region.Filter {
	t.Helper()
	f, err := region.NewFilter(digits...)
	require.NoError(t, err)
	return f
}

func raws(out variant.Outcome) []string {
	var s []string
	for _, r := range out.Results() {
		s = append(s, r.Raw())
	}
	return s
}

// --- Tests ---

func TestSearch_ReferenceStopsAtTierTwo(t *testing.T) {
	out, err := newService().Search(context.Background(),
		Request{Original: cpf.MustParse("11144477735")}, nil)
	require.NoError(t, err)

	k, ok := out.ChangesUsed()
	require.True(t, ok)
	assert.Equal(t, 2, k)
	assert.Equal(t, variant.TierSize(1)+variant.TierSize(2), out.TotalChecked())
	require.Len(t, out.Results(), 1)

	rec := out.Results()[0]
	assert.Equal(t, "11144477905", rec.Raw())
	assert.Equal(t, "111.444.779-05", rec.Formatted())
	assert.Equal(t, 2, rec.Differences())
	assert.True(t, cpf.IsValid(rec.Digits()))
}

func TestSearch_TierOneTerminatesEarly(t *testing.T) {
	log := &progressLog{}
	out, err := newService().Search(context.Background(),
		Request{Original: cpf.MustParse("12345678909")}, log.observe)
	require.NoError(t, err)

	k, ok := out.ChangesUsed()
	require.True(t, ok)
	assert.Equal(t, 1, k)
	assert.Equal(t, variant.TierSize(1), out.TotalChecked())
	assert.Equal(t, []string{"22345678909"}, raws(out))

	for _, ev := range log.events {
		assert.Equal(t, 1, ev.CurrentChangeCount, "tier 2 must never start")
	}
}

func TestSearch_NoResultsUpToMax(t *testing.T) {
	out, err := newService().Search(context.Background(),
		Request{Original: cpf.MustParse("11144477735"), MaxChanges: 1}, nil)
	require.NoError(t, err)

	_, ok := out.ChangesUsed()
	assert.False(t, ok)
	assert.NotNil(t, out.Results())
	assert.Empty(t, out.Results())
	assert.Equal(t, variant.TierSize(1), out.TotalChecked())
	assert.Equal(t, StatusNotFound, StatusOf(out, nil))
}

func TestSearch_RegionFilter(t *testing.T) {
	out, err := newService().Search(context.Background(), Request{
		Original: cpf.MustParse("11144477735"),
		Filter:   mustFilter(t, 5),
	}, nil)
	require.NoError(t, err)

	k, ok := out.ChangesUsed()
	require.True(t, ok)
	assert.Equal(t, 3, k)
	// filtered candidates still count as checked
	assert.Equal(t, variant.TierSize(1)+variant.TierSize(2)+variant.TierSize(3), out.TotalChecked())
	require.Len(t, out.Results(), 37)

	seen := make(map[string]bool)
	for _, rec := range out.Results() {
		assert.Equal(t, uint8(5), rec.Digits().RegionDigit())
		assert.False(t, seen[rec.Raw()], "duplicate %s", rec.Raw())
		seen[rec.Raw()] = true
		assert.Equal(t, 3, rec.Differences())
		assert.True(t, cpf.IsValid(rec.Digits()))
	}
	assert.Equal(t, "96144477535", out.Results()[0].Raw())
}

func TestSearch_Deterministic(t *testing.T) {
	req := Request{Original: cpf.MustParse("11144477735"), Filter: mustFilter(t, 5)}
	a, err := newService().Search(context.Background(), req, nil)
	require.NoError(t, err)
	b, err := newService().Search(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSearch_WorkersMatchSequential(t *testing.T) {
	req := Request{Original: cpf.MustParse("11144477735"), Filter: mustFilter(t, 5)}
	seq, err := newService().Search(context.Background(), req, nil)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 7} {
		log := &progressLog{}
		par, err := newService().WithWorkers(workers).Search(context.Background(), req, log.observe)
		require.NoError(t, err)
		assert.Equal(t, seq, par, "workers=%d", workers)
		assertCadence(t, log.events, DefaultProgressEvery)
	}
}

func TestSearch_ProgressCadence(t *testing.T) {
	log := &progressLog{}
	out, err := newService().Search(context.Background(),
		Request{Original: cpf.MustParse("11144477735")}, log.observe)
	require.NoError(t, err)

	require.NotEmpty(t, log.events)
	first := log.events[0]
	assert.Equal(t, 1, first.CurrentChangeCount)
	assert.Equal(t, 0, first.TotalChecked)
	assert.NotEmpty(t, first.Message)

	assertCadence(t, log.events, DefaultProgressEvery)
	assert.Equal(t, out.TotalChecked(), log.events[len(log.events)-1].TotalChecked)

	starts := 0
	for i, ev := range log.events {
		if i > 0 && ev.CurrentChangeCount != log.events[i-1].CurrentChangeCount {
			starts++
			assert.Equal(t, variant.TierSize(1), ev.TotalChecked, "tier 2 start carries tier 1 total")
		}
	}
	assert.Equal(t, 1, starts)
}

func assertCadence(t *testing.T, events []variant.Progress, every int) {
	t.Helper()
	for i := 1; i < len(events); i++ {
		gap := events[i].TotalChecked - events[i-1].TotalChecked
		assert.GreaterOrEqual(t, gap, 0, "event %d went backwards", i)
		assert.LessOrEqual(t, gap, every, "event %d gap too large", i)
	}
}

func TestSearch_ObserverPanicDoesNotAbort(t *testing.T) {
	calls := 0
	out, err := newService().Search(context.Background(),
		Request{Original: cpf.MustParse("11144477735")},
		func(variant.Progress) {
			calls++
			panic("observer failure")
		})
	require.NoError(t, err)
	assert.Greater(t, calls, 1)
	assert.Equal(t, []string{"11144477905"}, raws(out))
}

func TestSearch_YieldsAtBatchBoundaries(t *testing.T) {
	y := &countingYielder{}
	_, err := New(nil).WithYielder(y).Search(context.Background(),
		Request{Original: cpf.MustParse("11144477735")}, nil)
	require.NoError(t, err)
	// tier 1 has 99 candidates, tier 2 has 4455
	assert.Equal(t, 2, y.calls)

	y = &countingYielder{}
	_, err = New(nil).WithYielder(y).WithYieldEvery(100).Search(context.Background(),
		Request{Original: cpf.MustParse("11144477735")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 44, y.calls)
}

func TestSearch_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService().Search(ctx, Request{Original: cpf.MustParse("11144477735")}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAborted)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_CanceledAtYieldPoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &mockRecorder{}
	y := &countingYielder{hook: func(int) { cancel() }}
	out, err := New(nil).WithYielder(y).WithYieldEvery(50).WithRecorder(rec).Search(ctx,
		Request{Original: cpf.MustParse("11144477735"), Filter: mustFilter(t, 5)}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAborted)
	assert.Equal(t, StatusAborted, StatusOf(out, err))
	assert.Equal(t, 1, y.calls)
	assert.Equal(t, []Status{StatusAborted}, rec.statuses)
	assert.Equal(t, 50, rec.checked)
}

func TestSearch_CanceledWithWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var once sync.Once
	_, err := newService().WithWorkers(4).WithYieldEvery(10).Search(ctx,
		Request{Original: cpf.MustParse("11144477735"), Filter: mustFilter(t, 5)},
		func(p variant.Progress) {
			if p.CurrentChangeCount == 2 {
				once.Do(cancel)
			}
		})
	assert.ErrorIs(t, err, domain.ErrAborted)
}

type panicYielder struct{}

func (panicYielder) Yield(context.Context) error { panic("scheduler exploded") }

func TestSearch_PanicBecomesInternalError(t *testing.T) {
	for _, workers := range []int{1, 3} {
		out, err := New(nil).WithYielder(panicYielder{}).WithYieldEvery(10).WithWorkers(workers).
			Search(context.Background(), Request{Original: cpf.MustParse("11144477735")}, nil)
		require.Error(t, err, "workers=%d", workers)
		assert.ErrorIs(t, err, domain.ErrInternal)
		assert.Empty(t, out.Results())
		assert.Equal(t, StatusError, StatusOf(out, err))

		var pe *domain.PanicError
		assert.True(t, errors.As(err, &pe))
	}
}

func TestSearch_InvalidMaxChanges(t *testing.T) {
	for _, k := range []int{-1, 4} {
		_, err := newService().Search(context.Background(),
			Request{Original: cpf.MustParse("11144477735"), MaxChanges: k}, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest, "k=%d", k)
	}
}

func TestSearch_RecorderSeesTiers(t *testing.T) {
	rec := &mockRecorder{}
	_, err := newService().WithRecorder(rec).Search(context.Background(),
		Request{Original: cpf.MustParse("11144477735")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, rec.tiers)
	assert.Equal(t, []Status{StatusFound}, rec.statuses)
	assert.Equal(t, 4554, rec.checked)
}

func TestWithOptions_Clamp(t *testing.T) {
	s := New(nil).WithMaxChanges(9).WithWorkers(1000).WithProgressEvery(-1).WithYieldEvery(0)
	assert.Equal(t, variant.MaxChanges, s.MaxChanges())
	assert.Equal(t, MaxWorkers, s.workers)
	assert.Equal(t, DefaultProgressEvery, s.progressEvery)
	assert.Equal(t, DefaultYieldEvery, s.yieldEvery)
}

func TestMerge_DropsDuplicates(t *testing.T) {
	o := cpf.MustParse("11144477735")
	c := o
	c[0] = 2
	rec := variant.NewRecord(o, c)
	out := merge([][]variant.Record{{rec}, nil, {rec, variant.NewRecord(o, o)}})
	require.Len(t, out, 2)
	assert.Equal(t, rec, out[0])
}

func TestSelfTest(t *testing.T) {
	require.NoError(t, NewSelfTest().HealthCheck(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewSelfTest().HealthCheck(ctx), domain.ErrAborted)
}
