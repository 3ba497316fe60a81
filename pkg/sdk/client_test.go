package cpfvariants

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/cpfvariants/internal/domain"
	"github.com/kailas-cloud/cpfvariants/internal/domain/variant"
	searchuc "github.com/kailas-cloud/cpfvariants/internal/usecase/search"
)

type mockSearchUC struct {
	fn func(ctx context.Context, req searchuc.Request, observe searchuc.Observer) (variant.Outcome, error)
}

func (m *mockSearchUC) Search(
	ctx context.Context, req searchuc.Request, observe searchuc.Observer,
) (variant.Outcome, error) {
	return m.fn(ctx, req, observe)
}

func newClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_InvalidOptions(t *testing.T) {
	cases := map[string]Option{
		"max changes high": WithMaxChanges(4),
		"max changes neg":  WithMaxChanges(-1),
		"workers high":     WithWorkers(65),
		"workers neg":      WithWorkers(-1),
	}
	for name, opt := range cases {
		if _, err := New(opt); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSearch_Found(t *testing.T) {
	c := newClient(t)

	out, err := c.Search(context.Background(), "111.444.777-35")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Found() {
		t.Fatal("expected a variant")
	}
	if out.ChangesUsed != 2 {
		t.Errorf("ChangesUsed = %d, want 2", out.ChangesUsed)
	}
	if out.TotalChecked != 4554 {
		t.Errorf("TotalChecked = %d, want 4554", out.TotalChecked)
	}
	if out.Original != "11144477735" {
		t.Errorf("Original = %q", out.Original)
	}
	if out.SearchID == "" {
		t.Error("expected a search id")
	}
	if len(out.Variants) != 1 {
		t.Fatalf("got %d variants, want 1", len(out.Variants))
	}
	v := out.Variants[0]
	if v.CPF != "11144477905" || v.Formatted != "111.444.779-05" || v.Differences != 2 || v.RegionDigit != 9 {
		t.Errorf("unexpected variant %+v", v)
	}
	if !slices.Equal(v.States, []string{"PR", "SC"}) {
		t.Errorf("States = %v, want [PR SC]", v.States)
	}
}

func TestSearch_Workers(t *testing.T) {
	seq := newClient(t)
	par := newClient(t, WithWorkers(4))

	a, err := seq.Search(context.Background(), "11144477735", InState("BA"))
	if err != nil {
		t.Fatalf("sequential: %v", err)
	}
	b, err := par.Search(context.Background(), "11144477735", InState("BA"))
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}

	if len(a.Variants) != 37 || len(b.Variants) != 37 {
		t.Fatalf("got %d and %d variants, want 37", len(a.Variants), len(b.Variants))
	}
	for i := range a.Variants {
		if a.Variants[i].CPF != b.Variants[i].CPF {
			t.Fatalf("variant %d differs: %s vs %s", i, a.Variants[i].CPF, b.Variants[i].CPF)
		}
	}
	if a.TotalChecked != b.TotalChecked || a.TotalChecked != 124839 {
		t.Errorf("TotalChecked = %d and %d, want 124839", a.TotalChecked, b.TotalChecked)
	}
}

func TestSearch_NotFound(t *testing.T) {
	c := newClient(t, WithMaxChanges(1))

	out, err := c.Search(context.Background(), "11144477735")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Found() || out.ChangesUsed != 0 || len(out.Variants) != 0 {
		t.Errorf("expected no variants, got %+v", out)
	}
	if out.TotalChecked != 99 {
		t.Errorf("TotalChecked = %d, want 99", out.TotalChecked)
	}
}

func TestSearch_FilterUnion(t *testing.T) {
	c := newClient(t)

	out, err := c.Search(context.Background(), "11144477735", UpTo(2), InState("BA"), WithRegionDigits(9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Variants) != 1 || out.Variants[0].CPF != "11144477905" {
		t.Errorf("unexpected variants %+v", out.Variants)
	}

	out, err = c.Search(context.Background(), "11144477735", UpTo(2), InState("BA"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Found() || out.TotalChecked != 4554 {
		t.Errorf("expected nothing after 4554 candidates, got %+v", out)
	}
}

func TestSearch_InputErrors(t *testing.T) {
	c := newClient(t)

	cases := []struct {
		raw  string
		opts []SearchOption
		want error
	}{
		{"123", nil, ErrInvalidFormat},
		{"11144477736", nil, ErrInvalidChecksum},
		{"000.000.000-00", nil, ErrInvalidChecksum},
		{"11144477735", []SearchOption{InState("ZZ")}, ErrUnknownState},
		{"11144477735", []SearchOption{WithRegionDigits(10)}, ErrInvalidRequest},
		{"11144477735", []SearchOption{UpTo(4)}, ErrInvalidRequest},
		{"11144477735", []SearchOption{UpTo(-1)}, ErrInvalidRequest},
	}
	for _, tc := range cases {
		if _, err := c.Search(context.Background(), tc.raw, tc.opts...); !errors.Is(err, tc.want) {
			t.Errorf("Search(%q): got %v, want %v", tc.raw, err, tc.want)
		}
	}
}

func TestSearch_Progress(t *testing.T) {
	c := newClient(t)

	var events []Progress
	_, err := c.Search(context.Background(), "11144477735", OnProgress(func(p Progress) {
		events = append(events, p)
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected progress events")
	}
	if events[0].CurrentChangeCount != 1 || events[0].TotalChecked != 0 {
		t.Errorf("first event = %+v", events[0])
	}
	for i := 1; i < len(events); i++ {
		if events[i].TotalChecked < events[i-1].TotalChecked {
			t.Fatalf("progress went backwards at %d: %+v", i, events[i])
		}
	}
}

func TestSearch_Canceled(t *testing.T) {
	c := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Search(ctx, "11144477735"); !errors.Is(err, ErrAborted) {
		t.Errorf("got %v, want ErrAborted", err)
	}
}

func TestSearch_ObservesErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	obs, err := newObserver(slog.New(slog.NewTextHandler(&logs, nil)), reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	c := &Client{
		searchSvc: &mockSearchUC{
			fn: func(context.Context, searchuc.Request, searchuc.Observer) (variant.Outcome, error) {
				return variant.Outcome{}, domain.NewPanicError("boom")
			},
		},
		obs: obs,
	}

	_, err = c.Search(context.Background(), "11144477735")
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("got %v, want ErrInternal", err)
	}

	if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("search", "error")); got != 1 {
		t.Errorf("search errors = %v, want 1", got)
	}
	if !strings.Contains(logs.String(), "operation failed") {
		t.Errorf("expected a failure log, got %q", logs.String())
	}
}

func TestPrometheus_ReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := newClient(t, WithPrometheus(reg))
	b := newClient(t, WithPrometheus(reg))

	if _, err := a.Validate("11144477735"); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, err := b.Validate("11144477735"); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if got := testutil.ToFloat64(a.obs.metrics.operations.WithLabelValues("validate", "ok")); got != 2 {
		t.Errorf("validate ok = %v, want 2", got)
	}
}

func TestValidate(t *testing.T) {
	c := newClient(t)

	info, err := c.Validate("111.444.777-35")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := CPFInfo{CPF: "11144477735", Formatted: "111.444.777-35", RegionDigit: 7, States: []string{"ES", "RJ"}}
	if info.CPF != want.CPF || info.Formatted != want.Formatted || info.RegionDigit != want.RegionDigit ||
		!slices.Equal(info.States, want.States) {
		t.Errorf("got %+v, want %+v", info, want)
	}

	if _, err := c.Validate("111.444.777-36"); !errors.Is(err, ErrInvalidChecksum) {
		t.Errorf("got %v, want ErrInvalidChecksum", err)
	}
}

func TestIsValidFormatRegions(t *testing.T) {
	c := newClient(t)

	if !c.IsValid("11144477735") || c.IsValid("111.444.777-35") || c.IsValid("11144477736") {
		t.Error("IsValid accepts only 11 digits with matching check digits")
	}
	if got := c.Format("1114447"); got != "111.444.7" {
		t.Errorf("Format = %q, want 111.444.7", got)
	}

	regions := c.Regions()
	if len(regions) != 27 {
		t.Fatalf("got %d regions, want 27", len(regions))
	}
	if regions[0] != (State{UF: "AC", Name: "Acre", RegionDigit: 2}) {
		t.Errorf("first region = %+v", regions[0])
	}
}

func TestHealth(t *testing.T) {
	c := newClient(t)

	h := c.Health(context.Background())
	if h.Status != "ok" {
		t.Errorf("Status = %q, want ok", h.Status)
	}
	if h.Checks["search_engine"] != "ok" {
		t.Errorf("checks = %v", h.Checks)
	}
}
