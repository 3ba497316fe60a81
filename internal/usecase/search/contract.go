package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/cpfvariants/internal/domain/variant"
)

// Observer receives progress snapshots. It is called synchronously from the
// searching goroutine and never concurrently with itself.
type Observer func(variant.Progress)

// Yielder is invoked at fixed batch boundaries so a long tier can give the
// scheduler a turn. A non-nil error stops the search as aborted.
type Yielder interface {
	Yield(ctx context.Context) error
}

// Recorder receives search metrics.
type Recorder interface {
	ObserveTier(k, checked int, elapsed time.Duration)
	ObserveSearch(status Status, checked int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTier(int, int, time.Duration) {}
func (nopRecorder) ObserveSearch(Status, int, time.Duration) {}
