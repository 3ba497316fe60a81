package search

import (
	"context"
	"runtime"
)

// GoschedYielder hands the processor to other goroutines, then reports cancellation.
type GoschedYielder struct{}

// Yield implements Yielder.
func (GoschedYielder) Yield(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// NopYielder only checks for cancellation.
type NopYielder struct{}

// Yield implements Yielder.
func (NopYielder) Yield(ctx context.Context) error {
	return ctx.Err()
}
