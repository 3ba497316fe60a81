package health

import "context"

// Checker reports whether one component is operational.
type Checker interface {
	HealthCheck(ctx context.Context) error
}
