package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/cpfvariants/internal/domain/cpf"
	"github.com/kailas-cloud/cpfvariants/internal/domain/variant"
)

const selfTestCPF = "11144477735"

// SelfTest is a health checker that runs a single-tier search over a known
// CPF on a private service, so it never touches metrics.
type SelfTest struct {
	svc *Service
}

// NewSelfTest creates the engine self-test.
func NewSelfTest() SelfTest {
	return SelfTest{svc: New(nil).WithYielder(NopYielder{})}
}

// HealthCheck implements health.Checker.
func (t SelfTest) HealthCheck(ctx context.Context) error {
	original, err := cpf.Validate(selfTestCPF)
	if err != nil {
		return fmt.Errorf("self-test reference rejected: %w", err)
	}

	out, err := t.svc.Search(ctx, Request{ID: "self-test", Original: original, MaxChanges: 1}, nil)
	if err != nil {
		return fmt.Errorf("self-test search: %w", err)
	}
	if out.TotalChecked() != variant.TierSize(1) {
		return fmt.Errorf("self-test checked %d candidates, want %d", out.TotalChecked(), variant.TierSize(1))
	}
	return nil
}
