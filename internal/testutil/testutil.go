// Package testutil provides database, Redis, and fixture helpers for the bookings tests.
package testutil

import (
	"os"
	"strings"
	"time"
)

// TestingTB is the subset of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Skip(args ...any)
	Skipf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
}

// FixedTimeFunc returns a clock stuck at t.
func FixedTimeFunc(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestTime is the instant fixtures are created at.
func TestTime() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// ConcurrentTestRunner releases a batch of functions at once so they race on the same
// precondition.
type ConcurrentTestRunner struct {
	t TestingTB
}

// NewConcurrentTestRunner creates a ConcurrentTestRunner.
func NewConcurrentTestRunner(t TestingTB) *ConcurrentTestRunner {
	return &ConcurrentTestRunner{t: t}
}

// RunConcurrent starts every fn behind a shared gate and collects their errors in
// completion order.
func (r *ConcurrentTestRunner) RunConcurrent(funcs ...func() error) []error {
	r.t.Helper()

	gate := make(chan struct{})
	results := make(chan error, len(funcs))
	for _, fn := range funcs {
		go func() {
			<-gate
			results <- fn()
		}()
	}
	close(gate)

	errs := make([]error, 0, len(funcs))
	for range funcs {
		errs = append(errs, <-results)
	}
	return errs
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

// unavailable skips the test, or fails it when the environment demands the dependency.
func unavailable(t TestingTB, required bool, what string, err error) {
	t.Helper()
	if required {
		t.Fatalf("%s not available: %v", what, err)
	}
	t.Skipf("%s not available: %v", what, err)
}
