// Package errs defines the pipeline-wide error taxonomy described in the
// design: component boundaries convert infrastructure failures into one of
// these categories, and only the fatal ones propagate to the supervisor.
package errs

import "fmt"

// Category classifies an error for supervisor-level handling.
type Category string

const (
	// CategoryConfig is fatal at startup.
	CategoryConfig Category = "config"
	// CategoryRPC is transient; callers retry within bounds.
	CategoryRPC Category = "rpc"
	// CategoryDecode is per-candidate, never retried.
	CategoryDecode Category = "decode"
	// CategoryEvaluation is per-candidate; only pool-isolable causes count
	// against a pool's failure budget.
	CategoryEvaluation Category = "evaluation"
	// CategoryRelay is per-relay, retried with backoff.
	CategoryRelay Category = "relay"
	// CategorySafety is fatal (e.g. live execution with no signing key
	// configured).
	CategorySafety Category = "safety"
	// CategoryInvariant is fatal and indicates a bug.
	CategoryInvariant Category = "invariant"
)

// Fatal reports whether errors of this category must abort the process.
func (c Category) Fatal() bool {
	return c == CategorySafety || c == CategoryInvariant
}

// Error wraps an underlying cause with a category and a short, stable
// machine reason code (e.g. "raw_tx_unavailable", "pool_not_monitored").
type Error struct {
	Category Category
	Reason   string
	// PoolIsolable marks an EvaluationError whose cause should count
	// against the originating pool's consecutive-failure budget.
	PoolIsolable bool
	Err          error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Category, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Category, e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a tagged error holding cause, which Unwrap returns so callers
// can still errors.Is/As against the original error.
func New(category Category, reason string, cause error) *Error {
	return &Error{Category: category, Reason: reason, Err: cause}
}

// Isolable builds a pool-isolable EvaluationError.
func Isolable(reason string, cause error) *Error {
	return &Error{Category: CategoryEvaluation, Reason: reason, PoolIsolable: true, Err: cause}
}

// Config is a convenience constructor for a fatal startup error.
func Config(reason string, cause error) *Error { return New(CategoryConfig, reason, cause) }

// RPC is a convenience constructor for a transient RPC error.
func RPC(reason string, cause error) *Error { return New(CategoryRPC, reason, cause) }

// Decode is a convenience constructor for a per-candidate decode error.
func Decode(reason string, cause error) *Error { return New(CategoryDecode, reason, cause) }

// Relay is a convenience constructor for a per-relay submission error.
func Relay(reason string, cause error) *Error { return New(CategoryRelay, reason, cause) }

// Safety is a convenience constructor for a fatal safety violation.
func Safety(reason string, cause error) *Error { return New(CategorySafety, reason, cause) }

// Invariant is a convenience constructor for a fatal invariant violation.
func Invariant(reason string, cause error) *Error { return New(CategoryInvariant, reason, cause) }
