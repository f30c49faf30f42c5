package supervisor

// Provenance tags where a decision value came from.
type Provenance string

const (
	// ProvenanceBaseline means the rule-based suggestion was kept.
	ProvenanceBaseline Provenance = "baseline"
	// ProvenanceEnhanced means the language model refined the suggestion.
	ProvenanceEnhanced Provenance = "enhanced"
)

// Decision carries a decision value together with its provenance, making
// the "attempt enhancement, else keep baseline" fallback visible in the type
// instead of buried in error handling.
type Decision[T any] struct {
	Value      T
	Provenance Provenance
	// Err holds the refinement error when the baseline was kept because the
	// enhancement attempt failed. Nil for pure baseline decisions too.
	Err error
}

// Baseline wraps a rule-based value that was never offered for refinement.
func Baseline[T any](v T) Decision[T] {
	return Decision[T]{Value: v, Provenance: ProvenanceBaseline}
}

// Attempt runs refine and returns an enhanced decision on success, or the
// baseline with the refinement error recorded on failure. refine errors are
// always recoverable: the caller proceeds with the baseline.
func Attempt[T any](baseline T, refine func() (T, error)) Decision[T] {
	v, err := refine()
	if err != nil {
		return Decision[T]{Value: baseline, Provenance: ProvenanceBaseline, Err: err}
	}
	return Decision[T]{Value: v, Provenance: ProvenanceEnhanced}
}

// IsEnhanced reports whether the language model produced the value.
func (d Decision[T]) IsEnhanced() bool { return d.Provenance == ProvenanceEnhanced }

// Tool names the decision source for the audit trail.
func (d Decision[T]) Tool() string {
	if d.IsEnhanced() {
		return "llm"
	}
	return "rules"
}
