package analyzer

import "fmt"

// AnalysisError reports an unexpected failure while traversing a snapshot.
// Missing markup never produces one; it produces an empty snapshot.
type AnalysisError struct {
	Op  string
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("could not analyze form: %s: %v", e.Op, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }
