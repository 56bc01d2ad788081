package normalize

import "fmt"

// NormalizationError reports a raw record that could not be turned into a fill.
// It never aborts a batch.
type NormalizationError struct {
	Ref    string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: %s", e.Ref, e.Reason)
}

// SkipError reports a record that is valid but intentionally produces no fill
// (cancelled, rejected or unfilled orders).
type SkipError struct {
	Ref    string
	Reason string
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("skip %s: %s", e.Ref, e.Reason)
}

func fail(ref, format string, args ...any) error {
	return &NormalizationError{Ref: ref, Reason: fmt.Sprintf(format, args...)}
}

func skip(ref, format string, args ...any) error {
	return &SkipError{Ref: ref, Reason: fmt.Sprintf(format, args...)}
}
