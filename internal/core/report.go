package core

import "fmt"

// report.go presents a completed ImportResult to the operator. It exposes
// the result as-is and computes nothing new.

// Summary returns a one-line aggregate, e.g.
// "imported 2 of 3 rows (1 failed)".
func (r *ImportResult) Summary() string {
	s := fmt.Sprintf("imported %d of %d rows", r.Successful, r.Total)
	switch {
	case r.Failed > 0 && r.Skipped > 0:
		return fmt.Sprintf("%s (%d failed, %d skipped)", s, r.Failed, r.Skipped)
	case r.Failed > 0:
		return fmt.Sprintf("%s (%d failed)", s, r.Failed)
	case r.Skipped > 0:
		return fmt.Sprintf("%s (%d skipped)", s, r.Skipped)
	default:
		return s
	}
}

// ErrorLines renders the bounded error list as human-readable
// "row <n>: <message>" entries. Truncation beyond the bound is explicitly
// indicated, never silently dropped.
func (r *ImportResult) ErrorLines() []string {
	if len(r.Errors) == 0 {
		return nil
	}

	lines := make([]string, 0, len(r.Errors)+1)
	for _, e := range r.Errors {
		lines = append(lines, fmt.Sprintf("row %d: %s", e.Row, e.Message))
	}
	if r.Truncated > 0 {
		lines = append(lines, fmt.Sprintf("...and %d more errors", r.Truncated))
	}
	return lines
}
