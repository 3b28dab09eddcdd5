package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/talentpipe/importer/internal/schema"
)

// DefaultErrorLimit caps the detailed error list in an ImportResult; the
// remainder is reported as a count so result payloads stay bounded
// regardless of file size.
const DefaultErrorLimit = 20

// DefaultWorkers bounds executor concurrency when Options.Workers is zero.
const DefaultWorkers = 4

// DefaultRowTimeout bounds each delegate call when Options.RowTimeout is
// zero.
const DefaultRowTimeout = 10 * time.Second

// Executor runs the import: it applies the final mapping to every row,
// validates against the schema, delegates valid rows to the entity
// creator, and aggregates a structured result. A single bad row never
// aborts the batch.
type Executor struct {
	creator    EntityCreator
	errorLimit int
}

// NewExecutor creates an executor. errorLimit <= 0 means
// DefaultErrorLimit.
func NewExecutor(creator EntityCreator, errorLimit int) *Executor {
	if errorLimit <= 0 {
		errorLimit = DefaultErrorLimit
	}
	return &Executor{creator: creator, errorLimit: errorLimit}
}

// Execute imports the full dataset under the final mapping.
//
// Rows are validated serially in file order, then valid rows are created
// through a bounded worker pool. Outcomes are assembled by row ordinal
// (recorded at read time), so counts and error ordering never depend on
// worker scheduling. The only fatal conditions are an unusable mapping and
// caller cancellation; every data problem becomes a per-row outcome.
func (e *Executor) Execute(ctx context.Context, ent schema.Entity, ds *Dataset, m Mapping, opts Options) (*ImportResult, error) {
	start := time.Now()

	if err := m.Validate(ent); err != nil {
		return nil, fatal(err)
	}
	if !m.IsComplete(ent) {
		return nil, fatal(fmt.Errorf("%w (missing: %s)",
			ErrMappingIncomplete, strings.Join(m.MissingRequired(ent), ", ")))
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	rowTimeout := opts.RowTimeout
	if rowTimeout <= 0 {
		rowTimeout = DefaultRowTimeout
	}

	reverse := m.reverse()
	outcomes := make([]RowOutcome, len(ds.Rows))
	records := make([]Record, len(ds.Rows))
	var pending []int

	// Pass 1, serial: map and validate every row, and resolve in-file
	// duplicates deterministically (lowest row number wins) so the skip
	// bucket cannot depend on worker scheduling.
	seenKeys := make(map[string]int)
	for i, row := range ds.Rows {
		if row.Width != len(ds.Headers) {
			outcomes[i] = RowOutcome{
				Row:     row.Number,
				Outcome: OutcomeFailure,
				Message: raggedError(len(ds.Headers), row.Width),
			}
			continue
		}

		rec, rowErr := buildRecord(row, reverse, ent, opts.DefaultValues)
		if rowErr != nil {
			outcomes[i] = RowOutcome{
				Row:     row.Number,
				Outcome: OutcomeFailure,
				Field:   rowErr.Field,
				Message: rowErr.Message,
			}
			continue
		}

		if opts.SkipDuplicates && ent.NaturalKey != "" {
			key := strings.ToLower(rec[ent.NaturalKey])
			if key != "" {
				if first, dup := seenKeys[key]; dup {
					outcomes[i] = RowOutcome{
						Row:     row.Number,
						Outcome: OutcomeSkipped,
						Field:   ent.NaturalKey,
						Message: fmt.Sprintf("duplicate of row %d - skipped", first),
					}
					continue
				}
				seenKeys[key] = row.Number
			}
		}

		records[i] = rec
		pending = append(pending, i)
	}

	// Pass 2: delegate creation with bounded concurrency. Workers write
	// only to their own outcome slot; nothing here returns an error
	// because row-level problems are captured, not thrown.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, i := range pending {
		i := i
		g.Go(func() error {
			outcomes[i] = e.createRow(gctx, ent, ds.Rows[i].Number, records[i], opts, rowTimeout)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fatal(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fatal(err)
	}

	return e.aggregate(outcomes, start), nil
}

// rowError is a per-row validation failure.
type rowError struct {
	Field   string
	Message string
}

// buildRecord applies the mapping and defaults to one row and validates
// the result against the schema. The first problem wins; batch callers
// only need pass/fail per row.
func buildRecord(row Row, reverse map[string]string, ent schema.Entity, defaults map[string]string) (Record, *rowError) {
	rec := make(Record, len(reverse))

	for _, f := range ent.Fields {
		var value string
		if source, mapped := reverse[f.Name]; mapped {
			if cell, ok := row.Cells[source]; ok && cell.Present {
				value = strings.TrimSpace(cell.Value)
			}
		}
		if value == "" {
			if dv, ok := defaults[f.Name]; ok {
				value = dv
			}
		}

		if value == "" {
			if f.Required {
				return nil, &rowError{Field: f.Name, Message: f.Name + " is required"}
			}
			continue
		}

		switch f.Type {
		case schema.FieldNumber:
			if _, ok := ParseNumber(value); !ok {
				return nil, &rowError{Field: f.Name, Message: fmt.Sprintf("%s must be a number, got %q", f.Name, value)}
			}
		case schema.FieldDate:
			if _, ok := ParseDate(value); !ok {
				return nil, &rowError{Field: f.Name, Message: fmt.Sprintf("%s is not a valid date: %q", f.Name, value)}
			}
		case schema.FieldEmail:
			if !ValidEmail(value) {
				return nil, &rowError{Field: f.Name, Message: fmt.Sprintf("%s is not a valid email address: %q", f.Name, value)}
			}
		case schema.FieldPhone:
			if !ValidPhone(value) {
				return nil, &rowError{Field: f.Name, Message: fmt.Sprintf("%s is not a valid phone number: %q", f.Name, value)}
			}
		case schema.FieldSelect:
			canonical, ok := MatchOption(value, f.Options)
			if !ok {
				return nil, &rowError{Field: f.Name, Message: fmt.Sprintf("%s must be one of: %s", f.Name, strings.Join(f.Options, ", "))}
			}
			value = canonical
		}

		rec[f.Name] = value
	}

	return rec, nil
}

// createRow performs the downstream work for one valid row: optional
// duplicate check, then creation, both under the per-row timeout. Timeout
// degrades to a failure outcome rather than stalling the batch.
func (e *Executor) createRow(ctx context.Context, ent schema.Entity, rowNum int, rec Record, opts Options, timeout time.Duration) RowOutcome {
	rowCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if opts.SkipDuplicates && ent.NaturalKey != "" {
		if key := rec[ent.NaturalKey]; key != "" {
			exists, err := e.creator.Exists(rowCtx, ent.Type, key)
			if err != nil {
				return RowOutcome{Row: rowNum, Outcome: OutcomeFailure, Message: delegateMessage("duplicate check", err, timeout)}
			}
			if exists {
				return RowOutcome{
					Row:     rowNum,
					Outcome: OutcomeSkipped,
					Field:   ent.NaturalKey,
					Message: fmt.Sprintf("%s already exists - skipped", ent.NaturalKey),
				}
			}
		}
	}

	if err := e.creator.Create(rowCtx, ent.Type, rec); err != nil {
		return RowOutcome{Row: rowNum, Outcome: OutcomeFailure, Message: delegateMessage("create", err, timeout)}
	}

	return RowOutcome{Row: rowNum, Outcome: OutcomeSuccess}
}

func delegateMessage(op string, err error, timeout time.Duration) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s timed out after %s", op, timeout)
	}
	return fmt.Sprintf("%s failed: %v", op, err)
}

// aggregate folds outcomes (already in row order) into the final result,
// bounding the detailed error list to the first errorLimit failures.
func (e *Executor) aggregate(outcomes []RowOutcome, start time.Time) *ImportResult {
	result := &ImportResult{Total: len(outcomes)}

	for _, o := range outcomes {
		switch o.Outcome {
		case OutcomeSuccess:
			result.Successful++
		case OutcomeSkipped:
			result.Skipped++
		case OutcomeFailure:
			result.Failed++
			if len(result.Errors) < e.errorLimit {
				result.Errors = append(result.Errors, RowError{Row: o.Row, Field: o.Field, Message: o.Message})
			} else {
				result.Truncated++
			}
		}
	}

	result.Duration = time.Since(start)
	return result
}
