package core

import (
	"context"
	"time"

	"github.com/talentpipe/importer/internal/schema"
)

// Cell is a raw cell value with explicit presence. A present-but-empty
// cell ("field intentionally blank") is distinct from an absent one
// (column missing from a ragged row).
type Cell struct {
	Value   string `json:"value"`
	Present bool   `json:"present"`
}

// Row is a single source record, addressed by its 1-based ordinal position
// among the file's non-empty data rows. The ordinal is assigned at read
// time so outcome ordering never depends on execution scheduling.
type Row struct {
	Number int             `json:"number"`
	Cells  map[string]Cell `json:"cells"` // keyed by source column header
	Width  int             `json:"-"`     // raw field count, for ragged-row detection
}

// Dataset is the fully materialized row set consumed by the executor.
type Dataset struct {
	Headers []string
	Rows    []Row
}

// PreviewDataset is the bounded view of an uploaded file produced once per
// import session. Immutable after creation.
type PreviewDataset struct {
	Headers    []string `json:"headers"`
	SampleRows []Row    `json:"sampleRows"`
	TotalRows  int      `json:"totalRows"`
	Suggested  Mapping  `json:"suggestedMapping"`
}

// Outcome classifies the result of importing a single row.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

// RowOutcome is the per-row result of import execution.
type RowOutcome struct {
	Row     int     `json:"row"`
	Outcome Outcome `json:"outcome"`
	Field   string  `json:"field,omitempty"` // empty for row-wide or downstream errors
	Message string  `json:"message,omitempty"`
}

// RowError is a single entry in the bounded error list of an ImportResult.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ImportResult is the aggregate outcome of one executor run. Created once
// at the end of the run, read-only thereafter.
// Invariant: Total == Successful + Failed + Skipped.
type ImportResult struct {
	Total      int           `json:"total"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Errors     []RowError    `json:"errors"`    // first N failures in row order
	Truncated  int           `json:"truncated"` // failures beyond the Errors bound
	Duration   time.Duration `json:"-"`
}

// Options control a single executor run.
type Options struct {
	// SkipDuplicates records a "skipped" outcome for rows whose natural key
	// already exists downstream or earlier in the same file.
	SkipDuplicates bool `json:"skipDuplicates"`

	// DefaultValues supplies values for fields the file does not carry,
	// e.g. a default source for imported candidates. Applied before
	// validation, only where the row has no value of its own.
	DefaultValues map[string]string `json:"defaultValues,omitempty"`

	// Workers bounds executor concurrency. Zero means DefaultWorkers.
	Workers int `json:"-"`

	// RowTimeout bounds each delegate call to the entity creator. A timed
	// out row degrades to a failure outcome; it never stalls the batch.
	// Zero means DefaultRowTimeout.
	RowTimeout time.Duration `json:"-"`
}

// Record is a candidate entity record built by applying the final mapping
// to one row: target field name to trimmed value.
type Record map[string]string

// EntityCreator is the external persistence collaborator, called once per
// valid row.
type EntityCreator interface {
	// Exists reports whether an entity with the given natural key value
	// already exists downstream.
	Exists(ctx context.Context, entity schema.EntityType, key string) (bool, error)

	// Create persists one record. A returned error is captured as a
	// row-level failure, never propagated past the executor.
	Create(ctx context.Context, entity schema.EntityType, rec Record) error
}

// ImportRun is the persisted summary of one completed executor run.
type ImportRun struct {
	ID         string            `json:"id"`
	Entity     schema.EntityType `json:"entityType"`
	FileName   string            `json:"fileName"`
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	StartedAt  time.Time         `json:"startedAt"`
	Duration   time.Duration     `json:"durationMs"`
}

// RunRecorder persists and lists completed import runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run ImportRun) error
	ListRuns(ctx context.Context, entity schema.EntityType, limit int) ([]ImportRun, error)
}

// EntityLister reads back stored entities for CSV export.
type EntityLister interface {
	List(ctx context.Context, entity schema.EntityType, limit int) ([]Record, error)
}

// Store is the full persistence surface the service needs.
type Store interface {
	EntityCreator
	RunRecorder
	EntityLister
}
