// Package core implements the bulk-import pipeline: preview parsing,
// mapping inference and editing, review projection, and batch execution
// with per-row outcomes.
//
// This package has no transport dependencies and can be driven by web
// handlers, CLI tools, or tests without modification.
//
// # Pipeline
//
// An import session moves through four states:
//
//	Upload -> Mapping -> Review -> Complete
//
//  1. [ParsePreview] decodes the uploaded file into a bounded
//     [PreviewDataset] with a suggested [Mapping].
//  2. The operator edits the mapping via [Mapping.Set]; the
//     Mapping -> Review transition is gated on [Mapping.IsComplete].
//  3. [Project] renders a paginated, mapped view of the sample rows for
//     confirmation.
//  4. [Executor.Execute] maps and validates every row, delegates valid
//     rows to an [EntityCreator], and aggregates an [ImportResult].
//
// # Failure semantics
//
// Row-level problems (missing required value, coercion failure, duplicate,
// rejected create) produce one outcome per row and never abort the batch.
// Batch-fatal conditions (unreadable file, unknown entity type, incomplete
// mapping at execute time) surface as a [FatalError] before any row is
// attempted.
package core
