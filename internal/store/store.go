// Package store persists imported entities and import-run history in
// PostgreSQL via pgx.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/talentpipe/importer/internal/core"
	"github.com/talentpipe/importer/internal/schema"
)

// Store implements core.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store backed by the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Exists reports whether an entity with the given natural key value is
// already stored. Key comparison is case-insensitive.
func (s *Store) Exists(ctx context.Context, entity schema.EntityType, key string) (bool, error) {
	var query string
	switch entity {
	case schema.EntityCandidate:
		query = "SELECT EXISTS(SELECT 1 FROM candidates WHERE lower(email) = lower($1))"
	case schema.EntityJob:
		query = "SELECT EXISTS(SELECT 1 FROM jobs WHERE lower(title) = lower($1))"
	default:
		return false, fmt.Errorf("unknown entity type: %s", entity)
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, query, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("existence check for %s: %w", entity, err)
	}
	return exists, nil
}

// Create persists one validated record.
func (s *Store) Create(ctx context.Context, entity schema.EntityType, rec core.Record) error {
	switch entity {
	case schema.EntityCandidate:
		return s.createCandidate(ctx, rec)
	case schema.EntityJob:
		return s.createJob(ctx, rec)
	default:
		return fmt.Errorf("unknown entity type: %s", entity)
	}
}

func (s *Store) createCandidate(ctx context.Context, rec core.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO candidates (
			id, first_name, last_name, email, phone, linkedin_url,
			current_title, current_company, location, skills, experience,
			source, notes, tags, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		uuid.New(),
		rec["firstName"],
		rec["lastName"],
		rec["email"],
		textOrNull(rec["phone"]),
		textOrNull(rec["linkedinUrl"]),
		textOrNull(rec["currentTitle"]),
		textOrNull(rec["currentCompany"]),
		textOrNull(rec["location"]),
		textOrNull(rec["skills"]),
		numericOrNull(rec["experience"]),
		textOrNull(rec["source"]),
		textOrNull(rec["notes"]),
		textOrNull(rec["tags"]),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

func (s *Store) createJob(ctx context.Context, rec core.Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (
			id, title, department, location, employment_type, work_location,
			salary_min, salary_max, salary_currency, description,
			requirements, skills, openings, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		uuid.New(),
		rec["title"],
		textOrNull(rec["department"]),
		textOrNull(rec["location"]),
		textOrNull(rec["employmentType"]),
		textOrNull(rec["workLocation"]),
		numericOrNull(rec["salaryMin"]),
		numericOrNull(rec["salaryMax"]),
		textOrNull(rec["salaryCurrency"]),
		textOrNull(rec["description"]),
		textOrNull(rec["requirements"]),
		textOrNull(rec["skills"]),
		numericOrNull(rec["openings"]),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// List reads back stored entities as field-name keyed records, newest
// first, for CSV export. Numeric columns are cast to text in SQL so the
// export renders them exactly as stored.
func (s *Store) List(ctx context.Context, entity schema.EntityType, limit int) ([]core.Record, error) {
	if limit <= 0 {
		limit = 1000
	}

	var query string
	var fields []string
	switch entity {
	case schema.EntityCandidate:
		query = `
			SELECT first_name, last_name, email, phone, linkedin_url,
			       current_title, current_company, location, skills,
			       experience::text, source, notes, tags
			FROM candidates ORDER BY created_at DESC LIMIT $1`
		fields = []string{
			"firstName", "lastName", "email", "phone", "linkedinUrl",
			"currentTitle", "currentCompany", "location", "skills",
			"experience", "source", "notes", "tags",
		}
	case schema.EntityJob:
		query = `
			SELECT title, department, location, employment_type, work_location,
			       salary_min::text, salary_max::text, salary_currency,
			       description, requirements, skills, openings::text
			FROM jobs ORDER BY created_at DESC LIMIT $1`
		fields = []string{
			"title", "department", "location", "employmentType", "workLocation",
			"salaryMin", "salaryMax", "salaryCurrency",
			"description", "requirements", "skills", "openings",
		}
	default:
		return nil, fmt.Errorf("unknown entity type: %s", entity)
	}

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", entity, err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		cols := make([]pgtype.Text, len(fields))
		dest := make([]any, len(fields))
		for i := range cols {
			dest[i] = &cols[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", entity, err)
		}

		rec := make(core.Record, len(fields))
		for i, f := range fields {
			if cols[i].Valid {
				rec[f] = cols[i].String
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", entity, err)
	}

	return records, nil
}

// RecordRun persists the summary of a completed import run.
func (s *Store) RecordRun(ctx context.Context, run core.ImportRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_runs (
			id, entity_type, file_name, total_rows, successful_rows,
			failed_rows, skipped_rows, started_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID,
		string(run.Entity),
		run.FileName,
		run.Total,
		run.Successful,
		run.Failed,
		run.Skipped,
		run.StartedAt.UTC(),
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

// ListRuns returns recent import runs for an entity type, newest first.
func (s *Store) ListRuns(ctx context.Context, entity schema.EntityType, limit int) ([]core.ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, entity_type, file_name, total_rows, successful_rows,
		       failed_rows, skipped_rows, started_at, duration_ms
		FROM import_runs
		WHERE entity_type = $1
		ORDER BY started_at DESC
		LIMIT $2`,
		string(entity), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	var runs []core.ImportRun
	for rows.Next() {
		var run core.ImportRun
		var entityType string
		var durationMs int64
		if err := rows.Scan(
			&run.ID, &entityType, &run.FileName,
			&run.Total, &run.Successful, &run.Failed, &run.Skipped,
			&run.StartedAt, &durationMs,
		); err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		run.Entity = schema.EntityType(entityType)
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}

	return runs, nil
}
