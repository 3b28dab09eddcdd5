package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talentpipe/importer/internal/config"
	"github.com/talentpipe/importer/internal/schema"
)

// Service is the entry point for all import operations. It owns the live
// sessions and wires the pipeline to the persistence collaborator.
type Service struct {
	store    Store
	exec     *Executor
	sessions *sessionManager
	cfg      *config.Config
}

// NewService creates a service backed by the given store.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{
		store:    store,
		exec:     NewExecutor(store, cfg.Import.ErrorLimit),
		sessions: newSessionManager(cfg.Import.SessionTTL),
		cfg:      cfg,
	}
}

// SweepSessions expires idle sessions until ctx is cancelled.
func (s *Service) SweepSessions(ctx context.Context) {
	s.sessions.Sweep(ctx, time.Minute)
}

// Fields returns the importable fields for an entity type.
func (s *Service) Fields(entityType string) ([]schema.Field, error) {
	ent, err := s.entityFor(entityType)
	if err != nil {
		return nil, err
	}
	return ent.Fields, nil
}

// Template returns the downloadable header-only import template.
func (s *Service) Template(entityType string) (string, []byte, error) {
	ent, err := s.entityFor(entityType)
	if err != nil {
		return "", nil, err
	}
	name, content := Template(ent)
	return name, content, nil
}

// CreateSession starts an import session from uploaded file bytes. On a
// successful header parse the session moves Upload -> Mapping with the
// inferred mapping pre-applied.
func (s *Service) CreateSession(ctx context.Context, entityType, fileName string, data []byte) (SessionView, error) {
	ent, err := s.entityFor(entityType)
	if err != nil {
		return SessionView{}, err
	}

	if max := s.cfg.Import.MaxFileSize; max > 0 && int64(len(data)) > max {
		return SessionView{}, fatalf("file exceeds %d byte limit", max)
	}

	preview, err := ParsePreview(data, ent, s.cfg.Import.SampleRows)
	if err != nil {
		return SessionView{}, err
	}

	sess := s.sessions.create(ent.Type, fileName)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.raw = data
	sess.preview = preview
	sess.mapping = preview.Suggested
	if err := sess.transitionLocked(StateMapping); err != nil {
		return SessionView{}, err
	}

	slog.InfoContext(ctx, "import session created",
		"session_id", sess.ID,
		"entity", ent.Type,
		"file", fileName,
		"total_rows", preview.TotalRows,
		"suggested", len(preview.Suggested),
	)

	return sess.viewLocked(ent), nil
}

// Session returns the current snapshot of a session.
func (s *Service) Session(id string) (SessionView, error) {
	sess, ent, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.viewLocked(ent), nil
}

// SetMapping upserts one source-column association; an empty targetField
// removes it. Allowed while mapping, and from review (which steps the
// session back to mapping). Completeness is re-evaluated in the returned
// view after every mutation.
func (s *Service) SetMapping(id, sourceColumn, targetField string) (SessionView, error) {
	sess, ent, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	s.sessions.touch(sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state == StateReview {
		if err := sess.transitionLocked(StateMapping); err != nil {
			return SessionView{}, err
		}
	}
	if sess.state != StateMapping {
		return SessionView{}, fmt.Errorf("%w: cannot edit mapping in state %q", ErrInvalidState, sess.state)
	}

	if targetField != "" {
		if _, ok := ent.FieldByName(targetField); !ok {
			return SessionView{}, fmt.Errorf("unknown field %q for entity %s", targetField, ent.Type)
		}
	}

	sess.mapping = sess.mapping.Set(sourceColumn, targetField)
	return sess.viewLocked(ent), nil
}

// Review moves the session to review (gated on a complete, valid mapping)
// and returns one page of the mapped projection.
func (s *Service) Review(id string, page, pageSize int) ([]ProjectedRow, error) {
	sess, ent, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	s.sessions.touch(sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state == StateMapping {
		if err := sess.mapping.Validate(ent); err != nil {
			return nil, err
		}
		if !sess.mapping.IsComplete(ent) {
			return nil, fmt.Errorf("%w (missing: %v)", ErrMappingIncomplete, sess.mapping.MissingRequired(ent))
		}
		if err := sess.transitionLocked(StateReview); err != nil {
			return nil, err
		}
	}
	if sess.state != StateReview {
		return nil, fmt.Errorf("%w: cannot review in state %q", ErrInvalidState, sess.state)
	}

	return Project(sess.preview, sess.mapping, ent, page, pageSize), nil
}

// Execute runs the import for a reviewed session. Success and partial
// failure both land in Complete, distinguished only by the result's
// failure count. The completed run is recorded in import history.
func (s *Service) Execute(ctx context.Context, id string, opts Options) (*ImportResult, error) {
	sess, ent, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	s.sessions.touch(sess)

	sess.mu.Lock()
	if sess.state != StateReview {
		state := sess.state
		sess.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot execute in state %q", ErrInvalidState, state)
	}
	raw := sess.raw
	mapping := sess.mapping
	sess.mu.Unlock()

	if opts.Workers <= 0 {
		opts.Workers = s.cfg.Import.Workers
	}
	if opts.RowTimeout <= 0 {
		opts.RowTimeout = s.cfg.Import.RowTimeout
	}

	ds, err := ReadDataset(raw)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	result, err := s.exec.Execute(ctx, ent, ds, mapping, opts)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.result = result
	transErr := sess.transitionLocked(StateComplete)
	sess.mu.Unlock()
	if transErr != nil {
		// Another writer raced the completion; sessions are single-writer
		// so this indicates a caller bug.
		return nil, transErr
	}

	run := ImportRun{
		ID:         uuid.NewString(),
		Entity:     ent.Type,
		FileName:   sess.FileName,
		Total:      result.Total,
		Successful: result.Successful,
		Failed:     result.Failed,
		Skipped:    result.Skipped,
		StartedAt:  started,
		Duration:   result.Duration,
	}
	if err := s.store.RecordRun(ctx, run); err != nil {
		slog.WarnContext(ctx, "failed to record import run", "session_id", id, "error", err)
	}

	slog.InfoContext(ctx, "import completed",
		"session_id", id,
		"entity", ent.Type,
		"summary", result.Summary(),
		"duration", result.Duration,
	)

	return result, nil
}

// Result returns the import result of a completed session.
func (s *Service) Result(id string) (*ImportResult, error) {
	sess, _, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.result == nil {
		return nil, fmt.Errorf("%w: session %s has no result yet", ErrInvalidState, id)
	}
	return sess.result, nil
}

// Reset discards all in-flight session data and returns to Upload. Legal
// from any state; this is the only supported cancel.
func (s *Service) Reset(id string) (SessionView, error) {
	sess, ent, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.resetLocked()
	return sess.viewLocked(ent), nil
}

// Export renders the stored entities of a type as a CSV download.
func (s *Service) Export(ctx context.Context, entityType string, limit int) (string, []byte, error) {
	ent, err := s.entityFor(entityType)
	if err != nil {
		return "", nil, err
	}

	records, err := s.store.List(ctx, ent.Type, limit)
	if err != nil {
		return "", nil, fmt.Errorf("list %s: %w", ent.Type, err)
	}

	name, content := ExportCSV(ent, records)
	return name, content, nil
}

// History lists recent completed import runs for an entity type.
func (s *Service) History(ctx context.Context, entityType string, limit int) ([]ImportRun, error) {
	ent, err := s.entityFor(entityType)
	if err != nil {
		return nil, err
	}
	return s.store.ListRuns(ctx, ent.Type, limit)
}

func (s *Service) entityFor(entityType string) (schema.Entity, error) {
	ent, ok := schema.Get(schema.EntityType(entityType))
	if !ok {
		return schema.Entity{}, fatal(fmt.Errorf("%w: %s", ErrUnknownEntity, entityType))
	}
	return ent, nil
}

func (s *Service) lookup(id string) (*Session, schema.Entity, error) {
	sess, ok := s.sessions.get(id)
	if !ok {
		return nil, schema.Entity{}, ErrSessionNotFound
	}
	ent, ok := schema.Get(sess.Entity)
	if !ok {
		return nil, schema.Entity{}, fatal(fmt.Errorf("%w: %s", ErrUnknownEntity, sess.Entity))
	}
	return sess, ent, nil
}
