package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/talentpipe/importer/internal/schema"
)

// fakeCreator is an in-memory EntityCreator for executor tests.
type fakeCreator struct {
	mu       sync.Mutex
	existing map[string]bool // lowercased natural keys already "stored"
	created  []Record
	failOn   func(rec Record) error
	delay    time.Duration
}

func newFakeCreator() *fakeCreator {
	return &fakeCreator{existing: make(map[string]bool)}
}

func (f *fakeCreator) Exists(ctx context.Context, entity schema.EntityType, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[strings.ToLower(key)], nil
}

func (f *fakeCreator) Create(ctx context.Context, entity schema.EntityType, rec Record) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.failOn != nil {
		if err := f.failOn(rec); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, rec)
	return nil
}

func candidateMapping() Mapping {
	return NewMapping().
		Set("First Name", "firstName").
		Set("Last Name", "lastName").
		Set("Email", "email")
}

func candidateDataset(t *testing.T, csv string) *Dataset {
	t.Helper()
	ds, err := ReadDataset([]byte(csv))
	if err != nil {
		t.Fatalf("ReadDataset() error = %v", err)
	}
	return ds
}

func TestExecute_IncompleteMappingRejected(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email\nAda,Lovelace,ada@example.com\n")

	m := NewMapping().Set("First Name", "firstName").Set("Last Name", "lastName")

	exec := NewExecutor(newFakeCreator(), 0)
	_, err := exec.Execute(context.Background(), ent, ds, m, Options{})
	if err == nil {
		t.Fatal("Execute() expected precondition failure")
	}
	if !IsFatal(err) {
		t.Errorf("error should be fatal: %v", err)
	}
	if !errors.Is(err, ErrMappingIncomplete) {
		t.Errorf("error = %v, want ErrMappingIncomplete", err)
	}
	if !strings.Contains(err.Error(), "email") {
		t.Errorf("error should name the missing field: %v", err)
	}
}

func TestExecute_InvalidMappingRejected(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "A,B\nx,y\n")

	m := candidateMapping().Set("Other", "email")
	exec := NewExecutor(newFakeCreator(), 0)
	_, err := exec.Execute(context.Background(), ent, ds, m, Options{})
	if err == nil || !IsFatal(err) {
		t.Fatalf("Execute() error = %v, want fatal duplicate-target error", err)
	}
}

func TestExecute_RequiredFieldEmpty(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email\n"+
		"Ada,Lovelace,ada@example.com\n"+
		"Grace,Hopper,\n"+
		"Edsger,Dijkstra,edsger@example.com\n")

	creator := newFakeCreator()
	exec := NewExecutor(creator, 0)
	result, err := exec.Execute(context.Background(), ent, ds, candidateMapping(), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Total != 3 || result.Successful != 2 || result.Failed != 1 {
		t.Errorf("result = %d/%d/%d (total/ok/failed), want 3/2/1",
			result.Total, result.Successful, result.Failed)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(result.Errors))
	}
	e := result.Errors[0]
	if e.Row != 2 || e.Message != "email is required" {
		t.Errorf("error = row %d %q, want row 2 %q", e.Row, e.Message, "email is required")
	}
	if len(creator.created) != 2 {
		t.Errorf("created = %d records, want 2", len(creator.created))
	}
}

func TestExecute_InFileDuplicateSkipped(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email\n"+
		"Ada,Lovelace,ada@example.com\n"+
		"Grace,Hopper,grace@example.com\n"+
		"Ada,Again,ADA@example.com\n")

	creator := newFakeCreator()
	exec := NewExecutor(creator, 0)
	result, err := exec.Execute(context.Background(), ent, ds, candidateMapping(), Options{SkipDuplicates: true})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Total != 3 || result.Successful != 2 || result.Skipped != 1 || result.Failed != 0 {
		t.Errorf("result = total %d ok %d skipped %d failed %d, want 3/2/1/0",
			result.Total, result.Successful, result.Skipped, result.Failed)
	}
}

func TestExecute_DuplicateSkipIsDeterministic(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email\n"+
		"Ada,Lovelace,ada@example.com\n"+
		"Ada,Copy,ada@example.com\n")

	// Lowest row number wins regardless of worker scheduling
	for i := 0; i < 20; i++ {
		creator := newFakeCreator()
		exec := NewExecutor(creator, 0)
		result, err := exec.Execute(context.Background(), ent, ds, candidateMapping(),
			Options{SkipDuplicates: true, Workers: 8})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if result.Successful != 1 || result.Skipped != 1 {
			t.Fatalf("run %d: ok %d skipped %d, want 1/1", i, result.Successful, result.Skipped)
		}
		if creator.created[0]["lastName"] != "Lovelace" {
			t.Fatalf("run %d: kept row %v, want row 1", i, creator.created[0])
		}
	}
}

func TestExecute_DownstreamDuplicateSkipped(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email\nAda,Lovelace,ada@example.com\n")

	creator := newFakeCreator()
	creator.existing["ada@example.com"] = true

	exec := NewExecutor(creator, 0)
	result, err := exec.Execute(context.Background(), ent, ds, candidateMapping(), Options{SkipDuplicates: true})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Skipped != 1 || result.Successful != 0 {
		t.Errorf("result = ok %d skipped %d, want 0/1", result.Successful, result.Skipped)
	}
}

func TestExecute_DuplicatesImportedWhenSkipDisabled(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email\n"+
		"Ada,Lovelace,ada@example.com\n"+
		"Ada,Copy,ada@example.com\n")

	creator := newFakeCreator()
	exec := NewExecutor(creator, 0)
	result, err := exec.Execute(context.Background(), ent, ds, candidateMapping(), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Successful != 2 || result.Skipped != 0 {
		t.Errorf("result = ok %d skipped %d, want 2/0", result.Successful, result.Skipped)
	}
}

func TestExecute_CreatorErrorIsRowFailure(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email\n"+
		"Ada,Lovelace,ada@example.com\n"+
		"Grace,Hopper,grace@example.com\n")

	creator := newFakeCreator()
	creator.failOn = func(rec Record) error {
		if rec["email"] == "grace@example.com" {
			return errors.New("connection reset")
		}
		return nil
	}

	exec := NewExecutor(creator, 0)
	result, err := exec.Execute(context.Background(), ent, ds, candidateMapping(), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v (row failures must not abort the batch)", err)
	}

	if result.Successful != 1 || result.Failed != 1 {
		t.Errorf("result = ok %d failed %d, want 1/1", result.Successful, result.Failed)
	}
	if !strings.Contains(result.Errors[0].Message, "connection reset") {
		t.Errorf("error message = %q, want cause included", result.Errors[0].Message)
	}
}

func TestExecute_RaggedRowFails(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email\n"+
		"Ada,Lovelace,ada@example.com\n"+
		"Grace,Hopper\n")

	exec := NewExecutor(newFakeCreator(), 0)
	result, err := exec.Execute(context.Background(), ent, ds, candidateMapping(), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Failed != 1 {
		t.Fatalf("failed = %d, want 1", result.Failed)
	}
	if want := "expected 3 columns, got 2"; result.Errors[0].Message != want {
		t.Errorf("error = %q, want %q", result.Errors[0].Message, want)
	}
}

func TestExecute_TypeValidation(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email,Years\n"+
		"Ada,Lovelace,ada@example.com,ten\n")

	m := candidateMapping().Set("Years", "experience")
	exec := NewExecutor(newFakeCreator(), 0)
	result, err := exec.Execute(context.Background(), ent, ds, m, Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Failed != 1 {
		t.Fatalf("failed = %d, want 1", result.Failed)
	}
	e := result.Errors[0]
	if e.Field != "experience" || !strings.Contains(e.Message, "must be a number") {
		t.Errorf("error = field %q message %q", e.Field, e.Message)
	}
}

func TestExecute_SelectCanonicalized(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email,Source\n"+
		"Ada,Lovelace,ada@example.com,linkedin\n")

	m := candidateMapping().Set("Source", "source")
	creator := newFakeCreator()
	exec := NewExecutor(creator, 0)
	result, err := exec.Execute(context.Background(), ent, ds, m, Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Successful != 1 {
		t.Fatalf("successful = %d, want 1", result.Successful)
	}
	if got := creator.created[0]["source"]; got != "LinkedIn" {
		t.Errorf("stored source = %q, want canonical LinkedIn", got)
	}
}

func TestExecute_DefaultValues(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email\nAda,Lovelace,ada@example.com\n")

	creator := newFakeCreator()
	exec := NewExecutor(creator, 0)
	_, err := exec.Execute(context.Background(), ent, ds, candidateMapping(), Options{
		DefaultValues: map[string]string{"source": "Referral"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := creator.created[0]["source"]; got != "Referral" {
		t.Errorf("defaulted source = %q, want Referral", got)
	}
}

func TestExecute_DefaultDoesNotOverrideRowValue(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email,Source\n"+
		"Ada,Lovelace,ada@example.com,Indeed\n")

	m := candidateMapping().Set("Source", "source")
	creator := newFakeCreator()
	exec := NewExecutor(creator, 0)
	if _, err := exec.Execute(context.Background(), ent, ds, m, Options{
		DefaultValues: map[string]string{"source": "Referral"},
	}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := creator.created[0]["source"]; got != "Indeed" {
		t.Errorf("source = %q, want row value Indeed", got)
	}
}

func TestExecute_ErrorListBounded(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)

	var b strings.Builder
	b.WriteString("First Name,Last Name,Email\n")
	for i := 0; i < 10; i++ {
		b.WriteString("Ada,Lovelace,\n") // every row fails on required email
	}
	ds := candidateDataset(t, b.String())

	exec := NewExecutor(newFakeCreator(), 3)
	result, err := exec.Execute(context.Background(), ent, ds, candidateMapping(), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Failed != 10 {
		t.Errorf("failed = %d, want 10", result.Failed)
	}
	if len(result.Errors) != 3 {
		t.Errorf("errors = %d, want 3 (bounded)", len(result.Errors))
	}
	if result.Truncated != 7 {
		t.Errorf("truncated = %d, want 7", result.Truncated)
	}
	// Bounded list keeps the earliest rows
	for i, e := range result.Errors {
		if e.Row != i+1 {
			t.Errorf("errors[%d].Row = %d, want %d", i, e.Row, i+1)
		}
	}
}

func TestExecute_CountsReconcile(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email\n"+
		"Ada,Lovelace,ada@example.com\n"+
		"Grace,Hopper,\n"+
		"Ada,Copy,ada@example.com\n"+
		"Edsger,Dijkstra,edsger@example.com\n")

	exec := NewExecutor(newFakeCreator(), 0)
	result, err := exec.Execute(context.Background(), ent, ds, candidateMapping(),
		Options{SkipDuplicates: true, Workers: 3})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if sum := result.Successful + result.Failed + result.Skipped; sum != result.Total {
		t.Errorf("counts do not reconcile: %d + %d + %d != %d",
			result.Successful, result.Failed, result.Skipped, result.Total)
	}
	if result.Total != 4 {
		t.Errorf("total = %d, want 4", result.Total)
	}
}

func TestExecute_RowTimeoutDegradesToFailure(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email\nAda,Lovelace,ada@example.com\n")

	creator := newFakeCreator()
	creator.delay = 50 * time.Millisecond

	exec := NewExecutor(creator, 0)
	result, err := exec.Execute(context.Background(), ent, ds, candidateMapping(),
		Options{RowTimeout: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("Execute() error = %v (timeout must not abort the batch)", err)
	}

	if result.Failed != 1 {
		t.Fatalf("failed = %d, want 1", result.Failed)
	}
	if !strings.Contains(result.Errors[0].Message, "timed out") {
		t.Errorf("error = %q, want timeout message", result.Errors[0].Message)
	}
}

func TestExecute_CallerCancellationIsFatal(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)

	var b strings.Builder
	b.WriteString("First Name,Last Name,Email\n")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "Ada,Lovelace,ada%d@example.com\n", i)
	}
	ds := candidateDataset(t, b.String())

	creator := newFakeCreator()
	creator.delay = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(15 * time.Millisecond)
		cancel()
	}()

	exec := NewExecutor(creator, 0)
	_, err := exec.Execute(ctx, ent, ds, candidateMapping(), Options{Workers: 2})
	if err == nil {
		t.Fatal("Execute() expected error after caller cancellation")
	}
	if !IsFatal(err) {
		t.Errorf("cancellation should surface as fatal: %v", err)
	}
}

func TestExecute_OutcomesInRowOrder(t *testing.T) {
	ent, _ := schema.Get(schema.EntityCandidate)
	ds := candidateDataset(t, "First Name,Last Name,Email\n"+
		"A,A,\n"+
		"B,B,b@example.com\n"+
		"C,C,\n"+
		"D,D,\n")

	exec := NewExecutor(newFakeCreator(), 0)
	result, err := exec.Execute(context.Background(), ent, ds, candidateMapping(), Options{Workers: 4})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	wantRows := []int{1, 3, 4}
	if len(result.Errors) != len(wantRows) {
		t.Fatalf("errors = %d, want %d", len(result.Errors), len(wantRows))
	}
	for i, want := range wantRows {
		if result.Errors[i].Row != want {
			t.Errorf("errors[%d].Row = %d, want %d", i, result.Errors[i].Row, want)
		}
	}
}
