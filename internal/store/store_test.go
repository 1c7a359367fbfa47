package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pavelanni/mcqgrader/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(reg, course string, score, total int) model.GradedRecord {
	return model.GradedRecord{
		RegNumber:  reg,
		CourseCode: course,
		Score:      score,
		Total:      total,
		Timestamp:  time.Date(2025, 2, 10, 14, 30, 0, 0, time.UTC),
		Breakdown: []model.QuestionResult{
			{Question: 1, Marked: "A", Correct: "A", Outcome: model.OutcomeCorrect},
		},
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "grader.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.SaveTemplate("cs101", model.AnswerKey{"A", "B"}); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}
	if err := s.AppendResult(testRecord("S1", "CS101", 1, 2)); err != nil {
		t.Fatalf("AppendResult: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { s2.Close() })

	templates, err := s2.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("expected 1 template after reopen, got %d", len(templates))
	}
	records, err := s2.ListResults()
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(records) != 1 || records[0].RegNumber != "S1" {
		t.Errorf("expected 1 record for S1 after reopen, got %+v", records)
	}
}

func TestReset(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveTemplate("CS101", model.AnswerKey{"A"}); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}
	if err := s.AppendResult(testRecord("S1", "CS101", 1, 1)); err != nil {
		t.Fatalf("AppendResult: %v", err)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	templates, err := s.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(templates) != 0 {
		t.Errorf("expected no templates after reset, got %d", len(templates))
	}
	records, err := s.ListResults()
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no results after reset, got %d", len(records))
	}

	// Reset on an already empty store is a no-op.
	if err := s.Reset(); err != nil {
		t.Errorf("second Reset: %v", err)
	}
}

func TestCorruptValueSurfacesError(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)`, templatesKey, "{not json",
	); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}

	if _, err := s.ListTemplates(); err == nil {
		t.Error("expected decode error for corrupt templates value")
	}

	// A failed mutation must leave the stored value untouched.
	if err := s.SaveTemplate("CS101", model.AnswerKey{"A"}); err == nil {
		t.Error("expected SaveTemplate to fail on corrupt value")
	}
	raw, err := s.get(templatesKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if raw != "{not json" {
		t.Errorf("stored value changed after failed write: %q", raw)
	}
}
