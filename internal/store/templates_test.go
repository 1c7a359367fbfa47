package store

import (
	"errors"
	"reflect"
	"testing"

	"github.com/pavelanni/mcqgrader/internal/model"
)

func TestSaveAndListTemplates(t *testing.T) {
	s := newTestStore(t)

	templates, err := s.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(templates) != 0 {
		t.Fatalf("expected empty map, got %d entries", len(templates))
	}

	key := model.AnswerKey{"A", "B", "C", "D", "E"}
	if err := s.SaveTemplate("CS101", key); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	templates, err = s.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if !reflect.DeepEqual(templates["CS101"], key) {
		t.Errorf("expected %v, got %v", key, templates["CS101"])
	}
}

func TestSaveTemplateNormalizesCourseCode(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveTemplate("  cs101 ", model.AnswerKey{"A", "B"}); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}
	// Same course, different case: overwrites, never a second key.
	if err := s.SaveTemplate("Cs101", model.AnswerKey{"C", "D"}); err != nil {
		t.Fatalf("SaveTemplate overwrite: %v", err)
	}

	templates, err := s.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("expected 1 template, got %d: %v", len(templates), templates)
	}
	if !reflect.DeepEqual(templates["CS101"], model.AnswerKey{"C", "D"}) {
		t.Errorf("expected overwritten key [C D], got %v", templates["CS101"])
	}
}

func TestSaveTemplateValidation(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name    string
		course  string
		key     model.AnswerKey
		wantErr error
	}{
		{"empty course", "", model.AnswerKey{"A"}, ErrInvalidCourseCode},
		{"whitespace course", "   ", model.AnswerKey{"A"}, ErrInvalidCourseCode},
		{"bad choice", "CS101", model.AnswerKey{"A", "F"}, ErrInvalidChoice},
		{"lowercase choice", "CS101", model.AnswerKey{"a"}, ErrInvalidChoice},
		{"multi-char choice", "CS101", model.AnswerKey{"AB"}, ErrInvalidChoice},
		{"empty choice", "CS101", model.AnswerKey{""}, ErrInvalidChoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SaveTemplate(tt.course, tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SaveTemplate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Failed saves must not create templates.
	templates, err := s.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(templates) != 0 {
		t.Errorf("expected no templates after failed saves, got %v", templates)
	}
}

func TestDeleteTemplate(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveTemplate("CS101", model.AnswerKey{"A"}); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	// Delete uses normalized form.
	if err := s.DeleteTemplate(" cs101 "); err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	templates, _ := s.ListTemplates()
	if len(templates) != 0 {
		t.Errorf("expected empty map after delete, got %v", templates)
	}

	// Deleting an unknown course is a no-op, not an error.
	if err := s.DeleteTemplate("UNKNOWN101"); err != nil {
		t.Errorf("DeleteTemplate unknown: %v", err)
	}
}

func TestGetTemplate(t *testing.T) {
	s := newTestStore(t)

	key := model.AnswerKey{"A", "B"}
	if err := s.SaveTemplate("CS101", key); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	got, err := s.GetTemplate("cs101")
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if !reflect.DeepEqual(got, key) {
		t.Errorf("expected %v, got %v", key, got)
	}

	_, err = s.GetTemplate("NOPE")
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestListTemplatesReturnsSnapshot(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveTemplate("CS101", model.AnswerKey{"A", "B"}); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	first, _ := s.ListTemplates()
	first["CS101"][0] = "E"
	delete(first, "CS101")

	second, err := s.ListTemplates()
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if !reflect.DeepEqual(second["CS101"], model.AnswerKey{"A", "B"}) {
		t.Errorf("mutating a snapshot leaked into the store: %v", second)
	}
}
