package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pavelanni/mcqgrader/internal/model"
)

var (
	// ErrInvalidCourseCode is returned when a course code is empty after
	// trimming.
	ErrInvalidCourseCode = errors.New("course code is empty")
	// ErrInvalidChoice is returned when an answer key entry is outside the
	// canonical alphabet.
	ErrInvalidChoice = errors.New("invalid answer key entry")
	// ErrTemplateNotFound is returned by GetTemplate for an unknown course.
	ErrTemplateNotFound = errors.New("template not found")
)

func decodeTemplates(raw string) (map[string]model.AnswerKey, error) {
	templates := make(map[string]model.AnswerKey)
	if raw == "" {
		return templates, nil
	}
	if err := json.Unmarshal([]byte(raw), &templates); err != nil {
		return nil, fmt.Errorf("decode %s: %w", templatesKey, err)
	}
	return templates, nil
}

// SaveTemplate stores an answer key under the normalized course code,
// overwriting any template already saved for that course.
func (s *Store) SaveTemplate(courseCode string, key model.AnswerKey) error {
	code := model.NormalizeCourseCode(courseCode)
	if code == "" {
		return ErrInvalidCourseCode
	}
	if err := key.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChoice, err)
	}

	return s.update(templatesKey, func(current string) (string, error) {
		templates, err := decodeTemplates(current)
		if err != nil {
			return "", err
		}
		templates[code] = key
		data, err := json.Marshal(templates)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", templatesKey, err)
		}
		return string(data), nil
	})
}

// DeleteTemplate removes the template for a course. Deleting an unknown course
// is a no-op.
func (s *Store) DeleteTemplate(courseCode string) error {
	code := model.NormalizeCourseCode(courseCode)
	return s.update(templatesKey, func(current string) (string, error) {
		templates, err := decodeTemplates(current)
		if err != nil {
			return "", err
		}
		delete(templates, code)
		data, err := json.Marshal(templates)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", templatesKey, err)
		}
		return string(data), nil
	})
}

// ListTemplates returns a snapshot of all saved templates keyed by normalized
// course code.
func (s *Store) ListTemplates() (map[string]model.AnswerKey, error) {
	raw, err := s.get(templatesKey)
	if err != nil {
		return nil, err
	}
	return decodeTemplates(raw)
}

// GetTemplate returns the answer key for one course.
func (s *Store) GetTemplate(courseCode string) (model.AnswerKey, error) {
	templates, err := s.ListTemplates()
	if err != nil {
		return nil, err
	}
	key, ok := templates[model.NormalizeCourseCode(courseCode)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, model.NormalizeCourseCode(courseCode))
	}
	return key, nil
}
