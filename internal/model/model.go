package model

import (
	"fmt"
	"strings"
	"time"
)

// Choices is the canonical mark alphabet for answer keys. Recognized marks
// outside this set are never corrected; they grade as incorrect.
const Choices = "ABCDE"

// ValidChoice reports whether s is a single mark from the canonical alphabet.
func ValidChoice(s string) bool {
	return len(s) == 1 && strings.Contains(Choices, s)
}

// NormalizeCourseCode trims and upper-cases a course code. The normalized form
// is the only key the store ever uses.
func NormalizeCourseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AnswerKey is an ordered answer key: index 0 holds the correct mark for
// question 1, and so on.
type AnswerKey []string

// Validate checks that every entry is a canonical choice.
func (k AnswerKey) Validate() error {
	for i, choice := range k {
		if !ValidChoice(choice) {
			return fmt.Errorf("question %d: %q is not one of %s", i+1, choice, Choices)
		}
	}
	return nil
}

// Template is a stored answer key addressed by course code.
type Template struct {
	CourseCode string    `json:"course_code"`
	AnswerKey  AnswerKey `json:"answer_key"`
}

// RecognitionResult is the canonical form of a recognition service response.
// Marks maps 0-based question index to the recognized mark; an absent index or
// empty string means the bubble was left blank. Marks is never nil for a
// result produced by the recognize package.
type RecognitionResult struct {
	RegNumber  string
	Marks      map[int]string
	DebugImage string
}

// Outcome classifies one question of a graded sheet.
type Outcome string

const (
	OutcomeBlank     Outcome = "blank"
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
)

// QuestionResult is one line of a graded record's breakdown.
type QuestionResult struct {
	Question int     `json:"question"`
	Marked   string  `json:"marked"`
	Correct  string  `json:"correct"`
	Outcome  Outcome `json:"outcome"`
}

// GradedRecord is one entry of the result ledger. Records are immutable once
// appended; the ledger only ever replaces the whole persisted collection.
type GradedRecord struct {
	RegNumber  string           `json:"reg_number"`
	CourseCode string           `json:"course_code"`
	Score      int              `json:"score"`
	Total      int              `json:"total"`
	Timestamp  time.Time        `json:"timestamp"`
	Breakdown  []QuestionResult `json:"details"`
	DebugImage string           `json:"debug_image,omitempty"`
}
