// Package grader reconciles recognized marks against an answer key.
package grader

import (
	"errors"

	"github.com/pavelanni/mcqgrader/internal/model"
)

// UnknownRegNumber is recorded when the recognition service could not read a
// registration number off the sheet.
const UnknownRegNumber = "UNKNOWN"

var (
	// ErrEmptyKey is returned when the answer key has no entries.
	ErrEmptyKey = errors.New("answer key is empty")
	// ErrNoMarks is returned when the recognition result is missing or has no
	// marks mapping at all. An empty mapping is valid and grades as all blank.
	ErrNoMarks = errors.New("recognition result has no marks")
)

// Reconcile grades a recognition result against an answer key. It is a pure
// function of its inputs: the caller attaches course code and timestamp to the
// returned record. Marks at indices beyond the key length are ignored.
func Reconcile(key model.AnswerKey, rec *model.RecognitionResult) (model.GradedRecord, error) {
	if len(key) == 0 {
		return model.GradedRecord{}, ErrEmptyKey
	}
	if rec == nil || rec.Marks == nil {
		return model.GradedRecord{}, ErrNoMarks
	}

	breakdown := make([]model.QuestionResult, 0, len(key))
	score := 0
	for idx, correct := range key {
		marked := rec.Marks[idx]
		outcome := model.OutcomeBlank
		if marked != "" {
			if marked == correct {
				outcome = model.OutcomeCorrect
				score++
			} else {
				outcome = model.OutcomeIncorrect
			}
		}
		breakdown = append(breakdown, model.QuestionResult{
			Question: idx + 1,
			Marked:   marked,
			Correct:  correct,
			Outcome:  outcome,
		})
	}

	regNumber := rec.RegNumber
	if regNumber == "" {
		regNumber = UnknownRegNumber
	}

	return model.GradedRecord{
		RegNumber:  regNumber,
		Score:      score,
		Total:      len(key),
		Breakdown:  breakdown,
		DebugImage: rec.DebugImage,
	}, nil
}

