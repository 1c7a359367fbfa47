package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pavelanni/mcqgrader/internal/model"
)

// ErrIndexOutOfRange is returned by DeleteResultAt for an index outside the
// ledger.
var ErrIndexOutOfRange = errors.New("result index out of range")

func decodeResults(raw string) ([]model.GradedRecord, error) {
	if raw == "" {
		return nil, nil
	}
	var records []model.GradedRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", resultsKey, err)
	}
	return records, nil
}

func encodeResults(records []model.GradedRecord) (string, error) {
	if records == nil {
		records = []model.GradedRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", resultsKey, err)
	}
	return string(data), nil
}

// AppendResult adds a graded record to the end of the ledger.
func (s *Store) AppendResult(rec model.GradedRecord) error {
	return s.update(resultsKey, func(current string) (string, error) {
		records, err := decodeResults(current)
		if err != nil {
			return "", err
		}
		return encodeResults(append(records, rec))
	})
}

// ListResults returns a snapshot of the ledger, oldest first.
func (s *Store) ListResults() ([]model.GradedRecord, error) {
	raw, err := s.get(resultsKey)
	if err != nil {
		return nil, err
	}
	return decodeResults(raw)
}

// DeleteResultAt removes the record at the given position and re-persists the
// remaining records in order.
func (s *Store) DeleteResultAt(index int) error {
	return s.update(resultsKey, func(current string) (string, error) {
		records, err := decodeResults(current)
		if err != nil {
			return "", err
		}
		if index < 0 || index >= len(records) {
			return "", fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(records))
		}
		return encodeResults(append(records[:index], records[index+1:]...))
	})
}

// ClearResults removes every record from the ledger. Clearing an empty ledger
// is a no-op.
func (s *Store) ClearResults() error {
	return s.remove(resultsKey)
}
