package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"poolArbitrage/internal/model"
)

// JsonlStorage appends evaluation records to a JSONL file. The file is opened
// on first write and kept open until Close.
type JsonlStorage struct {
	path string

	mu   sync.Mutex
	file *os.File
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutEvaluation appends one record as a JSON line.
func (s *JsonlStorage) PutEvaluation(ctx context.Context, record model.EvaluationRecord) error {
	return s.PutEvaluations(ctx, []model.EvaluationRecord{record})
}

// PutEvaluations encodes the whole batch first and appends it with a single
// write, so a marshal failure leaves the file untouched.
func (s *JsonlStorage) PutEvaluations(ctx context.Context, records []model.EvaluationRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("marshal evaluation %s: %w", record.ID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.openLocked(); err != nil {
		return err
	}
	if _, err := s.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append %d evaluations to %s: %w", len(records), s.path, err)
	}
	return nil
}

func (s *JsonlStorage) openLocked() error {
	if s.file != nil {
		return nil
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	s.file = file
	return nil
}

func (s *JsonlStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
