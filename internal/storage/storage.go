package storage

import (
	"context"

	"poolArbitrage/internal/model"
)

// Sink records one evaluation per tick.
type Sink interface {
	PutEvaluation(ctx context.Context, record model.EvaluationRecord) error
}

// Nop discards records.
type Nop struct{}

func (Nop) PutEvaluation(ctx context.Context, record model.EvaluationRecord) error {
	return nil
}
