package graph

import (
	"context"

	"go.uber.org/zap"
	apperrors "voicegraph/backend/pkg/errors"
	"voicegraph/backend/pkg/logger"
)

// Store executes one graph statement and returns its rows or an execution error.
type Store interface {
	Execute(ctx context.Context, stmt Statement) (*Result, error)
}

// BatchResult aggregates a committed batch.
type BatchResult struct {
	Statements int `json:"statements"`
	Counters
}

// ExecuteBatch runs statements one at a time, in order, waiting for each.
// Nodes are therefore visible before the edges that match them. The first
// failure stops the batch and is returned as ErrGraphBatchFailed; statements
// before it stay committed, which is harmless because every statement is a merge.
func ExecuteBatch(ctx context.Context, store Store, statements []Statement) (*BatchResult, error) {
	log := logger.Get()
	batch := &BatchResult{}

	for i, stmt := range statements {
		if err := ctx.Err(); err != nil {
			return batch, apperrors.NewGraphBatchFailed(i, len(statements), apperrors.NewContextCancelled("graph batch", err))
		}

		result, err := store.Execute(ctx, stmt)
		if err != nil {
			log.Warn("Graph statement failed",
				zap.Int("index", i),
				zap.Int("total", len(statements)),
				zap.String("kind", stmt.Kind.String()),
				zap.Error(err),
			)
			return batch, apperrors.NewGraphBatchFailed(i, len(statements), err)
		}

		batch.Statements++
		batch.add(result.Counters)
	}

	if len(statements) > 0 {
		log.Info("Graph batch committed",
			zap.Int("statements", batch.Statements),
			zap.Int("nodes_created", batch.NodesCreated),
			zap.Int("relationships_created", batch.RelationshipsCreated),
		)
	}

	return batch, nil
}
