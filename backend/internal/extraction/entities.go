package extraction

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"voicegraph/backend/internal/graph"
	"voicegraph/backend/pkg/logger"
)

// EntityExtractor pulls typed entities out of a statement
type EntityExtractor struct {
	llm    Completer
	logger *zap.Logger
}

// NewEntityExtractor creates a new entity extractor
func NewEntityExtractor(llm Completer) *EntityExtractor {
	return &EntityExtractor{
		llm:    llm,
		logger: logger.Get(),
	}
}

// Extract returns the entities in statement, with first-person references
// attributed to identity. Output that does not parse yields an empty set;
// only provider failures are errors.
func (e *EntityExtractor) Extract(ctx context.Context, statement, identity string) (graph.EntitySet, error) {
	response, err := e.llm.Complete(ctx, entityPrompt(statement, identity))
	if err != nil {
		return nil, fmt.Errorf("failed to extract entities: %w", err)
	}

	raw, ok := parseCodeBlock(response)
	if !ok {
		e.logger.Warn("Entity output is not JSON", zap.String("response", response))
		return graph.EntitySet{}, nil
	}

	var entities graph.EntitySet
	if err := json.Unmarshal(raw, &entities); err != nil {
		e.logger.Warn("Entity output is not an object",
			zap.String("response", response),
			zap.Error(err),
		)
		return graph.EntitySet{}, nil
	}

	e.logger.Debug("Entities extracted",
		zap.Int("labels", len(entities)),
		zap.Strings("names", entities.Names()),
	)

	return entities, nil
}
