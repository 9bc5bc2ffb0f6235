package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"voicegraph/backend/internal/graph"
	"voicegraph/backend/pkg/logger"
)

// RelationshipExtractor derives subject-verb-object triples from a statement
type RelationshipExtractor struct {
	llm    Completer
	logger *zap.Logger
}

// NewRelationshipExtractor creates a new relationship extractor
func NewRelationshipExtractor(llm Completer) *RelationshipExtractor {
	return &RelationshipExtractor{
		llm:    llm,
		logger: logger.Get(),
	}
}

// rawTriple tolerates "relation" in place of "verb"
type rawTriple struct {
	Subject  string `json:"subject"`
	Verb     string `json:"verb"`
	Relation string `json:"relation"`
	Object   string `json:"object"`
}

// Extract returns the triples in statement over the given entities. Output
// that does not parse yields no triples; only provider failures are errors.
func (r *RelationshipExtractor) Extract(ctx context.Context, statement string, entities graph.EntitySet) ([]graph.Triple, error) {
	response, err := r.llm.Complete(ctx, relationshipPrompt(statement, entities))
	if err != nil {
		return nil, fmt.Errorf("failed to extract relationships: %w", err)
	}

	raw, ok := parseCodeBlock(response)
	if !ok {
		r.logger.Warn("Relationship output is not JSON", zap.String("response", response))
		return []graph.Triple{}, nil
	}

	triples := parseTriples(raw)
	r.logger.Debug("Relationships extracted", zap.Int("triples", len(triples)))
	return triples, nil
}

// parseTriples accepts a bare array or an object wrapping one under
// "triples" or "relationships". Elements that are not complete triples are skipped.
func parseTriples(raw json.RawMessage) []graph.Triple {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		var wrapper struct {
			Triples       []json.RawMessage `json:"triples"`
			Relationships []json.RawMessage `json:"relationships"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return []graph.Triple{}
		}
		elements = wrapper.Triples
		if len(elements) == 0 {
			elements = wrapper.Relationships
		}
	}

	triples := make([]graph.Triple, 0, len(elements))
	for _, element := range elements {
		var rt rawTriple
		if err := json.Unmarshal(element, &rt); err != nil {
			continue
		}
		verb := rt.Verb
		if strings.TrimSpace(verb) == "" {
			verb = rt.Relation
		}
		t := graph.Triple{
			Subject: strings.TrimSpace(rt.Subject),
			Verb:    strings.TrimSpace(verb),
			Object:  strings.TrimSpace(rt.Object),
		}
		if t.Subject == "" || t.Verb == "" || t.Object == "" {
			continue
		}
		triples = append(triples, t)
	}
	return triples
}
