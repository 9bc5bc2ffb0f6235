package graph

import (
	"context"

	"go.uber.org/zap"
	apperrors "voicegraph/backend/pkg/errors"
	"voicegraph/backend/pkg/logger"
)

// ============================================================================
// Fact Operations
// ============================================================================

const exactFactQuery = `
		MATCH (subject)-[r]->(object)
		WHERE subject.name IN $names OR object.name IN $names
		RETURN subject.name AS subject, type(r) AS relation, object.name AS object
		ORDER BY subject, relation, object
	`

const phoneticFactQuery = `
		MATCH (subject)-[r]->(object)
		WHERE any(n IN $names WHERE apoc.text.phonetic(n) <> '' AND (
			apoc.text.phonetic(subject.name) = apoc.text.phonetic(n) OR
			apoc.text.phonetic(object.name) = apoc.text.phonetic(n)))
		RETURN subject.name AS subject, type(r) AS relation, object.name AS object
		ORDER BY subject, relation, object
	`

// BuildFactQuery builds one query matching every edge that touches any name in
// entities. ok is false when entities hold no names.
func BuildFactQuery(entities EntitySet, mode MatchMode) (stmt Statement, ok bool) {
	names := entities.Names()
	if len(names) == 0 {
		return Statement{}, false
	}

	cypher := exactFactQuery
	if mode == MatchPhonetic {
		cypher = phoneticFactQuery
	} else {
		mode = MatchExact
	}

	return Statement{
		Kind:   KindFactQuery,
		Cypher: cypher,
		Params: map[string]interface{}{"names": names},
		Match:  &FactMatch{Names: names, Mode: mode},
	}, true
}

// FactRetriever answers questions from the graph.
type FactRetriever struct {
	store  Store
	mode   MatchMode
	logger *zap.Logger
}

// NewFactRetriever creates a fact retriever over store.
func NewFactRetriever(store Store, mode MatchMode) *FactRetriever {
	return &FactRetriever{
		store:  store,
		mode:   mode,
		logger: logger.Get(),
	}
}

// GetFacts returns "subject relation object" strings for every edge touching
// one of the entity names. No names or no matches yield an empty list.
func (f *FactRetriever) GetFacts(ctx context.Context, entities EntitySet) ([]string, error) {
	stmt, ok := BuildFactQuery(entities, f.mode)
	if !ok {
		return []string{}, nil
	}

	result, err := f.store.Execute(ctx, stmt)
	if err != nil {
		if !apperrors.IsErrorType(err, apperrors.ErrorTypeGraph) {
			err = apperrors.NewGraphQueryFailed(stmt.Kind.String(), err)
		}
		return nil, err
	}

	rows := make([]factRow, 0, len(result.Records))
	for _, record := range result.Records {
		row := factRow{
			Subject:  getStringFromMap(record, "subject", ""),
			Relation: getStringFromMap(record, "relation", ""),
			Object:   getStringFromMap(record, "object", ""),
		}
		if row.Subject == "" || row.Relation == "" || row.Object == "" {
			continue
		}
		rows = append(rows, row)
	}

	rows = deduplicateRows(rows)
	facts := make([]string, len(rows))
	for i, row := range rows {
		facts[i] = FormatFact(row.Subject, row.Relation, row.Object)
	}

	f.logger.Debug("Facts retrieved",
		zap.Strings("names", stmt.Match.Names),
		zap.Int("facts", len(facts)),
	)

	return facts, nil
}
