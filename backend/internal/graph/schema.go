package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// SchemaVersion marks the applied entity constraint migration
const SchemaVersion = "entity_name_constraints_v1"

// ConstraintStatements returns one uniqueness constraint per entity label.
// Concurrent merges of the same (label, name) then resolve to one node.
func ConstraintStatements() []string {
	statements := make([]string, 0, len(Labels))
	for _, label := range Labels {
		statements = append(statements, fmt.Sprintf(
			"CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.name IS UNIQUE",
			quoteIdentifier(strings.ToLower(string(label))+"_name_unique"),
			quoteIdentifier(string(label)),
		))
	}
	return statements
}

// EnsureSchema creates the entity constraints unless the migration marker
// exists. force reapplies them.
func (s *Neo4jStore) EnsureSchema(ctx context.Context, force bool) (applied bool, err error) {
	if !force {
		done, err := s.migrationApplied(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to check migration status: %w", err)
		}
		if done {
			s.logger.Info("Schema migration already applied", zap.String("version", SchemaVersion))
			return false, nil
		}
	}

	for _, stmt := range ConstraintStatements() {
		if _, err := neo4j.ExecuteQuery(ctx, s.driver, stmt, nil, neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(s.database)); err != nil {
			return false, fmt.Errorf("failed to create constraint: %w", err)
		}
		s.logger.Debug("Constraint ensured", zap.String("statement", stmt))
	}

	markQuery := `
		MERGE (m:Migration {version: $version})
		SET m.applied_at = datetime()
	`
	if _, err := neo4j.ExecuteQuery(ctx, s.driver, markQuery, map[string]interface{}{"version": SchemaVersion},
		neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(s.database)); err != nil {
		s.logger.Warn("Failed to mark migration as applied", zap.Error(err))
	}

	s.logger.Info("Schema migration applied", zap.String("version", SchemaVersion))
	return true, nil
}

func (s *Neo4jStore) migrationApplied(ctx context.Context) (bool, error) {
	eager, err := neo4j.ExecuteQuery(ctx, s.driver,
		"MATCH (m:Migration {version: $version}) RETURN m.applied_at AS applied_at",
		map[string]interface{}{"version": SchemaVersion},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return false, err
	}
	return len(eager.Records) > 0, nil
}
