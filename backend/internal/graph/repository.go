package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	apperrors "voicegraph/backend/pkg/errors"
	"voicegraph/backend/pkg/logger"
)

// Neo4jStore executes compiled statements against Neo4j
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// NewNeo4jStore creates a new graph store on an open driver
func NewNeo4jStore(driver neo4j.DriverWithContext, database string) *Neo4jStore {
	return &Neo4jStore{
		driver:   driver,
		database: database,
		logger:   logger.Named("neo4j"),
	}
}

// OpenNeo4j creates a driver and verifies connectivity
func OpenNeo4j(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperrors.NewGraphConnectionFailed(uri, err)
	}
	return driver, nil
}

// Close closes the Neo4j driver connection
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Execute runs one statement. Fact queries go to readers, merges to writers.
func (s *Neo4jStore) Execute(ctx context.Context, stmt Statement) (*Result, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{neo4j.ExecuteQueryWithDatabase(s.database)}
	if stmt.Kind == KindFactQuery {
		opts = append(opts, neo4j.ExecuteQueryWithReadersRouting())
	} else {
		opts = append(opts, neo4j.ExecuteQueryWithWritersRouting())
	}

	eager, err := neo4j.ExecuteQuery(ctx, s.driver, stmt.Cypher, stmt.Params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, apperrors.NewGraphQueryFailed(stmt.Kind.String(), err)
	}

	result := &Result{Records: make([]map[string]interface{}, 0, len(eager.Records))}
	for _, record := range eager.Records {
		result.Records = append(result.Records, record.AsMap())
	}
	if eager.Summary != nil {
		counters := eager.Summary.Counters()
		result.NodesCreated = counters.NodesCreated()
		result.RelationshipsCreated = counters.RelationshipsCreated()
		result.PropertiesSet = counters.PropertiesSet()
	}

	s.logger.Debug("Graph statement executed",
		zap.String("kind", stmt.Kind.String()),
		zap.Int("records", len(result.Records)),
		zap.Int("nodes_created", result.NodesCreated),
		zap.Int("relationships_created", result.RelationshipsCreated),
	)

	return result, nil
}

// Counts returns the number of nodes and relationships carrying an entity label
func (s *Neo4jStore) Counts(ctx context.Context) (nodes, edges int, err error) {
	labels := make([]string, len(Labels))
	for i, l := range Labels {
		labels[i] = string(l)
	}

	query := `
		MATCH (n) WHERE any(l IN labels(n) WHERE l IN $labels)
		OPTIONAL MATCH (n)-[r]->()
		RETURN count(DISTINCT n) AS nodes, count(DISTINCT r) AS edges
	`

	eager, err := neo4j.ExecuteQuery(ctx, s.driver, query, map[string]interface{}{"labels": labels},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count graph: %w", err)
	}
	if len(eager.Records) == 0 {
		return 0, 0, nil
	}

	row := eager.Records[0].AsMap()
	return getIntFromMap(row, "nodes"), getIntFromMap(row, "edges"), nil
}
