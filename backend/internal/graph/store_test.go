package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "voicegraph/backend/pkg/errors"
)

// failingStore fails the statement at failAt and succeeds otherwise
type failingStore struct {
	failAt   int
	executed int
}

func (f *failingStore) Execute(ctx context.Context, stmt Statement) (*Result, error) {
	defer func() { f.executed++ }()
	if f.executed == f.failAt {
		return nil, errors.New("constraint violated")
	}
	return &Result{Counters: Counters{NodesCreated: 1}}, nil
}

func TestExecuteBatch_StopsAtFirstFailure(t *testing.T) {
	statements := Compile(EntitySet{
		LabelPerson:       {"Jon"},
		LabelOrganization: {"Acme Corp"},
	}, []Triple{{Subject: "Jon", Verb: "works at", Object: "Acme Corp"}}, jonMeta)
	store := &failingStore{failAt: 1}

	batch, err := ExecuteBatch(context.Background(), store, statements)

	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeGraph))
	assert.Contains(t, err.Error(), "batch failed at statement 2 of 3")
	assert.Equal(t, 1, batch.Statements)
	assert.Equal(t, 2, store.executed)
}

func TestExecuteBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExecuteBatch(ctx, NewMemoryStore(), Compile(EntitySet{LabelPerson: {"Jon"}},
		[]Triple{{Subject: "Jon", Verb: "is", Object: "Jon"}}, jonMeta))

	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeContext))
}

func TestExecuteBatch_Empty(t *testing.T) {
	batch, err := ExecuteBatch(context.Background(), NewMemoryStore(), nil)

	require.NoError(t, err)
	assert.Zero(t, batch.Statements)
}

func TestMemoryStore_EdgeNeedsNodes(t *testing.T) {
	store := NewMemoryStore()
	edge := EdgeRecord{
		From: NodeKey{Label: LabelPerson, Name: "Jon"},
		Type: "KNOWS",
		To:   NodeKey{Label: LabelPerson, Name: "Jane"},
	}

	result, err := store.Execute(context.Background(), Statement{Kind: KindEdgeMerge, Edge: &edge})

	require.NoError(t, err)
	assert.Zero(t, result.RelationshipsCreated)
	_, edges, _ := store.Counts(context.Background())
	assert.Zero(t, edges)
}

func TestMemoryStore_RejectsBareStatement(t *testing.T) {
	_, err := NewMemoryStore().Execute(context.Background(), Statement{Kind: KindNodeMerge, Cypher: "MERGE (n)"})
	assert.Error(t, err)
}
