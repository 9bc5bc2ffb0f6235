package history

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"voicegraph/backend/internal/state"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveAndClassification(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	err := store.Save(ctx, Record{
		Item: state.ConversationItem{
			ItemID:  "item_1",
			Role:    state.RoleUser,
			Content: "Where does Jon work?",
			User:    "Jon",
		},
		Classification: "Question",
		Embedding:      []float32{1, 0},
	})
	require.NoError(t, err)

	label, ok, err := store.Classification(ctx, "item_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Question", label)

	_, ok, err = store.Classification(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SaveUnlabelled(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Save(ctx, Record{
		Item: state.ConversationItem{ItemID: "item_2", Role: state.RoleUser, Content: "hmm"},
	}))

	_, ok, err := store.Classification(ctx, "item_2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Recall(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	records := []Record{
		{Item: state.ConversationItem{ItemID: "exact", Role: state.RoleUser, Content: "I work at Acme Corp", Session: "s1"}, Embedding: []float32{1, 0, 0}},
		{Item: state.ConversationItem{ItemID: "close", Role: state.RoleAssistant, InputItemID: "exact", Content: "Acme sounds fun"}, Embedding: []float32{0.9, 0.1, 0}},
		{Item: state.ConversationItem{ItemID: "far", Role: state.RoleUser, Content: "I like jazz"}, Embedding: []float32{0, 1, 0}},
		{Item: state.ConversationItem{ItemID: "none", Role: state.RoleUser, Content: "no vector"}},
	}
	for _, rec := range records {
		require.NoError(t, store.Save(ctx, rec))
	}

	matches, err := store.Recall(ctx, []float32{1, 0, 0}, 3, 0.8)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "exact", matches[0].Item.ItemID)
	assert.Equal(t, "s1", matches[0].Item.Session)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
	assert.Equal(t, "close", matches[1].Item.ItemID)
	assert.Equal(t, "exact", matches[1].Item.InputItemID)
	assert.Equal(t, state.RoleAssistant, matches[1].Item.Role)

	limited, err := store.Recall(ctx, []float32{1, 0, 0}, 1, 0.8)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "exact", limited[0].Item.ItemID)
}

func TestStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	item := state.ConversationItem{ItemID: "item_1", Role: state.RoleUser, Content: "I work at Acme Corp"}

	require.NoError(t, store.Save(ctx, Record{Item: item}))
	require.NoError(t, store.Save(ctx, Record{Item: item, Classification: "Statement"}))

	label, ok, err := store.Classification(ctx, "item_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Statement", label)
}

func TestEmbeddingCodec(t *testing.T) {
	v := []float32{1, -0.5, 2.5, float32(math.Pi)}
	assert.Equal(t, v, decodeEmbedding(encodeEmbedding(v)))
	assert.Nil(t, encodeEmbedding(nil))
	assert.Len(t, decodeEmbedding([]byte{0, 0, 128, 63, 1}), 1)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1}, []float32{1, 0}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}
