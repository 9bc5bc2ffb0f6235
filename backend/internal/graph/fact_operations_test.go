package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	entities := EntitySet{
		LabelPerson:       {"Jon"},
		LabelOrganization: {"Acme Corp"},
		LabelPlace:        {"Seattle"},
	}
	triples := []Triple{
		{Subject: "Jon", Verb: "works at", Object: "Acme Corp"},
		{Subject: "Acme Corp", Verb: "is based in", Object: "Seattle"},
	}
	_, err := ExecuteBatch(context.Background(), store, Compile(entities, triples, jonMeta))
	require.NoError(t, err)
	return store
}

func TestGetFacts_Subject(t *testing.T) {
	store := NewMemoryStore()
	statements := Compile(EntitySet{
		LabelPerson:       {"Jon"},
		LabelOrganization: {"Acme Corp"},
	}, []Triple{{Subject: "Jon", Verb: "works at", Object: "Acme Corp"}}, jonMeta)
	_, err := ExecuteBatch(context.Background(), store, statements)
	require.NoError(t, err)

	facts, err := NewFactRetriever(store, MatchExact).GetFacts(context.Background(), EntitySet{LabelPerson: {"Jon"}})

	require.NoError(t, err)
	assert.Equal(t, []string{"Jon works at Acme Corp"}, facts)
}

func TestGetFacts_EitherEndpoint(t *testing.T) {
	store := seededStore(t)

	facts, err := NewFactRetriever(store, MatchExact).GetFacts(context.Background(), EntitySet{LabelOrganization: {"Acme Corp"}})

	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Corp is based in Seattle", "Jon works at Acme Corp"}, facts)
}

func TestGetFacts_Empty(t *testing.T) {
	store := seededStore(t)
	retriever := NewFactRetriever(store, MatchExact)

	facts, err := retriever.GetFacts(context.Background(), EntitySet{})
	require.NoError(t, err)
	assert.NotNil(t, facts)
	assert.Empty(t, facts)

	facts, err = retriever.GetFacts(context.Background(), EntitySet{LabelPerson: {"Nobody"}})
	require.NoError(t, err)
	assert.NotNil(t, facts)
	assert.Empty(t, facts)
}

func TestGetFacts_Phonetic(t *testing.T) {
	store := seededStore(t)

	exact, err := NewFactRetriever(store, MatchExact).GetFacts(context.Background(), EntitySet{LabelPerson: {"John"}})
	require.NoError(t, err)
	assert.Empty(t, exact)

	phonetic, err := NewFactRetriever(store, MatchPhonetic).GetFacts(context.Background(), EntitySet{LabelPerson: {"John"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Jon works at Acme Corp"}, phonetic)
}

func TestGetFacts_PhoneticSkipsUncodedNames(t *testing.T) {
	store := NewMemoryStore()
	entities := EntitySet{LabelPlace: {"東京", "日本", "Москва"}}
	_, err := ExecuteBatch(context.Background(), store,
		Compile(entities, []Triple{{Subject: "東京", Verb: "is in", Object: "日本"}}, jonMeta))
	require.NoError(t, err)

	retriever := NewFactRetriever(store, MatchPhonetic)

	facts, err := retriever.GetFacts(context.Background(), EntitySet{LabelPlace: {"Москва"}})
	require.NoError(t, err)
	assert.Empty(t, facts)

	assert.False(t, soundsAlike("Москва", "東京"))
	assert.True(t, soundsAlike("Jon", "John"))
}

func TestGetFacts_StoreError(t *testing.T) {
	store := &failingStore{failAt: 0}

	_, err := NewFactRetriever(store, MatchExact).GetFacts(context.Background(), EntitySet{LabelPerson: {"Jon"}})

	assert.Error(t, err)
}

func TestBuildFactQuery(t *testing.T) {
	stmt, ok := BuildFactQuery(EntitySet{
		LabelPlace:  {"Seattle"},
		LabelPerson: {"Jon"},
	}, "")

	require.True(t, ok)
	assert.Equal(t, KindFactQuery, stmt.Kind)
	assert.Equal(t, []string{"Jon", "Seattle"}, stmt.Params["names"])
	assert.Equal(t, MatchExact, stmt.Match.Mode)
	assert.Contains(t, stmt.Cypher, "subject.name IN $names OR object.name IN $names")

	phonetic, ok := BuildFactQuery(EntitySet{LabelPerson: {"Jon"}}, MatchPhonetic)
	require.True(t, ok)
	assert.Contains(t, phonetic.Cypher, "apoc.text.phonetic")
	assert.Contains(t, phonetic.Cypher, "apoc.text.phonetic(n) <> ''")

	_, ok = BuildFactQuery(EntitySet{}, MatchExact)
	assert.False(t, ok)
}

func TestGetFacts_CaseDistinctEdges(t *testing.T) {
	store := NewMemoryStore()
	entities := EntitySet{
		LabelPerson: {"Jon"},
		LabelSkill:  {"Python"},
		LabelThing:  {"python"},
	}
	triples := []Triple{
		{Subject: "Jon", Verb: "likes", Object: "Python"},
		{Subject: "Jon", Verb: "likes", Object: "python"},
	}
	_, err := ExecuteBatch(context.Background(), store, Compile(entities, triples, jonMeta))
	require.NoError(t, err)

	_, edges, err := store.Counts(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, edges)

	facts, err := NewFactRetriever(store, MatchExact).GetFacts(context.Background(), EntitySet{LabelPerson: {"Jon"}})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Jon likes Python", "Jon likes python"}, facts)
}

func TestDeduplicateRows(t *testing.T) {
	rows := deduplicateRows([]factRow{
		{Subject: "Jon", Relation: "WORKS_AT", Object: "Acme"},
		{Subject: "Jon", Relation: "WORKS_AT", Object: "acme"},
		{Subject: "Jon", Relation: "WORKS_AT", Object: "Acme"},
	})

	assert.Equal(t, []factRow{
		{Subject: "Jon", Relation: "WORKS_AT", Object: "Acme"},
		{Subject: "Jon", Relation: "WORKS_AT", Object: "acme"},
	}, rows)
}
