package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"voicegraph/backend/internal/graph"
	apperrors "voicegraph/backend/pkg/errors"
)

// mockCompleter returns canned responses in order and records prompts
type mockCompleter struct {
	responses []string
	err       error
	prompts   []string
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	response := m.responses[0]
	m.responses = m.responses[1:]
	return response, nil
}

func TestParseCodeBlock(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"fenced with tag", "Here you go:\n```json\n{\"Person\": [\"Jon\"]}\n```", `{"Person": ["Jon"]}`, true},
		{"fenced without tag", "```\n[1, 2]\n```", `[1, 2]`, true},
		{"tag on same line", "```json{\"a\": 1}```", `{"a": 1}`, true},
		{"last block wins", "```json\n{\"a\": 1}\n```\nthen\n```json\n{\"b\": 2}\n```", `{"b": 2}`, true},
		{"raw json", `  {"Place": ["Seattle"]} `, `{"Place": ["Seattle"]}`, true},
		{"broken fenced block", "```json\n{not json}\n```", "", false},
		{"prose", "I could not find any entities.", "", false},
		{"single fence falls back to whole text", "``` {\"a\": 1}", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseCodeBlock(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.JSONEq(t, tt.want, string(got))
			}
		})
	}
}

func TestParseClassification(t *testing.T) {
	tests := map[string]Classification{
		"Question":     ClassQuestion,
		"statement":    ClassStatement,
		" 'Question'.": ClassQuestion,
		"`Statement`":  ClassStatement,
		"Answer":       ClassAnswer,
		"COMMENT":      ClassComment,
		"select":       ClassSelect,
	}
	for token, want := range tests {
		got, err := ParseClassification(token)
		require.NoError(t, err, token)
		assert.Equal(t, want, got, token)
	}

	for _, token := range []string{"", "Maybe", "It is a question", "Question or Statement"} {
		_, err := ParseClassification(token)
		var unclassifiable *apperrors.ErrUnclassifiable
		assert.True(t, errors.As(err, &unclassifiable), token)
	}
}

func TestClassification_Reply(t *testing.T) {
	reply, ok := ClassQuestion.Reply()
	assert.True(t, ok)
	assert.Equal(t, ClassAnswer, reply)

	reply, ok = ClassStatement.Reply()
	assert.True(t, ok)
	assert.Equal(t, ClassComment, reply)

	_, ok = ClassComment.Reply()
	assert.False(t, ok)
	assert.Equal(t, "Statement", ClassStatement.String())
}

func TestClassifier_Classify(t *testing.T) {
	llm := &mockCompleter{responses: []string{"Question"}}

	class, err := NewClassifier(llm).Classify(context.Background(), "where does jon work")

	require.NoError(t, err)
	assert.Equal(t, ClassQuestion, class)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Sentence: where does jon work")
}

func TestClassifier_Unrecognized(t *testing.T) {
	llm := &mockCompleter{responses: []string{"I am not sure."}}

	_, err := NewClassifier(llm).Classify(context.Background(), "hmm")

	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeClassification))
}

func TestClassifier_ProviderError(t *testing.T) {
	providerErr := apperrors.NewProviderFailed("completion", "gpt-4o-mini", 3, true, errors.New("503"))
	llm := &mockCompleter{err: providerErr}

	_, err := NewClassifier(llm).Classify(context.Background(), "hello")

	assert.ErrorIs(t, err, providerErr)
}

func TestEntityExtractor_Extract(t *testing.T) {
	llm := &mockCompleter{responses: []string{
		"```json\n{\"Person\": [\"Jon\"], \"Organization\": [\"Acme Corp\"], \"Place\": [], \"Animal\": [\"Rex\"]}\n```",
	}}

	entities, err := NewEntityExtractor(llm).Extract(context.Background(), "I work at Acme Corp", "Jon")

	require.NoError(t, err)
	assert.Equal(t, graph.EntitySet{
		graph.LabelPerson:       {"Jon"},
		graph.LabelOrganization: {"Acme Corp"},
	}, entities)
	assert.Contains(t, llm.prompts[0], `a person named "Jon"`)
	assert.Contains(t, llm.prompts[0], `Statement: "I work at Acme Corp"`)
}

func TestEntityExtractor_Malformed(t *testing.T) {
	for _, response := range []string{"no entities here", "```json\n{\"Person\": [\"Jon\"\n```", `["Jon"]`} {
		llm := &mockCompleter{responses: []string{response}}

		entities, err := NewEntityExtractor(llm).Extract(context.Background(), "hello", "Jon")

		require.NoError(t, err, response)
		assert.NotNil(t, entities, response)
		assert.True(t, entities.IsEmpty(), response)
	}
}

func TestEntityExtractor_NoIdentity(t *testing.T) {
	llm := &mockCompleter{responses: []string{"{}"}}

	_, err := NewEntityExtractor(llm).Extract(context.Background(), "Where does Jon work?", "")

	require.NoError(t, err)
	assert.NotContains(t, llm.prompts[0], "self-references")
}

func TestEntityExtractor_ProviderError(t *testing.T) {
	llm := &mockCompleter{err: errors.New("timeout")}

	_, err := NewEntityExtractor(llm).Extract(context.Background(), "hello", "Jon")

	assert.Error(t, err)
}

func TestRelationshipExtractor_Extract(t *testing.T) {
	llm := &mockCompleter{responses: []string{"```json\n[" +
		`{"subject": " Jon ", "verb": "works at", "object": "Acme Corp"},` +
		`{"subject": "Jon", "relation": "LIVES_IN", "object": "Seattle"},` +
		`{"subject": "Jon", "verb": "", "object": "Acme Corp"},` +
		`{"subject": 42, "verb": "is", "object": "Jon"},` +
		`"not a triple"` +
		"]\n```"}}
	entities := graph.EntitySet{
		graph.LabelPerson:       {"Jon"},
		graph.LabelOrganization: {"Acme Corp"},
		graph.LabelPlace:        {"Seattle"},
	}

	triples, err := NewRelationshipExtractor(llm).Extract(context.Background(), "I work at Acme Corp and live in Seattle", entities)

	require.NoError(t, err)
	assert.Equal(t, []graph.Triple{
		{Subject: "Jon", Verb: "works at", Object: "Acme Corp"},
		{Subject: "Jon", Verb: "LIVES_IN", Object: "Seattle"},
	}, triples)
	assert.Contains(t, llm.prompts[0], `"Acme Corp"`)
}

func TestRelationshipExtractor_Wrapped(t *testing.T) {
	llm := &mockCompleter{responses: []string{`{"triples": [{"subject": "Jon", "verb": "lives in", "object": "Seattle"}]}`}}

	triples, err := NewRelationshipExtractor(llm).Extract(context.Background(), "I live in Seattle", graph.EntitySet{})

	require.NoError(t, err)
	assert.Equal(t, []graph.Triple{{Subject: "Jon", Verb: "lives in", Object: "Seattle"}}, triples)
}

func TestRelationshipExtractor_Malformed(t *testing.T) {
	llm := &mockCompleter{responses: []string{"Jon works at Acme Corp."}}

	triples, err := NewRelationshipExtractor(llm).Extract(context.Background(), "I work at Acme Corp", graph.EntitySet{})

	require.NoError(t, err)
	assert.NotNil(t, triples)
	assert.Empty(t, triples)
}

func TestTitle(t *testing.T) {
	llm := &mockCompleter{responses: []string{"  \"Jon's New Job\"\n"}}

	title, err := Title(context.Background(), llm, "I just started working at Acme Corp")

	require.NoError(t, err)
	assert.Equal(t, "Jon's New Job", title)
	assert.Contains(t, llm.prompts[0], "Extract a short title from this text:")
}
