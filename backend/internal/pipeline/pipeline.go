package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"voicegraph/backend/internal/constants"
	"voicegraph/backend/internal/extraction"
	"voicegraph/backend/internal/graph"
	"voicegraph/backend/internal/history"
	"voicegraph/backend/internal/state"
	apperrors "voicegraph/backend/pkg/errors"
	"voicegraph/backend/pkg/logger"
)

// Provider is the model boundary: one completion and one embedding capability
type Provider interface {
	extraction.Completer
	Embed(ctx context.Context, text string) ([]float32, error)
}

// History persists conversation items and recalls similar ones
type History interface {
	Save(ctx context.Context, rec history.Record) error
	Classification(ctx context.Context, itemID string) (string, bool, error)
	Recall(ctx context.Context, query []float32, count int, threshold float64) ([]history.Match, error)
}

// Options tunes recall and fact matching
type Options struct {
	RecallCount     int
	RecallThreshold float64
	MatchMode       graph.MatchMode
}

// Pipeline turns conversation items into graph updates and answers questions from the graph
type Pipeline struct {
	llm           Provider
	store         graph.Store
	history       History
	classifier    *extraction.Classifier
	entities      *extraction.EntityExtractor
	relationships *extraction.RelationshipExtractor
	facts         *graph.FactRetriever
	opts          Options
	logger        *zap.Logger
}

// New creates a pipeline. hist may be nil, in which case items are not
// persisted and questions get facts only.
func New(llm Provider, store graph.Store, hist History, opts Options) *Pipeline {
	return &Pipeline{
		llm:           llm,
		store:         store,
		history:       hist,
		classifier:    extraction.NewClassifier(llm),
		entities:      extraction.NewEntityExtractor(llm),
		relationships: extraction.NewRelationshipExtractor(llm),
		facts:         graph.NewFactRetriever(store, opts.MatchMode),
		opts:          opts,
		logger:        logger.Named("pipeline"),
	}
}

// StatementResult describes what a statement turn wrote to the graph
type StatementResult struct {
	Entities   graph.EntitySet    `json:"entities"`
	Triples    []graph.Triple     `json:"triples"`
	Statements int                `json:"statements"`
	Batch      *graph.BatchResult `json:"batch,omitempty"`
}

// ProcessStatement extracts entities and triples from content and merges them
// into the graph. An utterance without entities or resolvable triples is a
// successful no-op. A failing statement aborts the batch with ErrGraphBatchFailed.
func (p *Pipeline) ProcessStatement(ctx context.Context, content, identity string, meta graph.Metadata) (*StatementResult, error) {
	entities, err := p.entities.Extract(ctx, content, identity)
	if err != nil {
		return nil, err
	}

	result := &StatementResult{Entities: entities, Triples: []graph.Triple{}}
	if entities.IsEmpty() {
		p.logger.Debug("No entities in statement", zap.String("identity", identity))
		return result, nil
	}

	triples, err := p.relationships.Extract(ctx, content, entities)
	if err != nil {
		return result, err
	}
	result.Triples = triples

	statements := graph.Compile(entities, triples, meta)
	result.Statements = len(statements)
	if len(statements) == 0 {
		return result, nil
	}

	batch, err := graph.ExecuteBatch(ctx, p.store, statements)
	result.Batch = batch
	if err != nil {
		return result, err
	}

	return result, nil
}

// ProcessQuestion extracts entities from content and returns the graph facts touching them.
func (p *Pipeline) ProcessQuestion(ctx context.Context, content, identity string) ([]string, error) {
	entities, err := p.entities.Extract(ctx, content, identity)
	if err != nil {
		return nil, err
	}
	return p.facts.GetFacts(ctx, entities)
}

// Facts returns the graph facts touching any of entities
func (p *Pipeline) Facts(ctx context.Context, entities graph.EntitySet) ([]string, error) {
	return p.facts.GetFacts(ctx, entities)
}

// ExtractEntities runs entity extraction on its own
func (p *Pipeline) ExtractEntities(ctx context.Context, statement, identity string) (graph.EntitySet, error) {
	return p.entities.Extract(ctx, statement, identity)
}

// Topic returns a short title for text
func (p *Pipeline) Topic(ctx context.Context, text string) (string, error) {
	return extraction.Title(ctx, p.llm, text)
}

// SaveResult is the outcome of saving one conversation item
type SaveResult struct {
	ItemID              string              `json:"item_id"`
	Classification      string              `json:"classification,omitempty"`
	Message             string              `json:"message,omitempty"`
	Context             []state.ContextItem `json:"context,omitempty"`
	Statement           *StatementResult    `json:"statement,omitempty"`
	ClassificationError string              `json:"classification_error,omitempty"`
	GraphError          string              `json:"graph_error,omitempty"`
}

// SaveItem embeds, labels and persists an item, then routes user turns:
// statements update the graph, questions return recalled history and graph
// facts as context. Graph failures are reported in the result without
// failing the save; provider failures are returned.
func (p *Pipeline) SaveItem(ctx context.Context, item state.ConversationItem) (*SaveResult, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if item.ItemID == "" {
		item.ItemID = uuid.NewString()
	}

	embedding, err := p.llm.Embed(ctx, item.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to embed item: %w", err)
	}

	result := &SaveResult{ItemID: item.ItemID}

	var class extraction.Classification
	classified := false
	switch item.Role {
	case state.RoleUser:
		class, err = p.classifier.Classify(ctx, item.Content)
		if err != nil {
			if !apperrors.IsErrorType(err, apperrors.ErrorTypeClassification) {
				return nil, err
			}
			result.ClassificationError = err.Error()
		} else {
			classified = true
		}
	case state.RoleAssistant:
		class, classified = p.replyClassification(ctx, item.InputItemID)
	}
	if classified {
		result.Classification = class.String()
	}

	if p.history != nil {
		if err := p.history.Save(ctx, history.Record{
			Item:           item,
			Classification: result.Classification,
			Embedding:      embedding,
		}); err != nil {
			return nil, err
		}
	}

	result.Message = "Conversation item saved successfully"
	if item.Role != state.RoleUser || !classified {
		return result, nil
	}

	switch class {
	case extraction.ClassStatement:
		statement, err := p.ProcessStatement(ctx, item.Content, item.User, item.Metadata())
		result.Statement = statement
		if err != nil {
			if !apperrors.IsErrorType(err, apperrors.ErrorTypeGraph) {
				return nil, err
			}
			p.logger.Error("Graph update failed",
				zap.String("item_id", item.ItemID),
				zap.Error(err),
			)
			result.GraphError = err.Error()
		}

	case extraction.ClassQuestion:
		contextItems, factsErr, err := p.questionContext(ctx, item, embedding)
		if err != nil {
			return nil, err
		}
		result.Context = contextItems
		if factsErr != nil {
			result.GraphError = factsErr.Error()
		}
	}

	return result, nil
}

// replyClassification labels an assistant item from the stored label of the
// user item it answers.
func (p *Pipeline) replyClassification(ctx context.Context, inputItemID string) (extraction.Classification, bool) {
	if p.history == nil {
		return 0, false
	}

	label, ok, err := p.history.Classification(ctx, inputItemID)
	if err != nil {
		p.logger.Warn("Failed to look up input item",
			zap.String("input_item_id", inputItemID),
			zap.Error(err),
		)
		return 0, false
	}
	if !ok {
		return 0, false
	}

	input, err := extraction.ParseClassification(label)
	if err != nil {
		return 0, false
	}
	return input.Reply()
}

// questionContext recalls similar history and graph facts concurrently.
// Recall failures and provider failures abort; a graph failure leaves facts
// out and is returned as factsErr.
func (p *Pipeline) questionContext(ctx context.Context, item state.ConversationItem, embedding []float32) (items []state.ContextItem, factsErr error, err error) {
	var (
		recalled []history.Match
		facts    []string
	)

	g, gctx := errgroup.WithContext(ctx)
	if p.history != nil {
		g.Go(func() error {
			var err error
			recalled, err = p.history.Recall(gctx, embedding, p.opts.RecallCount, p.opts.RecallThreshold)
			return err
		})
	}
	g.Go(func() error {
		var err error
		facts, err = p.ProcessQuestion(gctx, item.Content, item.User)
		if err != nil && apperrors.IsErrorType(err, apperrors.ErrorTypeGraph) {
			p.logger.Warn("Fact retrieval failed",
				zap.String("item_id", item.ItemID),
				zap.Error(err),
			)
			facts = nil
			factsErr = err
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	contextItems := make([]state.ContextItem, 0, len(recalled)+len(facts))
	for _, m := range recalled {
		contextItems = append(contextItems, state.ContextItem{
			ItemID:         m.Item.ItemID,
			InputItemID:    m.Item.InputItemID,
			Role:           m.Item.Role,
			Type:           constants.ContextItemType,
			Content:        m.Item.Content,
			User:           m.Item.User,
			Session:        m.Item.Session,
			Topic:          m.Item.Topic,
			Classification: m.Classification,
			Similarity:     m.Similarity,
		})
	}
	for _, fact := range facts {
		contextItems = append(contextItems, FactContextItem(fact, item.Session))
	}

	p.logger.Debug("Question context assembled",
		zap.String("item_id", item.ItemID),
		zap.Int("recalled", len(recalled)),
		zap.Int("facts", len(facts)),
	)

	return contextItems, factsErr, nil
}

// FactContextItem wraps a graph fact as a context item
func FactContextItem(fact, session string) state.ContextItem {
	return state.ContextItem{
		ItemID:     uuid.NewString(),
		Role:       state.RoleAssistant,
		Type:       constants.ContextItemType,
		Content:    fact,
		User:       constants.FactUser,
		Session:    session,
		Topic:      constants.FactTopic,
		Similarity: constants.FactSimilarity,
	}
}
