package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"voicegraph/backend/internal/adapter"
	"voicegraph/backend/internal/graph"
	"voicegraph/backend/internal/history"
	"voicegraph/backend/internal/pipeline"
	"voicegraph/backend/pkg/config"
)

// graphCounter is implemented by both graph stores
type graphCounter interface {
	Counts(ctx context.Context) (nodes, edges int, err error)
}

// ServiceManager owns the pipeline's backing services: the graph store,
// the history database and the model provider.
type ServiceManager struct {
	logger *zap.Logger
	cfg    *config.Config

	mu         sync.Mutex
	driver     neo4j.DriverWithContext
	neo4jStore *graph.Neo4jStore
	store      graph.Store
	history    *history.Store
	llm        *adapter.LLMAdapter
	pipeline   *pipeline.Pipeline
}

// NewServiceManager creates a new service manager
func NewServiceManager(logger *zap.Logger, cfg *config.Config) *ServiceManager {
	return &ServiceManager{
		logger: logger,
		cfg:    cfg,
	}
}

// StartGraph connects the configured graph backend
func (sm *ServiceManager) StartGraph(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.store != nil {
		return fmt.Errorf("graph store already started")
	}

	if sm.cfg.GraphBackend == config.GraphBackendMemory {
		sm.store = graph.NewMemoryStore()
		sm.logger.Warn("Using in-memory graph store; facts are lost on exit")
		return nil
	}

	driver, err := graph.OpenNeo4j(ctx, sm.cfg.Neo4jURI, sm.cfg.Neo4jUser, sm.cfg.Neo4jPassword)
	if err != nil {
		return err
	}
	sm.driver = driver
	sm.neo4jStore = graph.NewNeo4jStore(driver, sm.cfg.Neo4jDatabase)
	sm.store = sm.neo4jStore

	if _, err := sm.neo4jStore.EnsureSchema(ctx, false); err != nil {
		// Merges still work without constraints, only slower and racier
		sm.logger.Warn("Failed to ensure graph schema", zap.Error(err))
	}

	sm.logger.Info("Connected to Neo4j",
		zap.String("uri", sm.cfg.Neo4jURI),
		zap.String("database", sm.cfg.Neo4jDatabase),
	)
	return nil
}

// StartHistory opens the conversation history database. An empty path disables history.
func (sm *ServiceManager) StartHistory() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.history != nil {
		return fmt.Errorf("history store already started")
	}
	if sm.cfg.HistoryDB == "" {
		sm.logger.Warn("HISTORY_DB not set; conversation items will not be persisted")
		return nil
	}

	store, err := history.Open(sm.cfg.HistoryDB)
	if err != nil {
		return err
	}
	sm.history = store

	sm.logger.Info("History store opened", zap.String("path", sm.cfg.HistoryDB))
	return nil
}

// StartAll starts every service and wires the pipeline
func (sm *ServiceManager) StartAll(ctx context.Context) error {
	if err := sm.StartGraph(ctx); err != nil {
		return fmt.Errorf("failed to start graph store: %w", err)
	}

	if err := sm.StartHistory(); err != nil {
		sm.StopAll()
		return fmt.Errorf("failed to start history store: %w", err)
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.llm = adapter.NewLLMAdapter(adapter.Options{
		BaseURL:        sm.cfg.OpenAIBaseURL,
		APIKey:         sm.cfg.OpenAIAPIKey,
		ChatModel:      sm.cfg.ChatModel,
		EmbeddingModel: sm.cfg.EmbeddingModel,
		Timeout:        sm.cfg.LLMTimeout,
		MaxRetries:     sm.cfg.LLMMaxRetries,
	})

	// A nil *history.Store must not become a non-nil interface
	var hist pipeline.History
	if sm.history != nil {
		hist = sm.history
	}
	sm.pipeline = pipeline.New(sm.llm, sm.store, hist, pipeline.Options{
		RecallCount:     sm.cfg.RecallCount,
		RecallThreshold: sm.cfg.RecallThreshold,
		MatchMode:       graph.MatchMode(sm.cfg.FactMatch),
	})

	sm.logger.Info("Pipeline ready",
		zap.String("graph_backend", sm.cfg.GraphBackend),
		zap.String("chat_model", sm.llm.ChatModel()),
		zap.String("fact_match", sm.cfg.FactMatch),
	)
	return nil
}

// StopAll closes every started service
func (sm *ServiceManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.history != nil {
		if err := sm.history.Close(); err != nil {
			sm.logger.Warn("Failed to close history store", zap.Error(err))
		}
		sm.history = nil
	}

	if sm.driver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sm.driver.Close(ctx); err != nil {
			sm.logger.Warn("Failed to close Neo4j driver", zap.Error(err))
		}
		sm.driver = nil
		sm.neo4jStore = nil
	}

	sm.store = nil
	sm.pipeline = nil
	sm.logger.Info("All services stopped")
}

// Pipeline returns the wired pipeline, nil before StartAll
func (sm *ServiceManager) Pipeline() *pipeline.Pipeline {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.pipeline
}

// Store returns the graph store, nil before StartGraph
func (sm *ServiceManager) Store() graph.Store {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.store
}

// Neo4j returns the Neo4j store when that backend is in use
func (sm *ServiceManager) Neo4j() (*graph.Neo4jStore, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.neo4jStore, sm.neo4jStore != nil
}

// GraphStats returns node and edge counts of the graph store
func (sm *ServiceManager) GraphStats(ctx context.Context) (nodes, edges int, err error) {
	store := sm.Store()
	counter, ok := store.(graphCounter)
	if !ok {
		return 0, 0, fmt.Errorf("graph store not started")
	}
	return counter.Counts(ctx)
}

// IsHistoryEnabled reports whether conversation items are persisted
func (sm *ServiceManager) IsHistoryEnabled() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.history != nil
}
