package graph

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore applies compiled statements to an in-process graph with the
// same merge semantics as Neo4j: nodes keyed by (label, name), ON CREATE
// properties written once, edges unique per (from, type, to).
type MemoryStore struct {
	mu        sync.RWMutex
	nodes     map[NodeKey]map[string]interface{}
	edges     []EdgeRecord
	edgeIndex map[EdgeRecord]bool
	now       func() time.Time
}

// NewMemoryStore creates an empty in-memory graph
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:     make(map[NodeKey]map[string]interface{}),
		edgeIndex: make(map[EdgeRecord]bool),
		now:       time.Now,
	}
}

// Execute applies one statement using its structured record.
func (m *MemoryStore) Execute(ctx context.Context, stmt Statement) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch stmt.Kind {
	case KindNodeMerge:
		if stmt.Node == nil {
			return nil, fmt.Errorf("node merge without node record")
		}
		return m.mergeNode(*stmt.Node), nil
	case KindEdgeMerge:
		if stmt.Edge == nil {
			return nil, fmt.Errorf("edge merge without edge record")
		}
		return m.mergeEdge(*stmt.Edge), nil
	case KindFactQuery:
		if stmt.Match == nil {
			return nil, fmt.Errorf("fact query without match")
		}
		return m.matchFacts(*stmt.Match), nil
	default:
		return nil, fmt.Errorf("unsupported statement kind %d", stmt.Kind)
	}
}

func (m *MemoryStore) mergeNode(rec NodeRecord) *Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.nodes[rec.Key]; exists {
		return &Result{}
	}

	props := map[string]interface{}{"name": rec.Key.Name}
	set := 1
	if rec.OnCreate != nil {
		props["created"] = m.now().UnixMilli()
		set++
		for k, v := range rec.OnCreate {
			props[k] = v
			set++
		}
	}
	m.nodes[rec.Key] = props

	return &Result{Counters: Counters{NodesCreated: 1, PropertiesSet: set}}
}

// mergeEdge is a no-op when either endpoint is missing, like MATCH returning no rows.
func (m *MemoryStore) mergeEdge(edge EdgeRecord) *Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, fromOK := m.nodes[edge.From]
	_, toOK := m.nodes[edge.To]
	if !fromOK || !toOK || m.edgeIndex[edge] {
		return &Result{}
	}

	m.edgeIndex[edge] = true
	m.edges = append(m.edges, edge)
	return &Result{Counters: Counters{RelationshipsCreated: 1}}
}

func (m *MemoryStore) matchFacts(match FactMatch) *Result {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := func(name string) bool {
		for _, n := range match.Names {
			if match.Mode == MatchPhonetic {
				if soundsAlike(name, n) {
					return true
				}
			} else if name == n {
				return true
			}
		}
		return false
	}

	result := &Result{Records: []map[string]interface{}{}}
	for _, edge := range m.edges {
		if !matches(edge.From.Name) && !matches(edge.To.Name) {
			continue
		}
		result.Records = append(result.Records, map[string]interface{}{
			"subject":  edge.From.Name,
			"relation": edge.Type,
			"object":   edge.To.Name,
		})
	}

	sort.SliceStable(result.Records, func(i, j int) bool {
		a, b := result.Records[i], result.Records[j]
		for _, k := range []string{"subject", "relation", "object"} {
			av, bv := a[k].(string), b[k].(string)
			if av != bv {
				return av < bv
			}
		}
		return false
	})

	return result
}

// Node returns a copy of a node's properties
func (m *MemoryStore) Node(key NodeKey) (map[string]interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	props, ok := m.nodes[key]
	if !ok {
		return nil, false
	}
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out, true
}

// Counts returns the number of nodes and edges
func (m *MemoryStore) Counts(ctx context.Context) (nodes, edges int, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes), len(m.edges), nil
}
