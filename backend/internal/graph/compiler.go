package graph

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"voicegraph/backend/pkg/logger"
)

// ============================================================================
// Graph Mutation Compiler
// ============================================================================

type resolvedTriple struct {
	subject  NodeKey
	object   NodeKey
	relation string
	selfLoop bool
}

// Compile turns extracted entities and triples into merge statements.
//
// Triples are handled in input order. A triple whose subject or object has no
// label in entities, or whose verb is blank, is dropped. Every node is merged
// exactly once per batch, ahead of any edge that references it, and each
// distinct edge is merged once. Nodes that appear as a subject carry the
// metadata as ON CREATE properties. Subject and object with the same node
// identifier produce the node merge only.
//
// The result is safe to replay: all statements match on (label, name).
func Compile(entities EntitySet, triples []Triple, meta Metadata) []Statement {
	log := logger.Get()

	resolved := make([]resolvedTriple, 0, len(triples))
	subjects := make(map[NodeKey]bool)
	for _, t := range triples {
		relation := CanonicalRelation(strings.TrimSpace(t.Verb))
		subjectLabel, okSubject := entities.LabelOf(t.Subject)
		objectLabel, okObject := entities.LabelOf(t.Object)
		if !okSubject || !okObject || relation == "" {
			log.Debug("Dropping unresolvable triple",
				zap.String("subject", t.Subject),
				zap.String("verb", t.Verb),
				zap.String("object", t.Object),
			)
			continue
		}

		rt := resolvedTriple{
			subject:  NodeKey{Label: subjectLabel, Name: t.Subject},
			object:   NodeKey{Label: objectLabel, Name: t.Object},
			relation: relation,
			selfLoop: NodeIdentifier(t.Subject) == NodeIdentifier(t.Object),
		}
		subjects[rt.subject] = true
		resolved = append(resolved, rt)
	}

	var statements []Statement
	emittedNodes := make(map[NodeKey]bool)
	emittedEdges := make(map[EdgeRecord]bool)

	emitNode := func(key NodeKey) {
		if emittedNodes[key] {
			return
		}
		emittedNodes[key] = true
		statements = append(statements, nodeMerge(key, subjects[key], meta))
	}

	for _, rt := range resolved {
		emitNode(rt.subject)
		emitNode(rt.object)
		if rt.selfLoop {
			continue
		}
		edge := EdgeRecord{From: rt.subject, Type: rt.relation, To: rt.object}
		if emittedEdges[edge] {
			continue
		}
		emittedEdges[edge] = true
		statements = append(statements, edgeMerge(edge))
	}

	log.Debug("Compiled graph statements",
		zap.Int("triples", len(triples)),
		zap.Int("resolved", len(resolved)),
		zap.Int("statements", len(statements)),
	)

	return statements
}

// nodeMerge builds MERGE (v:Label {name: $name}) with optional ON CREATE stamping.
func nodeMerge(key NodeKey, stamp bool, meta Metadata) Statement {
	v := variableFor(key)
	cypher := fmt.Sprintf("MERGE (%s:%s {name: $name})", v, quoteIdentifier(string(key.Label)))
	params := map[string]interface{}{"name": key.Name}
	record := &NodeRecord{Key: key}

	if stamp {
		cypher += fmt.Sprintf("\nON CREATE SET %[1]s.created = timestamp(), %[1]s.user = $user, %[1]s.session = $session, %[1]s.topic = $topic", v)
		params["user"] = meta.User
		params["session"] = meta.Session
		params["topic"] = meta.Topic
		record.OnCreate = map[string]interface{}{
			"user":    meta.User,
			"session": meta.Session,
			"topic":   meta.Topic,
		}
	}

	return Statement{
		Kind:   KindNodeMerge,
		Cypher: cypher,
		Params: params,
		Node:   record,
	}
}

// edgeMerge builds a MATCH/MATCH/MERGE for an edge between two already merged nodes.
func edgeMerge(edge EdgeRecord) Statement {
	from := variableFor(edge.From)
	to := variableFor(edge.To)
	cypher := fmt.Sprintf(
		"MATCH (%s:%s {name: $subject})\nMATCH (%s:%s {name: $object})\nMERGE (%s)-[:%s]->(%s)",
		from, quoteIdentifier(string(edge.From.Label)),
		to, quoteIdentifier(string(edge.To.Label)),
		from, quoteIdentifier(edge.Type), to,
	)

	record := edge
	return Statement{
		Kind:   KindEdgeMerge,
		Cypher: cypher,
		Params: map[string]interface{}{
			"subject": edge.From.Name,
			"object":  edge.To.Name,
		},
		Edge: &record,
	}
}

// Render joins statements into a script for display. Parameters are not inlined.
func Render(statements []Statement) string {
	parts := make([]string, len(statements))
	for i, s := range statements {
		parts[i] = s.Cypher + ";"
	}
	return strings.Join(parts, "\n\n")
}
