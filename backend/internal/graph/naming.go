package graph

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CanonicalRelation turns a verb into an edge type: uppercased, every
// whitespace run replaced by a single underscore.
func CanonicalRelation(verb string) string {
	return whitespaceRun.ReplaceAllString(strings.ToUpper(verb), "_")
}

// NodeIdentifier is the statement-local form of an entity name.
// It is never used as the stored key.
func NodeIdentifier(name string) string {
	return whitespaceRun.ReplaceAllString(name, "_")
}

// variableFor builds the Cypher variable for a node. The label prefix keeps a
// Person and an Organization with the same name apart.
func variableFor(key NodeKey) string {
	return quoteIdentifier(strings.ToLower(string(key.Label)) + "_" + NodeIdentifier(key.Name))
}

// quoteIdentifier backtick-quotes a Cypher identifier.
func quoteIdentifier(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// FormatRelation renders an edge type for reading: WORKS_AT -> "works at".
func FormatRelation(relation string) string {
	parts := strings.FieldsFunc(strings.ToLower(relation), func(r rune) bool { return r == '_' })
	return strings.Join(parts, " ")
}

// FormatFact renders one matched edge as "<subject> <relation> <object>".
func FormatFact(subject, relation, object string) string {
	return subject + " " + FormatRelation(relation) + " " + object
}
