package graph

import (
	"encoding/json"
	"strings"
)

// ============================================================================
// Knowledge Graph Types
// ============================================================================

// Label is an entity category and doubles as the node label in the graph.
type Label string

const (
	LabelPerson       Label = "Person"
	LabelOrganization Label = "Organization"
	LabelOccupation   Label = "Occupation"
	LabelPlace        Label = "Place"
	LabelProduct      Label = "Product"
	LabelService      Label = "Service"
	LabelEvent        Label = "Event"
	LabelSkill        Label = "Skill"
	LabelReligion     Label = "Religion"
	LabelThing        Label = "Thing"
)

// Labels lists every entity category in resolution order.
var Labels = []Label{
	LabelPerson,
	LabelOrganization,
	LabelOccupation,
	LabelPlace,
	LabelProduct,
	LabelService,
	LabelEvent,
	LabelSkill,
	LabelReligion,
	LabelThing,
}

// ParseLabel maps a category name to its Label, ignoring case and surrounding space.
func ParseLabel(s string) (Label, bool) {
	s = strings.TrimSpace(s)
	for _, l := range Labels {
		if strings.EqualFold(string(l), s) {
			return l, true
		}
	}
	return "", false
}

// EntitySet maps each category to the entity names found for it.
// A label never maps to an empty list.
type EntitySet map[Label][]string

// Add appends names under label, skipping blanks and names already present.
func (s EntitySet) Add(label Label, names ...string) {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || containsString(s[label], name) {
			continue
		}
		s[label] = append(s[label], name)
	}
}

// Prune drops labels with no names.
func (s EntitySet) Prune() EntitySet {
	for label, names := range s {
		if len(names) == 0 {
			delete(s, label)
		}
	}
	return s
}

// IsEmpty reports whether the set holds no names at all.
func (s EntitySet) IsEmpty() bool {
	for _, names := range s {
		if len(names) > 0 {
			return false
		}
	}
	return true
}

// LabelOf returns the first category, in Labels order, whose list contains name verbatim.
func (s EntitySet) LabelOf(name string) (Label, bool) {
	for _, label := range Labels {
		if containsString(s[label], name) {
			return label, true
		}
	}
	return "", false
}

// Names flattens every name across labels in Labels order, without repeats.
func (s EntitySet) Names() []string {
	var names []string
	seen := make(map[string]bool)
	for _, label := range Labels {
		for _, name := range s[label] {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// UnmarshalJSON accepts {"Person": ["Jon"], ...}. Unknown categories and
// non-string values are ignored; a bare string counts as a one-name list.
func (s *EntitySet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	set := EntitySet{}
	for key, value := range raw {
		label, ok := ParseLabel(key)
		if !ok {
			continue
		}
		var names []interface{}
		if err := json.Unmarshal(value, &names); err != nil {
			var single string
			if json.Unmarshal(value, &single) == nil {
				set.Add(label, single)
			}
			continue
		}
		for _, n := range names {
			if str, ok := n.(string); ok {
				set.Add(label, str)
			}
		}
	}
	*s = set.Prune()
	return nil
}

// Triple is a subject-verb-object assertion extracted from text.
type Triple struct {
	Subject string `json:"subject"`
	Verb    string `json:"verb"`
	Object  string `json:"object"`
}

// Metadata is stamped onto subject nodes when they are first created.
type Metadata struct {
	User    string `json:"user"`
	Session string `json:"session"`
	Topic   string `json:"topic"`
}

// NodeKey identifies a stored node. Two mentions with the same key are the same node.
type NodeKey struct {
	Label Label
	Name  string
}

// NodeRecord is the structured form of a node merge.
type NodeRecord struct {
	Key      NodeKey
	OnCreate map[string]interface{} // properties set only when the node is created
}

// EdgeRecord is the structured form of an edge merge.
type EdgeRecord struct {
	From NodeKey
	Type string
	To   NodeKey
}

// MatchMode selects how fact retrieval compares names.
type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchPhonetic MatchMode = "phonetic"
)

// FactMatch is the structured form of a fact query.
type FactMatch struct {
	Names []string
	Mode  MatchMode
}

// StatementKind discriminates compiled statements.
type StatementKind int

const (
	KindNodeMerge StatementKind = iota
	KindEdgeMerge
	KindFactQuery
)

func (k StatementKind) String() string {
	switch k {
	case KindNodeMerge:
		return "node merge"
	case KindEdgeMerge:
		return "edge merge"
	case KindFactQuery:
		return "fact query"
	default:
		return "unknown"
	}
}

// Statement is one parameterized Cypher statement plus the structured
// record it was compiled from, so stores other than Neo4j can apply it.
type Statement struct {
	Kind   StatementKind
	Cypher string
	Params map[string]interface{}

	Node  *NodeRecord
	Edge  *EdgeRecord
	Match *FactMatch
}

// Counters summarizes what a statement changed.
type Counters struct {
	NodesCreated         int `json:"nodes_created"`
	RelationshipsCreated int `json:"relationships_created"`
	PropertiesSet        int `json:"properties_set"`
}

func (c *Counters) add(o Counters) {
	c.NodesCreated += o.NodesCreated
	c.RelationshipsCreated += o.RelationshipsCreated
	c.PropertiesSet += o.PropertiesSet
}

// Result is what a store returns for one statement.
type Result struct {
	Records []map[string]interface{}
	Counters
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
