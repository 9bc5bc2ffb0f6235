package constants

// Context item constants
const (
	// ContextItemType marks items returned as context for a question
	ContextItemType = "context"

	// FactUser is the user reported on context items built from graph facts
	FactUser = "neo4j"

	// FactTopic is the topic reported on context items built from graph facts
	FactTopic = "facts"

	// FactSimilarity is the fixed similarity reported for graph facts
	FactSimilarity = 0.5
)

// Server constants
const (
	// MaxRequestBodyBytes caps JSON request bodies
	MaxRequestBodyBytes = 1 << 20
)
