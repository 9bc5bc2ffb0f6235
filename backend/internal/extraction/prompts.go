package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"voicegraph/backend/internal/graph"
)

func classificationPrompt(text string) string {
	return fmt.Sprintf(`Analyze the following sentence and determine whether it is a question or a statement.
The sentence may not have punctuation, so consider its structure and wording.
Respond with only 'Question' or 'Statement' and nothing else.

Sentence: %s`, text)
}

func entityPrompt(statement, identity string) string {
	labels := make([]string, len(graph.Labels))
	for i, l := range graph.Labels {
		labels[i] = string(l)
	}

	var selfRef string
	if identity != "" {
		selfRef = fmt.Sprintf("\nThe statement may contain self-references (like \"I\", \"I'm\", \"me\", \"my\") which refer to a person named %q. List that person under Person.", identity)
	}

	return fmt.Sprintf(`Identify and extract entities from the following statement.%s
Categorize them into these types: %s.
Return the result as a single JSON object in a fenced code block, where keys are entity types and values are arrays of entity names.
Omit types with no entities.

Statement: %q

JSON Output:`, selfRef, strings.Join(labels, ", "), statement)
}

func relationshipPrompt(statement string, entities graph.EntitySet) string {
	encoded, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		encoded = []byte("{}")
	}

	return fmt.Sprintf(`Identify relationships in the following statement and express them as Subject-Verb-Object triples.
Use the entities provided below and resolve pronouns to the correct entity where possible.
The subject and object of each triple must be chosen from the entity names exactly as written. The verb is the action
or relationship between the subject and object, for example "works at" or "lives in".

Statement: %q

Entities: %s

Return a JSON array of objects with "subject", "verb" and "object" keys in a fenced code block:`, statement, encoded)
}

func titlePrompt(text string) string {
	return fmt.Sprintf("Extract a short title from this text: %s", text)
}
