package extraction

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	apperrors "voicegraph/backend/pkg/errors"
	"voicegraph/backend/pkg/logger"
)

// Classification labels a conversation item. The numeric values are stable
// and stored with history items.
type Classification int

const (
	ClassSelect Classification = iota
	ClassQuestion
	ClassStatement
	ClassAnswer
	ClassComment
)

var classificationNames = []string{"Select", "Question", "Statement", "Answer", "Comment"}

func (c Classification) String() string {
	if c < 0 || int(c) >= len(classificationNames) {
		return fmt.Sprintf("Classification(%d)", int(c))
	}
	return classificationNames[c]
}

// Reply returns the label of an assistant turn answering a user turn of class c:
// questions are answered, statements commented on.
func (c Classification) Reply() (Classification, bool) {
	switch c {
	case ClassQuestion:
		return ClassAnswer, true
	case ClassStatement:
		return ClassComment, true
	default:
		return 0, false
	}
}

// ParseClassification maps a model answer to a label. Case, surrounding
// whitespace, quotes and a trailing period are ignored; anything else that is
// not a known label yields ErrUnclassifiable.
func ParseClassification(token string) (Classification, error) {
	cleaned := strings.Trim(strings.TrimSpace(token), "\"'`.")
	cleaned = strings.TrimSpace(cleaned)
	for i, name := range classificationNames {
		if strings.EqualFold(name, cleaned) {
			return Classification(i), nil
		}
	}
	return 0, apperrors.NewUnclassifiable(token)
}

// Classifier labels utterances as Statement or Question
type Classifier struct {
	llm    Completer
	logger *zap.Logger
}

// NewClassifier creates a new classifier
func NewClassifier(llm Completer) *Classifier {
	return &Classifier{
		llm:    llm,
		logger: logger.Get(),
	}
}

// Classify asks the model for a single label. Provider failures and
// unrecognized answers are returned as errors; no label is guessed.
func (c *Classifier) Classify(ctx context.Context, text string) (Classification, error) {
	answer, err := c.llm.Complete(ctx, classificationPrompt(text))
	if err != nil {
		return 0, fmt.Errorf("failed to classify text: %w", err)
	}

	class, err := ParseClassification(answer)
	if err != nil {
		c.logger.Warn("Unrecognized classification",
			zap.String("answer", answer),
			zap.String("text", text),
		)
		return 0, err
	}

	c.logger.Debug("Text classified", zap.String("classification", class.String()))
	return class, nil
}
