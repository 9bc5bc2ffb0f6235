package extraction

import (
	"context"
	"fmt"
	"strings"
)

// Title asks the model for a short title summarizing text
func Title(ctx context.Context, llm Completer, text string) (string, error) {
	content, err := llm.Complete(ctx, titlePrompt(text))
	if err != nil {
		return "", fmt.Errorf("failed to extract title: %w", err)
	}
	return strings.Trim(strings.TrimSpace(content), "\"'"), nil
}
