package extraction

import "context"

// Completer is the single completion capability every extractor needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
