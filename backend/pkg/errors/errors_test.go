package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsErrorType_WalksWrappedChain(t *testing.T) {
	err := fmt.Errorf("statement turn: %w", NewGraphBatchFailed(2, 5, stderrors.New("boom")))

	assert.True(t, IsErrorType(err, ErrorTypeGraph))
	assert.False(t, IsErrorType(err, ErrorTypeProvider))
	assert.False(t, IsErrorType(nil, ErrorTypeGraph))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"retryable provider", NewProviderFailed("completion", "gpt-4o-mini", 3, true, context.DeadlineExceeded), true},
		{"permanent provider", NewProviderFailed("completion", "gpt-4o-mini", 1, false, stderrors.New("401")), false},
		{"graph query", NewGraphQueryFailed("node merge", stderrors.New("unavailable")), true},
		{"unclassifiable", NewUnclassifiable("Maybe"), false},
		{"invalid item", NewInvalidItem("content", "is required"), false},
		{"cancelled", NewContextCancelled("completion", context.Canceled), false},
		{"plain", stderrors.New("plain"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestErrGraphBatchFailed_Message(t *testing.T) {
	err := NewGraphBatchFailed(0, 3, stderrors.New("constraint"))

	assert.Equal(t, "[graph] batch failed at statement 1 of 3: constraint", err.Error())
	assert.Equal(t, "constraint", stderrors.Unwrap(err).Error())
}

func TestErrUnclassifiable_As(t *testing.T) {
	err := fmt.Errorf("classify: %w", NewUnclassifiable("SELECT *"))

	var target *ErrUnclassifiable
	if assert.True(t, stderrors.As(err, &target)) {
		assert.Equal(t, "SELECT *", target.Token)
	}
}
