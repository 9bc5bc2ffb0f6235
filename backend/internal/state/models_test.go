package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"voicegraph/backend/internal/graph"
	apperrors "voicegraph/backend/pkg/errors"
)

func TestConversationItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    ConversationItem
		wantErr bool
	}{
		{"user item", ConversationItem{Role: RoleUser, Content: "I work at Acme Corp"}, false},
		{"assistant with input id", ConversationItem{Role: RoleAssistant, Content: "Nice!", InputItemID: "item_1"}, false},
		{"blank content", ConversationItem{Role: RoleUser, Content: "  "}, true},
		{"assistant without input id", ConversationItem{Role: RoleAssistant, Content: "Nice!"}, true},
		{"unknown role", ConversationItem{Role: "system", Content: "hi"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConversationItem_Metadata(t *testing.T) {
	item := ConversationItem{User: "Jon", Session: "s1", Topic: "Work"}
	assert.Equal(t, graph.Metadata{User: "Jon", Session: "s1", Topic: "Work"}, item.Metadata())
}
