package state

import (
	"strings"

	"voicegraph/backend/internal/graph"
	apperrors "voicegraph/backend/pkg/errors"
)

// Role is who produced a conversation item
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationItem is one transcribed turn as posted by the client.
// An assistant item names the user item it answers through InputItemID.
type ConversationItem struct {
	ItemID      string `json:"item_id"`
	InputItemID string `json:"input_item_id,omitempty"`
	Role        Role   `json:"role"`
	Type        string `json:"type,omitempty"`
	Content     string `json:"content"`
	User        string `json:"user,omitempty"`
	Session     string `json:"session,omitempty"`
	Topic       string `json:"topic,omitempty"`
}

// Validate checks the fields the pipeline depends on
func (ci *ConversationItem) Validate() error {
	if strings.TrimSpace(ci.Content) == "" {
		return apperrors.NewInvalidItem("content", "cannot be empty")
	}
	switch ci.Role {
	case RoleUser:
	case RoleAssistant:
		if ci.InputItemID == "" {
			return apperrors.NewInvalidItem("input_item_id", "is required for assistant items")
		}
	default:
		return apperrors.NewInvalidItem("role", "must be user or assistant")
	}
	return nil
}

// Metadata returns the properties stamped onto graph nodes created from this item
func (ci *ConversationItem) Metadata() graph.Metadata {
	return graph.Metadata{
		User:    ci.User,
		Session: ci.Session,
		Topic:   ci.Topic,
	}
}

// ContextItem is returned to the caller of a question turn, either a recalled
// history item or a fact from the graph.
type ContextItem struct {
	ItemID         string  `json:"item_id"`
	InputItemID    string  `json:"input_item_id,omitempty"`
	Role           Role    `json:"role"`
	Type           string  `json:"type"`
	Content        string  `json:"content"`
	User           string  `json:"user,omitempty"`
	Session        string  `json:"session,omitempty"`
	Topic          string  `json:"topic,omitempty"`
	Classification string  `json:"classification,omitempty"`
	Similarity     float64 `json:"similarity"`
}
