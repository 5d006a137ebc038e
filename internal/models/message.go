package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message lifecycle statuses. A streaming message's content grows
// incrementally until message-end arrives, then the message is sent and
// no longer mutated.
const (
	StatusSent      = "sent"
	StatusStreaming = "streaming"
)

// Approval request statuses.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Message represents a single turn within a session.
type Message struct {
	ID        string           `json:"id"`
	SessionID string           `json:"sessionId"`
	AgentID   string           `json:"agentId,omitempty"`
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Status    string           `json:"status"`
	ToolCalls []ToolCall       `json:"toolCalls,omitempty"`
	Approval  *ApprovalRequest `json:"approval,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// ToolCall records the assistant invoking an external capability
// mid-response. Arguments and Result are opaque to the client.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Status    string          `json:"status,omitempty"`
}

// ApprovalRequest gates an action on a message until the user accepts or
// rejects it. Resolution happens on the platform side.
type ApprovalRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// NewUserMessage builds the optimistic user turn that callers append to
// the store before opening the response stream.
func NewUserMessage(sessionID, content string) Message {
	return Message{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Role:      RoleUser,
		Content:   content,
		Status:    StatusSent,
		CreatedAt: time.Now(),
	}
}

// ToolCall returns the tool call with the given id, or nil if the message
// has no such call.
func (m *Message) ToolCall(id string) *ToolCall {
	for i := range m.ToolCalls {
		if m.ToolCalls[i].ID == id {
			return &m.ToolCalls[i]
		}
	}
	return nil
}
