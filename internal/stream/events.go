package stream

import (
	"encoding/json"

	"github.com/agentdeck/agentdeck/internal/models"
)

// Event kinds framed by the platform's message stream.
const (
	eventMessageStart    = "message-start"
	eventTextDelta       = "text-delta"
	eventToolCall        = "tool-call"
	eventToolResult      = "tool-result"
	eventApprovalRequest = "approval-request"
	eventMessageEnd      = "message-end"
	eventDone            = "done"
	eventError           = "error"
)

// dataPrefix frames event lines; anything else on the wire is keep-alive
// padding and is skipped.
const dataPrefix = "data: "

// event is the decoded payload of one `data: ` line. Fields beyond Type
// are kind-specific; unrecognized kinds carry nothing we act on.
type event struct {
	Type       string                  `json:"type"`
	MessageID  string                  `json:"messageId,omitempty"`
	AgentID    string                  `json:"agentId,omitempty"`
	Delta      string                  `json:"delta,omitempty"`
	ToolCall   *models.ToolCall        `json:"toolCall,omitempty"`
	ToolCallID string                  `json:"toolCallId,omitempty"`
	Result     json.RawMessage         `json:"result,omitempty"`
	Status     string                  `json:"status,omitempty"`
	Approval   *models.ApprovalRequest `json:"approval,omitempty"`
	Error      string                  `json:"error,omitempty"`
}
