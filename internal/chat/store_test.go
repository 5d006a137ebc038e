package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdeck/agentdeck/internal/models"
)

func testMessage(id, sessionID, content string) models.Message {
	return models.Message{
		ID:        id,
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		Content:   content,
		Status:    models.StatusSent,
	}
}

func TestAddMessage_CreatesListAndAppends(t *testing.T) {
	s := NewStore()

	s.AddMessage(testMessage("m1", "s1", "first"))
	s.AddMessage(testMessage("m2", "s1", "second"))
	s.AddMessage(testMessage("m3", "s2", "other session"))

	msgs := s.Messages("s1")
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "m2", msgs[1].ID)
	assert.Len(t, s.Messages("s2"), 1)
}

func TestSetMessages_ReplacesUnconditionally(t *testing.T) {
	s := NewStore()
	s.AddMessage(testMessage("m1", "s1", "old"))

	s.SetMessages("s1", []models.Message{
		testMessage("m2", "s1", "new"),
	})

	msgs := s.Messages("s1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "m2", msgs[0].ID)
}

func TestSetActiveSession_DoesNotTouchMessages(t *testing.T) {
	s := NewStore()
	s.AddMessage(testMessage("m1", "s1", "hello"))
	s.AddMessage(testMessage("m2", "s2", "there"))

	s.SetActiveSession("s2")

	assert.Equal(t, "s2", s.ActiveSession())
	assert.Len(t, s.Messages("s1"), 1)
	assert.Len(t, s.Messages("s2"), 1)

	s.SetActiveSession("")
	assert.Equal(t, "", s.ActiveSession())
}

func TestAddSession_Prepends(t *testing.T) {
	s := NewStore()
	s.SetSessions([]models.Session{{ID: "s1", Title: "older"}})

	s.AddSession(models.Session{ID: "s2", Title: "newer"})

	sessions := s.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "s2", sessions[0].ID)
	assert.Equal(t, "s1", sessions[1].ID)
}

func TestPatchMessage_ShallowMerge(t *testing.T) {
	s := NewStore()
	msg := testMessage("m1", "s1", "hello")
	msg.Status = models.StatusStreaming
	msg.ToolCalls = []models.ToolCall{{ID: "t1", Name: "search"}}
	s.AddMessage(msg)

	content := "hello world"
	s.PatchMessage("m1", MessagePatch{Content: &content})

	got := s.Messages("s1")[0]
	assert.Equal(t, "hello world", got.Content)
	assert.Equal(t, models.StatusStreaming, got.Status, "unset patch fields must stay")
	assert.Len(t, got.ToolCalls, 1, "unset patch fields must stay")

	sent := models.StatusSent
	s.PatchMessage("m1", MessagePatch{Status: &sent})
	got = s.Messages("s1")[0]
	assert.Equal(t, "hello world", got.Content)
	assert.Equal(t, models.StatusSent, got.Status)
}

func TestPatchMessage_ReplacesApprovalWholesale(t *testing.T) {
	s := NewStore()
	msg := testMessage("m1", "s1", "")
	msg.Approval = &models.ApprovalRequest{ID: "a1", Status: models.ApprovalPending}
	s.AddMessage(msg)

	s.PatchMessage("m1", MessagePatch{
		Approval: &models.ApprovalRequest{ID: "a2", Status: models.ApprovalApproved},
	})

	got := s.Messages("s1")[0]
	require.NotNil(t, got.Approval)
	assert.Equal(t, "a2", got.Approval.ID)
	assert.Equal(t, models.ApprovalApproved, got.Approval.Status)
}

func TestPatchMessage_UnknownID_NoOp(t *testing.T) {
	s := NewStore()
	s.AddMessage(testMessage("m1", "s1", "one"))
	s.AddMessage(testMessage("m2", "s2", "two"))
	before1 := s.Messages("s1")
	before2 := s.Messages("s2")

	content := "changed"
	s.PatchMessage("missing", MessagePatch{Content: &content})
	s.UpdateMessageWith("missing", func(m *models.Message) {
		m.Content = "changed"
	})

	assert.Equal(t, before1, s.Messages("s1"))
	assert.Equal(t, before2, s.Messages("s2"))
}

func TestUpdateMessageWith_AppendsToolCalls(t *testing.T) {
	s := NewStore()
	s.AddMessage(testMessage("m1", "s1", "body"))

	s.UpdateMessageWith("m1", func(m *models.Message) {
		m.ToolCalls = append(m.ToolCalls, models.ToolCall{ID: "t1", Name: "search"})
	})
	s.UpdateMessageWith("m1", func(m *models.Message) {
		m.ToolCalls = append(m.ToolCalls, models.ToolCall{ID: "t2", Name: "fetch"})
	})

	got := s.Messages("s1")[0]
	require.Len(t, got.ToolCalls, 2)
	assert.Equal(t, "t1", got.ToolCalls[0].ID)
	assert.Equal(t, "t2", got.ToolCalls[1].ID)
	assert.Equal(t, "body", got.Content, "tool-call updates must not touch content")
}

func TestSetStreamingID(t *testing.T) {
	s := NewStore()

	s.SetStreamingID("m1")
	assert.Equal(t, "m1", s.StreamingID())

	// Unvalidated by design: ids that don't exist are accepted.
	s.SetStreamingID("ghost")
	assert.Equal(t, "ghost", s.StreamingID())

	s.SetStreamingID("")
	assert.Equal(t, "", s.StreamingID())
}

func TestSubscribe_NotifiesOnEveryMutation(t *testing.T) {
	s := NewStore()
	var calls int
	unsubscribe := s.Subscribe(func() { calls++ })

	s.AddMessage(testMessage("m1", "s1", "x"))
	s.SetStreamingID("m1")
	content := "y"
	s.PatchMessage("m1", MessagePatch{Content: &content})
	assert.Equal(t, 3, calls)

	unsubscribe()
	s.SetStreamingID("")
	assert.Equal(t, 3, calls, "no notifications after unsubscribe")
}

func TestSubscribe_NoNotifyOnMissedUpdate(t *testing.T) {
	s := NewStore()
	var calls int
	defer s.Subscribe(func() { calls++ })()

	s.UpdateMessageWith("missing", func(m *models.Message) {})
	assert.Equal(t, 0, calls, "a no-op update must not notify")
}

func TestMessages_ReturnsCopy(t *testing.T) {
	s := NewStore()
	s.AddMessage(testMessage("m1", "s1", "original"))

	msgs := s.Messages("s1")
	msgs[0].Content = "mutated"

	assert.Equal(t, "original", s.Messages("s1")[0].Content)
}
