package gateway

import (
	"github.com/google/uuid"

	"github.com/aviavoice/gateway/internal/profile"
)

// DefaultAgent is the label every session starts with.
const DefaultAgent = "FAQ Agent"

// imageUpload accumulates a chunked client-side image transfer. The current
// translator never consumes these; the buffers exist so a future upstream
// vision turn can pick them up.
type imageUpload struct {
	Text   string
	Chunks []string
}

// Session is the per-connection state owned by exactly one Controller. All
// fields are mutated only from the controller's serial loops, so no locking
// is needed.
type Session struct {
	ID               string
	Profile          profile.Profile
	DefaultAgent     string
	ActiveAgent      string
	PendingSpeakText string

	images map[string]*imageUpload

	// Pending function-call index. call_id is not guaranteed on the done
	// event, so the item id keeps a path back to it.
	toolByCallID   map[string]string
	callIDByItemID map[string]string
}

func NewSession(p profile.Profile) *Session {
	return &Session{
		ID:             uuid.NewString(),
		Profile:        p,
		DefaultAgent:   DefaultAgent,
		ActiveAgent:    DefaultAgent,
		images:         make(map[string]*imageUpload),
		toolByCallID:   make(map[string]string),
		callIDByItemID: make(map[string]string),
	}
}

func (s *Session) registerFunctionCall(callID, itemID, tool string) {
	if callID != "" {
		s.toolByCallID[callID] = tool
	}
	if itemID != "" {
		s.toolByCallID[itemID] = tool
	}
	if itemID != "" && callID != "" {
		s.callIDByItemID[itemID] = callID
	}
}

// resolveCallID recovers the call id for a completed function-call item that
// only carries its item id.
func (s *Session) resolveCallID(itemID string) string {
	return s.callIDByItemID[itemID]
}

func (s *Session) forgetFunctionCall(callID, itemID string) {
	delete(s.toolByCallID, callID)
	delete(s.toolByCallID, itemID)
	delete(s.callIDByItemID, itemID)
}
