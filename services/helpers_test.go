package services

import (
	"sync"
	"time"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type publishedEvent struct {
	RoomID  string
	Type    string
	Payload interface{}
}

// recordingNotifier captures room events for assertions.
type recordingNotifier struct {
	mu           sync.Mutex
	events       []publishedEvent
	closed       []string
	disconnected []string
}

func (n *recordingNotifier) Publish(roomID, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, publishedEvent{RoomID: roomID, Type: eventType, Payload: payload})
}

func (n *recordingNotifier) DisconnectUser(roomID, userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disconnected = append(n.disconnected, roomID+"/"+userID)
}

func (n *recordingNotifier) CloseRoom(roomID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, roomID)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }
