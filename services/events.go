package services

// Room event types pushed to websocket subscribers.
const (
	EventMemberJoined  = "member_joined"
	EventMemberLeft    = "member_left"
	EventMemberRemoved = "member_removed"
	EventRoomUpdated   = "room_updated"
	EventRoomDeleted   = "room_deleted"
	EventRoomExpired   = "room_expired"
)

// RoomNotifier fans room events out to connected clients. Implementations
// must not block the caller.
type RoomNotifier interface {
	Publish(roomID, eventType string, payload interface{})
	// DisconnectUser drops a user's sockets for one room after removal.
	DisconnectUser(roomID, userID string)
	// CloseRoom drops every socket subscribed to the room.
	CloseRoom(roomID string)
}

type noopNotifier struct{}

func (noopNotifier) Publish(string, string, interface{}) {}
func (noopNotifier) DisconnectUser(string, string)       {}
func (noopNotifier) CloseRoom(string)                    {}

func notifierOrNoop(n RoomNotifier) RoomNotifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// MembershipEvent is the payload of member_left and member_removed.
type MembershipEvent struct {
	RoomID   string `json:"roomId"`
	MemberID string `json:"memberId"`
	UserID   string `json:"userId"`
}

// RoomClosedEvent is the payload of room_deleted and room_expired.
type RoomClosedEvent struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}
