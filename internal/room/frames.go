package room

import "github.com/vanced-support/signaling-service/internal/domain"

// Типы событий, которые ходят по WS
const (
	TypeConnected   = "connected"    // ack новому участнику
	TypeUserJoined  = "user-joined"  // участник присоединился
	TypeUserLeft    = "user-left"    // участник покинул
	TypeChatMessage = "chat-message" // чат-сообщение
	TypePing        = "ping"
	TypePong        = "pong"
	TypeGetUsers    = "get-users"
	TypeUserList    = "user-list"
)

// Inbound is the decoded form of a client frame. Only chat-message carries
// a payload; ping and get-users are bare type markers.
type Inbound struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	From      string `json:"from,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

type ConnectedFrame struct {
	Type        string   `json:"type"`
	PeerID      string   `json:"peerID"`
	RoomID      string   `json:"roomID"`
	Nickname    string   `json:"nickname"`
	UsersInRoom []string `json:"usersInRoom"`
}

type UserJoinedFrame struct {
	Type     string `json:"type"`
	PeerID   string `json:"peerID"`
	Nickname string `json:"nickname"`
	RoomID   string `json:"roomID"`
}

type UserLeftFrame struct {
	Type     string `json:"type"`
	PeerID   string `json:"peerID"`
	Nickname string `json:"nickname"`
	RoomID   string `json:"roomID"`
}

type ChatFrame struct {
	Type       string `json:"type"`
	From       string `json:"from"`
	FromPeerID string `json:"fromPeerID"`
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp"`
	RoomID     string `json:"roomID"`
}

type PongFrame struct {
	Type        string   `json:"type"`
	Timestamp   string   `json:"timestamp"`
	UsersInRoom []string `json:"usersInRoom"`
	RoomID      string   `json:"roomID"`
}

type UserListFrame struct {
	Type   string                 `json:"type"`
	Users  []domain.PresenceEntry `json:"users"`
	RoomID string                 `json:"roomID"`
}

// Info is the read-only snapshot served on the room-info endpoint.
type Info struct {
	RoomID           string                 `json:"roomID"`
	ParticipantCount int                    `json:"participantCount"`
	Participants     []domain.PresenceEntry `json:"participants"`
	SnapshotTakenAt  string                 `json:"snapshotTakenAt"`
}
