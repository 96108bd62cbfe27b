package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// adminPrefix on a peer id only affects presentation, it carries no
// authorization weight.
const adminPrefix = "admin_"

func RoleOf(peerID string) Role {
	if strings.HasPrefix(peerID, adminPrefix) {
		return RoleAdmin
	}
	return RoleClient
}

// Session is the live state of one connected peer. Owned exclusively by
// the room's event loop; nothing outside it may mutate these fields.
type Session struct {
	PeerID       string
	RoomID       string
	Nickname     string
	ConnectedAt  time.Time
	LastActivity time.Time
	Alive        bool
}

// PresenceEntry is the public projection of a Session, kept in lock-step
// with it (inserted and removed together).
type PresenceEntry struct {
	PeerID      string    `json:"peerID"`
	RoomID      string    `json:"roomID"`
	Nickname    string    `json:"nickname"`
	Role        Role      `json:"type"`
	ConnectedAt time.Time `json:"connectedAt"`
}
