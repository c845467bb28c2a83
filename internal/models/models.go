package models

import (
	"time"

	"github.com/google/uuid"
)

// Agency is the top-level isolation boundary. Every staff member, care
// group, and message belongs to exactly one agency; all queries are scoped
// by agency ID so one agency never sees another's data.
type Agency struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a staff member within an agency. DisplayName is what shows up
// next to their messages; PasswordHash is a bcrypt hash and never leaves
// the server.
type User struct {
	ID           uuid.UUID `json:"id"`
	AgencyID     uuid.UUID `json:"agency_id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Group is a care-team chat room within an agency.
type Group struct {
	ID        uuid.UUID `json:"id"`
	AgencyID  uuid.UUID `json:"agency_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupMember maps (group, user, role). The chat core only reads these
// records; group administration owns them.
type GroupMember struct {
	GroupID uuid.UUID `json:"group_id"`
	UserID  uuid.UUID `json:"user_id"`
	Role    string    `json:"role"`
}

// Message is one chat message in a group. The JSON field names match the
// push envelope so a client sees the same shape whether a message arrives
// live over the socket or later via the history endpoint.
//
// SenderName is denormalized onto the row: history rendering must not
// depend on the sender account still existing.
type Message struct {
	ID         uuid.UUID `json:"messageId"`
	GroupID    uuid.UUID `json:"groupId"`
	SenderID   uuid.UUID `json:"senderId"`
	SenderName string    `json:"senderName"`
	Body       string    `json:"message"`
	FileURL    string    `json:"fileUrl,omitempty"`
	FileName   string    `json:"fileName,omitempty"`
	CreatedAt  time.Time `json:"timestamp"`
}

// Connection is one live websocket session. The ID is assigned at
// handshake time and is unique per session; a user with three tabs open
// has three Connection rows. NodeID names the server process holding the
// socket — pushes for this connection must be delivered on that node.
type Connection struct {
	ID          string    `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	GroupID     uuid.UUID `json:"group_id"`
	NodeID      string    `json:"node_id"`
	ConnectedAt time.Time `json:"connected_at"`
}
