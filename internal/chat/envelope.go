package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/messywasayzafar/nursify-sub001/internal/models"
)

// ActionMessage is the action tag on every push envelope. Clients switch
// on it to route incoming frames.
const ActionMessage = "message"

// Envelope is the JSON frame pushed to every live connection when a
// message lands in a group.
type Envelope struct {
	Action     string    `json:"action"`
	MessageID  uuid.UUID `json:"messageId"`
	GroupID    uuid.UUID `json:"groupId"`
	SenderID   uuid.UUID `json:"senderId"`
	SenderName string    `json:"senderName"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	FileURL    string    `json:"fileUrl,omitempty"`
	FileName   string    `json:"fileName,omitempty"`
}

func NewEnvelope(msg *models.Message) Envelope {
	return Envelope{
		Action:     ActionMessage,
		MessageID:  msg.ID,
		GroupID:    msg.GroupID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Message:    msg.Body,
		Timestamp:  msg.CreatedAt,
		FileURL:    msg.FileURL,
		FileName:   msg.FileName,
	}
}
