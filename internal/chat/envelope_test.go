package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/messywasayzafar/nursify-sub001/internal/models"
	"github.com/stretchr/testify/require"
)

func Test_Envelope_Omits_File_Fields_For_Text_Messages(t *testing.T) {
	req := require.New(t)
	msg := &models.Message{
		ID:         uuid.New(),
		GroupID:    uuid.New(),
		SenderID:   uuid.New(),
		SenderName: "Alice",
		Body:       "hello",
		CreatedAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(NewEnvelope(msg))
	req.NoError(err)
	req.Contains(string(payload), `"action":"message"`)
	req.NotContains(string(payload), "fileUrl")
	req.NotContains(string(payload), "fileName")

	msg.FileURL = "https://files.example/scan.png"
	msg.FileName = "scan.png"
	payload, err = json.Marshal(NewEnvelope(msg))
	req.NoError(err)
	req.Contains(string(payload), `"fileUrl":"https://files.example/scan.png"`)
	req.Contains(string(payload), `"fileName":"scan.png"`)
}
