package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/messywasayzafar/nursify-sub001/internal/models"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

func (s *MessageStore) Append(ctx context.Context, msg models.Message) (*models.Message, error) {
	// Postgres assigns both the UUID and the timestamp, so identifier
	// uniqueness and ordering never depend on app-server clocks agreeing.
	query := `
		INSERT INTO messages (id, group_id, sender_id, sender_name, body, file_url, file_name, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, $6, now())
		RETURNING id, group_id, sender_id, sender_name, body, file_url, file_name, created_at`

	var out models.Message
	err := s.pool.QueryRow(ctx, query,
		msg.GroupID, msg.SenderID, msg.SenderName, msg.Body, msg.FileURL, msg.FileName,
	).Scan(
		&out.ID,
		&out.GroupID,
		&out.SenderID,
		&out.SenderName,
		&out.Body,
		&out.FileURL,
		&out.FileName,
		&out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &out, nil
}

func (s *MessageStore) ListByGroup(ctx context.Context, groupID uuid.UUID, limit int) ([]models.Message, error) {
	// Fetch newest-first so LIMIT grabs the most recent window, then
	// reverse in memory: the external contract is chronological order.
	// id is the tie-break for messages sharing a created_at.
	query := `
		SELECT id, group_id, sender_id, sender_name, body, file_url, file_name, created_at
		FROM messages
		WHERE group_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.GroupID,
			&msg.SenderID,
			&msg.SenderName,
			&msg.Body,
			&msg.FileURL,
			&msg.FileName,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (s *MessageStore) DeleteByID(ctx context.Context, messageID uuid.UUID) error {
	query := `DELETE FROM messages WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, messageID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
