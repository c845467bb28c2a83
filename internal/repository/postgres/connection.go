package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/messywasayzafar/nursify-sub001/internal/models"
)

type ConnectionStore struct {
	pool *pgxpool.Pool
}

func NewConnectionStore(pool *pgxpool.Pool) *ConnectionStore {
	return &ConnectionStore{pool: pool}
}

func (s *ConnectionStore) Register(ctx context.Context, conn models.Connection) error {
	// Last write wins on a conflicting ID. The transport hands out
	// per-session unique IDs, so a conflict only occurs when two
	// invocations race to register the same session — either row is fine.
	query := `
		INSERT INTO connections (id, user_id, group_id, node_id, connected_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    group_id = EXCLUDED.group_id,
		    node_id = EXCLUDED.node_id,
		    connected_at = now()`

	_, err := s.pool.Exec(ctx, query, conn.ID, conn.UserID, conn.GroupID, conn.NodeID)
	if err != nil {
		return fmt.Errorf("register connection: %w", err)
	}
	return nil
}

func (s *ConnectionStore) Unregister(ctx context.Context, connectionID string) error {
	// DELETE of an absent row deletes zero rows — no error, so a
	// disconnect raced with a reap is harmless.
	query := `DELETE FROM connections WHERE id = $1`

	_, err := s.pool.Exec(ctx, query, connectionID)
	if err != nil {
		return fmt.Errorf("unregister connection: %w", err)
	}
	return nil
}

func (s *ConnectionStore) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Connection, error) {
	query := `
		SELECT id, user_id, group_id, node_id, connected_at
		FROM connections
		WHERE group_id = $1`

	return s.list(ctx, query, groupID)
}

func (s *ConnectionStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	query := `
		SELECT id, user_id, group_id, node_id, connected_at
		FROM connections
		WHERE user_id = $1`

	return s.list(ctx, query, userID)
}

func (s *ConnectionStore) list(ctx context.Context, query string, arg any) ([]models.Connection, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	conns := make([]models.Connection, 0)
	for rows.Next() {
		var c models.Connection
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.GroupID,
			&c.NodeID,
			&c.ConnectedAt,
		); err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}

	return conns, nil
}
