package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/messywasayzafar/nursify-sub001/internal/models"
)

type GroupStore struct {
	pool *pgxpool.Pool
}

func NewGroupStore(pool *pgxpool.Pool) *GroupStore {
	return &GroupStore{pool: pool}
}

func (s *GroupStore) Create(ctx context.Context, agencyID uuid.UUID, name string) (*models.Group, error) {
	query := `
		INSERT INTO groups (id, agency_id, name, created_at)
		VALUES (uuid_generate_v4(), $1, $2, now())
		RETURNING id, agency_id, name, created_at`

	var g models.Group
	err := s.pool.QueryRow(ctx, query, agencyID, name).Scan(
		&g.ID,
		&g.AgencyID,
		&g.Name,
		&g.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert group: %w", err)
	}
	return &g, nil
}

func (s *GroupStore) GetByID(ctx context.Context, agencyID uuid.UUID, groupID uuid.UUID) (*models.Group, error) {
	query := `
		SELECT id, agency_id, name, created_at
		FROM groups
		WHERE id = $1 AND agency_id = $2`

	var g models.Group
	err := s.pool.QueryRow(ctx, query, groupID, agencyID).Scan(
		&g.ID,
		&g.AgencyID,
		&g.Name,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &g, nil
}

func (s *GroupStore) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.Group, error) {
	query := `
		SELECT id, agency_id, name, created_at
		FROM groups
		WHERE agency_id = $1
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, agencyID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := make([]models.Group, 0)
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(
			&g.ID,
			&g.AgencyID,
			&g.Name,
			&g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	return groups, nil
}
