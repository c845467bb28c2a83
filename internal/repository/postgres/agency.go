package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/messywasayzafar/nursify-sub001/internal/models"
)

type AgencyStore struct {
	pool *pgxpool.Pool
}

func NewAgencyStore(pool *pgxpool.Pool) *AgencyStore {
	return &AgencyStore{pool: pool}
}

func (s *AgencyStore) Create(ctx context.Context, name string) (*models.Agency, error) {
	query := `
		INSERT INTO agencies (id, name, created_at)
		VALUES (uuid_generate_v4(), $1, now())
		RETURNING id, name, created_at`

	var a models.Agency
	err := s.pool.QueryRow(ctx, query, name).Scan(
		&a.ID,
		&a.Name,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert agency: %w", err)
	}
	return &a, nil
}
