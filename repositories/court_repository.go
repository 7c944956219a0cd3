package repositories

import (
	"context"
	"database/sql"
	"errors"

	"courtside-live/models"
)

var ErrCourtNotFound = errors.New("court not found")

type CourtRepository interface {
	Create(ctx context.Context, court *models.Court) error
	GetByID(ctx context.Context, id string) (*models.Court, error)
	List(ctx context.Context) ([]models.Court, error)
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) Create(ctx context.Context, c *models.Court) error {
	query := `
		INSERT INTO courts (id, name, location)
		VALUES ($1, $2, $3)
		RETURNING created_at`
	return r.db.QueryRowContext(ctx, query, c.ID, c.Name, c.Location).Scan(&c.CreatedAt)
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id string) (*models.Court, error) {
	query := `SELECT id, name, location, created_at FROM courts WHERE id = $1`

	c := &models.Court{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Location, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCourtRepository) List(ctx context.Context) ([]models.Court, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, location, created_at FROM courts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Court
	for rows.Next() {
		var c models.Court
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
