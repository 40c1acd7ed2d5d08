package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
)

func (r *Repository) CreateVenue(venue *domain.Venue) error {
	query := `
		INSERT INTO venues (name)
		VALUES ($1)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, venue.Name).Scan(&venue.ID, &venue.CreatedAt, &venue.Version)
}

func (r *Repository) GetAllVenues() ([]*domain.Venue, error) {
	query := `SELECT id, name, created_at, version FROM venues ORDER BY id`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	venues := []*domain.Venue{}
	for rows.Next() {
		venue := &domain.Venue{}
		if err := rows.Scan(&venue.ID, &venue.Name, &venue.CreatedAt, &venue.Version); err != nil {
			return nil, err
		}
		venues = append(venues, venue)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return venues, nil
}

func (r *Repository) DeleteVenue(id int64) error {
	query := `DELETE FROM venues WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
