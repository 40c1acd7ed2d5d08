package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
)

func (r *Repository) CreateTeam(team *domain.Team) error {
	query := `
		INSERT INTO teams (name, code, strength)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	dst := []any{&team.ID, &team.CreatedAt, &team.Version}
	return r.dbpool.QueryRowContext(ctx, query, team.Name, team.Code, team.Strength).Scan(dst...)
}

func (r *Repository) GetTeamByID(id int64) (*domain.Team, error) {
	query := `
		SELECT name, code, strength, created_at, version
		FROM teams WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	team := &domain.Team{
		ID: id,
	}

	dst := []any{&team.Name, &team.Code, &team.Strength, &team.CreatedAt, &team.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return team, nil
}

func (r *Repository) GetAllTeams() ([]*domain.Team, error) {
	query := `
		SELECT id, name, code, strength, created_at, version
		FROM teams
		ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []*domain.Team{}
	for rows.Next() {
		team := &domain.Team{}
		dst := []any{&team.ID, &team.Name, &team.Code, &team.Strength, &team.CreatedAt, &team.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return teams, nil
}

// UpdateTeam 使用 version 做乐观锁，版本不匹配时返回 sql.ErrNoRows
func (r *Repository) UpdateTeam(team *domain.Team) error {
	query := `
		UPDATE teams
		SET
			name = $1,
			code = $2,
			strength = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	params := []any{team.Name, team.Code, team.Strength, team.ID, team.Version}
	return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&team.Version)
}

func (r *Repository) DeleteTeam(id int64) error {
	query := `DELETE FROM teams WHERE id = $1`

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
