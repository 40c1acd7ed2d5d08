package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/domain"
)

func (r *Repository) CreateReferee(referee *domain.Referee) error {
	query := `
		INSERT INTO referees (name)
		VALUES ($1)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, referee.Name).Scan(&referee.ID, &referee.CreatedAt, &referee.Version)
}

func (r *Repository) GetAllReferees() ([]*domain.Referee, error) {
	query := `SELECT id, name, created_at, version FROM referees ORDER BY id`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	referees := []*domain.Referee{}
	for rows.Next() {
		referee := &domain.Referee{}
		if err := rows.Scan(&referee.ID, &referee.Name, &referee.CreatedAt, &referee.Version); err != nil {
			return nil, err
		}
		referees = append(referees, referee)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return referees, nil
}

func (r *Repository) DeleteReferee(id int64) error {
	query := `DELETE FROM referees WHERE id = $1`

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

// GetRoster 在一个只读事务中读取整个联赛名单，保证三张表的数据来自同一个快照
func (r *Repository) GetRoster() ([]*domain.Team, []*domain.Venue, []*domain.Referee, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, nil, nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	teams := []*domain.Team{}
	rows, err := tx.QueryContext(ctx, `SELECT id, name, code, strength, created_at, version FROM teams ORDER BY id`)
	if err != nil {
		return nil, nil, nil, err
	}
	for rows.Next() {
		team := &domain.Team{}
		if err := rows.Scan(&team.ID, &team.Name, &team.Code, &team.Strength, &team.CreatedAt, &team.Version); err != nil {
			rows.Close()
			return nil, nil, nil, err
		}
		teams = append(teams, team)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, nil, err
	}

	venues := []*domain.Venue{}
	rows, err = tx.QueryContext(ctx, `SELECT id, name, created_at, version FROM venues ORDER BY id`)
	if err != nil {
		return nil, nil, nil, err
	}
	for rows.Next() {
		venue := &domain.Venue{}
		if err := rows.Scan(&venue.ID, &venue.Name, &venue.CreatedAt, &venue.Version); err != nil {
			rows.Close()
			return nil, nil, nil, err
		}
		venues = append(venues, venue)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, nil, err
	}

	referees := []*domain.Referee{}
	rows, err = tx.QueryContext(ctx, `SELECT id, name, created_at, version FROM referees ORDER BY id`)
	if err != nil {
		return nil, nil, nil, err
	}
	for rows.Next() {
		referee := &domain.Referee{}
		if err := rows.Scan(&referee.ID, &referee.Name, &referee.CreatedAt, &referee.Version); err != nil {
			rows.Close()
			return nil, nil, nil, err
		}
		referees = append(referees, referee)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, nil, err
	}

	return teams, venues, referees, nil
}
