package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/league-scheduler/backend/internal/config"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

// 联赛名单的表结构，只有一个联赛，因此不需要 league_id
var schema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL,
		strength DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version INTEGER NOT NULL DEFAULT 1,
		CONSTRAINT teams_name_key UNIQUE (name),
		CONSTRAINT teams_code_key UNIQUE (code)
	)`,
	`CREATE TABLE IF NOT EXISTS venues (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version INTEGER NOT NULL DEFAULT 1,
		CONSTRAINT venues_name_key UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS referees (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		version INTEGER NOT NULL DEFAULT 1,
		CONSTRAINT referees_name_key UNIQUE (name)
	)`,
}

// EnsureSchema 在启动时创建缺失的表
func (r *Repository) EnsureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	return tx.Commit()
}
