package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/target/obd-dialer/internal/bootstrap"
)

type infra struct {
	DB    *sql.DB
	Redis redis.UniversalClient // nil when Redis is disabled
}

// Close releases whatever was opened.
func (i *infra) Close() error {
	if i == nil {
		return nil
	}
	var closeErr error
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	return closeErr
}

// connectInfra opens the database and, when wanted and enabled, Redis.
func connectInfra(ctx context.Context, cmdCtx *commandContext, wantRedis bool) (*infra, error) {
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cmdCtx.Config.Postgres,
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	}
	db, err := bootstrap.ConnectDB(ctx, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	out := &infra{DB: db}
	if !wantRedis {
		return out, nil
	}

	client, err := bootstrap.ConnectRedis(ctx, dbCfg)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("connect redis: %w", err), out.Close())
	}
	out.Redis = client
	return out, nil
}

func (c *commandContext) closeInfra(i *infra) {
	if err := i.Close(); err != nil {
		c.Logger.Warn("close infrastructure failed", "error", err)
	}
}
