package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/attendance-backend/internal/config"
)

// NewPostgresPool opens the pool behind the student and attendance
// repositories and pings it once.
//
// Sessions run in the configured TIMEZONE so CURRENT_DATE and the
// attendance dates written by the API agree on what "today" is.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxDBConns
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second

	if tz := sessionTimeZone(cfg.Location); tz != "" {
		poolCfg.ConnConfig.RuntimeParams["timezone"] = tz
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Int32("max_conns", cfg.MaxDBConns).
		Str("database", poolCfg.ConnConfig.Database).
		Str("timezone", poolCfg.ConnConfig.RuntimeParams["timezone"]).
		Msg("PostgreSQL connected")

	return pool, nil
}

// sessionTimeZone returns an IANA name PostgreSQL understands, or "" to keep
// the server default. "Local" has no meaning outside this process.
func sessionTimeZone(loc *time.Location) string {
	if loc == nil || loc == time.Local {
		return ""
	}
	return loc.String()
}
