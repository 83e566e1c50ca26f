package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tfl/client/internal/config"
	"go.uber.org/zap"
)

// maxJournalConns caps the pool. The journal writes one batch per session
// and reads a summary at start, so more connections only hold server slots.
const maxJournalConns = 2

// DB wraps the match journal's connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// journalPoolConfig parses the DSN and sizes the pool for the journal. The
// connection is tagged with appName so server-side activity views show
// which client holds it.
func journalPoolConfig(cfg config.DatabaseConfig, appName string) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if appName == "" {
		appName = "tfl-client"
	}
	poolCfg.ConnConfig.RuntimeParams["application_name"] = appName

	poolCfg.MaxConns = maxJournalConns
	if n := cfg.MaxOpenConns; n > 0 && n < maxJournalConns {
		poolCfg.MaxConns = int32(n)
	}
	poolCfg.MinConns = 0
	if n := int32(cfg.MaxIdleConns); n > 0 {
		poolCfg.MinConns = min(n, poolCfg.MaxConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	return poolCfg, nil
}

// OpenJournal connects the journal pool and checks it answers.
func OpenJournal(ctx context.Context, cfg config.DatabaseConfig, appName string, log *zap.Logger) (*DB, error) {
	poolCfg, err := journalPoolConfig(cfg, appName)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect journal db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping journal db: %w", err)
	}

	log.Info("journal database connected",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns),
	)
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}
