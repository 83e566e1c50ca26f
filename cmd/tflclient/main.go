package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tfl/client/internal/client"
	"github.com/tfl/client/internal/config"
	"github.com/tfl/client/internal/core/event"
	"github.com/tfl/client/internal/data"
	"github.com/tfl/client/internal/persist"
	"github.com/tfl/client/internal/scripting"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config. A .env file may set TFL_CONFIG.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfgPath := "config/client.toml"
	if p := os.Getenv("TFL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	log = log.With(zap.String("client", cfg.Client.Name))

	// 3. Load metadata
	units, err := data.LoadUnitTable(cfg.Data.UnitList)
	if err != nil {
		return fmt.Errorf("unit list: %w", err)
	}
	effects, err := data.LoadEffectTable(cfg.Data.EffectList)
	if err != nil {
		return fmt.Errorf("effect list: %w", err)
	}
	maps, err := data.LoadMapData(cfg.Data.MapList)
	if err != nil {
		return fmt.Errorf("map list: %w", err)
	}
	key := cfg.Protocol.Key
	if key == 0 {
		if key, err = data.ProtocolKey(cfg.Data.UnitList, cfg.Data.EffectList); err != nil {
			return err
		}
	}
	log.Info("metadata loaded",
		zap.Int("units", units.Count()),
		zap.Int("effects", effects.Count()),
		zap.Int("maps", maps.Count()),
		zap.String("key", fmt.Sprintf("%#016x", key)),
	)

	bus := event.NewBus()

	// 4. Optional match journal
	var journal *persist.Journal
	if cfg.Database.DSN != "" {
		jlog := log.Named("journal")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.OpenJournal(ctx, cfg.Database, cfg.Client.Name, jlog)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		version, err := persist.MigrateJournal(ctx, db.Pool, jlog)
		if err != nil {
			cancel()
			return fmt.Errorf("migrations: %w", err)
		}
		repo := persist.NewMatchRepo(db)
		logRecord(ctx, repo, cfg.Client.Server, jlog)
		cancel()
		journal = persist.NewJournal(repo, cfg.Client.Server, jlog)
		journal.Subscribe(bus)
		log.Info("match journal enabled", zap.Int64("schema", version))
	}

	// 5. Optional bot
	var eng *scripting.Engine
	if cfg.Script.Path != "" {
		eng, err = scripting.NewEngine(cfg.Script.Path, log.Named("bot"))
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
		defer eng.Close()
		if g, ok := eng.ChooseGroup(); ok {
			cfg.Client.Group = g
		}
	}

	// 6. Connect
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	sess, err := client.Connect(context.Background(), cfg, client.Deps{
		Units:   units,
		Effects: effects,
		Maps:    client.CatalogMaps{Table: maps},
		Key:     key,
		Bus:     bus,
		Log:     log,
	})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer sess.Stop()
	if eng != nil {
		sess.AddSystem(scripting.NewBot(eng, sess, units, cfg.Script.Interval, log.Named("bot")))
	}
	log.Info("connected",
		zap.String("server", cfg.Client.Server),
		zap.Uint8("group", cfg.Client.Group),
		zap.Duration("tick", cfg.Network.TickRate),
	)

	// 7. Tick loop
	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()
	last := time.Now()

loop:
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if !step(sess, dt) {
				break loop
			}
		case sig := <-shutdownCh:
			log.Info("received shutdown signal", zap.String("signal", sig.String()))
			sess.Stop()
			break loop
		}
	}

	if journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := journal.Flush(ctx); err != nil {
			log.Error("match journal lost", zap.Error(err), zap.Int("matches", journal.Pending()))
		}
		cancel()
	}

	st := sess.Stats()
	log.Info("session ended",
		zap.Stringer("reason", sess.Reason()),
		zap.Stringer("outcome", sess.Outcome()),
		zap.Int("received", st.Received),
		zap.Int("malformed", st.Malformed),
		zap.Int("rejected", st.Rejected),
	)
	return sess.Err()
}

type matchHistory interface {
	Tally(ctx context.Context, server string) (won, lost int, err error)
	Recent(ctx context.Context, server string, limit int) ([]persist.MatchRow, error)
}

// logRecord reports the journal's history against server. A failed read
// only costs the summary.
func logRecord(ctx context.Context, repo matchHistory, server string, log *zap.Logger) {
	won, lost, err := repo.Tally(ctx, server)
	if err != nil {
		log.Warn("read match record", zap.Error(err))
		return
	}
	log.Info("match record", zap.Int("won", won), zap.Int("lost", lost))

	recent, err := repo.Recent(ctx, server, 5)
	if err != nil {
		log.Warn("read recent matches", zap.Error(err))
		return
	}
	for _, m := range recent {
		log.Debug("recent match",
			zap.String("map", m.MapName),
			zap.String("outcome", m.Outcome),
			zap.String("reason", m.Reason),
			zap.Duration("duration", m.Duration),
			zap.Time("ended_at", m.EndedAt),
		)
	}
}

// step advances the session by one tick and reports whether it is still
// running.
func step(sess *client.Session, dt time.Duration) bool {
	switch sess.State() {
	case client.StateConnecting, client.StateLobby:
		return sess.Wait() != client.WaitDisconnected
	case client.StateActive:
		return sess.Update(dt)
	}
	return false
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
