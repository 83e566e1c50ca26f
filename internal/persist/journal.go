package persist

import (
	"context"
	"time"

	"github.com/tfl/client/internal/core/event"
	"go.uber.org/zap"
)

// MatchWriter stores finished matches. *MatchRepo is the production
// implementation.
type MatchWriter interface {
	RecordBatch(ctx context.Context, rows []MatchRow) error
}

// Journal collects MatchEnded events from a session bus and writes them
// in batches. Events arrive on the tick goroutine; Flush is called from
// the same goroutine between matches and at shutdown.
type Journal struct {
	w       MatchWriter
	server  string
	now     func() time.Time
	pending []MatchRow
	log     *zap.Logger
}

func NewJournal(w MatchWriter, server string, log *zap.Logger) *Journal {
	if log == nil {
		log = zap.NewNop()
	}
	return &Journal{w: w, server: server, now: time.Now, log: log}
}

// Subscribe starts collecting finished matches from bus.
func (j *Journal) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, j.onMatchEnded)
}

func (j *Journal) onMatchEnded(e event.MatchEnded) {
	j.pending = append(j.pending, MatchRow{
		Server:    j.server,
		MapName:   e.Map,
		Group:     e.Group,
		Outcome:   e.Outcome,
		Reason:    e.Reason,
		Duration:  e.Duration,
		PeakUnits: e.PeakUnits,
		EndedAt:   j.now(),
	})
	j.log.Debug("match queued for journal", zap.String("map", e.Map), zap.String("outcome", e.Outcome))
}

func (j *Journal) Pending() int { return len(j.pending) }

// Flush writes every pending match. On failure the batch stays pending
// for the next Flush.
func (j *Journal) Flush(ctx context.Context) error {
	if len(j.pending) == 0 {
		return nil
	}
	if err := j.w.RecordBatch(ctx, j.pending); err != nil {
		j.log.Error("match journal write failed", zap.Error(err), zap.Int("pending", len(j.pending)))
		return err
	}
	j.log.Info("match journal written", zap.Int("matches", len(j.pending)))
	j.pending = nil
	return nil
}
