package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tfl/client/internal/core/event"
)

type fakeWriter struct {
	batches [][]MatchRow
	err     error
}

func (w *fakeWriter) RecordBatch(_ context.Context, rows []MatchRow) error {
	if w.err != nil {
		return w.err
	}
	w.batches = append(w.batches, append([]MatchRow(nil), rows...))
	return nil
}

func TestJournalRecordsEndedMatches(t *testing.T) {
	w := &fakeWriter{}
	bus := event.NewBus()
	j := NewJournal(w, "127.0.0.1:23333", nil)
	ended := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return ended }
	j.Subscribe(bus)

	event.Emit(bus, event.StateChanged{From: "Active", To: "Stopped"})
	event.Emit(bus, event.MatchEnded{
		Map: "plains", Group: 2, Outcome: "Won", Reason: "ServerStopped",
		Duration: 90 * time.Second, PeakUnits: 40,
	})
	assert.Zero(t, j.Pending(), "events are delivered on flush of the bus")
	bus.Flush()
	require.Equal(t, 1, j.Pending())

	require.NoError(t, j.Flush(context.Background()))
	assert.Zero(t, j.Pending())
	require.Len(t, w.batches, 1)
	assert.Equal(t, []MatchRow{{
		Server: "127.0.0.1:23333", MapName: "plains", Group: 2, Outcome: "Won",
		Reason: "ServerStopped", Duration: 90 * time.Second, PeakUnits: 40, EndedAt: ended,
	}}, w.batches[0])

	require.NoError(t, j.Flush(context.Background()))
	assert.Len(t, w.batches, 1, "nothing pending, nothing written")
}

func TestJournalKeepsBatchOnFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("connection refused")}
	bus := event.NewBus()
	j := NewJournal(w, "srv", nil)
	j.Subscribe(bus)

	event.Emit(bus, event.MatchEnded{Map: "plains", Outcome: "Lost", Reason: "Eliminated"})
	event.Emit(bus, event.MatchEnded{Map: "plains", Outcome: "None", Reason: "LocalExit"})
	bus.Flush()

	assert.Error(t, j.Flush(context.Background()))
	assert.Equal(t, 2, j.Pending())

	w.err = nil
	require.NoError(t, j.Flush(context.Background()))
	require.Len(t, w.batches, 1)
	assert.Len(t, w.batches[0], 2)
}
