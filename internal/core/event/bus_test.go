package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversAfterSwap(t *testing.T) {
	b := NewBus()
	var got []StateChanged
	Subscribe(b, func(e StateChanged) { got = append(got, e) })

	Emit(b, StateChanged{From: "Lobby", To: "Active"})
	assert.Equal(t, 1, b.Pending())
	b.DispatchAll()
	assert.Empty(t, got, "nothing is delivered before the swap")

	b.Flush()
	assert.Equal(t, []StateChanged{{From: "Lobby", To: "Active"}}, got)
	assert.Zero(t, b.Pending())

	b.Flush()
	assert.Len(t, got, 1, "events are delivered once")
}

func TestBusHandlerEmitsWaitForNextFlush(t *testing.T) {
	b := NewBus()
	var ended int
	Subscribe(b, func(e StateChanged) {
		if e.To == "Stopped" {
			Emit(b, MatchEnded{Outcome: "Lost"})
		}
	})
	Subscribe(b, func(MatchEnded) { ended++ })

	Emit(b, StateChanged{To: "Stopped"})
	b.Flush()
	assert.Zero(t, ended)
	b.Flush()
	assert.Equal(t, 1, ended)
}
