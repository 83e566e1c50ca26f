package event

import (
	"time"

	"github.com/tfl/client/internal/geom"
)

// Session lifecycle events. States and outcomes travel as their String()
// forms so subscribers need not import the session package.

type StateChanged struct {
	From string
	To   string
}

type MatchStarted struct {
	Map   string
	Group uint8
	Spawn geom.Vec2
}

// MatchWon is emitted on the server's win message; the match keeps
// running until stop.
type MatchWon struct {
	Map string
}

type MatchEnded struct {
	Map       string
	Group     uint8
	Outcome   string
	Reason    string
	Duration  time.Duration
	PeakUnits int
}
