package client

import (
	"errors"

	"github.com/tfl/client/internal/net/packet"
)

var (
	// ErrKeyMismatch means client and server ship different metadata. It
	// ends the session and is never retried.
	ErrKeyMismatch = errors.New("protocol key mismatch")
	// ErrMapUnavailable means the map the server announced is not known
	// locally.
	ErrMapUnavailable = errors.New("map unavailable")
	// ErrDisconnected means the transport went away.
	ErrDisconnected = errors.New("disconnected")
)

type State uint8

const (
	StateConnecting State = iota
	StateLobby
	StateActive
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateLobby:
		return "Lobby"
	case StateActive:
		return "Active"
	case StateStopped:
		return "Stopped"
	}
	return "Unknown"
}

// WaitResult is what one pre-match poll observed.
type WaitResult uint8

const (
	WaitNone WaitResult = iota
	WaitDisconnected
	WaitGo
)

func (r WaitResult) String() string {
	switch r {
	case WaitDisconnected:
		return "Disconnected"
	case WaitGo:
		return "Go"
	}
	return "None"
}

// StopReason says why a session reached Stopped.
type StopReason uint8

const (
	ReasonNone StopReason = iota
	ReasonServerStopped
	ReasonEliminated
	ReasonDisconnected
	ReasonKeyMismatch
	ReasonMapUnavailable
	ReasonLocalExit
)

func (r StopReason) String() string {
	switch r {
	case ReasonServerStopped:
		return "ServerStopped"
	case ReasonEliminated:
		return "Eliminated"
	case ReasonDisconnected:
		return "Disconnected"
	case ReasonKeyMismatch:
		return "KeyMismatch"
	case ReasonMapUnavailable:
		return "MapUnavailable"
	case ReasonLocalExit:
		return "LocalExit"
	}
	return "None"
}

type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeWon
	OutcomeLost
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWon:
		return "Won"
	case OutcomeLost:
		return "Lost"
	}
	return "None"
}

// allowed lists, per state, the server opcodes the session acts on.
// Anything else is logged and dropped. Transport disconnects are accepted
// in every live state and handled before this table is consulted.
var allowed = map[State]map[packet.ServerOp]bool{
	StateConnecting: {
		packet.SInfo: true,
	},
	StateLobby: {
		packet.SInfo:         true,
		packet.SGo:           true,
		packet.SChangeSpeed:  true,
		packet.SStop:         true,
		packet.SUpdateWeight: true,
	},
	StateActive: {
		packet.SChangeSpeed:  true,
		packet.SStop:         true,
		packet.SWin:          true,
		packet.SOut:          true,
		packet.SUpdateUnit:   true,
		packet.SUpdateBullet: true,
		packet.SUpdateWeight: true,
		packet.SDuang:        true,
	},
}
