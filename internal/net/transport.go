package net

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tfl/client/internal/net/packet"
	"go.uber.org/zap"
)

// Reliability selects how a message behaves under backpressure. Both stream
// transports deliver in order; the class decides what happens when the
// outbound queue is full.
type Reliability int

const (
	// ReliableOrdered messages must arrive. A full queue closes the link.
	ReliableOrdered Reliability = iota
	// BestEffort messages are dropped when the queue is full.
	BestEffort
)

func (r Reliability) String() string {
	switch r {
	case ReliableOrdered:
		return "reliable-ordered"
	case BestEffort:
		return "best-effort"
	default:
		return fmt.Sprintf("Reliability(%d)", int(r))
	}
}

// frameConn is one message-oriented connection (TCP frames or websocket).
type frameConn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte, deadline time.Time) error
	Close() error
	RemoteAddr() string
}

type outFrame struct {
	data []byte
	rel  Reliability
}

// Stats are cumulative transport counters.
type Stats struct {
	Sent     uint64
	Dropped  uint64
	Received uint64
}

// Transport is the client's single link to the server. Socket I/O runs in
// dedicated goroutines; Send, Flush and TryReceive are called only from the
// tick goroutine.
type Transport struct {
	conn frameConn
	opts Options

	inQueue  chan []byte // read loop → tick
	outQueue chan outFrame
	outBuf   []outFrame // tick only, drained by Flush

	closeCh    chan struct{}
	closeOnce  sync.Once
	drainCh    chan struct{}
	drainOnce  sync.Once
	writerDone chan struct{}
	closed     atomic.Bool

	lostReported bool // tick only

	sent     atomic.Uint64
	dropped  atomic.Uint64
	received atomic.Uint64

	log *zap.Logger
}

func newTransport(conn frameConn, opts Options) *Transport {
	opts = opts.withDefaults()
	t := &Transport{
		conn:       conn,
		opts:       opts,
		inQueue:    make(chan []byte, opts.InQueueSize),
		outQueue:   make(chan outFrame, opts.OutQueueSize),
		closeCh:    make(chan struct{}),
		drainCh:    make(chan struct{}),
		writerDone: make(chan struct{}),
		log:        opts.Log.With(zap.String("remote", conn.RemoteAddr())),
	}
	go t.readLoop()
	go t.writeLoop()
	return t
}

// Send buffers a message. Nothing is written until Flush.
func (t *Transport) Send(data []byte, rel Reliability) {
	if t.closed.Load() || len(data) == 0 {
		return
	}
	t.outBuf = append(t.outBuf, outFrame{data: data, rel: rel})
}

// Flush hands buffered messages to the writer goroutine without blocking.
func (t *Transport) Flush() {
	if t.closed.Load() {
		t.outBuf = t.outBuf[:0]
		return
	}
	for _, f := range t.outBuf {
		select {
		case t.outQueue <- f:
		default:
			if f.rel == BestEffort {
				t.dropped.Add(1)
				t.log.Debug("output queue full, dropped best-effort message",
					zap.Stringer("op", packet.ClientOp(f.data[0])))
				continue
			}
			t.log.Warn("output queue full, closing slow link")
			t.outBuf = t.outBuf[:0]
			t.kill()
			return
		}
	}
	t.outBuf = t.outBuf[:0]
}

// TryReceive returns one inbound message without blocking. After the link
// dies and queued messages are drained, it returns a single synthetic
// OpConnectionLost message.
func (t *Transport) TryReceive() ([]byte, bool) {
	select {
	case data := <-t.inQueue:
		return data, true
	default:
	}
	if !t.closed.Load() || t.lostReported {
		return nil, false
	}
	select {
	case data := <-t.inQueue:
		return data, true
	default:
	}
	t.lostReported = true
	return []byte{packet.OpConnectionLost}, true
}

func (t *Transport) IsConnected() bool {
	return !t.closed.Load()
}

func (t *Transport) Stats() Stats {
	return Stats{
		Sent:     t.sent.Load(),
		Dropped:  t.dropped.Load(),
		Received: t.received.Load(),
	}
}

// Close lets the writer drain queued output for up to the linger duration,
// then closes the socket. Safe to call more than once.
func (t *Transport) Close() {
	t.drainOnce.Do(func() { close(t.drainCh) })
	select {
	case <-t.writerDone:
	case <-time.After(t.opts.Linger):
		t.log.Debug("linger expired with output pending")
	}
	t.kill()
}

func (t *Transport) kill() {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		close(t.closeCh)
		t.conn.Close()
	})
}

func (t *Transport) readLoop() {
	defer t.kill()

	for {
		data, err := t.conn.ReadMessage()
		if err != nil {
			if !t.closed.Load() {
				t.log.Debug("read error", zap.Error(err))
			}
			return
		}
		t.received.Add(1)

		// Block rather than drop: snapshots self-correct, but lifecycle
		// messages share this queue and must not be lost.
		select {
		case t.inQueue <- data:
		case <-t.closeCh:
			return
		}
	}
}

func (t *Transport) writeLoop() {
	defer close(t.writerDone)

	for {
		select {
		case f := <-t.outQueue:
			if !t.writeOne(f) {
				t.kill()
				return
			}
		case <-t.drainCh:
			for {
				select {
				case f := <-t.outQueue:
					if !t.writeOne(f) {
						return
					}
				default:
					return
				}
			}
		case <-t.closeCh:
			return
		}
	}
}

func (t *Transport) writeOne(f outFrame) bool {
	t.log.Debug("TX",
		zap.Stringer("op", packet.ClientOp(f.data[0])),
		zap.Int("len", len(f.data)),
		zap.Stringer("rel", f.rel),
	)
	if err := t.conn.WriteMessage(f.data, time.Now().Add(t.opts.WriteTimeout)); err != nil {
		if !t.closed.Load() {
			t.log.Debug("write error", zap.Error(err))
		}
		return false
	}
	t.sent.Add(1)
	return true
}
