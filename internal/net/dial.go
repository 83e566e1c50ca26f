package net

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrConnectTimeout = errors.New("connect timeout")
	ErrConnectRefused = errors.New("connect refused")
)

// ConnectError reports a failed connection attempt. errors.Is matches
// either ErrConnectTimeout or ErrConnectRefused, and the underlying cause.
type ConnectError struct {
	Addr  string
	Class error
	Err   error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s: %v: %v", e.Addr, e.Class, e.Err)
}

func (e *ConnectError) Unwrap() []error {
	return []error{e.Class, e.Err}
}

// Options tune a transport. Zero fields take defaults.
type Options struct {
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	Linger         time.Duration
	InQueueSize    int
	OutQueueSize   int
	Log            *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 500 * time.Millisecond
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.Linger <= 0 {
		o.Linger = 500 * time.Millisecond
	}
	if o.InQueueSize <= 0 {
		o.InQueueSize = 256
	}
	if o.OutQueueSize <= 0 {
		o.OutQueueSize = 256
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

// Dial connects to address within opts.ConnectTimeout. "ws://" and "wss://"
// addresses use a websocket; anything else is host:port over TCP.
func Dial(ctx context.Context, address string, opts Options) (*Transport, error) {
	opts = opts.withDefaults()
	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	var (
		conn frameConn
		err  error
	)
	if strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://") {
		conn, err = dialWebSocket(ctx, address)
	} else {
		conn, err = dialTCP(ctx, address)
	}
	if err != nil {
		return nil, &ConnectError{Addr: address, Class: classify(ctx, err), Err: err}
	}
	opts.Log.Info("connected", zap.String("addr", address))
	return newTransport(conn, opts), nil
}

// Wrap runs a transport over an established stream connection.
func Wrap(c net.Conn, opts Options) *Transport {
	return newTransport(newStreamConn(c), opts)
}

func classify(ctx context.Context, err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrConnectTimeout
	case errors.As(err, &ne) && ne.Timeout():
		return ErrConnectTimeout
	}
	// refused, reset, unreachable and failed handshakes all mean the
	// server cannot be reached at this address
	return ErrConnectRefused
}

func dialTCP(ctx context.Context, address string) (frameConn, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	if tc, ok := c.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
	return newStreamConn(c), nil
}

func dialWebSocket(ctx context.Context, address string) (frameConn, error) {
	d := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: time.Until(deadlineOf(ctx)),
	}
	c, resp, err := d.DialContext(ctx, address, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake: %s: %w", resp.Status, err)
		}
		return nil, err
	}
	c.SetReadLimit(MaxFrameSize)
	return &wsConn{c: c}, nil
}

func deadlineOf(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(500 * time.Millisecond)
}

// streamConn frames messages over a byte stream.
type streamConn struct {
	c  net.Conn
	br *bufio.Reader
}

func newStreamConn(c net.Conn) *streamConn {
	return &streamConn{c: c, br: bufio.NewReader(c)}
}

func (s *streamConn) ReadMessage() ([]byte, error) { return ReadFrame(s.br) }

func (s *streamConn) WriteMessage(data []byte, deadline time.Time) error {
	s.c.SetWriteDeadline(deadline)
	return WriteFrame(s.c, data)
}

func (s *streamConn) Close() error       { return s.c.Close() }
func (s *streamConn) RemoteAddr() string { return s.c.RemoteAddr().String() }

// wsConn carries one protocol message per binary websocket message.
type wsConn struct {
	c *websocket.Conn
}

func (w *wsConn) ReadMessage() ([]byte, error) {
	for {
		mt, data, err := w.c.ReadMessage()
		if err != nil {
			return nil, err
		}
		if mt == websocket.BinaryMessage && len(data) > 0 {
			return data, nil
		}
	}
}

func (w *wsConn) WriteMessage(data []byte, deadline time.Time) error {
	w.c.SetWriteDeadline(deadline)
	return w.c.WriteMessage(websocket.BinaryMessage, data)
}

func (w *wsConn) Close() error {
	w.c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(100*time.Millisecond))
	return w.c.Close()
}

func (w *wsConn) RemoteAddr() string { return w.c.RemoteAddr().String() }
