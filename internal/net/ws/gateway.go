// Package ws owns the websocket transport to the session authority: dialing,
// the read pump that decodes inbound frames into the event ring, and
// serialized writes with deadlines.
package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rollcube/client/internal/net/proto"
	"rollcube/client/logging"
	"rollcube/client/logging/netevents"
)

const (
	// DefaultWriteWait bounds how long a single frame write may block.
	DefaultWriteWait = 10 * time.Second
	// DefaultEventBufferSize holds roughly four ticks of inbound traffic.
	DefaultEventBufferSize = 256
)

// ErrNotConnected is returned when a send is attempted without a live
// connection.
var ErrNotConnected = errors.New("ws: not connected")

// Gateway is the client's websocket endpoint. Writes are serialized behind a
// mutex with a per-frame deadline; reads run on a single pump goroutine that
// fills the event ring. The game loop drains the ring once per tick.
type Gateway struct {
	url       string
	writeWait time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}

	buffer *EventBuffer
	pub    logging.Publisher

	onDisconnect func(reason string)

	rttMu   sync.Mutex
	lastRTT time.Duration
}

// NewGateway constructs a gateway for the given endpoint. onDisconnect fires
// exactly once per established connection, from the read pump goroutine.
func NewGateway(url string, writeWait time.Duration, buffer *EventBuffer, pub logging.Publisher, onDisconnect func(reason string)) *Gateway {
	if writeWait <= 0 {
		writeWait = DefaultWriteWait
	}
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &Gateway{
		url:          url,
		writeWait:    writeWait,
		buffer:       buffer,
		pub:          pub,
		onDisconnect: onDisconnect,
	}
}

// Events exposes the inbound ring for the game loop.
func (g *Gateway) Events() *EventBuffer { return g.buffer }

// Connected reports whether a connection is currently established.
func (g *Gateway) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conn != nil
}

// Dial establishes the connection and starts the read pump. A gateway that is
// already connected refuses to dial again.
func (g *Gateway) Dial(ctx context.Context) error {
	g.mu.Lock()
	if g.conn != nil {
		g.mu.Unlock()
		return fmt.Errorf("ws: already connected to %s", g.url)
	}
	g.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.url, nil)
	if err != nil {
		return fmt.Errorf("ws: dial %s: %w", g.url, err)
	}

	g.mu.Lock()
	g.conn = conn
	g.done = make(chan struct{})
	done := g.done
	g.mu.Unlock()

	netevents.Connected(ctx, g.pub, 0, map[string]any{"url": g.url})
	go g.readPump(conn, done)
	return nil
}

// Send writes one encoded frame. The write deadline keeps a stalled peer from
// wedging the game loop.
func (g *Gateway) Send(payload []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn == nil {
		return ErrNotConnected
	}
	g.conn.SetWriteDeadline(time.Now().Add(g.writeWait))
	if err := g.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("ws: write: %w", err)
	}
	return nil
}

// Close shuts the connection down deliberately; the read pump exits without
// reporting a disconnect.
func (g *Gateway) Close() error {
	g.mu.Lock()
	conn := g.conn
	done := g.done
	g.conn = nil
	g.done = nil
	g.mu.Unlock()
	if conn == nil {
		return nil
	}
	if done != nil {
		close(done)
	}
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	conn.SetWriteDeadline(time.Now().Add(g.writeWait))
	conn.WriteMessage(websocket.CloseMessage, message)
	return conn.Close()
}

// RecordHeartbeatAck updates the round-trip estimate from an echoed
// heartbeat.
func (g *Gateway) RecordHeartbeatAck(ack proto.HeartbeatAckEvent, now time.Time) {
	if ack.ClientTime <= 0 {
		return
	}
	rtt := now.UnixMilli() - ack.ClientTime
	if rtt < 0 {
		return
	}
	g.rttMu.Lock()
	g.lastRTT = time.Duration(rtt) * time.Millisecond
	g.rttMu.Unlock()
}

// RTT reports the latest round-trip estimate, zero before the first ack.
func (g *Gateway) RTT() time.Duration {
	g.rttMu.Lock()
	defer g.rttMu.Unlock()
	return g.lastRTT
}

func (g *Gateway) readPump(conn *websocket.Conn, done chan struct{}) {
	ctx := context.Background()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				// Deliberate close, already handled.
			default:
				g.mu.Lock()
				if g.conn == conn {
					g.conn = nil
					g.done = nil
				}
				g.mu.Unlock()
				conn.Close()
				if g.onDisconnect != nil {
					g.onDisconnect(err.Error())
				}
			}
			return
		}

		event, err := proto.DecodeEvent(payload)
		if err != nil {
			// Fail closed: the frame is discarded as a unit and prior
			// state stays untouched.
			netevents.Malformed(ctx, g.pub, 0, netevents.MalformedPayload{
				Reason: err.Error(),
			})
			continue
		}
		if !g.buffer.Push(event) {
			netevents.Malformed(ctx, g.pub, 0, netevents.MalformedPayload{
				Type:   event.Type,
				Reason: "event buffer full, frame dropped",
			})
		}
	}
}
