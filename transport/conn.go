// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport implements the websocket listener: a gorilla/websocket
// connection whose readPump/writePump goroutines speak only through
// channels back to the hub, never touching simulation state directly.
package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/overgrid/relay/world"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 2048
	sendBufferSize = 16
)

// InboundFrame pairs a raw text frame with the connection it arrived on, so
// the Hub can route it to the right session without transport knowing about
// sessions.
type InboundFrame struct {
	Conn *Conn
	Data []byte
}

// Conn is one accepted websocket connection, the transport-side half of a
// Client Session. It never touches World or session state directly; it
// only moves bytes through the channels it was constructed with.
type Conn struct {
	Key world.ClientKey

	ws   *websocket.Conn
	Send chan []byte

	unregister chan<- *Conn
	inbound    chan<- InboundFrame

	once sync.Once
}

func newConn(ws *websocket.Conn, key world.ClientKey, unregister chan<- *Conn, inbound chan<- InboundFrame) *Conn {
	return &Conn{
		Key:        key,
		ws:         ws,
		Send:       make(chan []byte, sendBufferSize),
		unregister: unregister,
		inbound:    inbound,
	}
}

// Close tears down this connection only. Safe to call more than once and
// from either pump.
func (c *Conn) Close() {
	c.once.Do(func() {
		select {
		case c.unregister <- c:
		default:
			go func() { c.unregister <- c }()
		}
		_ = c.ws.Close()
	})
}

// TryEnqueue pushes data to this connection's writePump without blocking. A
// full channel means the client is unresponsive; the connection is closed
// rather than applying backpressure to the tick.
func (c *Conn) TryEnqueue(data []byte) {
	select {
	case c.Send <- data:
	default:
		c.Close()
	}
}

func (c *Conn) readPump() {
	defer c.Close()
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		c.inbound <- InboundFrame{Conn: c, Data: data}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
