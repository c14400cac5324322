// Package ws is the transport boundary: it upgrades HTTP requests to
// websocket sessions, registers them, relays inbound typing signals and
// tears sessions down on close or transport error.
package ws

import (
	"chat-relay/errors"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Connection wraps one websocket session behind a buffered send channel.
// All writes go through the write pump so the underlying gorilla connection
// only ever sees one writer; Push blocks at most until its ctx expires.
type Connection struct {
	id           string
	log          *slog.Logger
	conn         *websocket.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
}

func newConnection(log *slog.Logger, conn *websocket.Conn,
	sendBufferSize int, writeTimeout time.Duration) *Connection {
	return &Connection{
		id:           uuid.NewString(),
		log:          log,
		conn:         conn,
		send:         make(chan []byte, sendBufferSize),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

func (c *Connection) ID() string {
	return c.id
}

// Push queues one already-encoded frame. It fails instead of blocking
// forever when the connection is closed or the ctx deadline passes, so a
// slow or dead peer cannot stall the dispatcher.
func (c *Connection) Push(ctx context.Context, frame []byte) error {
	select {
	case <-c.done:
		return errors.ErrConnectionClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return errors.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// writePump drains the send channel into the websocket, one frame per
// write, each bounded by the write timeout. Any write error closes the
// connection, which in turn unblocks the read loop.
func (c *Connection) writePump() {
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("websocket write failed",
					"connection_id", c.id, "error", err)
				return
			}
		}
	}
}

// close is idempotent: the error path and the clean-close path may both
// reach it. It abruptly closes the underlying transport best-effort.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
