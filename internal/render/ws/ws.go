// Package ws renders charts by pushing them to a browser over a websocket.
// The browser owns the rendering engine; it draws on "render" and tears the
// handle down on "purge".
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

// Message types pushed to the browser.
const (
	TypeRender = "render"
	TypePurge  = "purge"
)

// WriteWait bounds a single websocket write.
const WriteWait = 10 * time.Second

// ErrConnClosed is returned when writing to a closed connection.
var ErrConnClosed = errors.New("websocket connection closed")

// Message is one render or purge instruction.
type Message struct {
	Type      string         `json:"type"`
	Container string         `json:"container"`
	Data      []models.Trace `json:"data,omitempty"`
	Layout    *models.Layout `json:"layout,omitempty"`
	Config    *models.Config `json:"config,omitempty"`
}

// Sender delivers a JSON value to the browser.
type Sender interface {
	Send(ctx context.Context, v any) error
}

// Renderer implements dashboard.Renderer on top of a Sender.
type Renderer struct {
	Sender Sender
}

// Render sends a render message for container.
func (r Renderer) Render(ctx context.Context, container string, cd *models.ChartDescription) error {
	return r.Sender.Send(ctx, Message{
		Type:      TypeRender,
		Container: container,
		Data:      cd.Data,
		Layout:    cd.Layout,
		Config:    cd.Config,
	})
}

// Purge sends a purge message for container.
func (r Renderer) Purge(ctx context.Context, container string) error {
	return r.Sender.Send(ctx, Message{Type: TypePurge, Container: container})
}

// Conn serializes writes to a gorilla websocket connection. gorilla allows
// one concurrent writer only.
type Conn struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewConn wraps c.
func NewConn(c *websocket.Conn) *Conn {
	return &Conn{conn: c}
}

// Send writes v as a JSON text frame.
func (c *Conn) Send(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(deadline(ctx))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Ping writes a ping control frame.
func (c *Conn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Close sends a close frame and closes the connection. Later writes fail
// with ErrConnClosed.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

func deadline(ctx context.Context) time.Time {
	d := time.Now().Add(WriteWait)
	if dl, ok := ctx.Deadline(); ok && dl.Before(d) {
		return dl
	}
	return d
}
