package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

type captured struct {
	msgs []any
}

func (c *captured) Send(_ context.Context, v any) error {
	c.msgs = append(c.msgs, v)
	return nil
}

func TestRendererMessages(t *testing.T) {
	var c captured
	r := Renderer{Sender: &c}
	cd := &models.ChartDescription{
		Data:   []models.Trace{{Type: "scatter", Y: []float64{1}}},
		Layout: &models.Layout{HoverMode: "closest"},
		Config: &models.Config{DisplayLogo: models.Bool(false)},
	}
	if err := r.Render(context.Background(), "plot", cd); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := r.Purge(context.Background(), "plot"); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if len(c.msgs) != 2 {
		t.Fatalf("messages: got %d, want 2", len(c.msgs))
	}

	render := c.msgs[0].(Message)
	if render.Type != TypeRender || render.Container != "plot" || len(render.Data) != 1 || render.Layout == nil {
		t.Errorf("render message: %+v", render)
	}
	purge := c.msgs[1].(Message)
	if purge.Type != TypePurge || purge.Container != "plot" || purge.Data != nil {
		t.Errorf("purge message: %+v", purge)
	}

	data, err := json.Marshal(purge)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"type":"purge","container":"plot"}` {
		t.Errorf("purge wire form: %s", data)
	}
}

func TestConnOverRealWebsocket(t *testing.T) {
	received := make(chan string, 2)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		c := NewConn(conn)
		r2 := Renderer{Sender: c}
		ctx := context.Background()
		r2.Render(ctx, "plot", &models.ChartDescription{Data: []models.Trace{}, Layout: &models.Layout{}})
		r2.Purge(ctx, "plot")
		c.Close()
		if err := c.Send(ctx, Message{Type: TypePurge}); !errors.Is(err, ErrConnClosed) {
			t.Errorf("Send after Close: err = %v", err)
		}
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()
	client.SetReadDeadline(time.Now().Add(5 * time.Second))

	for i := 0; i < 2; i++ {
		_, data, err := client.ReadMessage()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		received <- m["type"].(string)
	}
	if got := <-received; got != TypeRender {
		t.Errorf("first message: %q", got)
	}
	if got := <-received; got != TypePurge {
		t.Errorf("second message: %q", got)
	}
}
