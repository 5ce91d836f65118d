package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

func TestServerAcceptsConnection(t *testing.T) {
	srv := New(0) // port 0 = pick any free port
	msgs := srv.Messages()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	// Send a snapshot message
	snap := IncomingMsg{Type: "snapshot"}
	data, _ := json.Marshal(snap)
	err = conn.Write(ctx, websocket.MessageText, data)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case msg := <-msgs:
		if msg.Type != "snapshot" {
			t.Errorf("got type %q, want snapshot", msg.Type)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}

	if !srv.Connected() {
		t.Error("Connected() = false with an active extension connection")
	}
}

func TestConnectedWithoutConnection(t *testing.T) {
	srv := New(0)
	if srv.Connected() {
		t.Error("Connected() = true before any connection")
	}
}

func TestServerSendsCommand(t *testing.T) {
	srv := New(0)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	// Give server a moment to register the connection
	time.Sleep(50 * time.Millisecond)

	// Send command from server side
	cmd := OutgoingMsg{ID: "cmd-1", Action: "move", TabIDs: []int{42}, GroupID: 7}
	srv.Send(cmd)

	// Read it on the client side
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got OutgoingMsg
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != "cmd-1" || got.Action != "move" || got.GroupID != 7 {
		t.Errorf("got %+v, want cmd-1/move/7", got)
	}
}

func TestSendWithoutConnectionIsNoop(t *testing.T) {
	srv := New(0)
	if err := srv.Send(OutgoingMsg{ID: "cmd-1", Action: "query"}); err != nil {
		t.Fatalf("Send without connection: %v", err)
	}
}

func TestCommandResponseRoundTrip(t *testing.T) {
	srv := New(0)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	ok := true
	resp, _ := json.Marshal(IncomingMsg{ID: "cmd-9", OK: &ok, GroupID: 12})
	if err := conn.Write(ctx, websocket.MessageText, resp); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case msg := <-srv.Messages():
		if msg.ID != "cmd-9" || msg.OK == nil || !*msg.OK || msg.GroupID != 12 {
			t.Errorf("got %+v, want cmd-9/ok/12", msg)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for response")
	}
}
