package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func dialChanges(t *testing.T, h *ChangesHandler) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestServeWS_RelaysChanges(t *testing.T) {
	repo := &mockRepo{watchEvents: 2}
	h := NewChangesHandler(repo, zerolog.Nop())

	conn := dialChanges(t, h)

	for i := 0; i < 2; i++ {
		var evt changeEvent
		if err := conn.ReadJSON(&evt); err != nil {
			t.Fatalf("reading event %d: %v", i, err)
		}
		if evt.Event != "changed" {
			t.Errorf("event %d = %q, want %q", i, evt.Event, "changed")
		}
		if evt.Message != "" {
			t.Errorf("changed event carries a message: %q", evt.Message)
		}
	}
}

func TestServeWS_FeedUnavailable(t *testing.T) {
	repo := &mockRepo{watchErr: errors.New("replica set required")}
	h := NewChangesHandler(repo, zerolog.Nop())

	conn := dialChanges(t, h)

	var evt changeEvent
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("reading error event: %v", err)
	}
	if evt.Event != "error" {
		t.Errorf("event = %q, want %q", evt.Event, "error")
	}
	if !strings.Contains(evt.Message, "replica set") {
		t.Errorf("message = %q, want the feed failure reason", evt.Message)
	}
}
