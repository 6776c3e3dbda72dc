package sink

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestWebSocketSink_BatchesEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	done := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		s := NewWebSocketSink(conn, 2)
		for i := 0; i < 5; i++ {
			e := sampleEvent()
			e.RayIndex = i
			if err := s.Record(e); err != nil {
				t.Errorf("record failed: %v", err)
				return
			}
		}
		if err := s.Send(MessageComplete, map[string]int{"events": 5}); err != nil {
			t.Errorf("send failed: %v", err)
		}
		<-done
	}))
	defer server.Close()
	defer close(done)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	type frame struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}

	// 5 events in batches of 2: two full batches, then the remainder flushed by Send
	wantBatches := []int{2, 2, 1}
	for i, want := range wantBatches {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
		if f.Type != MessageEvent {
			t.Fatalf("frame %d: expected %q, got %q", i, MessageEvent, f.Type)
		}
		var events []map[string]interface{}
		if err := json.Unmarshal(f.Payload, &events); err != nil {
			t.Fatalf("frame %d: bad payload: %v", i, err)
		}
		if len(events) != want {
			t.Errorf("frame %d: expected %d events, got %d", i, want, len(events))
		}
	}

	var last frame
	if err := conn.ReadJSON(&last); err != nil {
		t.Fatalf("read complete failed: %v", err)
	}
	if last.Type != MessageComplete {
		t.Errorf("Expected %q frame, got %q", MessageComplete, last.Type)
	}
}
