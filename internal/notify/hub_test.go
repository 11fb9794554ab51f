package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, hub *Hub, authorID string) (*websocket.Conn, func()) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, authorID)
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("failed to dial hub: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	// The handshake completes before ServeWS registers the connection, so
	// wait for registration before notifying.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.RLock()
		registered := len(hub.conns[authorID]) > 0
		hub.mu.RUnlock()
		if registered {
			break
		}
		if time.Now().After(deadline) {
			conn.Close()
			srv.Close()
			t.Fatal("connection was never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

// Concurrent mutations for one author (a save failure plus an upload success,
// or stale-write warnings from a second session) notify from separate handler
// goroutines, so pushes to a shared connection must be serialized.
func TestHubConcurrentNotify(t *testing.T) {
	rec := &Recorder{}
	hub := NewHub(rec)
	defer hub.Close()

	conn, done := dialHub(t, hub, "author-1")
	defer done()

	const writers = 32
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			hub.Notify(Notice{
				AuthorID: "author-1",
				Severity: SeverityInfo,
				Message:  fmt.Sprintf("notice %d", i),
			})
		}(i)
	}

	received := make(map[string]bool)
	for i := 0; i < writers; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
		var n Notice
		if err := json.Unmarshal(data, &n); err != nil {
			t.Fatalf("failed to decode notice: %v", err)
		}
		received[n.Message] = true
	}
	wg.Wait()

	if len(received) != writers {
		t.Errorf("received %d distinct notices, want %d", len(received), writers)
	}
	if got := len(rec.Notices()); got != writers {
		t.Errorf("fallback recorded %d notices, want %d", got, writers)
	}
}

func TestHubRoutesByAuthor(t *testing.T) {
	hub := NewHub(&Recorder{})
	defer hub.Close()

	conn, done := dialHub(t, hub, "author-1")
	defer done()

	hub.Notify(Notice{AuthorID: "someone-else", Severity: SeverityInfo, Message: "not for you"})
	hub.Notify(Notice{AuthorID: "author-1", Severity: SeveritySuccess, Message: "Page duplicated."})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var n Notice
	if err := json.Unmarshal(data, &n); err != nil {
		t.Fatalf("failed to decode notice: %v", err)
	}
	if n.Message != "Page duplicated." {
		t.Errorf("got %q, want the author's own notice", n.Message)
	}
	if n.SentAt.IsZero() {
		t.Error("SentAt should be stamped on delivery")
	}
}
