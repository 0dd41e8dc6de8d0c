package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestReconnectDelaySchedule(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 3 * time.Second},
		{4, 7 * time.Second},
		{8, 15 * time.Second},
		{9, 4500 * time.Millisecond},
		{14, 30 * time.Second},
	}
	for _, tc := range cases {
		if got := reconnectDelay(tc.attempt); got != tc.want {
			t.Errorf("reconnectDelay(%d) = %s, want %s", tc.attempt, got, tc.want)
		}
	}
}

type collectingHandler struct {
	mu      sync.Mutex
	updates []Update
	seen    chan struct{}
}

func (c *collectingHandler) HandleUpdate(_ context.Context, update Update) {
	c.mu.Lock()
	c.updates = append(c.updates, update)
	c.mu.Unlock()
	select {
	case c.seen <- struct{}{}:
	default:
	}
}

func TestPollerAdvancesOffset(t *testing.T) {
	var mu sync.Mutex
	var offsets []int64
	served := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/getUpdates") {
			fmt.Fprint(w, `{"ok":true,"result":true}`)
			return
		}
		var payload struct {
			Offset int64 `json:"offset"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		mu.Lock()
		offsets = append(offsets, payload.Offset)
		first := !served
		served = true
		mu.Unlock()

		if first {
			fmt.Fprint(w, `{"ok":true,"result":[{"update_id":7,"message":{"message_id":1,"chat":{"id":-1001},"text":"hi","from":{"id":100}}}]}`)
			return
		}
		fmt.Fprint(w, `{"ok":true,"result":[]}`)
	}))
	defer server.Close()

	client, err := NewClient("test-token", server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	handler := &collectingHandler{seen: make(chan struct{}, 1)}
	poller := NewPoller(client, handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	select {
	case <-handler.seen:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for update")
	}
	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("run = %v, want context.Canceled", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(offsets) < 2 {
		t.Fatalf("polls = %d, want at least 2", len(offsets))
	}
	if offsets[0] != 0 || offsets[1] != 8 {
		t.Fatalf("offsets = %v, want first 0 then 8", offsets[:2])
	}
}
