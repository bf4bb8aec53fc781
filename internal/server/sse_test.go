package server

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestMatchSubjectPattern(t *testing.T) {
	cases := []struct {
		pattern string
		subject string
		want    bool
	}{
		{"feed.br-1.created", "feed.br-1.created", true},
		{"feed.br-1.created", "feed.br-1.updated", false},
		{"feed.br-1.*", "feed.br-1.created", true},
		{"feed.br-1.*", "feed.br-2.created", false},
		{"feed.*.created", "feed.br-1.created", true},
		{"feed.>", "feed.br-1.created", true},
		{"feed.>", "feed.br-1.updated", true},
		{"feed.>", "feed", false},
		{"feed.br-1.>", "feed.br-1.created", true},
		{"feed.br-1.>", "feed.br-2.created", false},
		{"feed.br-1.*", "feed.br-1.created.extra", false},
	}
	for _, tc := range cases {
		if got := matchSubjectPattern(tc.pattern, tc.subject); got != tc.want {
			t.Errorf("matchSubjectPattern(%q, %q) = %v, want %v", tc.pattern, tc.subject, got, tc.want)
		}
	}
}

func TestHubBroadcastFiltering(t *testing.T) {
	hub := newSSEHub()

	all := hub.subscribe(nil)
	defer hub.unsubscribe(all)
	scoped := hub.subscribe([]string{"feed.br-1.>"})
	defer hub.unsubscribe(scoped)

	hub.broadcast("feed.br-1.created", []byte(`{"a":1}`))
	hub.broadcast("feed.br-2.created", []byte(`{"b":2}`))

	if got := len(all.ch); got != 2 {
		t.Errorf("unfiltered client got %d events, want 2", got)
	}
	if got := len(scoped.ch); got != 1 {
		t.Errorf("scoped client got %d events, want 1", got)
	}
	evt := <-scoped.ch
	if evt.Subject != "feed.br-1.created" {
		t.Errorf("scoped client saw %q", evt.Subject)
	}
}

func TestHubEventsSince(t *testing.T) {
	hub := newSSEHub()

	for i := 1; i <= 5; i++ {
		hub.broadcast("feed.br-1.created", []byte(fmt.Sprintf(`{"n":%d}`, i)))
	}

	since := hub.eventsSince(3)
	if len(since) != 2 {
		t.Fatalf("got %d events since id 3, want 2", len(since))
	}
	if since[0].ID != 4 || since[1].ID != 5 {
		t.Errorf("ids = %d, %d", since[0].ID, since[1].ID)
	}

	if got := hub.eventsSince(5); len(got) != 0 {
		t.Errorf("got %d events since latest, want 0", len(got))
	}
}

func TestHubRingWraps(t *testing.T) {
	hub := newSSEHub()

	total := sseRingBufferSize + 10
	for i := 0; i < total; i++ {
		hub.broadcast("feed.br-1.created", []byte("{}"))
	}

	// The oldest 10 have fallen out of the ring.
	since := hub.eventsSince(0)
	if len(since) != sseRingBufferSize {
		t.Fatalf("got %d buffered events, want %d", len(since), sseRingBufferSize)
	}
	if since[0].ID != 11 {
		t.Errorf("oldest buffered id = %d, want 11", since[0].ID)
	}
}

func TestEventStreamReplay(t *testing.T) {
	srv, _, _, ts := newTestServer(t)

	srv.sseHub.broadcast("feed.br-1.created", []byte(`{"event":"created"}`))
	srv.sseHub.broadcast("feed.br-2.created", []byte(`{"event":"created"}`))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		ts.URL+"/v1/events/stream?brand_id=br-1", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Last-Event-ID", "0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	// Replay delivers only the br-1 events; the stream then idles until the
	// context deadline tears it down.
	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			lines = append(lines, line)
		}
		if strings.HasPrefix(line, "data:") {
			break
		}
	}

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "event:feed.br-1.created") {
		t.Errorf("replay missing br-1 event:\n%s", joined)
	}
	if strings.Contains(joined, "feed.br-2") {
		t.Errorf("replay leaked br-2 event:\n%s", joined)
	}
}
