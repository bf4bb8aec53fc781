package archive

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sightlinehq/sightline/internal/model"
	"github.com/sightlinehq/sightline/internal/store"
)

// listStore is a store.Store stub serving a fixed event list.
type listStore struct {
	store.Store
	events []*model.FeedEvent
	err    error
}

func (s *listStore) ListAll(_ context.Context, brandID string) ([]*model.FeedEvent, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []*model.FeedEvent
	for _, e := range s.events {
		if brandID == "" || e.BrandID == brandID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestExportJSONL(t *testing.T) {
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	s := &listStore{events: []*model.FeedEvent{
		{ID: "ev-1", BrandID: "br-1", Workflow: model.WorkflowVerification, Severity: model.SeverityInfo, Title: "first", CreatedAt: now},
		{ID: "ev-2", BrandID: "br-2", Workflow: model.WorkflowSystem, Severity: model.SeverityInfo, Title: "second", CreatedAt: now.Add(time.Hour)},
	}}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), s, "", &buf); err != nil {
		t.Fatalf("ExportJSONL: %v", err)
	}

	scanner := bufio.NewScanner(&buf)

	if !scanner.Scan() {
		t.Fatal("missing header line")
	}
	var h header
	if err := json.Unmarshal(scanner.Bytes(), &h); err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if h.Type != "header" || h.Version != "1" || h.EventCount != 2 {
		t.Errorf("header = %+v", h)
	}

	var ids []string
	for scanner.Scan() {
		var rec struct {
			Type string          `json:"type"`
			Data model.FeedEvent `json:"data"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("decode record: %v", err)
		}
		if rec.Type != "event" {
			t.Errorf("record type = %q", rec.Type)
		}
		ids = append(ids, rec.Data.ID)
	}
	if len(ids) != 2 || ids[0] != "ev-1" || ids[1] != "ev-2" {
		t.Errorf("ids = %v", ids)
	}
}

func TestExportJSONLBrandScoped(t *testing.T) {
	s := &listStore{events: []*model.FeedEvent{
		{ID: "ev-1", BrandID: "br-1", CreatedAt: time.Now().UTC()},
		{ID: "ev-2", BrandID: "br-2", CreatedAt: time.Now().UTC()},
	}}

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), s, "br-2", &buf); err != nil {
		t.Fatalf("ExportJSONL: %v", err)
	}
	if got := bytes.Count(buf.Bytes(), []byte(`"type":"event"`)); got != 1 {
		t.Errorf("got %d event records, want 1", got)
	}
}

func TestExportJSONLStoreError(t *testing.T) {
	s := &listStore{err: errors.New("db down")}
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), s, "", &buf); err == nil {
		t.Fatal("expected error")
	}
	if buf.Len() != 0 {
		t.Error("partial output written on error")
	}
}

// bufDestination captures writes in memory.
type bufDestination struct {
	mu     sync.Mutex
	writes int
	last   []byte
}

func (d *bufDestination) Write(_ context.Context, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes++
	d.last = append(d.last[:0], data...)
	return nil
}

func (d *bufDestination) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

func TestSchedulerExportsImmediately(t *testing.T) {
	s := &listStore{events: []*model.FeedEvent{
		{ID: "ev-1", BrandID: "br-1", CreatedAt: time.Now().UTC()},
	}}
	dest := &bufDestination{}

	sched := NewScheduler(s, []Destination{dest}, time.Hour, slog.Default())
	sched.Start()
	defer sched.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for dest.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if dest.count() == 0 {
		t.Fatal("no export within deadline")
	}

	dest.mu.Lock()
	defer dest.mu.Unlock()
	if !bytes.Contains(dest.last, []byte("ev-1")) {
		t.Error("export payload missing event")
	}
}
