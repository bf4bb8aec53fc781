package feed

import (
	"testing"
	"time"

	"github.com/sightlinehq/sightline/internal/model"
)

func at(t time.Time) *model.FeedEvent {
	return &model.FeedEvent{ID: "ev-" + t.Format("150405.000"), CreatedAt: t}
}

func TestGroupByDay(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	list := []*model.FeedEvent{
		at(now.Add(-3 * time.Hour)),                // today 09:00
		at(now.Add(-4 * time.Hour)),                // today 08:00
		at(now.Add(-13 * time.Hour)),               // yesterday 23:00
		at(now.AddDate(0, 0, -8).Add(-time.Hour)),  // 8 days ago
	}

	groups := GroupByDay(list, now)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}

	wantLabels := []string{"Today", "Yesterday", "August 23, 2026"}
	wantSizes := []int{2, 1, 1}
	for i, g := range groups {
		if g.Label != wantLabels[i] {
			t.Errorf("group %d label = %q, want %q", i, g.Label, wantLabels[i])
		}
		if len(g.Events) != wantSizes[i] {
			t.Errorf("group %d has %d events, want %d", i, len(g.Events), wantSizes[i])
		}
	}
}

func TestGroupByDayThisWeek(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	list := []*model.FeedEvent{
		at(now),                      // today
		at(now.AddDate(0, 0, -2)),    // 2 days ago
		at(now.AddDate(0, 0, -6)),    // 6 days ago, still this week
		at(now.AddDate(0, 0, -7)),    // 7 days ago, absolute
	}

	groups := GroupByDay(list, now)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3: %+v", len(groups), groups)
	}
	if groups[1].Label != "This Week" || len(groups[1].Events) != 2 {
		t.Errorf("group 1 = %q with %d events", groups[1].Label, len(groups[1].Events))
	}
	if groups[2].Label != "August 24, 2026" {
		t.Errorf("group 2 label = %q", groups[2].Label)
	}
}

func TestGroupByDayEmpty(t *testing.T) {
	if got := GroupByDay(nil, time.Now()); got != nil {
		t.Errorf("GroupByDay(nil) = %v, want nil", got)
	}
}

func TestGroupByDayKeepsInputOrder(t *testing.T) {
	// A prepended buffer event stamped today, followed by main-list events
	// also from today, stays one contiguous group in its original order.
	now := time.Date(2026, 8, 31, 18, 0, 0, 0, time.UTC)
	list := []*model.FeedEvent{
		{ID: "buf-1", CreatedAt: now.Add(-time.Minute)},
		{ID: "main-1", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "main-2", CreatedAt: now.Add(-3 * time.Hour)},
	}
	groups := GroupByDay(list, now)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].Events[0].ID != "buf-1" {
		t.Errorf("first event = %s, want buf-1", groups[0].Events[0].ID)
	}
}

func TestGroupByDayFutureClockSkew(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	groups := GroupByDay([]*model.FeedEvent{at(now.Add(2 * time.Minute))}, now)
	if len(groups) != 1 || groups[0].Label != "Today" {
		t.Errorf("slightly-future event grouped as %+v, want Today", groups)
	}
}
