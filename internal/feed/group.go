package feed

import (
	"time"

	"github.com/sightlinehq/sightline/internal/model"
)

// Group is one contiguous run of events sharing a date bucket label.
type Group struct {
	Label  string
	Events []*model.FeedEvent
}

// GroupByDay buckets an already-ordered event list into contiguous calendar
// groups: "Today", "Yesterday", "This Week" (the last 7 calendar days
// excluding today and yesterday), then absolute dates. The list is scanned
// in one pass and a new group starts whenever the computed label changes;
// the input order is preserved as-is, so a prepended buffer never gets
// re-sorted against the main list.
func GroupByDay(events []*model.FeedEvent, now time.Time) []Group {
	if len(events) == 0 {
		return nil
	}

	var groups []Group
	for _, e := range events {
		label := dayLabel(e.CreatedAt, now)
		if len(groups) == 0 || groups[len(groups)-1].Label != label {
			groups = append(groups, Group{Label: label})
		}
		g := &groups[len(groups)-1]
		g.Events = append(g.Events, e)
	}
	return groups
}

// dayLabel computes the bucket label for one timestamp relative to now.
// Boundaries are calendar days in now's location.
func dayLabel(t, now time.Time) string {
	days := daysAgo(t, now)
	switch {
	case days <= 0:
		// Events stamped today or slightly ahead of local now (clock skew
		// between producer and client) both land in Today.
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return "This Week"
	default:
		return t.In(now.Location()).Format("January 2, 2006")
	}
}

// daysAgo returns how many calendar-day boundaries lie between t and now.
// The dates are re-anchored in UTC so DST transitions cannot shift the count.
func daysAgo(t, now time.Time) int {
	loc := now.Location()
	ny, nm, nd := now.In(loc).Date()
	ty, tm, td := t.In(loc).Date()
	nowDay := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	tDay := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(nowDay.Sub(tDay).Hours() / 24)
}
