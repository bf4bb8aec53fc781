package store

import (
	"context"
	"errors"
	"time"

	"github.com/sightlinehq/sightline/internal/model"
)

// ErrAlreadyResolved is returned by ResolveAction when the event already has
// an action taken. Resolution is one-way; a second action is rejected, not
// overwritten.
var ErrAlreadyResolved = errors.New("event action already taken")

// Page is one slice of the feed stream in created_at-descending order.
type Page struct {
	Items []*model.FeedEvent

	// NextCursor is the opaque position token for the next strictly-older
	// page; empty when HasMore is false.
	NextCursor string

	// HasMore signals whether older events exist past this page. False is
	// the end of the stream, not an error.
	HasMore bool

	// UnreadCount is the cross-workflow unread total for the page's brand
	// scope, independent of the page window.
	UnreadCount int
}

// Store defines the persistence interface for the feed.
type Store interface {
	// Events
	CreateEvent(ctx context.Context, event *model.FeedEvent) error
	GetEvent(ctx context.Context, id string) (*model.FeedEvent, error)

	// FetchPage returns events matching the filter, newest first, starting
	// strictly after the cursor position. The cursor is defined by the
	// store; callers treat it as opaque and forward-only.
	FetchPage(ctx context.Context, filter model.Filter, cursor string, limit int) (*Page, error)

	// UnreadCounts returns per-workflow unread totals for the brand scope
	// (empty brandID = all brands). Dismissed events never count.
	UnreadCounts(ctx context.Context, brandID string) (map[model.Workflow]int, error)

	// State mutations. Both are batched and idempotent per id; ids that do
	// not exist are skipped, not errors.
	MarkRead(ctx context.Context, ids []string) error
	Dismiss(ctx context.Context, ids []string) error

	// ResolveAction records the action taken on an event and marks it read.
	// Returns ErrAlreadyResolved if an action was already taken, and
	// sql.ErrNoRows if the event does not exist. When memoID is non-empty
	// it is stored as the event's related memo for deep-linking.
	ResolveAction(ctx context.Context, id string, action model.Action, memoID string, at time.Time) (*model.FeedEvent, error)

	// ListAll returns every non-dismissed event for the brand scope in
	// created_at-ascending order. Used by the archive exporter.
	ListAll(ctx context.Context, brandID string) ([]*model.FeedEvent, error)

	// Lifecycle
	Close() error
}
