// Package client provides a transport-agnostic interface for the sightline
// feed service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"

	"github.com/sightlinehq/sightline/internal/model"
)

// StateOp is a batched read-state mutation.
type StateOp string

const (
	OpMarkRead StateOp = "mark_read"
	OpDismiss  StateOp = "dismiss"
)

// FeedClient is the interface the feed controller and all CLI commands use
// to communicate with the feed service.
type FeedClient interface {
	// FetchPage returns one page of events matching the filters, newest
	// first. Pass the previous response's NextCursor for the next
	// strictly-older page; an empty cursor starts at the top.
	FetchPage(ctx context.Context, req *PageRequest) (*PageResponse, error)

	// UpdateState applies a batched mark_read or dismiss mutation.
	// Best-effort: the server reconciles stragglers on the next refresh.
	UpdateState(ctx context.Context, ids []string, op StateOp) error

	// PerformAction dispatches a side-effecting, possibly costed action for
	// one event. It returns once the server has confirmed or rejected the
	// action; the underlying work (e.g. content generation) may continue
	// after it returns.
	PerformAction(ctx context.Context, id string, action model.Action) (*ActionResult, error)

	// GetEvent fetches a single event for the detail view.
	GetEvent(ctx context.Context, id string) (*model.FeedEvent, error)

	// UnreadCounts returns per-workflow unread totals for navigation chrome.
	UnreadCounts(ctx context.Context, brandID string) (map[model.Workflow]int, error)

	// CreateEvent ingests a producer-created event.
	CreateEvent(ctx context.Context, req *CreateEventRequest) (*model.FeedEvent, error)

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// PageRequest holds parameters for fetching a feed page.
type PageRequest struct {
	BrandID    string         `json:"brand_id,omitempty"`
	Workflow   model.Workflow `json:"workflow,omitempty"`
	Severity   model.Severity `json:"severity,omitempty"`
	UnreadOnly bool           `json:"unread_only,omitempty"`
	Cursor     string         `json:"cursor,omitempty"`
	Limit      int            `json:"limit,omitempty"`
}

// Filter returns the model filter equivalent of the request.
func (r *PageRequest) Filter() model.Filter {
	return model.Filter{
		BrandID:    r.BrandID,
		Workflow:   r.Workflow,
		Severity:   r.Severity,
		UnreadOnly: r.UnreadOnly,
	}
}

// PageResponse is the response from FetchPage.
type PageResponse struct {
	Items       []*model.FeedEvent `json:"items"`
	NextCursor  string             `json:"next_cursor,omitempty"`
	HasMore     bool               `json:"has_more"`
	UnreadCount int                `json:"unread_count"`
}

// ActionResult is the confirmed outcome of an action dispatch.
type ActionResult struct {
	Event  *model.FeedEvent `json:"event"`
	MemoID string           `json:"memo_id,omitempty"` // set when the action produced a memo
}

// CreateEventRequest holds parameters for ingesting an event.
type CreateEventRequest struct {
	BrandID             string         `json:"brand_id"`
	Workflow            model.Workflow `json:"workflow"`
	Severity            model.Severity `json:"severity"`
	EventType           string         `json:"event_type,omitempty"`
	Title               string         `json:"title"`
	Description         string         `json:"description,omitempty"`
	Data                *model.Payload `json:"data,omitempty"`
	RelatedMemoID       string         `json:"related_memo_id,omitempty"`
	RelatedQueryID      string         `json:"related_query_id,omitempty"`
	RelatedCompetitorID string         `json:"related_competitor_id,omitempty"`
	ActionAvailable     []model.Action `json:"action_available,omitempty"`
	ActionCostCredits   int            `json:"action_cost_credits,omitempty"`
}
