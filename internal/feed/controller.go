// Package feed implements the client-side feed controller: filter state,
// cursor pagination, the realtime buffer, optimistic read state, and
// confirmed action dispatch. One controller owns one feed view.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sightlinehq/sightline/internal/client"
	"github.com/sightlinehq/sightline/internal/events"
	"github.com/sightlinehq/sightline/internal/model"
)

// defaultPageSize is the page size requested when the caller does not set one.
const defaultPageSize = 25

// Notifier receives user-visible failure notifications (action rejections).
type Notifier func(message string)

// Snapshot is a read-only view of the controller's state for presentation.
// Presentation only reads; all mutation goes through the controller.
type Snapshot struct {
	Main        []*model.FeedEvent // paginated list, newest first
	Buffer      []*model.FeedEvent // realtime events not yet merged, newest first
	HasMore     bool
	Loading     bool
	UnreadTotal int
}

// Controller owns the state of one feed view. All methods are safe for
// concurrent use; the push-channel goroutine and the caller share it.
type Controller struct {
	client   client.FeedClient
	sub      events.Subscriber
	pageSize int

	mu       sync.Mutex
	filter   model.Filter
	gen      int // filter generation; responses from an older generation are discarded
	main     []*model.FeedEvent
	buffer   []*model.FeedEvent
	cursor   string
	hasMore  bool
	loading  bool
	unread   map[model.Workflow]int
	total    int
	notify   Notifier
	cancel   func() // active subscription teardown, nil when not subscribed
	subBrand string
	closed   bool
}

// NewController returns a controller for the given brand scope. An empty
// brandID is the cross-tenant view. Call Start to open the push subscription
// and Load to fetch the first page.
func NewController(c client.FeedClient, sub events.Subscriber, brandID string) *Controller {
	return &Controller{
		client:   c,
		sub:      sub,
		pageSize: defaultPageSize,
		filter:   model.Filter{BrandID: brandID},
		unread:   make(map[model.Workflow]int),
	}
}

// SetNotifier installs the callback for action-failure notifications.
func (c *Controller) SetNotifier(fn Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = fn
}

// SetPageSize overrides the default page size for subsequent loads.
func (c *Controller) SetPageSize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n > 0 {
		c.pageSize = n
	}
}

// Start opens the push subscription for the controller's brand scope.
// Safe to call again after a brand change; the old subscription is released
// first.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("controller is closed")
	}
	brand := c.filter.BrandID
	c.mu.Unlock()
	return c.resubscribe(brand)
}

// Close releases the push subscription. Idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.closed = true
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// resubscribe tears down any existing subscription and opens one for the
// given brand scope.
func (c *Controller) resubscribe(brandID string) error {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	ch, cancel, err := c.sub.Subscribe(events.BrandSubject(brandID))
	if err != nil {
		return fmt.Errorf("subscribing to push channel: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return nil
	}
	c.cancel = cancel
	c.subBrand = brandID
	c.mu.Unlock()

	go func() {
		for msg := range ch {
			c.handlePush(msg)
		}
	}()
	return nil
}

// handlePush applies one push-channel message. Malformed payloads are
// dropped; an event with an out-of-enum workflow or severity still flows
// through and renders with the generic fallback.
func (c *Controller) handlePush(msg events.Message) {
	var env events.Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil || env.Payload == nil {
		slog.Debug("dropping malformed push message", "subject", msg.Subject, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch env.Event {
	case events.KindCreated:
		// The filter is read here, under the same lock SetFilter writes it,
		// so a filter change and the buffer predicate swap are atomic.
		if !c.filter.Matches(env.Payload) {
			return
		}
		if c.findLocked(env.Payload.ID) != nil {
			return
		}
		c.buffer = append([]*model.FeedEvent{env.Payload}, c.buffer...)
		if !env.Payload.Read {
			c.unread[env.Payload.Workflow]++
			c.total++
		}
	case events.KindUpdated:
		c.patchLocked(env.Payload)
	default:
		slog.Debug("dropping push message with unknown kind", "kind", env.Event)
	}
}

// Load fetches page 1 for the current filter, replacing the main list and
// clearing the buffer. A response that arrives after a newer Load or
// SetFilter is discarded.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.loading = true
	req := c.pageRequestLocked("")
	brand := c.filter.BrandID
	c.mu.Unlock()

	resp, err := c.client.FetchPage(ctx, req)

	var counts map[model.Workflow]int
	if err == nil {
		// Best-effort; the total from the page response is authoritative.
		counts, _ = c.client.UnreadCounts(ctx, brand)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		// A newer load owns the state now.
		return nil
	}
	c.loading = false
	if err != nil {
		return fmt.Errorf("loading feed: %w", err)
	}

	c.main = resp.Items
	c.buffer = nil
	c.cursor = resp.NextCursor
	c.hasMore = resp.HasMore
	c.total = resp.UnreadCount
	c.unread = make(map[model.Workflow]int)
	for wf, n := range counts {
		c.unread[wf] = n
	}
	return nil
}

// LoadMore appends the next strictly-older page. Suppressed while any load
// is in flight or when the end of the stream was reached.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || !c.hasMore {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	gen := c.gen
	req := c.pageRequestLocked(c.cursor)
	c.mu.Unlock()

	resp, err := c.client.FetchPage(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil
	}
	c.loading = false
	if err != nil {
		return fmt.Errorf("loading more: %w", err)
	}

	seen := make(map[string]struct{}, len(c.main))
	for _, e := range c.main {
		seen[e.ID] = struct{}{}
	}
	for _, e := range resp.Items {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		c.main = append(c.main, e)
	}
	c.cursor = resp.NextCursor
	c.hasMore = resp.HasMore
	c.total = resp.UnreadCount
	return nil
}

// Merge folds the realtime buffer into the front of the main list and
// empties it. This is the only path by which buffered events join the
// paginated view. Idempotent: an empty buffer is a no-op.
func (c *Controller) Merge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.buffer) == 0 {
		return
	}
	merged := make([]*model.FeedEvent, 0, len(c.buffer)+len(c.main))
	merged = append(merged, c.buffer...)
	merged = append(merged, c.main...)
	c.main = merged
	c.buffer = nil
}

// MarkRead optimistically flips read=true for the given ids in both lists
// and decrements unread counters, then fires the mutation without waiting.
// Failures are tolerated; the next full refresh reconciles.
func (c *Controller) MarkRead(ctx context.Context, ids ...string) {
	c.mu.Lock()
	var present []string
	for _, id := range ids {
		e := c.findLocked(id)
		if e == nil {
			continue
		}
		present = append(present, id)
		if !e.Read {
			e.Read = true
			c.decrementUnreadLocked(e.Workflow)
		}
	}
	c.mu.Unlock()

	if len(present) == 0 {
		return
	}
	go func() {
		if err := c.client.UpdateState(ctx, present, client.OpMarkRead); err != nil {
			slog.Debug("mark read not acknowledged", "ids", present, "error", err)
		}
	}()
}

// Dismiss optimistically removes the events from both lists, then fires the
// mutation without waiting. Same eventual-consistency tolerance as MarkRead.
func (c *Controller) Dismiss(ctx context.Context, ids ...string) {
	c.mu.Lock()
	var present []string
	for _, id := range ids {
		if e := c.removeLocked(id); e != nil {
			present = append(present, id)
			if !e.Read {
				c.decrementUnreadLocked(e.Workflow)
			}
		}
	}
	c.mu.Unlock()

	if len(present) == 0 {
		return
	}
	go func() {
		if err := c.client.UpdateState(ctx, present, client.OpDismiss); err != nil {
			slog.Debug("dismiss not acknowledged", "ids", present, "error", err)
		}
	}()
}

// Act dispatches a confirmed action. Unlike MarkRead and Dismiss, nothing is
// applied locally until the server confirms: actions are costed and can
// fail, and a failed action must leave the event untouched and retryable.
// Failure surfaces exactly one notification.
func (c *Controller) Act(ctx context.Context, id string, action model.Action) (*client.ActionResult, error) {
	result, err := c.client.PerformAction(ctx, id, action)
	if err != nil {
		c.notifyFailure(fmt.Sprintf("action %s failed: %v", action, err))
		return nil, err
	}

	c.mu.Lock()
	c.patchLocked(result.Event)
	c.mu.Unlock()
	return result, nil
}

// Open fetches the full event for the detail view. Opening an unread event
// marks it read as a side effect.
func (c *Controller) Open(ctx context.Context, id string) (*model.FeedEvent, error) {
	event, err := c.client.GetEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("opening event %s: %w", id, err)
	}

	c.mu.Lock()
	local := c.findLocked(id)
	unread := local != nil && !local.Read
	c.mu.Unlock()
	if unread {
		c.MarkRead(ctx, id)
	}
	return event, nil
}

// SetFilter swaps the active filter, invalidates the buffer atomically with
// the predicate change, re-establishes the subscription when the brand scope
// changed, and reloads page 1. Any in-flight page response for the old
// filter is discarded when it arrives.
func (c *Controller) SetFilter(ctx context.Context, f model.Filter) error {
	c.mu.Lock()
	brandChanged := f.BrandID != c.subBrand && c.cancel != nil
	c.filter = f
	c.gen++
	c.buffer = nil
	c.mu.Unlock()

	if brandChanged {
		if err := c.resubscribe(f.BrandID); err != nil {
			return err
		}
	}
	return c.Load(ctx)
}

// Filter returns the active filter.
func (c *Controller) Filter() model.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Snapshot returns a copy of the visible state. The event pointers are
// shared; presentation must treat them as read-only.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Main:        append([]*model.FeedEvent(nil), c.main...),
		Buffer:      append([]*model.FeedEvent(nil), c.buffer...),
		HasMore:     c.hasMore,
		Loading:     c.loading,
		UnreadTotal: c.total,
	}
}

// UnreadTotal returns the cross-workflow unread count for the current scope.
func (c *Controller) UnreadTotal() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// UnreadCount returns the unread count for one workflow, for navigation
// chrome.
func (c *Controller) UnreadCount(w model.Workflow) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread[w]
}

// --- locked helpers ---

func (c *Controller) pageRequestLocked(cursor string) *client.PageRequest {
	return &client.PageRequest{
		BrandID:    c.filter.BrandID,
		Workflow:   c.filter.Workflow,
		Severity:   c.filter.Severity,
		UnreadOnly: c.filter.UnreadOnly,
		Cursor:     cursor,
		Limit:      c.pageSize,
	}
}

// findLocked returns the event with the given id from either list.
func (c *Controller) findLocked(id string) *model.FeedEvent {
	for _, e := range c.main {
		if e.ID == id {
			return e
		}
	}
	for _, e := range c.buffer {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// patchLocked replaces the stored event with the updated copy, wherever it
// lives. Updates for events this view never loaded are discarded. Unread
// accounting follows the read transition.
func (c *Controller) patchLocked(updated *model.FeedEvent) {
	if updated == nil {
		return
	}
	replace := func(list []*model.FeedEvent) bool {
		for i, e := range list {
			if e.ID == updated.ID {
				if !e.Read && updated.Read {
					c.decrementUnreadLocked(e.Workflow)
				}
				list[i] = updated
				return true
			}
		}
		return false
	}
	if !replace(c.main) {
		replace(c.buffer)
	}
}

// removeLocked removes the event from whichever list holds it and returns it.
func (c *Controller) removeLocked(id string) *model.FeedEvent {
	for i, e := range c.main {
		if e.ID == id {
			c.main = append(c.main[:i], c.main[i+1:]...)
			return e
		}
	}
	for i, e := range c.buffer {
		if e.ID == id {
			c.buffer = append(c.buffer[:i], c.buffer[i+1:]...)
			return e
		}
	}
	return nil
}

// decrementUnreadLocked decrements the workflow and total counters, never
// below zero.
func (c *Controller) decrementUnreadLocked(w model.Workflow) {
	if c.unread[w] > 0 {
		c.unread[w]--
	}
	if c.total > 0 {
		c.total--
	}
}

func (c *Controller) notifyFailure(message string) {
	c.mu.Lock()
	notify := c.notify
	c.mu.Unlock()
	if notify != nil {
		notify(message)
	}
}
