// Package server implements the sightline feed service: HTTP/JSON routes,
// SSE fan-out, and action dispatch over a store and push-channel publisher.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sightlinehq/sightline/internal/client"
	"github.com/sightlinehq/sightline/internal/events"
	"github.com/sightlinehq/sightline/internal/idgen"
	"github.com/sightlinehq/sightline/internal/model"
	"github.com/sightlinehq/sightline/internal/store"
)

// FeedServer serves the feed API backed by the given store and publisher.
type FeedServer struct {
	store     store.Store
	publisher events.Publisher
	sseHub    *sseHub
	actions   *ActionRegistry
	credits   CreditLedger
}

// NewFeedServer returns a new FeedServer. The default action registry handles
// every built-in action; the default credit ledger never rejects.
func NewFeedServer(s store.Store, p events.Publisher) *FeedServer {
	srv := &FeedServer{
		store:     s,
		publisher: p,
		sseHub:    newSSEHub(),
		credits:   unlimitedLedger{},
	}
	srv.actions = defaultActionRegistry()
	return srv
}

// SetCreditLedger replaces the credit ledger consulted before costed actions.
func (s *FeedServer) SetCreditLedger(l CreditLedger) {
	if l != nil {
		s.credits = l
	}
}

// publishAndBroadcast emits a push-channel envelope for the event and fans it
// out to connected SSE clients. Both deliveries are best-effort; failures are
// logged but do not block the caller.
func (s *FeedServer) publishAndBroadcast(ctx context.Context, kind string, event *model.FeedEvent) {
	var subject string
	switch kind {
	case events.KindCreated:
		subject = events.CreatedSubject(event.BrandID)
	case events.KindUpdated:
		subject = events.UpdatedSubject(event.BrandID)
	default:
		slog.Warn("unknown push kind", "kind", kind, "event_id", event.ID)
		return
	}

	env := &events.Envelope{Event: kind, Payload: event}
	if err := s.publisher.Publish(ctx, subject, env); err != nil {
		slog.Warn("failed to publish event", "subject", subject, "event_id", event.ID, "error", err)
	}
	s.broadcastEnvelope(subject, env)
}

// inputError indicates invalid user input.
// Transport layers map this to 400.
type inputError string

func (e inputError) Error() string { return string(e) }

// createEvent validates and persists a producer-submitted event, then
// announces it on the push channel.
func (s *FeedServer) createEvent(ctx context.Context, req *client.CreateEventRequest) (*model.FeedEvent, error) {
	if req.BrandID == "" {
		return nil, inputError("brand_id is required")
	}
	if req.Title == "" {
		return nil, inputError("title is required")
	}
	if !req.Workflow.IsValid() {
		return nil, inputError(fmt.Sprintf("unknown workflow %q", req.Workflow))
	}
	if !req.Severity.IsValid() {
		return nil, inputError(fmt.Sprintf("unknown severity %q", req.Severity))
	}
	for _, a := range req.ActionAvailable {
		if !a.IsValid() {
			return nil, inputError(fmt.Sprintf("unknown action %q", a))
		}
	}
	if req.ActionCostCredits < 0 {
		return nil, inputError("action_cost_credits must not be negative")
	}
	if req.Data != nil {
		if err := req.Data.Validate(); err != nil {
			return nil, inputError(fmt.Sprintf("invalid payload: %v", err))
		}
	}

	id, err := idgen.NewEventID()
	if err != nil {
		return nil, fmt.Errorf("minting event id: %w", err)
	}

	event := &model.FeedEvent{
		ID:                  id,
		BrandID:             req.BrandID,
		Workflow:            req.Workflow,
		Severity:            req.Severity,
		EventType:           req.EventType,
		Title:               req.Title,
		Description:         req.Description,
		Data:                req.Data,
		RelatedMemoID:       req.RelatedMemoID,
		RelatedQueryID:      req.RelatedQueryID,
		RelatedCompetitorID: req.RelatedCompetitorID,
		ActionAvailable:     req.ActionAvailable,
		ActionCostCredits:   req.ActionCostCredits,
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}

	s.publishAndBroadcast(ctx, events.KindCreated, event)
	return event, nil
}

// performAction dispatches a confirmed action on one event: checks the event
// offers it, reserves credits, runs the action's runner, and records the
// resolution. The resolved event is announced as an update.
func (s *FeedServer) performAction(ctx context.Context, id string, action model.Action) (*client.ActionResult, error) {
	if !action.IsValid() {
		return nil, inputError(fmt.Sprintf("unknown action %q", action))
	}

	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Resolved() {
		return nil, store.ErrAlreadyResolved
	}
	if !event.Offers(action) {
		return nil, inputError(fmt.Sprintf("event %s does not offer action %q", id, action))
	}

	runner, ok := s.actions.runner(action)
	if !ok {
		return nil, inputError(fmt.Sprintf("no runner for action %q", action))
	}

	if event.ActionCostCredits > 0 {
		if err := s.credits.Reserve(ctx, event.BrandID, event.ActionCostCredits); err != nil {
			return nil, err
		}
	}

	memoID, err := runner.Run(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("running action %q: %w", action, err)
	}

	resolved, err := s.store.ResolveAction(ctx, id, action, memoID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	s.publishAndBroadcast(ctx, events.KindUpdated, resolved)
	return &client.ActionResult{Event: resolved, MemoID: memoID}, nil
}

// getEvent fetches one event, mapping a missing row to sql.ErrNoRows for the
// transport layer.
func (s *FeedServer) getEvent(ctx context.Context, id string) (*model.FeedEvent, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, sql.ErrNoRows
	}
	return event, nil
}

// updateState applies a batched read-state mutation.
func (s *FeedServer) updateState(ctx context.Context, ids []string, op client.StateOp) error {
	if len(ids) == 0 {
		return inputError("event_ids is required")
	}
	switch op {
	case client.OpMarkRead:
		return s.store.MarkRead(ctx, ids)
	case client.OpDismiss:
		return s.store.Dismiss(ctx, ids)
	default:
		return inputError(fmt.Sprintf("unknown state action %q", op))
	}
}

// isNotFound reports whether err means the target row does not exist.
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
