package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sightlinehq/sightline/internal/client"
	"github.com/sightlinehq/sightline/internal/model"
	"github.com/sightlinehq/sightline/internal/store"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *FeedServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/feed", s.handleListFeed)
	mux.HandleFunc("POST /v1/feed", s.handleCreateEvent)
	mux.HandleFunc("PATCH /v1/feed/state", s.handleUpdateState)
	mux.HandleFunc("GET /v1/feed/unread", s.handleUnreadCounts)
	mux.HandleFunc("GET /v1/feed/{id}", s.handleGetEvent)
	mux.HandleFunc("POST /v1/feed/{id}/actions", s.handlePerformAction)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *FeedServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListFeed handles GET /v1/feed.
func (s *FeedServer) handleListFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.Filter{
		BrandID:    q.Get("brand_id"),
		UnreadOnly: q.Get("unread_only") == "true",
	}
	if v := q.Get("workflow"); v != "" {
		wf := model.Workflow(v)
		if !wf.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown workflow "+strconv.Quote(v))
			return
		}
		filter.Workflow = wf
	}
	if v := q.Get("severity"); v != "" {
		sev := model.Severity(v)
		if !sev.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown severity "+strconv.Quote(v))
			return
		}
		filter.Severity = sev
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	page, err := s.store.FetchPage(r.Context(), filter, q.Get("cursor"), limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Ensure items is never null in JSON output.
	items := page.Items
	if items == nil {
		items = []*model.FeedEvent{}
	}

	writeJSON(w, http.StatusOK, client.PageResponse{
		Items:       items,
		NextCursor:  page.NextCursor,
		HasMore:     page.HasMore,
		UnreadCount: page.UnreadCount,
	})
}

// handleCreateEvent handles POST /v1/feed (producer ingest).
func (s *FeedServer) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in client.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	event, err := s.createEvent(r.Context(), &in)
	if err != nil {
		var ie inputError
		if errors.As(err, &ie) {
			writeError(w, http.StatusBadRequest, ie.Error())
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// handleUpdateState handles PATCH /v1/feed/state (batched mark_read/dismiss).
func (s *FeedServer) handleUpdateState(w http.ResponseWriter, r *http.Request) {
	var in struct {
		EventIDs []string `json:"event_ids"`
		Action   string   `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.updateState(r.Context(), in.EventIDs, client.StateOp(in.Action)); err != nil {
		var ie inputError
		if errors.As(err, &ie) {
			writeError(w, http.StatusBadRequest, ie.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "failed to update state")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetEvent handles GET /v1/feed/{id}.
func (s *FeedServer) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	event, err := s.getEvent(r.Context(), id)
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// handlePerformAction handles POST /v1/feed/{id}/actions.
func (s *FeedServer) handlePerformAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var in struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.performAction(r.Context(), id, model.Action(in.Action))
	if err != nil {
		var ie inputError
		switch {
		case errors.As(err, &ie):
			writeError(w, http.StatusBadRequest, ie.Error())
		case errors.Is(err, store.ErrAlreadyResolved):
			writeError(w, http.StatusConflict, "action already taken")
		case errors.Is(err, ErrInsufficientCredits):
			writeError(w, http.StatusUnprocessableEntity, "insufficient credits")
		case isNotFound(err):
			writeError(w, http.StatusNotFound, "event not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleUnreadCounts handles GET /v1/feed/unread.
func (s *FeedServer) handleUnreadCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.store.UnreadCounts(r.Context(), r.URL.Query().Get("brand_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count unread events")
		return
	}
	if counts == nil {
		counts = map[model.Workflow]int{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
