package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/sightlinehq/sightline/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanEvent scans a single row into a model.FeedEvent.
// The row must contain columns in the order defined by eventColumns.
func scanEvent(row scannable) (*model.FeedEvent, error) {
	var e model.FeedEvent
	var (
		data          []byte
		relMemo       sql.NullString
		relQuery      sql.NullString
		relCompetitor sql.NullString
		actions       pq.StringArray
		actionTaken   sql.NullString
		actionTakenAt sql.NullTime
	)

	err := row.Scan(
		&e.ID,
		&e.BrandID,
		&e.Workflow,
		&e.Severity,
		&e.EventType,
		&e.Title,
		&e.Description,
		&data,
		&relMemo,
		&relQuery,
		&relCompetitor,
		&e.Read,
		&actions,
		&actionTaken,
		&actionTakenAt,
		&e.ActionCostCredits,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		var p model.Payload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding payload for %s: %w", e.ID, err)
		}
		e.Data = &p
	}
	e.RelatedMemoID = relMemo.String
	e.RelatedQueryID = relQuery.String
	e.RelatedCompetitorID = relCompetitor.String
	for _, a := range actions {
		e.ActionAvailable = append(e.ActionAvailable, model.Action(a))
	}
	if actionTaken.Valid {
		e.ActionTaken = model.Action(actionTaken.String)
	}
	if actionTakenAt.Valid {
		t := actionTakenAt.Time
		e.ActionTakenAt = &t
	}

	return &e, nil
}

// payloadBytes marshals the discriminated payload for the jsonb column,
// or returns nil for a NULL payload.
func payloadBytes(p *model.Payload) []byte {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return data
}

// actionsArray converts the action set for the text[] column.
func actionsArray(actions []model.Action) pq.StringArray {
	out := make(pq.StringArray, 0, len(actions))
	for _, a := range actions {
		out = append(out, string(a))
	}
	return out
}

// nullString returns a NULL-able variant of s, treating "" as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullTimePtr returns a NULL-able variant of t, treating nil as NULL.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
