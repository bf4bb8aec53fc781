package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/sightlinehq/sightline/internal/model"
	"github.com/sightlinehq/sightline/internal/store"
)

// eventColumns is the column list used for SELECT statements on the
// feed_events table.
const eventColumns = `id, brand_id, workflow, severity, event_type, title, description,
	data, related_memo_id, related_query_id, related_competitor_id,
	read, action_available, action_taken, action_taken_at, action_cost_credits, created_at`

// defaultPageLimit bounds page size when callers pass zero or out-of-range
// values.
const (
	defaultPageLimit = 25
	maxPageLimit     = 100
)

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateEvent(ctx context.Context, db executor, e *model.FeedEvent) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO feed_events (
			id, brand_id, workflow, severity, event_type, title, description,
			data, related_memo_id, related_query_id, related_competitor_id,
			read, action_available, action_taken, action_taken_at, action_cost_credits, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17
		)`,
		e.ID,
		e.BrandID,
		string(e.Workflow),
		string(e.Severity),
		e.EventType,
		e.Title,
		e.Description,
		payloadBytes(e.Data),
		nullString(e.RelatedMemoID),
		nullString(e.RelatedQueryID),
		nullString(e.RelatedCompetitorID),
		e.Read,
		actionsArray(e.ActionAvailable),
		nullString(string(e.ActionTaken)),
		nullTimePtr(e.ActionTakenAt),
		e.ActionCostCredits,
		e.CreatedAt,
	)
	return err
}

func queryGetEvent(ctx context.Context, db executor, id string) (*model.FeedEvent, error) {
	row := db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM feed_events WHERE id = $1 AND NOT dismissed`, id)
	return scanEvent(row)
}

// queryFetchPage implements keyset pagination on (created_at, id). Offset
// pagination would skip or duplicate rows as producers insert new events
// above the window; the composite tuple keeps every page stable.
func queryFetchPage(ctx context.Context, db executor, filter model.Filter, cursorToken string, limit int) (*store.Page, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	var (
		whereClauses = []string{"NOT dismissed"}
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.BrandID != "" {
		whereClauses = append(whereClauses, "brand_id = "+nextArg())
		args = append(args, filter.BrandID)
	}
	if filter.Workflow != "" {
		whereClauses = append(whereClauses, "workflow = "+nextArg())
		args = append(args, string(filter.Workflow))
	}
	if filter.Severity != "" {
		whereClauses = append(whereClauses, "severity = "+nextArg())
		args = append(args, string(filter.Severity))
	}
	if filter.UnreadOnly {
		whereClauses = append(whereClauses, "NOT read")
	}
	if cursorToken != "" {
		c, err := decodeCursor(cursorToken)
		if err != nil {
			return nil, err
		}
		ts, id := nextArg(), nextArg()
		whereClauses = append(whereClauses, "(created_at, id) < ("+ts+", "+id+")")
		args = append(args, c.CreatedAt, c.ID)
	}

	// Fetch one extra row to learn whether older events remain.
	args = append(args, limit+1)
	query := `SELECT ` + eventColumns + ` FROM feed_events WHERE ` +
		strings.Join(whereClauses, " AND ") +
		` ORDER BY created_at DESC, id DESC LIMIT ` + nextArg()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*model.FeedEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := &store.Page{}
	if len(items) > limit {
		items = items[:limit]
		page.HasMore = true
		last := items[len(items)-1]
		page.NextCursor = encodeCursor(cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	page.Items = items

	unread, err := queryUnreadTotal(ctx, db, filter.BrandID)
	if err != nil {
		return nil, err
	}
	page.UnreadCount = unread

	return page, nil
}

func queryUnreadTotal(ctx context.Context, db executor, brandID string) (int, error) {
	var (
		query = `SELECT COUNT(*) FROM feed_events WHERE NOT read AND NOT dismissed`
		args  []any
	)
	if brandID != "" {
		query += ` AND brand_id = $1`
		args = append(args, brandID)
	}
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func queryUnreadCounts(ctx context.Context, db executor, brandID string) (map[model.Workflow]int, error) {
	var (
		query = `SELECT workflow, COUNT(*) FROM feed_events WHERE NOT read AND NOT dismissed`
		args  []any
	)
	if brandID != "" {
		query += ` AND brand_id = $1`
		args = append(args, brandID)
	}
	query += ` GROUP BY workflow`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.Workflow]int)
	for rows.Next() {
		var (
			w string
			n int
		)
		if err := rows.Scan(&w, &n); err != nil {
			return nil, err
		}
		counts[model.Workflow(w)] = n
	}
	return counts, rows.Err()
}

func queryMarkRead(ctx context.Context, db executor, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	// Read state is monotonic; already-read ids are a no-op.
	_, err := db.ExecContext(ctx,
		`UPDATE feed_events SET read = TRUE WHERE id = ANY($1) AND NOT read`,
		pq.Array(ids),
	)
	return err
}

func queryDismiss(ctx context.Context, db executor, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	// Dismiss is a state transition, not a delete; the record stays for
	// audit and archive export.
	_, err := db.ExecContext(ctx,
		`UPDATE feed_events SET dismissed = TRUE, read = TRUE WHERE id = ANY($1) AND NOT dismissed`,
		pq.Array(ids),
	)
	return err
}

func queryResolveAction(ctx context.Context, db executor, id string, action model.Action, memoID string, at time.Time) (*model.FeedEvent, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE feed_events
		SET action_taken = $2,
			action_taken_at = $3,
			read = TRUE,
			related_memo_id = COALESCE(NULLIF($4, ''), related_memo_id)
		WHERE id = $1 AND action_taken IS NULL
		RETURNING `+eventColumns,
		id, string(action), at, memoID,
	)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		// Distinguish "missing" from "already resolved".
		var taken sql.NullString
		checkErr := db.QueryRowContext(ctx, `SELECT action_taken FROM feed_events WHERE id = $1`, id).Scan(&taken)
		if checkErr == nil && taken.Valid {
			return nil, store.ErrAlreadyResolved
		}
		return nil, sql.ErrNoRows
	}
	return e, err
}

func queryListAll(ctx context.Context, db executor, brandID string) ([]*model.FeedEvent, error) {
	var (
		query = `SELECT ` + eventColumns + ` FROM feed_events WHERE NOT dismissed`
		args  []any
	)
	if brandID != "" {
		query += ` AND brand_id = $1`
		args = append(args, brandID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*model.FeedEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}
