package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mercator-hq/callisto/pkg/activity"
)

// Store persists tracker completions.
var _ activity.Archiver = (*Store)(nil)

// CompletionRecord is one persisted request completion.
type CompletionRecord struct {
	// ID is the record's primary key. RecordCompletion generates one when
	// it is empty.
	ID string

	// RequestID is the ID the request was tracked under.
	RequestID string

	// UserID is the user that owned the request.
	UserID string

	// Outcome is how the request finished (success, failure, timed_out).
	Outcome string

	// Method, Path, and Client are the metadata captured at begin time.
	Method string
	Path   string
	Client string

	// StartedAt and CompletedAt bound the request's lifetime.
	StartedAt   time.Time
	CompletedAt time.Time

	// Duration is CompletedAt minus StartedAt.
	Duration time.Duration
}

// HistoryQuery filters persisted completions.
type HistoryQuery struct {
	// UserID restricts results to one user when non-empty.
	UserID string

	// Outcome restricts results to one outcome when non-empty.
	Outcome string

	// Since and Until bound the completion time.
	Since *time.Time
	Until *time.Time

	// Limit caps the result size. Default: 100.
	Limit int

	// Offset skips that many rows for pagination.
	Offset int
}

// RecordCompletion persists one completed request. An empty ID is replaced
// with a generated one.
func (s *Store) RecordCompletion(ctx context.Context, rec *CompletionRecord) error {
	if rec == nil {
		return newError("record", errors.New("record cannot be nil"))
	}
	if rec.RequestID == "" {
		return newError("record", errors.New("request id cannot be empty"))
	}
	if rec.UserID == "" {
		return newError("record", errors.New("user id cannot be empty"))
	}
	if rec.Outcome == "" {
		return newError("record", errors.New("outcome cannot be empty"))
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	stmt, err := s.getStmt(ctx, insertCompletion)
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx,
		rec.ID, rec.RequestID, rec.UserID, rec.Outcome,
		rec.Method, rec.Path, rec.Client,
		rec.StartedAt, rec.CompletedAt, rec.Duration.Milliseconds(),
	)
	if err != nil {
		return newError("record", err)
	}

	return nil
}

// ArchiveCompletion implements the tracker's archiver hook by persisting
// the completion as a history record.
func (s *Store) ArchiveCompletion(ctx context.Context, userID string, req activity.ActiveRequest, completed activity.CompletedRequest) error {
	return s.RecordCompletion(ctx, &CompletionRecord{
		RequestID:   completed.RequestID,
		UserID:      userID,
		Outcome:     completed.Outcome.String(),
		Method:      req.Metadata.Method,
		Path:        req.Metadata.Path,
		Client:      req.Metadata.Client,
		StartedAt:   req.StartedAt,
		CompletedAt: completed.CompletedAt,
		Duration:    completed.CompletedAt.Sub(req.StartedAt),
	})
}

// History returns persisted completions matching the query, most recent
// first.
func (s *Store) History(ctx context.Context, query HistoryQuery) ([]CompletionRecord, error) {
	whereClause, args := buildHistoryWhere(query)

	sqlQuery := `SELECT id, request_id, user_id, outcome, method, path, client,
		started_at, completed_at, duration_ms FROM completions`
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += " ORDER BY completed_at DESC"

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, newError("history", err)
	}
	defer rows.Close()

	records := []CompletionRecord{}
	for rows.Next() {
		rec, err := scanCompletion(rows)
		if err != nil {
			return nil, newError("scan", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, newError("history", err)
	}

	return records, nil
}

// CountHistory returns the number of persisted completions matching the
// query, ignoring Limit and Offset.
func (s *Store) CountHistory(ctx context.Context, query HistoryQuery) (int64, error) {
	whereClause, args := buildHistoryWhere(query)

	sqlQuery := "SELECT COUNT(*) FROM completions"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, newError("count", err)
	}
	return count, nil
}

// buildHistoryWhere builds a SQL WHERE clause from the query filters.
// Returns the clause without the "WHERE" keyword and the bound arguments.
func buildHistoryWhere(query HistoryQuery) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if query.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, query.UserID)
	}
	if query.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, query.Outcome)
	}
	if query.Since != nil {
		conditions = append(conditions, "completed_at >= ?")
		args = append(args, *query.Since)
	}
	if query.Until != nil {
		conditions = append(conditions, "completed_at <= ?")
		args = append(args, *query.Until)
	}

	whereClause := ""
	for i, condition := range conditions {
		if i > 0 {
			whereClause += " AND "
		}
		whereClause += condition
	}
	return whereClause, args
}

func scanCompletion(rows *sql.Rows) (CompletionRecord, error) {
	var rec CompletionRecord
	var durationMs int64
	err := rows.Scan(
		&rec.ID, &rec.RequestID, &rec.UserID, &rec.Outcome,
		&rec.Method, &rec.Path, &rec.Client,
		&rec.StartedAt, &rec.CompletedAt, &durationMs,
	)
	if err != nil {
		return CompletionRecord{}, err
	}
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	return rec, nil
}
