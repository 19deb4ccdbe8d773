package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Enqueue inserts a new pending request and returns the stored row.
func (s *Store) Enqueue(ctx context.Context, req *Request) (*Request, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}
	if err := req.Pages.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_requests (
            source, source_kind, local_path, output_name, output_dir,
            page_range, project_folder, move_original, status,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Source,
		string(req.SourceKind),
		nullableString(req.LocalPath),
		req.OutputName,
		req.OutputDir,
		req.Pages.String(),
		boolToInt(req.ProjectFolder),
		boolToInt(req.MoveOriginal),
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a request by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM queue_requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// Update persists changes to an existing request.
func (s *Store) Update(ctx context.Context, req *Request) error {
	if req == nil {
		return errors.New("request is nil")
	}
	req.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_requests
         SET source = ?, source_kind = ?, local_path = ?, output_name = ?,
             output_dir = ?, page_range = ?, project_folder = ?, move_original = ?,
             status = ?, error_message = ?, progress_message = ?, log_path = ?,
             final_path = ?, updated_at = ?
         WHERE id = ?`,
		req.Source,
		string(req.SourceKind),
		nullableString(req.LocalPath),
		req.OutputName,
		req.OutputDir,
		req.Pages.String(),
		boolToInt(req.ProjectFolder),
		boolToInt(req.MoveOriginal),
		req.Status,
		nullableString(req.ErrorMessage),
		nullableString(req.ProgressMessage),
		nullableString(req.LogPath),
		nullableString(req.FinalPath),
		req.UpdatedAt.Format(time.RFC3339Nano),
		req.ID,
	); err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	return nil
}

// List returns requests filtered by status set (or all when no status is
// provided) in insertion order.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Request, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + requestColumns + ` FROM queue_requests`
	orderClause := ` ORDER BY id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// NextPending returns the oldest pending request, or nil when the queue is
// drained. Insertion order determines processing order.
func (s *Store) NextPending(ctx context.Context) (*Request, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+requestColumns+` FROM queue_requests WHERE status = ? ORDER BY id LIMIT 1`,
		StatusPending,
	)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Remove deletes a request by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_requests WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearFinished removes requests in terminal states.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM queue_requests WHERE status IN (?, ?, ?)`,
		StatusSucceeded, StatusFailed, StatusCancelled,
	)
	if err != nil {
		return 0, fmt.Errorf("clear finished: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all requests from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_requests`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns per-status request counts.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}
