package queue

import (
	"context"
	"fmt"
	"time"
)

// CancelPending marks every pending request cancelled without running it.
// Returns the number of requests affected.
func (s *Store) CancelPending(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_requests
         SET status = ?, progress_message = ?, updated_at = ?
         WHERE status = ?`,
		StatusCancelled,
		UserCancelReason,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("cancel pending: %w", err)
	}
	return res.RowsAffected()
}

// FailInterrupted fails requests a previous session left running. The queue
// is session-scoped state: nothing should claim to be running when no
// process owns it.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE queue_requests
         SET status = ?, error_message = ?, progress_message = ?, updated_at = ?
         WHERE status = ?`,
		StatusFailed,
		InterruptedReason,
		InterruptedReason,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted: %w", err)
	}
	return res.RowsAffected()
}

// RequeuePending returns a request to pending after a pause-worthy failure
// (e.g. a full output volume) so it is retried once the condition clears.
func (s *Store) RequeuePending(ctx context.Context, id int64, reason string) error {
	return s.execWithoutResultRetry(
		ctx,
		`UPDATE queue_requests
         SET status = ?, error_message = NULL, progress_message = ?, updated_at = ?
         WHERE id = ?`,
		StatusPending,
		reason,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
}
