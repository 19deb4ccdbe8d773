package workflow

import (
	"context"

	"markerq/internal/logging"
)

// CancelCurrent terminates the converter process for the running request,
// if any. The request ends Cancelled, never Failed, and the loop advances
// to the next pending request. Reports whether a request was running.
func (m *Manager) CancelCurrent() bool {
	m.currentMu.Lock()
	defer m.currentMu.Unlock()
	if m.currentCancel == nil {
		return false
	}
	m.userCancelled = true
	m.currentCancel()
	return true
}

// CancelAll cancels the running request and marks every pending request
// cancelled. Returns the number of pending requests affected.
func (m *Manager) CancelAll(ctx context.Context) (int64, error) {
	cancelled, err := m.store.CancelPending(ctx)
	if err != nil {
		return 0, err
	}
	m.CancelCurrent()
	m.logger.Info("pending requests cancelled", logging.Int64("count", cancelled))
	return cancelled, nil
}

func (m *Manager) registerCurrent(id int64, cancel context.CancelFunc) {
	m.currentMu.Lock()
	m.currentID = id
	m.currentCancel = cancel
	m.userCancelled = false
	m.currentMu.Unlock()
}

// clearCurrent unregisters the running request and reports whether the
// user asked for its cancellation.
func (m *Manager) clearCurrent() bool {
	m.currentMu.Lock()
	user := m.userCancelled
	m.currentID = 0
	m.currentCancel = nil
	m.userCancelled = false
	m.currentMu.Unlock()
	return user
}

// CurrentRequestID returns the identifier of the running request, or zero.
func (m *Manager) CurrentRequestID() int64 {
	m.currentMu.Lock()
	defer m.currentMu.Unlock()
	return m.currentID
}
