package workflow

import (
	"context"

	"markerq/internal/logging"
	"markerq/internal/queue"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	Paused      bool
	PauseReason string
	LastError   string
	LastRequest *queue.Request
	QueueStats  map[queue.Status]int
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running:     m.running,
		Paused:      m.paused,
		PauseReason: m.pauseMsg,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastReq != nil {
		copied := *m.lastReq
		summary.LastRequest = &copied
	}
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	summary.QueueStats = stats
	return summary
}

func (m *Manager) isPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

func (m *Manager) resume() {
	m.mu.Lock()
	if m.paused {
		m.paused = false
		m.pauseMsg = ""
		m.mu.Unlock()
		m.logger.Info("queue resumed")
		return
	}
	m.mu.Unlock()
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastRequest(req *queue.Request) {
	m.mu.Lock()
	if req != nil {
		copied := *req
		m.lastReq = &copied
	} else {
		m.lastReq = nil
	}
	m.mu.Unlock()
}
