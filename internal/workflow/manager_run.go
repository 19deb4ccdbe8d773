package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"markerq/internal/logging"
	"markerq/internal/preflight"
	"markerq/internal/queue"
)

// Start begins background queue processing. It refuses to start when
// another session holds the instance lock or a preflight check fails.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}

	locked, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return errors.New("another markerq session is already processing the queue")
	}

	results := preflight.RunAll(ctx, m.cfg)
	if !preflight.AllPassed(results) {
		_ = m.lock.Unlock()
		var failures []string
		for _, result := range results {
			if !result.Passed {
				failures = append(failures, fmt.Sprintf("%s: %s", result.Name, result.Detail))
			}
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(failures, "; "))
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx)
	return nil
}

// Stop terminates background processing, waits for the in-flight request to
// wind down, and releases the instance lock.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	_ = m.lock.Unlock()
}

// Wait blocks until the processing loop exits.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			m.finishBatch(context.Background())
			return
		default:
		}

		if m.isPaused() {
			if !m.sleep(ctx, m.retryInterval) {
				m.finishBatch(context.Background())
				return
			}
			m.resume()
			continue
		}

		req, err := m.store.NextPending(ctx)
		if err != nil {
			m.handleNextError(ctx, err)
			continue
		}
		if req == nil {
			m.finishBatch(ctx)
			if !m.sleep(ctx, m.pollInterval) {
				return
			}
			continue
		}

		m.ensureBatchStarted(ctx)
		m.processRequest(ctx, req)
	}
}

func (m *Manager) handleNextError(ctx context.Context, err error) {
	m.setLastError(err)
	m.logger.Error("failed to fetch next request",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	m.sleep(ctx, m.retryInterval)
}

// sleep waits for the interval and reports false when the context ended first.
func (m *Manager) sleep(ctx context.Context, interval time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(interval):
		return true
	}
}

func (m *Manager) ensureBatchStarted(ctx context.Context) {
	m.mu.Lock()
	if m.batchActive {
		m.mu.Unlock()
		return
	}
	m.batchActive = true
	m.batchStart = time.Now()
	m.batchIndex = 0
	m.batchSucceeded = 0
	m.batchFailed = 0
	m.batchCancelled = 0
	m.mu.Unlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
		return
	}
	pending := stats[queue.StatusPending]
	m.logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_started"),
		logging.Int("pending", pending),
	)
	if m.notifier != nil {
		if err := m.notifier.NotifyBatchStarted(ctx, pending); err != nil {
			m.logger.Warn("batch start notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) finishBatch(ctx context.Context) {
	m.mu.Lock()
	if !m.batchActive {
		m.mu.Unlock()
		return
	}
	m.batchActive = false
	succeeded := m.batchSucceeded
	failed := m.batchFailed
	cancelled := m.batchCancelled
	duration := time.Since(m.batchStart)
	m.mu.Unlock()

	m.logger.Info("batch completed",
		logging.String(logging.FieldEventType, "batch_completed"),
		logging.Int("succeeded", succeeded),
		logging.Int("failed", failed),
		logging.Int("cancelled", cancelled),
		logging.Duration("duration", duration),
	)
	if m.notifier != nil {
		if err := m.notifier.NotifyBatchCompleted(ctx, succeeded, failed, cancelled, duration); err != nil {
			m.logger.Warn("batch completion notification failed", logging.Error(err))
		}
	}
}
