package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"markerq/internal/logging"
	"markerq/internal/queue"
	"markerq/internal/services"
	"markerq/internal/services/marker"
)

func (m *Manager) processRequest(ctx context.Context, req *queue.Request) {
	reqCtx := services.WithRequestID(ctx, req.ID)
	reqCtx = services.WithStage(reqCtx, "convert")
	reqCtx = services.WithCorrelationID(reqCtx, uuid.NewString())
	logger := logging.WithContext(reqCtx, m.logger)

	m.mu.Lock()
	m.batchIndex++
	index := m.batchIndex
	m.mu.Unlock()

	total := index
	if stats, err := m.store.Stats(ctx); err == nil {
		total = index - 1 + stats[queue.StatusPending]
	}

	emit, closeLog := m.openRequestLog(logger, req)
	defer closeLog()

	req.Status = queue.StatusRunning
	req.ErrorMessage = ""
	req.ProgressMessage = "Converting"
	if err := m.store.Update(ctx, req); err != nil {
		m.setLastError(err)
		logger.Error("failed to mark request running", logging.Error(err))
		return
	}
	m.setLastRequest(req)

	rawDir := filepath.Join(m.cfg.Paths.StagingDir, fmt.Sprintf("marker-raw-%d", req.ID))
	inv := marker.Invocation{
		SourcePath: req.LocalPath,
		OutputDir:  rawDir,
		FirstPage:  req.Pages.Start,
		LastPage:   req.Pages.End,
	}

	emit(fmt.Sprintf("[%d/%d] Converting: %s", index, total, req.Source))
	emit("$ " + m.converter.CommandLine(inv))
	logger.Info("conversion started",
		logging.String("source", req.Source),
		logging.String("pages", req.Pages.String()),
	)
	started := time.Now()

	convertCtx, cancelConvert := context.WithCancel(reqCtx)
	m.registerCurrent(req.ID, cancelConvert)
	convErr := m.converter.Convert(convertCtx, inv, emit)
	userCancelled := m.clearCurrent()
	cancelConvert()

	// The session context may already be gone; final persistence must not
	// depend on it.
	persistCtx := context.Background()

	switch {
	case convErr == nil:
		m.finalizeSuccess(persistCtx, logger, emit, req, rawDir, time.Since(started))
	case errors.Is(convErr, context.Canceled):
		m.finalizeCancelled(persistCtx, logger, emit, req, rawDir, userCancelled)
	case services.IsPauseWorthy(convErr):
		m.pauseQueue(persistCtx, logger, emit, req, rawDir, convErr)
	default:
		m.finalizeFailure(persistCtx, logger, emit, req, rawDir, convErr)
	}
}

func (m *Manager) finalizeSuccess(ctx context.Context, logger *slog.Logger, emit func(string), req *queue.Request, rawDir string, elapsed time.Duration) {
	finalPath, err := m.organizer.Organize(ctx, req, rawDir)
	if err != nil {
		if services.IsPauseWorthy(err) {
			m.pauseQueue(ctx, logger, emit, req, rawDir, err)
			return
		}
		m.finalizeFailure(ctx, logger, emit, req, rawDir, err)
		return
	}

	req.Status = queue.StatusSucceeded
	req.ErrorMessage = ""
	req.FinalPath = finalPath
	req.ProgressMessage = fmt.Sprintf("Completed in %s", elapsed.Round(time.Second))
	if err := m.store.Update(ctx, req); err != nil {
		m.setLastError(err)
		logger.Error("failed to persist success", logging.Error(err))
	}
	m.setLastRequest(req)

	if req.SourceKind == queue.SourceURL && req.LocalPath != "" {
		if err := os.Remove(req.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to remove staged download", logging.Error(err))
		}
	}

	emit("Saved to " + finalPath)
	logger.Info("conversion succeeded",
		logging.String("final_path", finalPath),
		logging.Duration("duration", elapsed),
	)
	m.mu.Lock()
	m.batchSucceeded++
	m.mu.Unlock()
	if m.notifier != nil {
		if err := m.notifier.NotifyRequestSucceeded(ctx, req.OutputName, finalPath); err != nil {
			logger.Warn("success notification failed", logging.Error(err))
		}
	}
}

func (m *Manager) finalizeCancelled(ctx context.Context, logger *slog.Logger, emit func(string), req *queue.Request, rawDir string, userCancelled bool) {
	_ = os.RemoveAll(rawDir)

	req.SetCancelled()
	if !userCancelled {
		req.ProgressMessage = queue.InterruptedReason
	}
	if err := m.store.Update(ctx, req); err != nil {
		m.setLastError(err)
		logger.Error("failed to persist cancellation", logging.Error(err))
	}
	m.setLastRequest(req)

	emit(req.ProgressMessage)
	logger.Info("conversion cancelled", logging.Bool("user_requested", userCancelled))
	m.mu.Lock()
	m.batchCancelled++
	m.mu.Unlock()
}

func (m *Manager) finalizeFailure(ctx context.Context, logger *slog.Logger, emit func(string), req *queue.Request, rawDir string, cause error) {
	_ = os.RemoveAll(rawDir)

	reason := services.Reason(cause)
	req.SetFailed(reason)
	if err := m.store.Update(ctx, req); err != nil {
		m.setLastError(err)
		logger.Error("failed to persist failure", logging.Error(err))
	}
	m.setLastRequest(req)
	m.setLastError(cause)

	emit("Failed: " + reason)
	logger.Error("conversion failed", logging.Error(cause))
	m.mu.Lock()
	m.batchFailed++
	m.mu.Unlock()
	if m.notifier != nil {
		if err := m.notifier.NotifyRequestFailed(ctx, req.OutputName, reason); err != nil {
			logger.Warn("failure notification failed", logging.Error(err))
		}
	}
}

// pauseQueue handles resource exhaustion: the request goes back to pending
// and the loop stops claiming work until the retry interval elapses.
func (m *Manager) pauseQueue(ctx context.Context, logger *slog.Logger, emit func(string), req *queue.Request, rawDir string, cause error) {
	_ = os.RemoveAll(rawDir)

	reason := services.Reason(cause)
	if err := m.store.RequeuePending(ctx, req.ID, "Waiting to retry: "+reason); err != nil {
		m.setLastError(err)
		logger.Error("failed to requeue request", logging.Error(err))
	}

	m.mu.Lock()
	m.paused = true
	m.pauseMsg = reason
	m.mu.Unlock()
	m.setLastError(cause)

	emit("Queue paused: " + reason)
	logger.Warn("queue paused",
		logging.String("reason", reason),
		logging.String(logging.FieldAlert, "resource_exhaustion"),
	)
	if m.notifier != nil {
		if err := m.notifier.NotifyQueuePaused(ctx, reason); err != nil {
			logger.Warn("pause notification failed", logging.Error(err))
		}
	}
}

// openRequestLog prepares the per-request log sink. The emit function
// appends a line to the request's log file and publishes it to the stream
// hub; closeLog flushes and closes the file.
func (m *Manager) openRequestLog(logger *slog.Logger, req *queue.Request) (emit func(string), closeLog func()) {
	publish := func(line string) {
		if m.hub != nil {
			m.hub.Publish(logging.LogEvent{
				Level:     "info",
				Message:   line,
				RequestID: req.ID,
				Stage:     "convert",
			})
		}
	}

	logDir := filepath.Join(m.cfg.Paths.LogDir, "requests")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		logger.Warn("cannot create request log directory", logging.Error(err))
		return publish, func() {}
	}
	logPath := filepath.Join(logDir, fmt.Sprintf("request-%d.log", req.ID))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.Warn("cannot open request log file", logging.Error(err))
		return publish, func() {}
	}
	req.LogPath = logPath

	emit = func(line string) {
		fmt.Fprintln(file, line)
		publish(line)
	}
	closeLog = func() {
		if err := file.Close(); err != nil {
			logger.Warn("cannot close request log file", logging.Error(err))
		}
	}
	return emit, closeLog
}
