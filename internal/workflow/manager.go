package workflow

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"markerq/internal/config"
	"markerq/internal/logging"
	"markerq/internal/notifications"
	"markerq/internal/organizer"
	"markerq/internal/queue"
	"markerq/internal/services/marker"
)

// OutputOrganizer arranges successful converter output into its final layout.
type OutputOrganizer interface {
	Organize(ctx context.Context, req *queue.Request, rawOutputDir string) (string, error)
}

// Manager drains the conversion queue sequentially: it runs at most one
// converter process at a time, owns all request status transitions, and
// streams converter output to the log hub.
type Manager struct {
	cfg           *config.Config
	store         *queue.Store
	logger        *slog.Logger
	converter     marker.Converter
	organizer     OutputOrganizer
	notifier      notifications.Service
	hub           *logging.StreamHub
	pollInterval  time.Duration
	retryInterval time.Duration
	lock          *flock.Flock

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastReq  *queue.Request
	paused   bool
	pauseMsg string

	currentMu     sync.Mutex
	currentCancel context.CancelFunc
	currentID     int64
	userCancelled bool

	batchActive    bool
	batchStart     time.Time
	batchIndex     int
	batchSucceeded int
	batchFailed    int
	batchCancelled int
}

// NewManager constructs a workflow manager with default collaborators.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Manager, error) {
	converter, err := marker.New(cfg.Converter.Binary, cfg.Converter.TimeoutSeconds)
	if err != nil {
		return nil, err
	}
	return NewManagerWithOptions(cfg, store, logger, converter, organizer.New(cfg, logger), notifications.NewService(cfg), nil), nil
}

// NewManagerWithOptions constructs a workflow manager with injected
// collaborators (used in tests).
func NewManagerWithOptions(
	cfg *config.Config,
	store *queue.Store,
	logger *slog.Logger,
	converter marker.Converter,
	outputOrganizer OutputOrganizer,
	notifier notifications.Service,
	hub *logging.StreamHub,
) *Manager {
	pollInterval := time.Duration(cfg.Workflow.QueuePollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	retryInterval := time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second
	if retryInterval <= 0 {
		retryInterval = 5 * time.Second
	}
	return &Manager{
		cfg:           cfg,
		store:         store,
		logger:        logging.NewComponentLogger(logger, "workflow"),
		converter:     converter,
		organizer:     outputOrganizer,
		notifier:      notifier,
		hub:           hub,
		pollInterval:  pollInterval,
		retryInterval: retryInterval,
		lock:          flock.New(filepath.Join(cfg.Paths.LogDir, "markerq.lock")),
	}
}
