package task

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mediadl/config"
	"mediadl/logger"
)

var (
	ErrQueueFull   = errors.New("download queue is full")
	ErrNotFound    = errors.New("task not found")
	ErrDuplicateID = errors.New("task id already exists")
)

// Fetcher resolves a URL to a local media file according to the task's
// media type and quality tier. Implemented by fetch.Runner; stubbed in tests.
type Fetcher interface {
	Fetch(ctx context.Context, t Task) (*Result, error)
}

// Uploader pushes a local file to object storage and returns a
// time-limited retrieval URL.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// Manager owns the task registry and the bounded worker pool that drives
// each task through its lifecycle. It is the sole writer of task records;
// readers only ever receive copies.
type Manager struct {
	cfg      *config.Config
	mu       sync.RWMutex
	tasks    map[string]*Task
	queue    chan string
	fetcher  Fetcher
	uploader Uploader
}

func NewManager(cfg *config.Config, fetcher Fetcher, uploader Uploader) (*Manager, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.MaxConcurrency < 1 {
		return nil, fmt.Errorf("max concurrency must be at least 1, got %d", cfg.MaxConcurrency)
	}
	return &Manager{
		cfg:      cfg,
		tasks:    make(map[string]*Task),
		queue:    make(chan string, cfg.QueueSize),
		fetcher:  fetcher,
		uploader: uploader,
	}, nil
}

func (m *Manager) Start(ctx context.Context) {
	logger.Info("task manager started",
		zap.Int("max_concurrency", m.cfg.MaxConcurrency),
		zap.Int("queue_size", m.cfg.QueueSize),
	)
	go m.cleanupLoop(ctx)
	go m.workerLoop(ctx)
}

// workerLoop drains the queue, running at most MaxConcurrency tasks at once.
func (m *Manager) workerLoop(ctx context.Context) {
	g := new(errgroup.Group)
	g.SetLimit(m.cfg.MaxConcurrency)

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker loop shutting down")
			_ = g.Wait()
			return
		case id := <-m.queue:
			g.Go(func() error {
				m.process(ctx, id)
				return nil
			})
		}
	}
}

// Submit registers a new PENDING task and enqueues it. The queue is the
// admission boundary: when it is full the record is removed again and
// ErrQueueFull is returned, so no orphaned PENDING tasks remain.
func (m *Manager) Submit(url string, mediaType MediaType, quality string) (Task, error) {
	t := &Task{
		ID:        uuid.NewString(),
		State:     StatePending,
		URL:       url,
		MediaType: mediaType,
		Quality:   quality,
		CreatedAt: time.Now(),
	}

	if err := m.create(t); err != nil {
		return Task{}, err
	}
	// Snapshot before enqueueing: once the ID is on the queue a worker may
	// start mutating the record.
	snapshot := t.clone()

	select {
	case m.queue <- t.ID:
	default:
		m.mu.Lock()
		delete(m.tasks, t.ID)
		m.mu.Unlock()
		return Task{}, ErrQueueFull
	}

	logger.Info("task queued",
		zap.String("task_id", t.ID),
		zap.String("media_type", string(mediaType)),
		zap.String("quality", quality),
	)
	return snapshot, nil
}

func (m *Manager) create(t *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tasks[t.ID]; exists {
		return ErrDuplicateID
	}
	m.tasks[t.ID] = t
	return nil
}

// Get returns a copy of the task record, never a live reference.
func (m *Manager) Get(id string) (Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return Task{}, false
	}
	return t.clone(), true
}

// transition atomically moves a task to the next state and applies the
// payload mutation under the same lock. Backward transitions are rejected.
func (m *Manager) transition(id string, next State, apply func(*Task)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return ErrNotFound
	}
	if stateRank[next] <= stateRank[t.State] {
		return fmt.Errorf("illegal transition %s -> %s for task %s", t.State, next, id)
	}

	t.State = next
	if apply != nil {
		apply(t)
	}
	return nil
}

// process runs one task from PENDING to a terminal state. Faults are fully
// contained here; the HTTP caller only ever observes them via polling.
func (m *Manager) process(ctx context.Context, id string) {
	snapshot, ok := m.Get(id)
	if !ok {
		return
	}

	if err := m.transition(id, StateDownloading, func(t *Task) {
		t.StartedAt = time.Now()
	}); err != nil {
		logger.Error("failed to start task", zap.String("task_id", id), zap.Error(err))
		return
	}

	result, err := m.fetcher.Fetch(ctx, snapshot)
	if err != nil {
		msg := err.Error()
		var legible interface{ UserMessage() string }
		if errors.As(err, &legible) {
			msg = legible.UserMessage()
		}
		logger.Warn("task failed",
			zap.String("task_id", id),
			zap.Error(err),
		)
		_ = m.transition(id, StateFailure, func(t *Task) {
			t.Error = msg
			t.CompletedAt = time.Now()
		})
		return
	}

	if m.uploader != nil {
		m.upload(ctx, id, result)
	}

	_ = m.transition(id, StateSuccess, func(t *Task) {
		t.Result = result
		t.CompletedAt = time.Now()
	})
	logger.Info("task completed",
		zap.String("task_id", id),
		zap.String("filename", result.Filename),
		zap.Int64("size", result.Size),
	)
}

// upload pushes the artifact to object storage. Upload failure is soft: the
// task still succeeds with the local file, and the error is recorded on the
// result for the caller to see.
func (m *Manager) upload(ctx context.Context, id string, result *Result) {
	remoteURL, err := m.uploader.Upload(ctx, result.FilePath)
	if err != nil {
		logger.Warn("upload failed, keeping local file",
			zap.String("task_id", id),
			zap.Error(err),
		)
		result.UploadError = err.Error()
		return
	}

	result.RemoteURL = remoteURL
	// Local copy is redundant once the object store has it.
	if err := os.Remove(result.FilePath); err != nil {
		logger.Warn("failed to remove local file after upload",
			zap.String("path", result.FilePath),
			zap.Error(err),
		)
	}
}

// cleanupLoop periodically removes local output files of finished tasks that
// outlived the configured lifetime. Task records stay in the registry for the
// lifetime of the process.
func (m *Manager) cleanupLoop(ctx context.Context) {
	if m.cfg.OutputLocalLifetime <= 0 {
		return
	}
	ticker := time.NewTicker(m.cfg.OutputLocalLifetime / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("cleanup loop shutting down")
			return
		case <-ticker.C:
			for _, path := range m.expiredOutputs() {
				logger.Info("cleaning up old output file", zap.String("path", path))
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					logger.Warn("cleanup failed", zap.String("path", path), zap.Error(err))
				}
			}
		}
	}
}

func (m *Manager) expiredOutputs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var paths []string
	for _, t := range m.tasks {
		if t.State != StateSuccess || t.Result == nil {
			continue
		}
		if t.Result.RemoteURL != "" || t.Result.FilePath == "" {
			continue
		}
		if time.Since(t.CompletedAt) > m.cfg.OutputLocalLifetime {
			paths = append(paths, t.Result.FilePath)
		}
	}
	return paths
}
