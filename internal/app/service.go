// Package service wires the stores, report engines and worker pool into the
// operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/youss97/transportBackend/internal/adapters/cache"
	eventqueue "github.com/youss97/transportBackend/internal/adapters/mq/queue"
	workerpool "github.com/youss97/transportBackend/internal/adapters/mq/worker"
	"github.com/youss97/transportBackend/internal/adapters/repository"
	"github.com/youss97/transportBackend/internal/domain/activity"
	"github.com/youss97/transportBackend/internal/domain/attendance"
	"github.com/youss97/transportBackend/internal/domain/dedupe"
	"github.com/youss97/transportBackend/internal/domain/model"
	"github.com/youss97/transportBackend/internal/domain/operations"
	"github.com/youss97/transportBackend/internal/domain/ranking"
	"github.com/youss97/transportBackend/pkg/logger"
	"github.com/youss97/transportBackend/pkg/metrics"
)

const (
	stopTimeout           = 10 * time.Second
	defaultEnqueueTimeout = 5 * time.Second
)

// Service implements the API dependencies for the reporting engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	jobs       *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool
	cache      cache.ReportCache

	attendance *attendance.Reporter
	operations *operations.Aggregator
	ranking    *ranking.Engine
	activity   *activity.Reports

	// Configuration
	workerCount        int
	queueSize          int
	enqueueTimeout     time.Duration
	dedupeSize         int
	location           *time.Location
	assumedWorkingDays int

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending report jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithEnqueueTimeout bounds how long a fan-out waits for room in a full queue
// before failing with ErrBackpressure.
func WithEnqueueTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.enqueueTimeout = d
		}
	}
}

// WithDedupeSize sets the size of the event id deduplication window.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocation sets the time zone calendar days are cut in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithAssumedWorkingDays sets the month length absences are approximated against.
func WithAssumedWorkingDays(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.assumedWorkingDays = n
		}
	}
}

// WithCache caches report results. A nil cache disables caching.
func WithCache(c cache.ReportCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// New constructs a Service over store. Report engines are ready immediately;
// the worker pool needs Start.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:              store,
		workerCount:        runtime.NumCPU() * 2,
		queueSize:          1024,
		enqueueTimeout:     defaultEnqueueTimeout,
		dedupeSize:         100000,
		location:           time.UTC,
		assumedWorkingDays: 22,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.attendance = attendance.NewReporter(store, attendance.WithLocation(s.location))
	s.operations = operations.NewAggregator(store,
		operations.WithLocation(s.location),
		operations.WithAssumedWorkingDays(s.assumedWorkingDays),
	)
	s.ranking = ranking.NewEngine(s.operations)
	s.activity = activity.NewReports(store)
	return s
}

// Start creates the job queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.jobs = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobs)
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "reporting service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("timezone", s.location.String()),
		logger.Bool("cache", s.cache != nil),
	)
	return nil
}

// Stop drains the worker pool. The store is owned by the caller.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "reporting service stopped")
}

// AppendEvent validates and stores one event. Repeated ids are rejected with
// repository.ErrDuplicateEvent, from the in-memory window first and the
// store second.
func (s *Service) AppendEvent(ctx context.Context, e model.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if s.deduper.SeenAndRecord(ctx, e.ID) {
		metrics.RecordEventDuplicate()
		return fmt.Errorf("%w: %s", repository.ErrDuplicateEvent, e.ID)
	}
	if err := s.store.AppendEvent(ctx, e); err != nil {
		if !errors.Is(err, repository.ErrDuplicateEvent) {
			s.deduper.Unrecord(ctx, e.ID)
		}
		return err
	}
	metrics.RecordEventAppended()
	s.logger.Debug(ctx, "event appended",
		logger.String("id", e.ID),
		logger.String("type", string(e.Type)),
		logger.String("driver", e.DriverID),
	)
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.deduper.Size(),
		"timezone":    s.location.String(),
		"cache":       s.cache != nil,
	}
	if s.started {
		stats["queueLength"] = s.jobs.Len(ctx)
	}
	if st, err := s.store.Stats(ctx); err == nil {
		stats["events"] = st.Events
		stats["companies"] = st.Companies
		stats["sites"] = st.Sites
		stats["drivers"] = st.Drivers
	} else {
		s.logger.Warn(ctx, "store stats unavailable", logger.Error(err))
	}
	return stats
}
