package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"webnotifier/internal/config"
)

// checkJob is a unit of work for a scheduler worker.
type checkJob struct {
	URL     string
	CycleWG *sync.WaitGroup
}

// Scheduler runs periodic check cycles over the service's watch list
// using a bounded worker pool.
type Scheduler struct {
	logger  zerolog.Logger
	cfg     *config.MonitorConfig
	service *Service

	jobs     chan checkJob
	ctx      context.Context
	cancel   context.CancelFunc
	workerWG sync.WaitGroup
	loopWG   sync.WaitGroup
	doneCh   chan struct{}
	doneOnce sync.Once
}

// NewScheduler creates a Scheduler bound to a monitoring service.
func NewScheduler(baseLogger zerolog.Logger, cfg *config.MonitorConfig, service *Service) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger:  baseLogger.With().Str("component", "MonitorScheduler").Logger(),
		cfg:     cfg,
		service: service,
		jobs:    make(chan checkJob, cfg.MaxConcurrentChecks*2),
		ctx:     ctx,
		cancel:  cancel,
		doneCh:  make(chan struct{}),
	}
}

// Start launches the worker pool and the cycle loop. The first cycle
// runs immediately, subsequent cycles follow the configured interval.
func (s *Scheduler) Start() error {
	workerCount := s.cfg.MaxConcurrentChecks
	if workerCount <= 0 {
		workerCount = config.DefaultMaxConcurrentChecks
	}

	s.logger.Info().
		Int("workers", workerCount).
		Int("interval_seconds", s.cfg.CheckIntervalSeconds).
		Msg("Starting monitor scheduler")

	for i := 0; i < workerCount; i++ {
		s.workerWG.Add(1)
		go s.worker(i)
	}

	s.loopWG.Add(1)
	go s.cycleLoop()
	return nil
}

// Stop cancels the cycle loop, drains the workers and waits for them.
func (s *Scheduler) Stop() {
	s.logger.Info().Msg("Stopping monitor scheduler")
	s.cancel()
	s.loopWG.Wait()
	close(s.jobs)
	s.workerWG.Wait()
	s.signalDone()
	s.logger.Info().Msg("Monitor scheduler stopped")
}

// Done is closed once the scheduler will run no further cycles, either
// because it was stopped or because the cycle limit ran out.
func (s *Scheduler) Done() <-chan struct{} {
	return s.doneCh
}

func (s *Scheduler) signalDone() {
	s.doneOnce.Do(func() { close(s.doneCh) })
}

func (s *Scheduler) worker(id int) {
	defer s.workerWG.Done()
	workerLogger := s.logger.With().Int("worker_id", id).Logger()
	workerLogger.Debug().Msg("Monitor worker started")

	for job := range s.jobs {
		select {
		case <-s.ctx.Done():
			job.CycleWG.Done()
			continue
		default:
		}
		s.service.checkURL(s.ctx, job.URL)
		job.CycleWG.Done()
	}
	workerLogger.Debug().Msg("Monitor worker stopped")
}

func (s *Scheduler) cycleLoop() {
	defer s.loopWG.Done()

	interval := time.Duration(s.cfg.CheckIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Duration(config.DefaultCheckIntervalSeconds) * time.Second
	}

	if !s.runCycle() {
		s.signalDone()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if !s.runCycle() {
				s.signalDone()
				return
			}
		}
	}
}

// runCycle dispatches one check per watched URL and waits for the cycle
// to finish. Returns false when the cycle limit is exhausted.
func (s *Scheduler) runCycle() bool {
	tracker := s.service.cycleTracker
	if !tracker.ShouldContinue() {
		s.logger.Info().Int("cycles_completed", tracker.CycleCount()).Msg("Cycle limit reached, scheduler finishing")
		return false
	}

	tracker.StartCycle()
	cycleID := tracker.GetCurrentCycleID()
	urls := s.service.GetWatchedURLs()
	if len(urls) == 0 {
		s.logger.Warn().Str("cycle_id", cycleID).Msg("No URLs to check in this cycle")
		return tracker.ShouldContinue()
	}

	s.logger.Info().Str("cycle_id", cycleID).Int("url_count", len(urls)).Msg("Starting check cycle")
	cycleStart := time.Now()

	var cycleWG sync.WaitGroup
	for _, url := range urls {
		cycleWG.Add(1)
		select {
		case <-s.ctx.Done():
			cycleWG.Done()
			return false
		case s.jobs <- checkJob{URL: url, CycleWG: &cycleWG}:
		}
	}
	cycleWG.Wait()

	s.logger.Info().
		Str("cycle_id", cycleID).
		Int("changed_urls", len(tracker.GetChangedURLs())).
		Dur("duration", time.Since(cycleStart)).
		Msg("Check cycle complete")

	return tracker.ShouldContinue()
}
