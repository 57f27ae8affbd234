package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/lendana/lendana-api/pkg/logger"
)

// Job is a unit of background work
type Job func(ctx context.Context) error

// Worker runs fire-and-forget jobs and periodic tasks for the loan
// services: notification fan-out, email delivery, overdue reminders.
type Worker struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	sem    chan struct{}

	statsMu sync.RWMutex
	stats   Stats
}

// Stats holds counters about processed jobs
type Stats struct {
	ActiveJobs    int   `json:"active_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	MaxConcurrent int   `json:"max_concurrent"`
}

// NewWorker creates a worker allowing numWorkers*2 concurrent async jobs,
// with a floor of 10
func NewWorker(numWorkers int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	limit := numWorkers * 2
	if limit < 10 {
		limit = 10
	}

	return &Worker{
		ctx:    ctx,
		cancel: cancel,
		sem:    make(chan struct{}, limit),
	}
}

// EnqueueAsync runs a job in its own goroutine, bounded by the semaphore.
// Failures are logged, never returned; panics do not take the process down.
func (w *Worker) EnqueueAsync(job Job) {
	go func() {
		w.sem <- struct{}{}
		defer func() { <-w.sem }()

		w.wg.Add(1)
		defer w.wg.Done()

		w.jobStarted()
		defer w.jobFinished()

		defer func() {
			if r := recover(); r != nil {
				logger.Error("async job panic", "panic", r)
				w.jobFailed()
			}
		}()

		if err := job(w.ctx); err != nil {
			logger.Error("async job failed", "error", err)
			w.jobFailed()
		}
	}()
}

// ScheduleEvery runs a job at fixed intervals. The first run happens after
// the interval, not at startup.
func (w *Worker) ScheduleEvery(interval time.Duration, job Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.runScheduled(job)
			}
		}
	}()
}

func (w *Worker) runScheduled(job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("scheduled job panic", "panic", r)
			w.jobFailed()
			w.jobFinished()
		}
	}()
	w.jobStarted()
	start := time.Now()
	if err := job(w.ctx); err != nil {
		logger.Error("scheduled job failed", "error", err)
		w.jobFailed()
	} else {
		logger.Info("scheduled job completed", "duration", time.Since(start))
	}
	w.jobFinished()
}

// Shutdown cancels the worker context and waits for in-flight jobs
func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
}

// GetStats returns a snapshot of the job counters
func (w *Worker) GetStats() Stats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.MaxConcurrent = cap(w.sem)
	return stats
}

func (w *Worker) jobStarted() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

func (w *Worker) jobFinished() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.CompletedJobs++
}

// jobFailed marks a failure; CompletedJobs still counts every finished job
func (w *Worker) jobFailed() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.FailedJobs++
}
