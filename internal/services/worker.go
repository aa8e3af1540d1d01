package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resumelens/resume-analyzer/internal/config"
	"resumelens/resume-analyzer/internal/repositories"
)

// Worker runs orchestrations on an execution context separate from the
// submitting request. Submission is fire-and-forget; clients observe
// progress only through polling.
type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(jobID uuid.UUID)
}

type worker struct {
	repo         repositories.AnalysisRepository
	orchestrator OrchestratorService
	cfg          config.WorkerConfig
	logger       *zap.Logger

	jobQueue chan uuid.UUID
	wg       sync.WaitGroup
	stopChan chan struct{}
}

func NewWorker(
	repo repositories.AnalysisRepository,
	orchestrator OrchestratorService,
	cfg config.WorkerConfig,
	logger *zap.Logger,
) Worker {
	return &worker{
		repo:         repo,
		orchestrator: orchestrator,
		cfg:          cfg,
		logger:       logger,
		jobQueue:     make(chan uuid.UUID, 100),
		stopChan:     make(chan struct{}),
	}
}

func (w *worker) Start(ctx context.Context) {
	w.logger.Info("starting worker", zap.Int("concurrency", w.cfg.Concurrency))

	for i := 0; i < w.cfg.Concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs()

	w.wg.Add(1)
	go w.reapStalledJobs()
}

func (w *worker) Stop() {
	w.logger.Info("stopping worker")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("worker stopped")
}

func (w *worker) EnqueueJob(jobID uuid.UUID) {
	select {
	case w.jobQueue <- jobID:
	case <-w.stopChan:
		w.logger.Warn("worker stopped, cannot enqueue job", zap.String("job_id", jobID.String()))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log := w.logger.With(zap.Int("worker_id", workerID))

	for {
		select {
		case <-w.stopChan:
			return
		case jobID := <-w.jobQueue:
			// The hard cap bounds the whole orchestration; past it the
			// reaper's timeout verdict wins.
			jobCtx, cancel := context.WithTimeout(ctx, w.cfg.HardTimeout)
			if err := w.orchestrator.ProcessJob(jobCtx, jobID); err != nil {
				log.Error("job processing failed",
					zap.String("job_id", jobID.String()),
					zap.Error(err),
				)
			}
			cancel()
		}
	}
}

// pollPendingJobs re-enqueues pending rows so jobs submitted before a
// restart are not lost.
func (w *worker) pollPendingJobs() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			jobs, err := w.repo.FindPendingJobs(10)
			if err != nil {
				w.logger.Warn("failed to fetch pending jobs", zap.Error(err))
				continue
			}
			for _, job := range jobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}

// reapStalledJobs forces jobs stuck in processing past the hard cap into
// the error state. A job can stall when the process crashed mid-run; the
// status guard in the repository keeps a late completion from reviving it.
func (w *worker) reapStalledJobs() {
	defer w.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			n, err := w.repo.FailStalled(w.cfg.HardTimeout, reasonTimeout)
			if err != nil {
				w.logger.Warn("failed to reap stalled jobs", zap.Error(err))
				continue
			}
			if n > 0 {
				w.logger.Warn("forced stalled jobs to error", zap.Int64("count", n))
			}
		}
	}
}
