package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postcart/internal/config"
	"postcart/internal/domain"
)

// WorkerService processes background jobs
type WorkerService struct {
	config *config.Config
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	queueRepo domain.QueueRepository

	// Job processor
	processor *JobProcessor

	// WorkerStats tracks worker performance metrics
	stats *WorkerStats
}

// WorkerStats tracks worker performance metrics
type WorkerStats struct {
	JobsProcessed  int64
	JobsSucceeded  int64
	JobsFailed     int64
	LastJobTime    time.Time
	AverageJobTime time.Duration
}

// New creates a new worker service
func New(
	config *config.Config,
	logger *slog.Logger,
	queueRepo domain.QueueRepository,
	processor *JobProcessor,
) *WorkerService {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerService{
		config:    config,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		queueRepo: queueRepo,
		processor: processor,
		stats:     &WorkerStats{},
	}
}

// Start begins processing jobs
func (w *WorkerService) Start() error {
	w.logger.Info("Starting worker service...")

	go w.processJobs()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	w.logger.Info("Worker service is running. Press Ctrl+C to stop.")
	<-stop

	w.logger.Info("Shutting down worker service...")
	return w.Stop()
}

// Stop gracefully shuts down the worker service
func (w *WorkerService) Stop() error {
	w.logger.Info("Stopping worker service...")
	w.cancel()
	w.logger.Info("Worker service stopped")
	return nil
}

// processJobs continuously processes jobs from the queue
func (w *WorkerService) processJobs() {
	ticker := time.NewTicker(5 * time.Second) // Check for jobs every 5 seconds
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("Job processing stopped")
			return
		case <-ticker.C:
			w.processPendingJobs()
		}
	}
}

// processPendingJobs processes all pending jobs across job types
func (w *WorkerService) processPendingJobs() {
	w.promoteRetries(domain.JobTypeEnhanceImage)
	w.promoteRetries(domain.JobTypeImportMedia)

	w.processJobType(domain.JobTypeEnhanceImage)
	w.processJobType(domain.JobTypeImportMedia)
}

// promoteRetries moves jobs whose backoff window has elapsed back onto
// the pending queue
func (w *WorkerService) promoteRetries(jobType string) {
	type retryPromoter interface {
		ProcessRetryJobs(ctx context.Context, jobType string) error
	}

	promoter, ok := w.queueRepo.(retryPromoter)
	if !ok {
		return
	}

	if err := promoter.ProcessRetryJobs(w.ctx, jobType); err != nil {
		w.logger.Error("Failed to promote retry jobs",
			"error", err,
			"job_type", jobType,
		)
	}
}

// processJobType processes all pending jobs of a specific type
func (w *WorkerService) processJobType(jobType string) {
	ctx := w.ctx

	pendingCount, err := w.queueRepo.GetPendingCount(ctx, jobType)
	if err != nil {
		w.logger.Error("Failed to get pending job count",
			"error", err,
			"job_type", jobType,
		)
		return
	}

	if pendingCount == 0 {
		return
	}

	w.logger.Debug("Processing pending jobs",
		"job_type", jobType,
		"count", pendingCount,
	)

	// Limit to 10 per cycle to avoid hammering the paid APIs downstream
	maxJobs := 10
	if pendingCount < maxJobs {
		maxJobs = pendingCount
	}

	for i := 0; i < maxJobs; i++ {
		job, err := w.queueRepo.Dequeue(ctx, jobType)
		if err != nil {
			w.logger.Error("Failed to dequeue job",
				"error", err,
				"job_type", jobType,
			)
			continue
		}

		if job == nil {
			break // No more jobs
		}

		w.processJob(job)
	}
}

// processJob processes a single job
func (w *WorkerService) processJob(job *domain.QueueJob) {
	startTime := time.Now()
	jobLogger := w.logger.With(
		"job_id", job.ID,
		"job_type", job.Type,
	)

	jobLogger.Info("Processing job")

	var processingErr error
	switch job.Type {
	case domain.JobTypeEnhanceImage:
		processingErr = w.processor.ProcessImageEnhancement(w.ctx, job.Payload, jobLogger)
	case domain.JobTypeImportMedia:
		processingErr = w.processor.ProcessMediaImport(w.ctx, job.Payload, jobLogger)
	default:
		processingErr = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if processingErr != nil {
		jobLogger.Error("Job processing failed", "error", processingErr)

		if err := w.queueRepo.Fail(w.ctx, job.ID, processingErr.Error()); err != nil {
			jobLogger.Error("Failed to mark job as failed", "error", err)
		}

		w.stats.JobsFailed++
	} else {
		jobLogger.Info("Job processed successfully")

		if err := w.queueRepo.Complete(w.ctx, job.ID); err != nil {
			jobLogger.Error("Failed to mark job as completed", "error", err)
		}

		w.stats.JobsSucceeded++
	}

	w.stats.JobsProcessed++
	w.stats.LastJobTime = time.Now()

	jobDuration := time.Since(startTime)
	if w.stats.JobsProcessed > 1 {
		w.stats.AverageJobTime = time.Duration(
			(int64(w.stats.AverageJobTime) + int64(jobDuration)) / w.stats.JobsProcessed,
		)
	} else {
		w.stats.AverageJobTime = jobDuration
	}

	jobLogger.Debug("Job processing completed",
		"duration", jobDuration,
		"success", processingErr == nil,
	)
}

// GetStats returns current worker statistics
func (w *WorkerService) GetStats() *WorkerStats {
	return w.stats
}

// HealthCheck verifies the worker can still reach its queue
func (w *WorkerService) HealthCheck() error {
	if w.ctx.Err() != nil {
		return fmt.Errorf("worker context cancelled: %w", w.ctx.Err())
	}

	if _, err := w.queueRepo.GetPendingCount(w.ctx, domain.JobTypeEnhanceImage); err != nil {
		return fmt.Errorf("queue connectivity check failed: %w", err)
	}

	return nil
}
