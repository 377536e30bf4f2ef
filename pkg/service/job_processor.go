package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
)

// DefaultJobTimeout bounds a single batch job.
const DefaultJobTimeout = 10 * time.Minute

var batchJobsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tripglot_batch_jobs_total",
		Help: "Total number of batch translation jobs by final status",
	},
	[]string{"status"},
)

// JobProcessor processes translation jobs asynchronously.
type JobProcessor struct {
	service *TranslationService
	logger  *logrus.Logger
	timeout time.Duration
}

// NewJobProcessor creates a new job processor.
func NewJobProcessor(service *TranslationService, logger *logrus.Logger) *JobProcessor {
	if logger == nil {
		logger = logrus.New()
	}
	return &JobProcessor{
		service: service,
		logger:  logger,
		timeout: DefaultJobTimeout,
	}
}

// ProcessJob processes a translation job.
func (p *JobProcessor) ProcessJob(job *TranslationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	startTime := time.Now()

	p.logger.WithFields(logrus.Fields{
		"job_id":     job.ID,
		"request_id": job.RequestID,
		"texts":      len(job.Texts),
	}).Info("Starting translation job processing")

	job.UpdateStatus(JobStatusProcessing, "Starting translation...")

	results, err := p.service.TranslateBatch(ctx, job.Texts, job.SourceLang, job.TargetLang, func(done, total int) {
		percent := int32(float64(done) / float64(total) * 100)
		if percent >= 100 {
			percent = 99
		}
		job.UpdateProgress(percent, fmt.Sprintf("Translated %d/%d texts", done, total))
	})
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"job_id": job.ID,
		}).Error("Batch translation failed")
		job.SetError(fmt.Errorf("batch translation failed: %w", err))
		batchJobsTotal.WithLabelValues(string(JobStatusFailed)).Inc()
		return
	}

	job.SetResult(results)
	batchJobsTotal.WithLabelValues(string(JobStatusCompleted)).Inc()

	p.logger.WithFields(logrus.Fields{
		"job_id":      job.ID,
		"request_id":  job.RequestID,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("Translation job completed successfully")
}
