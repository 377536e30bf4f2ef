package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TranslationJobStatus represents the status of a translation job.
type TranslationJobStatus string

const (
	JobStatusQueued     TranslationJobStatus = "queued"
	JobStatusProcessing TranslationJobStatus = "processing"
	JobStatusCompleted  TranslationJobStatus = "completed"
	JobStatusFailed     TranslationJobStatus = "failed"
)

// JobRequest submits a page worth of texts (e.g. every text node of a web
// page) for asynchronous translation.
type JobRequest struct {
	RequestID string   `json:"request_id"`
	Texts     []string `json:"texts"`
	Source    string   `json:"source"`
	Target    string   `json:"target"`
}

// TranslationJob represents an asynchronous batch translation job.
type TranslationJob struct {
	ID          string
	RequestID   string // Client-provided job ID
	Status      TranslationJobStatus
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Error       string

	// Request data
	Texts      []string
	SourceLang string
	TargetLang string

	// Result data
	Results  []*TranslateResponse
	Degraded int

	// Progress tracking
	ProgressPercent int32
	ProgressMessage string

	mu sync.RWMutex
}

// JobSnapshot is a consistent copy of a job's state.
type JobSnapshot struct {
	ID              string               `json:"job_id"`
	RequestID       string               `json:"request_id,omitempty"`
	Status          TranslationJobStatus `json:"status"`
	ProgressPercent int32                `json:"progress_percent"`
	ProgressMessage string               `json:"progress_message"`
	CreatedAt       time.Time            `json:"created_at"`
	StartedAt       *time.Time           `json:"started_at,omitempty"`
	CompletedAt     *time.Time           `json:"completed_at,omitempty"`
	Error           string               `json:"error,omitempty"`
	Total           int                  `json:"total"`
	Degraded        int                  `json:"degraded"`
	Results         []*TranslateResponse `json:"results,omitempty"`
}

// JobQueue manages asynchronous translation jobs.
type JobQueue struct {
	jobs      map[string]*TranslationJob
	jobsMu    sync.RWMutex
	logger    *logrus.Logger
	processor *JobProcessor
}

// NewJobQueue creates a new job queue.
func NewJobQueue(logger *logrus.Logger) *JobQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &JobQueue{
		jobs:   make(map[string]*TranslationJob),
		logger: logger,
	}
}

// SetProcessor sets the job processor for this queue.
func (q *JobQueue) SetProcessor(processor *JobProcessor) {
	q.processor = processor
}

// CreateJob creates a new translation job and returns its ID.
func (q *JobQueue) CreateJob(req JobRequest) (string, error) {
	if len(req.Texts) == 0 {
		return "", fmt.Errorf("%w: texts are required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.Target) == "" {
		return "", fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}

	jobID := uuid.New().String()
	job := &TranslationJob{
		ID:         jobID,
		RequestID:  req.RequestID,
		Status:     JobStatusQueued,
		CreatedAt:  time.Now(),
		Texts:      append([]string(nil), req.Texts...),
		SourceLang: req.Source,
		TargetLang: req.Target,
	}

	q.jobsMu.Lock()
	q.jobs[jobID] = job
	q.jobsMu.Unlock()

	q.logger.WithFields(logrus.Fields{
		"job_id":     jobID,
		"request_id": req.RequestID,
		"texts":      len(req.Texts),
		"target":     req.Target,
	}).Info("Created translation job")

	if q.processor != nil {
		go q.processor.ProcessJob(job)
	}

	return jobID, nil
}

// GetJob retrieves a job by ID.
func (q *JobQueue) GetJob(jobID string) (*TranslationJob, error) {
	q.jobsMu.RLock()
	defer q.jobsMu.RUnlock()

	job, exists := q.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}

	return job, nil
}

// Len returns the number of tracked jobs.
func (q *JobQueue) Len() int {
	q.jobsMu.RLock()
	defer q.jobsMu.RUnlock()
	return len(q.jobs)
}

// UpdateStatus updates the status of a job.
func (j *TranslationJob) UpdateStatus(status TranslationJobStatus, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Status = status
	j.ProgressMessage = message

	now := time.Now()
	switch status {
	case JobStatusProcessing:
		if j.StartedAt == nil {
			j.StartedAt = &now
		}
	case JobStatusCompleted, JobStatusFailed:
		if j.CompletedAt == nil {
			j.CompletedAt = &now
		}
	}
}

// UpdateProgress updates the progress of a job.
func (j *TranslationJob) UpdateProgress(percent int32, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.ProgressPercent = percent
	j.ProgressMessage = message
}

// SetError sets the error message for a failed job.
func (j *TranslationJob) SetError(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Error = err.Error()
	j.Status = JobStatusFailed
	now := time.Now()
	j.CompletedAt = &now
}

// SetResult sets the translation results for a completed job.
func (j *TranslationJob) SetResult(results []*TranslateResponse) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Results = results
	j.Degraded = 0
	for _, r := range results {
		if r != nil && r.Degraded {
			j.Degraded++
		}
	}
	j.Status = JobStatusCompleted
	now := time.Now()
	j.CompletedAt = &now
	j.ProgressPercent = 100
	j.ProgressMessage = "Translation completed"
}

// GetStatus returns a copy of the job status (thread-safe).
func (j *TranslationJob) GetStatus() (TranslationJobStatus, string, int32) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.Status, j.ProgressMessage, j.ProgressPercent
}

// Snapshot returns a copy of the job. Results are included once the job
// has completed.
func (j *TranslationJob) Snapshot() JobSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	snap := JobSnapshot{
		ID:              j.ID,
		RequestID:       j.RequestID,
		Status:          j.Status,
		ProgressPercent: j.ProgressPercent,
		ProgressMessage: j.ProgressMessage,
		CreatedAt:       j.CreatedAt,
		StartedAt:       j.StartedAt,
		CompletedAt:     j.CompletedAt,
		Error:           j.Error,
		Total:           len(j.Texts),
		Degraded:        j.Degraded,
	}
	if j.Status == JobStatusCompleted {
		snap.Results = j.Results
	}
	return snap
}

// CleanupOldJobs removes finished jobs older than maxAge.
func (q *JobQueue) CleanupOldJobs(maxAge time.Duration) {
	q.jobsMu.Lock()
	defer q.jobsMu.Unlock()

	now := time.Now()
	removed := 0

	for id, job := range q.jobs {
		job.mu.RLock()
		finished := job.Status == JobStatusCompleted || job.Status == JobStatusFailed
		old := job.CompletedAt != nil && now.Sub(*job.CompletedAt) > maxAge
		job.mu.RUnlock()

		if finished && old {
			delete(q.jobs, id)
			removed++
		}
	}

	if removed > 0 {
		q.logger.WithFields(logrus.Fields{
			"removed":   removed,
			"remaining": len(q.jobs),
		}).Info("Cleaned up old translation jobs")
	}
}
