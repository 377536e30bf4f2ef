package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForJob(t *testing.T, q *JobQueue, jobID string) JobSnapshot {
	t.Helper()
	job, err := q.GetJob(jobID)
	require.NoError(t, err)

	var snap JobSnapshot
	require.Eventually(t, func() bool {
		snap = job.Snapshot()
		return snap.Status == JobStatusCompleted || snap.Status == JobStatusFailed
	}, 2*time.Second, 5*time.Millisecond)
	return snap
}

func TestJobQueueProcessesBatch(t *testing.T) {
	svc, _ := newTestService(t, tagged, WithBatching(2, 0))
	q := NewJobQueue(quietLogger())
	q.SetProcessor(NewJobProcessor(svc, quietLogger()))

	jobID, err := q.CreateJob(JobRequest{
		RequestID: "page-1",
		Texts:     []string{"Menu", "Exit", "Platform 3"},
		Source:    "en",
		Target:    "de",
	})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	snap := waitForJob(t, q, jobID)
	assert.Equal(t, JobStatusCompleted, snap.Status)
	assert.Equal(t, "page-1", snap.RequestID)
	assert.Equal(t, int32(100), snap.ProgressPercent)
	assert.Equal(t, 3, snap.Total)
	assert.Zero(t, snap.Degraded)
	require.Len(t, snap.Results, 3)
	assert.Equal(t, "de:Platform 3", snap.Results[2].Text)
	assert.NotNil(t, snap.StartedAt)
	assert.NotNil(t, snap.CompletedAt)
}

func TestJobQueueCountsDegradedItems(t *testing.T) {
	svc, _ := newTestService(t, func(text, target string) (string, error) {
		if text == "bad" {
			return "", errors.New("down")
		}
		return tagged(text, target)
	})
	q := NewJobQueue(quietLogger())
	q.SetProcessor(NewJobProcessor(svc, quietLogger()))

	jobID, err := q.CreateJob(JobRequest{Texts: []string{"good", "bad"}, Source: "en", Target: "it"})
	require.NoError(t, err)

	snap := waitForJob(t, q, jobID)
	assert.Equal(t, JobStatusCompleted, snap.Status)
	assert.Equal(t, 1, snap.Degraded)
}

func TestJobQueueRejectsInvalidJobs(t *testing.T) {
	q := NewJobQueue(quietLogger())

	_, err := q.CreateJob(JobRequest{Target: "vi"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = q.CreateJob(JobRequest{Texts: []string{"hi"}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	assert.Zero(t, q.Len())
}

func TestJobQueueGetUnknownJob(t *testing.T) {
	q := NewJobQueue(quietLogger())
	_, err := q.GetJob("missing")
	assert.Error(t, err)
}

func TestJobStatusTransitions(t *testing.T) {
	q := NewJobQueue(quietLogger())
	jobID, err := q.CreateJob(JobRequest{Texts: []string{"hi"}, Target: "vi"})
	require.NoError(t, err)
	job, err := q.GetJob(jobID)
	require.NoError(t, err)

	status, _, progress := job.GetStatus()
	assert.Equal(t, JobStatusQueued, status)
	assert.Zero(t, progress)

	job.UpdateStatus(JobStatusProcessing, "working")
	job.UpdateProgress(40, "Translated 2/5 texts")
	status, message, progress := job.GetStatus()
	assert.Equal(t, JobStatusProcessing, status)
	assert.Equal(t, "Translated 2/5 texts", message)
	assert.Equal(t, int32(40), progress)
	assert.Nil(t, job.Snapshot().Results)

	job.SetError(errors.New("boom"))
	snap := job.Snapshot()
	assert.Equal(t, JobStatusFailed, snap.Status)
	assert.Equal(t, "boom", snap.Error)
}

func TestCleanupOldJobs(t *testing.T) {
	q := NewJobQueue(quietLogger())

	finishedID, err := q.CreateJob(JobRequest{Texts: []string{"a"}, Target: "vi"})
	require.NoError(t, err)
	pendingID, err := q.CreateJob(JobRequest{Texts: []string{"b"}, Target: "vi"})
	require.NoError(t, err)

	finished, _ := q.GetJob(finishedID)
	finished.SetResult([]*TranslateResponse{{Text: "a"}})
	time.Sleep(10 * time.Millisecond)

	q.CleanupOldJobs(time.Millisecond)

	_, err = q.GetJob(finishedID)
	assert.Error(t, err)
	_, err = q.GetJob(pendingID)
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())
}

func TestJobProcessorTimeout(t *testing.T) {
	svc, _ := newTestService(t, tagged, WithBatching(1, time.Hour))
	q := NewJobQueue(quietLogger())
	processor := NewJobProcessor(svc, quietLogger())
	processor.timeout = 20 * time.Millisecond
	q.SetProcessor(processor)

	jobID, err := q.CreateJob(JobRequest{Texts: []string{"a", "b"}, Source: "en", Target: "fr"})
	require.NoError(t, err)

	snap := waitForJob(t, q, jobID)
	assert.Equal(t, JobStatusFailed, snap.Status)
	assert.Contains(t, snap.Error, context.DeadlineExceeded.Error())
}
