package services

import (
	domain "github.com/yungbote/voter-canvass-backend/internal/domain"
	"github.com/yungbote/voter-canvass-backend/internal/sse"
)

// JobNotifier pushes job-lifecycle events to an SSE channel named after
// the job's id, for clients watching a single job's progress.
type JobNotifier interface {
	Progress(job *domain.Job, message string)
	Paused(job *domain.Job, reason string)
	Cancelled(job *domain.Job, reason string)
	Completed(job *domain.Job)
	Failed(job *domain.Job, message string)
}

type jobNotifier struct {
	hub *sse.SSEHub
}

func NewJobNotifier(hub *sse.SSEHub) JobNotifier {
	return &jobNotifier{hub: hub}
}

func (n *jobNotifier) broadcast(job *domain.Job, event sse.SSEEvent, extra map[string]any) {
	data := map[string]any{
		"jobId":  job.ID,
		"type":   job.Type,
		"status": job.Status,
	}
	for k, v := range extra {
		data[k] = v
	}
	n.hub.Broadcast(sse.SSEMessage{
		Channel: job.ID.String(),
		Event:   event,
		Data:    data,
	})
}

func (n *jobNotifier) Progress(job *domain.Job, message string) {
	n.broadcast(job, sse.SSEEventJobProgress, map[string]any{
		"processedItems": job.ProcessedItems,
		"totalItems":     job.TotalItems,
		"progress":       job.Progress(),
		"message":        message,
	})
}

func (n *jobNotifier) Paused(job *domain.Job, reason string) {
	n.broadcast(job, sse.SSEEventJobPaused, map[string]any{"reason": reason})
}

func (n *jobNotifier) Cancelled(job *domain.Job, reason string) {
	n.broadcast(job, sse.SSEEventJobCancelled, map[string]any{"reason": reason})
}

func (n *jobNotifier) Completed(job *domain.Job) {
	n.broadcast(job, sse.SSEEventJobCompleted, nil)
}

func (n *jobNotifier) Failed(job *domain.Job, message string) {
	n.broadcast(job, sse.SSEEventJobFailed, map[string]any{"error": message})
}
