package worker

import (
	"context"
	"fmt"
	"time"

	"readscore/internal/queue"
	"readscore/pkg/logger"
	"readscore/pkg/model"

	"go.uber.org/zap"
)

// RequeueStore is the storage surface of the startup requeue pass.
type RequeueStore interface {
	GetQueuedTasks(ctx context.Context, limit int) ([]*model.AssessmentTask, error)
	GetFailedTasks(ctx context.Context, limit int) ([]*model.AssessmentTask, error)
	UpdateTask(ctx context.Context, task *model.AssessmentTask) error
}

// JobPublisher enqueues assessment jobs.
type JobPublisher interface {
	PublishJob(job *queue.AssessmentJob) error
}

// RequeueStalled republishes tasks stranded by a worker restart: tasks still
// marked queued, and failed tasks with retry attempts left. Returns how many
// jobs were republished.
func RequeueStalled(ctx context.Context, db RequeueStore, jobs JobPublisher, publicURL func(key string) string, limit int) (int, error) {
	queued, err := db.GetQueuedTasks(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to load queued tasks: %w", err)
	}

	failed, err := db.GetFailedTasks(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to load failed tasks: %w", err)
	}

	count := 0

	for _, task := range queued {
		if err := jobs.PublishJob(jobFromTask(task, publicURL)); err != nil {
			logger.Error("Failed to requeue task", zap.String("task_id", task.ID), zap.Error(err))
			continue
		}
		count++
	}

	for _, task := range failed {
		if !task.CanRetry() {
			continue
		}

		task.Status = model.TaskStatusQueued
		task.ErrorText = nil
		task.UpdatedAt = time.Now()
		if err := db.UpdateTask(ctx, task); err != nil {
			logger.Error("Failed to reset failed task", zap.String("task_id", task.ID), zap.Error(err))
			continue
		}

		if err := jobs.PublishJob(jobFromTask(task, publicURL)); err != nil {
			logger.Error("Failed to requeue task", zap.String("task_id", task.ID), zap.Error(err))
			continue
		}
		count++
	}

	if count > 0 {
		logger.Info("Requeued stalled tasks", zap.Int("count", count))
	}

	return count, nil
}

// jobFromTask rebuilds the queue message for a stored task. Upload metadata
// lives in the task meta blob; numbers come back from JSONB as float64.
func jobFromTask(task *model.AssessmentTask, publicURL func(key string) string) *queue.AssessmentJob {
	job := &queue.AssessmentJob{
		TaskID:         task.ID,
		ReferenceText:  task.ReferenceText,
		Age:            task.Age,
		AudioKey:       task.AudioKey,
		AudioURI:       publicURL(task.AudioKey),
		ElapsedSeconds: task.ElapsedSeconds,
		CreatedAt:      task.CreatedAt,
	}

	if task.PassageID != nil {
		job.PassageID = *task.PassageID
	}

	if task.Meta != nil {
		switch v := task.Meta["file_size"].(type) {
		case float64:
			job.FileSize = int64(v)
		case int64:
			job.FileSize = v
		}
		if mt, ok := task.Meta["mime_type"].(string); ok {
			job.MimeType = mt
		}
	}

	return job
}
