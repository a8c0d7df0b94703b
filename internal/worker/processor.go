package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"readscore/internal/assess"
	"readscore/internal/queue"
	"readscore/internal/stt"
	"readscore/pkg/cache"
	"readscore/pkg/logger"
	"readscore/pkg/model"

	"go.uber.org/zap"
)

// Raw PCM rate assumed when estimating reading time from file size:
// 16kHz, 16-bit mono.
const estimateBytesPerSecond = 16000 * 2

// TaskStore is the subset of storage the processor needs.
type TaskStore interface {
	GetTaskByID(ctx context.Context, id string) (*model.AssessmentTask, error)
	UpdateTask(ctx context.Context, task *model.AssessmentTask) error
	UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus) error
}

type Processor struct {
	db         TaskStore
	recognizer stt.Recognizer
	cache      cache.Cache
	resultTTL  time.Duration
}

// NewProcessor creates a new worker processor
func NewProcessor(db TaskStore, recognizer stt.Recognizer, resultCache cache.Cache, resultTTL time.Duration) *Processor {
	return &Processor{
		db:         db,
		recognizer: recognizer,
		cache:      resultCache,
		resultTTL:  resultTTL,
	}
}

// ProcessJob runs one queued assessment: recognize the uploaded recording,
// score it, and cache the result under the task ID.
func (p *Processor) ProcessJob(jobData []byte) error {
	var job queue.AssessmentJob
	if err := json.Unmarshal(jobData, &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	logger.Info("Processing assessment job",
		zap.String("task_id", job.TaskID),
		zap.String("audio_key", job.AudioKey))

	ctx := context.Background()

	task, err := p.db.GetTaskByID(ctx, job.TaskID)
	if err != nil {
		return fmt.Errorf("failed to get task from db: %w", err)
	}

	task.SetInProgress("")
	if err := p.db.UpdateTaskStatus(ctx, task.ID, model.TaskStatusInProgress); err != nil {
		logger.Error("Failed to update task status", zap.Error(err))
	}

	operationID, err := p.recognizer.StartRecognition(ctx, job.AudioURI)
	if err != nil {
		p.handleTaskError(ctx, task, fmt.Sprintf("Failed to start recognition: %v", err))
		return err
	}

	task.SetInProgress(operationID)
	if err := p.db.UpdateTask(ctx, task); err != nil {
		logger.Error("Failed to update operation_id", zap.Error(err))
	}

	logger.Info("Recognition started",
		zap.String("task_id", task.ID),
		zap.String("operation_id", operationID))

	result, err := p.recognizer.WaitForResult(ctx, operationID)
	if err != nil {
		p.handleTaskError(ctx, task, fmt.Sprintf("Recognition failed: %v", err))
		return err
	}

	recognizedText := result.GetFullText()
	if recognizedText == "" {
		p.handleTaskError(ctx, task, "No speech recognized in recording")
		return fmt.Errorf("no speech recognized")
	}

	logger.Info("Recognition completed",
		zap.String("task_id", task.ID),
		zap.Int("text_length", len(recognizedText)))

	elapsed, pauses := p.readingTime(&job, result)

	assessment := assess.Run(assess.Request{
		ReferenceText:  task.ReferenceText,
		RecognizedText: recognizedText,
		ElapsedSeconds: elapsed,
		PauseCount:     pauses,
		Age:            task.Age,
	})

	if err := p.cache.SetWithTTL(ctx, cache.ResultCacheKey(task.ID), assessment, p.resultTTL); err != nil {
		p.handleTaskError(ctx, task, fmt.Sprintf("Failed to cache result: %v", err))
		return err
	}

	task.SetCompleted()
	if err := p.db.UpdateTask(ctx, task); err != nil {
		logger.Error("Failed to update task status to done", zap.Error(err))
	}

	logger.Info("Assessment completed",
		zap.String("task_id", task.ID),
		zap.Float64("elapsed_seconds", elapsed),
		zap.Int("pauses", pauses))

	return nil
}

// readingTime picks the best available elapsed-time source. Client-reported
// timing wins, then word timings from the transcript, then a size-based
// estimate as the last resort.
func (p *Processor) readingTime(job *queue.AssessmentJob, result *stt.RecognitionResult) (float64, int) {
	pauses := result.CountPauses()

	if job.ElapsedSeconds > 0 {
		return job.ElapsedSeconds, pauses
	}

	if d := result.SpeechDuration(); d > 0 {
		return d, pauses
	}

	return EstimateElapsedSeconds(job.FileSize), pauses
}

// EstimateElapsedSeconds approximates reading time from raw audio size.
func EstimateElapsedSeconds(fileSize int64) float64 {
	if fileSize <= 0 {
		return 0
	}
	return float64(fileSize) / float64(estimateBytesPerSecond)
}

// handleTaskError marks the task failed and records the error text
func (p *Processor) handleTaskError(ctx context.Context, task *model.AssessmentTask, errorMsg string) {
	logger.Error("Task processing error",
		zap.String("task_id", task.ID),
		zap.String("error", errorMsg))

	task.SetError(errorMsg)
	task.IncrementAttempts()

	if err := p.db.UpdateTask(ctx, task); err != nil {
		logger.Error("Failed to update task error", zap.Error(err))
	}
}
