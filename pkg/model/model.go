package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// TaskStatus represents the processing state of an assessment task.
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusFailed     TaskStatus = "failed"
)

// JSONB represents a JSONB field for PostgreSQL
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Passage is a reference text a reader is asked to read aloud.
type Passage struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Text      string    `json:"text" db:"text"`
	WordCount int       `json:"word_count" db:"word_count"`
	MinAge    int       `json:"min_age" db:"min_age"`
	MaxAge    int       `json:"max_age" db:"max_age"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AssessmentTask tracks one async assessment through the queue. Task rows
// hold transient processing state only; the computed result lives in the
// cache with a TTL, never in the database.
type AssessmentTask struct {
	ID             string     `json:"id" db:"id"`
	PassageID      *string    `json:"passage_id,omitempty" db:"passage_id"`
	ReferenceText  string     `json:"reference_text" db:"reference_text"`
	Age            int        `json:"age" db:"age"`
	AudioKey       string     `json:"audio_key" db:"audio_key"`
	ElapsedSeconds float64    `json:"elapsed_seconds" db:"elapsed_seconds"`
	Status         TaskStatus `json:"status" db:"status"`
	OperationID    *string    `json:"operation_id,omitempty" db:"operation_id"`
	Attempts       int        `json:"attempts" db:"attempts"`
	ErrorText      *string    `json:"error_text,omitempty" db:"error_text"`
	Meta           JSONB      `json:"meta" db:"meta"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// IsCompleted returns true if the task is in a final state
func (t *AssessmentTask) IsCompleted() bool {
	return t.Status == TaskStatusDone || t.Status == TaskStatusFailed
}

// CanRetry returns true if the task can be retried
func (t *AssessmentTask) CanRetry() bool {
	return t.Status == TaskStatusFailed && t.Attempts < 3
}

// IncrementAttempts increases the attempt counter
func (t *AssessmentTask) IncrementAttempts() {
	t.Attempts++
}

// SetError sets the task status to failed with error message
func (t *AssessmentTask) SetError(errorText string) {
	t.Status = TaskStatusFailed
	t.ErrorText = &errorText
	t.UpdatedAt = time.Now()
}

// SetCompleted sets the task status to done
func (t *AssessmentTask) SetCompleted() {
	t.Status = TaskStatusDone
	t.UpdatedAt = time.Now()
}

// SetInProgress sets the task status to in progress with the external
// recognition operation ID, when one exists.
func (t *AssessmentTask) SetInProgress(operationID string) {
	t.Status = TaskStatusInProgress
	if operationID != "" {
		t.OperationID = &operationID
	}
	t.UpdatedAt = time.Now()
}
