package queue

import "time"

// AssessmentJob represents a queued reading-assessment processing job
type AssessmentJob struct {
	TaskID         string    `json:"task_id"`
	PassageID      string    `json:"passage_id,omitempty"`
	ReferenceText  string    `json:"reference_text"`
	Age            int       `json:"age"`
	AudioKey       string    `json:"audio_key"`
	AudioURI       string    `json:"audio_uri"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	FileSize       int64     `json:"file_size"`
	MimeType       string    `json:"mime_type"`
	CreatedAt      time.Time `json:"created_at"`
}
