package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"readscore/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timedResult() *RecognitionResult {
	return &RecognitionResult{
		Chunks: []Chunk{
			{
				Alternatives: []Alternative{
					{
						Text: "she walked slowly",
						Words: []Word{
							{Word: "she", StartTimeMs: 500, EndTimeMs: 900},
							{Word: "walked", StartTimeMs: 1000, EndTimeMs: 1600},
							{Word: "slowly", StartTimeMs: 3200, EndTimeMs: 3900},
						},
					},
				},
			},
			{
				Alternatives: []Alternative{
					{
						Text: "to the store",
						Words: []Word{
							{Word: "to", StartTimeMs: 4100, EndTimeMs: 4300},
							{Word: "the", StartTimeMs: 4400, EndTimeMs: 4600},
							{Word: "store", StartTimeMs: 6000, EndTimeMs: 6500},
						},
					},
				},
			},
		},
	}
}

func fastRetry() *resilience.RetryConfig {
	return &resilience.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestStartRecognition_RetriesTransientErrors(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"op-42","done":false}`))
	}))
	defer ts.Close()

	client := NewClient("test-key", "folder", "en-US")
	client.recognizeURL = ts.URL
	client.retry = fastRetry()

	operationID, err := client.StartRecognition(context.Background(), "https://storage/bucket/rec.ogg")
	require.NoError(t, err)
	assert.Equal(t, "op-42", operationID)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestStartRecognition_ExhaustsRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient("test-key", "folder", "en-US")
	client.recognizeURL = ts.URL
	client.retry = fastRetry()

	_, err := client.StartRecognition(context.Background(), "https://storage/bucket/rec.ogg")
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetFullText(t *testing.T) {
	result := timedResult()
	assert.Equal(t, "she walked slowly to the store", result.GetFullText())
}

func TestGetFullText_Empty(t *testing.T) {
	result := &RecognitionResult{}
	assert.Equal(t, "", result.GetFullText())
}

func TestSpeechDuration(t *testing.T) {
	result := timedResult()

	// First word starts at 500ms, last ends at 6500ms.
	assert.Equal(t, 6.0, result.SpeechDuration())
}

func TestSpeechDuration_NoTimings(t *testing.T) {
	result := &RecognitionResult{
		Chunks: []Chunk{
			{Alternatives: []Alternative{{Text: "hello there"}}},
		},
	}
	assert.Equal(t, 0.0, result.SpeechDuration())
}

func TestCountPauses(t *testing.T) {
	result := timedResult()

	// Gaps: 100, 1600, 200, 100, 1400 ms. Two exceed the 1000ms threshold.
	assert.Equal(t, 2, result.CountPauses())
}

func TestCountPauses_SingleWord(t *testing.T) {
	result := &RecognitionResult{
		Chunks: []Chunk{
			{
				Alternatives: []Alternative{
					{Words: []Word{{Word: "hi", StartTimeMs: 0, EndTimeMs: 300}}},
				},
			},
		},
	}
	assert.Equal(t, 0, result.CountPauses())
}
