package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"readscore/pkg/logger"
	"readscore/pkg/resilience"

	"go.uber.org/zap"
)

const (
	RecognizeURL  = "https://transcribe.api.cloud.yandex.net/speech/stt/v2/longRunningRecognize"
	OperationURL  = "https://operation.api.cloud.yandex.net/operations"
	OperationPoll = 5 * time.Second
	MaxWaitTime   = 30 * time.Minute

	// Gaps between recognized words longer than this count as reading pauses.
	PauseThresholdMs = 1000
)

// Recognizer starts async speech recognition for audio stored in S3 and
// polls for the transcript.
type Recognizer interface {
	StartRecognition(ctx context.Context, s3URI string) (string, error)
	WaitForResult(ctx context.Context, operationID string) (*RecognitionResult, error)
}

type Client struct {
	apiKey       string
	folderID     string
	language     string
	client       *http.Client
	breaker      *resilience.CircuitBreaker
	retry        *resilience.RetryConfig
	recognizeURL string
	operationURL string
}

// New Yandex SpeechKit recognition client
func NewClient(apiKey, folderID, language string) *Client {
	if language == "" {
		language = "en-US"
	}
	return &Client{
		apiKey:   apiKey,
		folderID: folderID,
		language: language,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker:      resilience.NewCircuitBreaker(5, 1*time.Minute),
		retry:        resilience.DefaultRetryConfig(),
		recognizeURL: RecognizeURL,
		operationURL: OperationURL,
	}
}

// Async voice recognition
func (c *Client) StartRecognition(ctx context.Context, s3URI string) (string, error) {
	reqBody := RecognitionRequest{
		Config: RecognitionConfig{
			Specification: Specification{
				LanguageCode:      c.language,
				Model:             "general:rc",
				AudioEncoding:     "OGG_OPUS",
				SampleRateHertz:   48000,
				AudioChannelCount: 1,
				ProfanityFilter:   false,
				LiteratureText:    true,
				RawResults:        false,
			},
		},
		Audio: AudioSource{
			URI: s3URI,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	logger.Debug("Starting speech recognition", zap.String("s3_uri", s3URI))

	var opResp OperationResponse
	err = resilience.RetryWithExponentialBackoff(ctx, c.retry, func() error {
		return c.breaker.Execute(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.recognizeURL, bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}

			req.Header.Set("Authorization", fmt.Sprintf("Api-Key %s", c.apiKey))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("x-folder-id", c.folderID)

			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("failed to send request: %w", err)
			}
			defer resp.Body.Close()

			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("recognition request failed: status=%d, body=%s", resp.StatusCode, string(respBody))
			}

			if err := json.Unmarshal(respBody, &opResp); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	logger.Info("Recognition started", zap.String("operation_id", opResp.ID))

	return opResp.ID, nil
}

// Polling operation status and returns result
func (c *Client) WaitForResult(ctx context.Context, operationID string) (*RecognitionResult, error) {
	url := fmt.Sprintf("%s/%s", c.operationURL, operationID)
	startTime := time.Now()

	for {
		if time.Since(startTime) > MaxWaitTime {
			return nil, fmt.Errorf("recognition timeout exceeded")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", fmt.Sprintf("Api-Key %s", c.apiKey))

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to send request: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("operation check failed: status=%d, body=%s", resp.StatusCode, string(respBody))
		}

		var opResp OperationResponse
		if err := json.Unmarshal(respBody, &opResp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}

		if opResp.Done {
			if opResp.Error != nil {
				return nil, fmt.Errorf("recognition failed: %s (code: %d)", opResp.Error.Message, opResp.Error.Code)
			}

			var result RecognitionResult
			if opResp.Response != nil {
				responseBytes, err := json.Marshal(opResp.Response)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal response: %w", err)
				}

				if err := json.Unmarshal(responseBytes, &result); err != nil {
					return nil, fmt.Errorf("failed to unmarshal result: %w", err)
				}
			}

			logger.Info("Recognition completed",
				zap.String("operation_id", operationID),
				zap.Int("chunks", len(result.Chunks)))

			return &result, nil
		}

		logger.Debug("Recognition in progress",
			zap.String("operation_id", operationID),
			zap.Duration("elapsed", time.Since(startTime)))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(OperationPoll):
		}
	}
}

// GetFullText joins the best alternative of every chunk into one transcript.
func (r *RecognitionResult) GetFullText() string {
	var parts []string
	for _, chunk := range r.Chunks {
		if len(chunk.Alternatives) > 0 {
			parts = append(parts, strings.TrimSpace(chunk.Alternatives[0].Text))
		}
	}
	return strings.Join(parts, " ")
}

// words flattens the per-word timings of the best alternatives in order.
func (r *RecognitionResult) words() []Word {
	var out []Word
	for _, chunk := range r.Chunks {
		if len(chunk.Alternatives) > 0 {
			out = append(out, chunk.Alternatives[0].Words...)
		}
	}
	return out
}

// SpeechDuration returns the elapsed reading time in seconds, measured from
// the start of the first recognized word to the end of the last one. Returns
// zero when the result carries no word timings.
func (r *RecognitionResult) SpeechDuration() float64 {
	words := r.words()
	if len(words) == 0 {
		return 0
	}
	ms := words[len(words)-1].EndTimeMs - words[0].StartTimeMs
	if ms < 0 {
		return 0
	}
	return float64(ms) / 1000.0
}

// CountPauses counts inter-word gaps longer than PauseThresholdMs.
func (r *RecognitionResult) CountPauses() int {
	words := r.words()
	pauses := 0
	for i := 1; i < len(words); i++ {
		if words[i].StartTimeMs-words[i-1].EndTimeMs > PauseThresholdMs {
			pauses++
		}
	}
	return pauses
}
