package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"readscore/pkg/logger"
	"readscore/pkg/resilience"

	"go.uber.org/zap"
)

const SynthesizeURL = "https://tts.api.cloud.yandex.net/speech/v1/tts:synthesize"

// Synthesizer turns a short text into spoken audio. Used to read tricky
// words back to the learner.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Client struct {
	apiKey        string
	folderID      string
	language      string
	voice         string
	client        *http.Client
	breaker       *resilience.CircuitBreaker
	retry         *resilience.RetryConfig
	synthesizeURL string
}

// New Yandex SpeechKit synthesis client
func NewClient(apiKey, folderID, language, voice string) *Client {
	if language == "" {
		language = "en-US"
	}
	if voice == "" {
		voice = "john"
	}
	return &Client{
		apiKey:   apiKey,
		folderID: folderID,
		language: language,
		voice:    voice,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker:       resilience.NewCircuitBreaker(5, 1*time.Minute),
		retry:         resilience.DefaultRetryConfig(),
		synthesizeURL: SynthesizeURL,
	}
}

// Synthesize returns OGG/Opus audio for the given text.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("lang", c.language)
	form.Set("voice", c.voice)
	form.Set("folderId", c.folderID)
	form.Set("format", "oggopus")

	var audio []byte
	err := resilience.RetryWithExponentialBackoff(ctx, c.retry, func() error {
		return c.breaker.Execute(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.synthesizeURL, strings.NewReader(form.Encode()))
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}

			req.Header.Set("Authorization", fmt.Sprintf("Api-Key %s", c.apiKey))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("failed to send request: %w", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("synthesis failed: status=%d, body=%s", resp.StatusCode, string(body))
			}

			audio = body
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Synthesized audio",
		zap.Int("text_len", len(text)),
		zap.Int("audio_bytes", len(audio)))

	return audio, nil
}
