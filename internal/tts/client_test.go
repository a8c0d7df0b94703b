package tts

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

func fastRetry() *resilience.RetryConfig {
	return &resilience.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestSynthesize_RetriesTransientErrors(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "groceries", r.PostFormValue("text"))
		assert.Equal(t, "oggopus", r.PostFormValue("format"))
		_, _ = w.Write([]byte("ogg-audio-bytes"))
	}))
	defer ts.Close()

	client := NewClient("test-key", "folder", "en-US", "john")
	client.synthesizeURL = ts.URL
	client.retry = fastRetry()

	audio, err := client.Synthesize(context.Background(), "groceries")
	require.NoError(t, err)
	assert.Equal(t, []byte("ogg-audio-bytes"), audio)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSynthesize_EmptyText(t *testing.T) {
	client := NewClient("test-key", "folder", "en-US", "john")

	_, err := client.Synthesize(context.Background(), "   ")
	assert.Error(t, err)
}
