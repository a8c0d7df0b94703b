package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCache struct {
	mock.Mock
	data map[string]interface{}
}

func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string]interface{}),
	}
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	if args.Error(0) == nil {
		m.data[key] = value
	}
	return args.Error(0)
}

func (m *MockCache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	if args.Error(0) == nil {
		delete(m.data, key)
	}
	return args.Error(0)
}

func (m *MockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestMockCache_SetAndDelete(t *testing.T) {
	mockCache := NewMockCache()
	ctx := context.Background()
	key := ResultCacheKey("task-123")

	mockCache.On("Set", ctx, key, "payload").Return(nil)
	mockCache.On("Delete", ctx, key).Return(nil)

	assert.NoError(t, mockCache.Set(ctx, key, "payload"))
	assert.Contains(t, mockCache.data, key)

	assert.NoError(t, mockCache.Delete(ctx, key))
	assert.NotContains(t, mockCache.data, key)

	mockCache.AssertExpectations(t)
}

func TestResultCacheKey(t *testing.T) {
	assert.Equal(t, "result:task-123", ResultCacheKey("task-123"))
}

func TestWordAudioCacheKey(t *testing.T) {
	assert.Equal(t, "tts:word:groceries", WordAudioCacheKey("groceries"))
}

func TestPassageCacheKey(t *testing.T) {
	assert.Equal(t, "passage:abc", PassageCacheKey("abc"))
}
