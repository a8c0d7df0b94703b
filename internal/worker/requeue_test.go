package worker

import (
	"context"
	"errors"
	"testing"

	"readscore/internal/queue"
	"readscore/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func (m *MockDB) GetQueuedTasks(ctx context.Context, limit int) ([]*model.AssessmentTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AssessmentTask), args.Error(1)
}

func (m *MockDB) GetFailedTasks(ctx context.Context, limit int) ([]*model.AssessmentTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AssessmentTask), args.Error(1)
}

type MockJobPublisher struct {
	mock.Mock
}

func (m *MockJobPublisher) PublishJob(job *queue.AssessmentJob) error {
	args := m.Called(job)
	return args.Error(0)
}

func testPublicURL(key string) string {
	return "https://storage.yandexcloud.net/bucket/" + key
}

func TestRequeueStalled(t *testing.T) {
	mockDB := new(MockDB)
	jobs := new(MockJobPublisher)

	errText := "Failed to start recognition"

	queued := newTask()
	queued.ID = "task-queued"
	queued.Meta = model.JSONB{"file_size": float64(64000), "mime_type": "audio/ogg"}

	retryable := newTask()
	retryable.ID = "task-retryable"
	retryable.Status = model.TaskStatusFailed
	retryable.Attempts = 1
	retryable.ErrorText = &errText

	exhausted := newTask()
	exhausted.ID = "task-exhausted"
	exhausted.Status = model.TaskStatusFailed
	exhausted.Attempts = 3
	exhausted.ErrorText = &errText

	mockDB.On("GetQueuedTasks", mock.Anything, 100).
		Return([]*model.AssessmentTask{queued}, nil)
	mockDB.On("GetFailedTasks", mock.Anything, 100).
		Return([]*model.AssessmentTask{retryable, exhausted}, nil)
	mockDB.On("UpdateTask", mock.Anything, retryable).Return(nil)

	var published []*queue.AssessmentJob
	jobs.On("PublishJob", mock.AnythingOfType("*queue.AssessmentJob")).
		Run(func(args mock.Arguments) {
			published = append(published, args.Get(0).(*queue.AssessmentJob))
		}).
		Return(nil)

	count, err := RequeueStalled(context.Background(), mockDB, jobs, testPublicURL, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// The failed task with attempts left goes back to queued, error cleared.
	assert.Equal(t, model.TaskStatusQueued, retryable.Status)
	assert.Nil(t, retryable.ErrorText)

	// The exhausted task stays failed and is not republished.
	assert.Equal(t, model.TaskStatusFailed, exhausted.Status)

	require.Len(t, published, 2)
	assert.Equal(t, "task-queued", published[0].TaskID)
	assert.Equal(t, testPublicURL(queued.AudioKey), published[0].AudioURI)
	assert.Equal(t, int64(64000), published[0].FileSize)
	assert.Equal(t, "audio/ogg", published[0].MimeType)
	assert.Equal(t, "task-retryable", published[1].TaskID)

	mockDB.AssertExpectations(t)
	jobs.AssertExpectations(t)
}

func TestRequeueStalled_PublishFailureSkipsTask(t *testing.T) {
	mockDB := new(MockDB)
	jobs := new(MockJobPublisher)

	queued := newTask()

	mockDB.On("GetQueuedTasks", mock.Anything, 50).
		Return([]*model.AssessmentTask{queued}, nil)
	mockDB.On("GetFailedTasks", mock.Anything, 50).
		Return([]*model.AssessmentTask{}, nil)
	jobs.On("PublishJob", mock.Anything).Return(errors.New("broker down"))

	count, err := RequeueStalled(context.Background(), mockDB, jobs, testPublicURL, 50)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRequeueStalled_StoreError(t *testing.T) {
	mockDB := new(MockDB)
	jobs := new(MockJobPublisher)

	mockDB.On("GetQueuedTasks", mock.Anything, 100).
		Return(nil, errors.New("connection refused"))

	_, err := RequeueStalled(context.Background(), mockDB, jobs, testPublicURL, 100)
	assert.Error(t, err)
}

func TestCanRetry(t *testing.T) {
	task := newTask()
	task.Status = model.TaskStatusFailed

	task.Attempts = 2
	assert.True(t, task.CanRetry())

	task.Attempts = 3
	assert.False(t, task.CanRetry())

	task.Status = model.TaskStatusDone
	task.Attempts = 0
	assert.False(t, task.CanRetry())
}
