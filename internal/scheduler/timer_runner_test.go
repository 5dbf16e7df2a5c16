package scheduler

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eventdraw/drawbot/internal/domain"
	"github.com/eventdraw/drawbot/internal/worker"
)

// MockJobRepository
type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) CreateJob(ctx context.Context, job *domain.ScheduledJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) ListPendingJobs(ctx context.Context) ([]domain.ScheduledJob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduledJob), args.Error(1)
}

func (m *MockJobRepository) MarkJobExecuting(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockJobRepository) MarkJobDone(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJobRepository) MarkJobFailed(ctx context.Context, id uuid.UUID, cause string) error {
	args := m.Called(ctx, id, cause)
	return args.Error(0)
}

type testPayload struct {
	Value string `json:"value"`
}

func newTestRunner(t *testing.T, repo *MockJobRepository) (*TimerRunner, *worker.Pool) {
	t.Helper()
	pool := worker.NewPool(1, 8)
	pool.Start()
	t.Cleanup(pool.Stop)
	return NewTimerRunner(repo, pool), pool
}

func TestScheduleNowExecutesHandler(t *testing.T) {
	repo := new(MockJobRepository)
	repo.On("CreateJob", mock.Anything, mock.Anything).Return(nil)
	repo.On("MarkJobExecuting", mock.Anything, mock.Anything).Return(true, nil)
	repo.On("MarkJobDone", mock.Anything, mock.Anything).Return(nil)

	runner, _ := newTestRunner(t, repo)

	done := make(chan testPayload, 1)
	runner.Register("test.kind", func(_ context.Context, payload []byte) error {
		var p testPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		done <- p
		return nil
	})

	err := runner.ScheduleNow(context.Background(), "test.kind", testPayload{Value: "hello"})
	require.NoError(t, err)

	select {
	case p := <-done:
		assert.Equal(t, "hello", p.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}

	// Let the pool finish the bookkeeping before asserting
	assert.Eventually(t, func() bool {
		return len(repo.Calls) >= 3
	}, 2*time.Second, 10*time.Millisecond)
	repo.AssertCalled(t, "MarkJobDone", mock.Anything, mock.Anything)
}

func TestScheduleAtFutureFiresAfterDelay(t *testing.T) {
	repo := new(MockJobRepository)
	repo.On("CreateJob", mock.Anything, mock.Anything).Return(nil)
	repo.On("MarkJobExecuting", mock.Anything, mock.Anything).Return(true, nil)
	repo.On("MarkJobDone", mock.Anything, mock.Anything).Return(nil)

	runner, _ := newTestRunner(t, repo)

	fired := make(chan struct{}, 1)
	runner.Register("test.kind", func(_ context.Context, _ []byte) error {
		fired <- struct{}{}
		return nil
	})

	err := runner.ScheduleAt(context.Background(), time.Now().Add(30*time.Millisecond), "test.kind", testPayload{})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestDuplicateClaimSkipsExecution(t *testing.T) {
	repo := new(MockJobRepository)
	repo.On("CreateJob", mock.Anything, mock.Anything).Return(nil)
	// Simulate another replica having claimed the job first
	repo.On("MarkJobExecuting", mock.Anything, mock.Anything).Return(false, nil)

	runner, _ := newTestRunner(t, repo)

	var mu sync.Mutex
	invoked := false
	runner.Register("test.kind", func(_ context.Context, _ []byte) error {
		mu.Lock()
		invoked = true
		mu.Unlock()
		return nil
	})

	require.NoError(t, runner.ScheduleNow(context.Background(), "test.kind", testPayload{}))

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, invoked, "handler must not run for a lost claim")
	repo.AssertNotCalled(t, "MarkJobDone", mock.Anything, mock.Anything)
}

func TestUnknownKindMarksJobFailed(t *testing.T) {
	repo := new(MockJobRepository)
	repo.On("CreateJob", mock.Anything, mock.Anything).Return(nil)
	repo.On("MarkJobExecuting", mock.Anything, mock.Anything).Return(true, nil)

	failed := make(chan string, 1)
	repo.On("MarkJobFailed", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			failed <- args.String(2)
		}).Return(nil)

	runner, _ := newTestRunner(t, repo)

	require.NoError(t, runner.ScheduleNow(context.Background(), "nobody.home", testPayload{}))

	select {
	case cause := <-failed:
		assert.Contains(t, cause, domain.ErrMsgUnknownJobKind)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not marked failed")
	}
}

func TestStartRearmsPendingJobs(t *testing.T) {
	payload, err := json.Marshal(testPayload{Value: "reloaded"})
	require.NoError(t, err)

	pending := []domain.ScheduledJob{{
		ID:      uuid.New(),
		Kind:    "test.kind",
		Payload: payload,
		RunAt:   time.Now().Add(-time.Minute), // overdue, fires immediately
		State:   domain.JobStatePending,
	}}

	repo := new(MockJobRepository)
	repo.On("ListPendingJobs", mock.Anything).Return(pending, nil)
	repo.On("MarkJobExecuting", mock.Anything, pending[0].ID).Return(true, nil)
	repo.On("MarkJobDone", mock.Anything, pending[0].ID).Return(nil)

	runner, _ := newTestRunner(t, repo)

	fired := make(chan testPayload, 1)
	runner.Register("test.kind", func(_ context.Context, payload []byte) error {
		var p testPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		fired <- p
		return nil
	})

	require.NoError(t, runner.Start(context.Background()))

	select {
	case p := <-fired:
		assert.Equal(t, "reloaded", p.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("reloaded job did not fire")
	}
}
