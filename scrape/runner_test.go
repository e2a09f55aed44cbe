package scrape

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
)

func fastOptions(extra ...Option) []Option {
	base := []Option{
		WithMaxWorkers(4),
		WithWaitInterval(10 * time.Millisecond),
		WithMaxWait(time.Second),
		WithRetryPolicy(RetryPolicy{
			MaxRetries:     2,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
		}),
	}
	return append(base, extra...)
}

func TestRunPreservesSubmissionOrder(t *testing.T) {
	r, err := NewRunner("test", fastOptions()...)
	require.NoError(t, err)

	ids := []string{"a", "b", "c", "d", "e", "f"}
	table, err := r.Run(context.Background(), ids, []string{"id", "value"},
		func(ctx context.Context, job *Job) (Row, error) {
			// Later submissions finish first.
			time.Sleep(time.Duration(len(ids)-job.Attempts) * time.Millisecond)
			return Row{"id": job.Identifier, "value": "ok"}, nil
		})
	require.NoError(t, err)

	require.Equal(t, len(ids), table.Len())
	for i, id := range ids {
		assert.Equal(t, id, table.Row(i)["id"])
	}
}

func TestRunExactlyOneRowPerIdentifier(t *testing.T) {
	r, err := NewRunner("test", fastOptions()...)
	require.NoError(t, err)

	table, err := r.Run(context.Background(), []string{"x", "y", "z"}, []string{"id"},
		func(ctx context.Context, job *Job) (Row, error) {
			if job.Identifier == "y" {
				return nil, errors.RemoteService("rejected")
			}
			return Row{"id": job.Identifier}, nil
		})
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	assert.Empty(t, table.Row(0)[ErrorColumn])
	assert.Contains(t, table.Row(1)[ErrorColumn], "rejected")
	assert.Equal(t, "y", table.Row(1)["id"])
	assert.Empty(t, table.Row(2)[ErrorColumn])
}

func TestRunRetriesNetworkErrors(t *testing.T) {
	r, err := NewRunner("test", fastOptions()...)
	require.NoError(t, err)

	var calls atomic.Int32
	table, err := r.Run(context.Background(), []string{"a"}, []string{"id"},
		func(ctx context.Context, job *Job) (Row, error) {
			if calls.Add(1) < 3 {
				return nil, errors.Network("connection reset")
			}
			return Row{"id": job.Identifier}, nil
		})
	require.NoError(t, err)

	assert.EqualValues(t, 3, calls.Load())
	assert.Empty(t, table.Row(0)[ErrorColumn])
}

func TestRunDoesNotRetryRemoteServiceErrors(t *testing.T) {
	r, err := NewRunner("test", fastOptions()...)
	require.NoError(t, err)

	var calls atomic.Int32
	table, err := r.Run(context.Background(), []string{"a"}, []string{"id"},
		func(ctx context.Context, job *Job) (Row, error) {
			calls.Add(1)
			return nil, errors.RemoteService("bad structure")
		})
	require.NoError(t, err)

	assert.EqualValues(t, 1, calls.Load())
	assert.Contains(t, table.Row(0)[ErrorColumn], "bad structure")
}

func TestRunExhaustsRetryBudget(t *testing.T) {
	r, err := NewRunner("test", fastOptions()...)
	require.NoError(t, err)

	var calls atomic.Int32
	table, err := r.Run(context.Background(), []string{"a"}, []string{"id"},
		func(ctx context.Context, job *Job) (Row, error) {
			calls.Add(1)
			return nil, errors.Network("down")
		})
	require.NoError(t, err)

	// Initial attempt plus MaxRetries.
	assert.EqualValues(t, 3, calls.Load())
	assert.Contains(t, table.Row(0)[ErrorColumn], "down")
}

func TestRunRateLimitFailsWithoutAutoResume(t *testing.T) {
	r, err := NewRunner("test", fastOptions()...)
	require.NoError(t, err)

	var calls atomic.Int32
	table, err := r.Run(context.Background(), []string{"a"}, []string{"id"},
		func(ctx context.Context, job *Job) (Row, error) {
			calls.Add(1)
			return nil, errors.RateLimited("limit of allowed queries reached")
		})
	require.NoError(t, err)

	assert.EqualValues(t, 1, calls.Load())
	assert.Contains(t, table.Row(0)[ErrorColumn], "limit of allowed queries")
}

func TestRunRateLimitPollsWithAutoResume(t *testing.T) {
	r, err := NewRunner("test", fastOptions(WithAutoResume(t.TempDir()))...)
	require.NoError(t, err)

	var calls atomic.Int32
	table, err := r.Run(context.Background(), []string{"a"}, []string{"id"},
		func(ctx context.Context, job *Job) (Row, error) {
			if calls.Add(1) < 3 {
				return nil, errors.RateLimited("slow down")
			}
			return Row{"id": job.Identifier}, nil
		})
	require.NoError(t, err)

	assert.EqualValues(t, 3, calls.Load())
	assert.Empty(t, table.Row(0)[ErrorColumn])
}

func TestRunPollingTimesOutAfterMaxWait(t *testing.T) {
	opts := fastOptions(
		WithAutoResume(t.TempDir()),
		WithMaxWait(15*time.Millisecond),
	)
	r, err := NewRunner("test", opts...)
	require.NoError(t, err)

	table, err := r.Run(context.Background(), []string{"a"}, []string{"id"},
		func(ctx context.Context, job *Job) (Row, error) {
			return nil, errors.RateLimited("always limited")
		})
	require.NoError(t, err)

	require.Equal(t, 1, table.Len())
	assert.Contains(t, table.Row(0)[ErrorColumn], errors.CodeTimeout.String())
}

func TestRunCancellationReturnsPartialTable(t *testing.T) {
	r, err := NewRunner("test", fastOptions(WithMaxWorkers(1))...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once

	table, err := r.Run(ctx, []string{"a", "b", "c"}, []string{"id"},
		func(ctx context.Context, job *Job) (Row, error) {
			once.Do(cancel)
			if ctx.Err() != nil && job.Identifier != "a" {
				return nil, errors.Wrap(ctx.Err(), errors.CodeCancelled, "cancelled")
			}
			return Row{"id": job.Identifier}, nil
		})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeCancelled))
	require.NotNil(t, table)
	assert.Equal(t, 3, table.Len())
	// The first job finished before cancellation took effect.
	assert.Empty(t, table.Row(0)[ErrorColumn])
}

func TestRunAutoResumeSkipsCompletedJobs(t *testing.T) {
	dir := t.TempDir()
	ids := []string{"a", "b", "c"}

	var mu sync.Mutex
	invoked := map[string]int{}
	work := func(fail map[string]bool) WorkFunc {
		return func(ctx context.Context, job *Job) (Row, error) {
			mu.Lock()
			invoked[job.Identifier]++
			mu.Unlock()
			if fail[job.Identifier] {
				return nil, errors.RemoteService("transient outage")
			}
			return Row{"id": job.Identifier, "value": "v-" + job.Identifier}, nil
		}
	}

	r, err := NewRunner("svc", fastOptions(WithAutoResume(dir))...)
	require.NoError(t, err)

	first, err := r.Run(context.Background(), ids, []string{"id", "value"},
		work(map[string]bool{"b": true}))
	require.NoError(t, err)
	require.Len(t, first.FailedRows(), 1)

	// Second run of the same batch: a and c come from the checkpoint.
	second, err := r.Run(context.Background(), ids, []string{"id", "value"},
		work(nil))
	require.NoError(t, err)
	require.Empty(t, second.FailedRows())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, invoked["a"])
	assert.Equal(t, 2, invoked["b"])
	assert.Equal(t, 1, invoked["c"])

	assert.Equal(t, "v-a", second.Row(0)["value"])
	assert.Equal(t, "v-b", second.Row(1)["value"])

	// A fully completed batch leaves no checkpoint behind.
	files, err := ListCheckpoints(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRunEmptyInput(t *testing.T) {
	r, err := NewRunner("test", fastOptions()...)
	require.NoError(t, err)

	table, err := r.Run(context.Background(), nil, []string{"id"},
		func(ctx context.Context, job *Job) (Row, error) {
			t.Fatal("work function must not run")
			return nil, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestRunWithMetrics(t *testing.T) {
	m := NewMetrics(nil)
	r, err := NewRunner("test", fastOptions(WithMetrics(m))...)
	require.NoError(t, err)

	_, err = r.Run(context.Background(), []string{"a", "b"}, []string{"id"},
		func(ctx context.Context, job *Job) (Row, error) {
			if job.Identifier == "b" {
				return nil, errors.RemoteService("nope")
			}
			return Row{"id": job.Identifier}, nil
		})
	require.NoError(t, err)
}

func TestRunBatchedChunksAndPreservesOrder(t *testing.T) {
	r, err := NewRunner("test", fastOptions(WithMaxBatchSize(2))...)
	require.NoError(t, err)

	ids := []string{"a", "b", "c", "d", "e"}
	var groups atomic.Int32
	table, err := r.RunBatched(context.Background(), ids, []string{"id"},
		func(ctx context.Context, job *Job, group []string) ([]Row, error) {
			groups.Add(1)
			require.LessOrEqual(t, len(group), 2)
			rows := make([]Row, len(group))
			for i, id := range group {
				rows[i] = Row{"id": id}
			}
			return rows, nil
		})
	require.NoError(t, err)

	assert.EqualValues(t, 3, groups.Load())
	require.Equal(t, len(ids), table.Len())
	for i, id := range ids {
		assert.Equal(t, id, table.Row(i)["id"])
	}
}

func TestRunBatchedGroupFailureYieldsMemberRows(t *testing.T) {
	r, err := NewRunner("test", fastOptions(WithMaxBatchSize(2))...)
	require.NoError(t, err)

	table, err := r.RunBatched(context.Background(), []string{"a", "b", "c"}, []string{"id"},
		func(ctx context.Context, job *Job, group []string) ([]Row, error) {
			if group[0] == "a" {
				return nil, errors.RemoteService("batch rejected")
			}
			rows := make([]Row, len(group))
			for i, id := range group {
				rows[i] = Row{"id": id}
			}
			return rows, nil
		})
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	assert.Contains(t, table.Row(0)[ErrorColumn], "batch rejected")
	assert.Contains(t, table.Row(1)[ErrorColumn], "batch rejected")
	assert.Equal(t, "a", table.Row(0)["id"])
	assert.Equal(t, "b", table.Row(1)["id"])
	assert.Empty(t, table.Row(2)[ErrorColumn])
}

func TestRunBatchedRowCountMismatchFailsGroup(t *testing.T) {
	r, err := NewRunner("test", fastOptions(WithMaxBatchSize(10))...)
	require.NoError(t, err)

	table, err := r.RunBatched(context.Background(), []string{"a", "b"}, []string{"id"},
		func(ctx context.Context, job *Job, group []string) ([]Row, error) {
			return []Row{{"id": "a"}}, nil
		})
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	assert.Contains(t, table.Row(0)[ErrorColumn], "2 submitted structures")
}

func TestRunBatchedAutoResume(t *testing.T) {
	dir := t.TempDir()
	ids := []string{"a", "b", "c"}
	r, err := NewRunner("svc", fastOptions(WithMaxBatchSize(1), WithAutoResume(dir))...)
	require.NoError(t, err)

	var calls atomic.Int32
	_, err = r.RunBatched(context.Background(), ids, []string{"id"},
		func(ctx context.Context, job *Job, group []string) ([]Row, error) {
			calls.Add(1)
			if group[0] == "c" {
				return nil, errors.RemoteService("flaky")
			}
			return []Row{{"id": group[0]}}, nil
		})
	require.NoError(t, err)
	require.EqualValues(t, 3, calls.Load())

	second, err := r.RunBatched(context.Background(), ids, []string{"id"},
		func(ctx context.Context, job *Job, group []string) ([]Row, error) {
			calls.Add(1)
			return []Row{{"id": group[0]}}, nil
		})
	require.NoError(t, err)

	// Only c is re-submitted.
	assert.EqualValues(t, 4, calls.Load())
	assert.Empty(t, second.FailedRows())
}

func TestNewRunnerValidatesOptions(t *testing.T) {
	_, err := NewRunner("test", WithMaxWorkers(0))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = NewRunner("test", WithMaxBatchSize(101))
	require.Error(t, err)

	_, err = NewRunner("test", WithMaxBatchSize(0))
	require.Error(t, err)
}

func TestRetryPolicyBackoffBounds(t *testing.T) {
	p := RetryPolicy{
		MaxRetries:        5,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2,
	}
	for attempt := 0; attempt < 8; attempt++ {
		d := p.backoffFor(attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		// Capped at MaxBackoff plus 25 % jitter.
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
	}
}
