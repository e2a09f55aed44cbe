package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
	"github.com/Arifmaulanaazis/BioChem/pkg/logging"
)

// WorkFunc performs the remote interaction for one job and returns its
// result row.  Implementations classify failures through pkg/errors codes:
// CodeNetwork is retried with backoff, CodeRateLimited triggers polling
// when auto-resume is on, and everything else fails the job immediately.
// A WorkFunc may set job.RemoteJobID so the handle survives in the
// checkpoint.
type WorkFunc func(ctx context.Context, job *Job) (Row, error)

// Runner drives a batch of jobs through the worker pool.  Every service
// client embeds one Runner and supplies its WorkFunc.
type Runner struct {
	service string
	opts    Options
	log     logging.Logger
}

// NewRunner validates the options and builds a runner for a named service.
func NewRunner(service string, opts ...Option) (*Runner, error) {
	o := NewOptions(opts...)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		service: service,
		opts:    o,
		log:     o.Logger.Named(service),
	}, nil
}

// Service returns the service name the runner was built for.
func (r *Runner) Service() string { return r.service }

// Options returns the resolved option set.
func (r *Runner) Options() Options { return r.opts }

// Run executes fn once per identifier on a bounded worker pool and returns
// exactly one row per identifier, in submission order, regardless of
// completion order.  A failing job contributes a row with the first column
// set to its identifier and the error column set to the failure message;
// it never aborts the batch.
//
// With auto-resume enabled, completed rows are loaded from the batch
// checkpoint instead of re-submitting, and new completions are persisted
// as they happen.  On context cancellation the partial table is still
// returned together with a CodeCancelled error.
func (r *Runner) Run(ctx context.Context, identifiers []string, columns []string, fn WorkFunc) (*Table, error) {
	table := NewTable(columns...)
	if len(identifiers) == 0 {
		return table, nil
	}
	if len(columns) == 0 {
		return nil, errors.InvalidParam("result table needs at least one column")
	}
	idColumn := columns[0]

	var cp *Checkpoint
	if r.opts.AutoResume {
		loaded, err := LoadCheckpoint(r.opts.ResumeDir, r.service, identifiers)
		if err != nil {
			return nil, err
		}
		cp = loaded
		if n := cp.CompletedCount(); n > 0 {
			r.log.Info("resuming batch from checkpoint",
				logging.String("digest", cp.Digest),
				logging.Int("completed", n),
				logging.Int("total", len(identifiers)))
		}
	}

	rows := make([]Row, len(identifiers))
	sem := make(chan struct{}, r.opts.MaxWorkers)
	var wg sync.WaitGroup

	for i, id := range identifiers {
		job := NewJob(id)
		if cp != nil {
			if row, ok := cp.CompletedRow(id); ok {
				// Restored jobs skip the state machine; they were
				// completed by a previous run.
				job.Status = StatusComplete
				rows[i] = row
				continue
			}
			job.RemoteJobID = cp.RemoteJobID(id)
		}

		wg.Add(1)
		go func(i int, job *Job) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				err := errors.Wrap(ctx.Err(), errors.CodeCancelled, "batch cancelled before start")
				job.markFailed(err)
				rows[i] = errorRow(idColumn, job.Identifier, err)
				r.opts.Metrics.observeJob(r.service, StatusFailed)
				return
			}
			defer func() { <-sem }()

			rows[i] = r.executeJob(ctx, job, idColumn, fn, cp)
		}(i, job)
	}
	wg.Wait()

	for _, row := range rows {
		table.Append(row)
	}

	if cp != nil {
		if len(table.FailedRows()) == 0 {
			if err := cp.Discard(); err != nil {
				r.log.Warn("failed to remove finished checkpoint", logging.Err(err))
			}
		} else if err := cp.Save(); err != nil {
			r.log.Warn("failed to persist checkpoint", logging.Err(err))
		}
	}

	if err := ctx.Err(); err != nil {
		return table, errors.Wrap(err, errors.CodeCancelled, "batch cancelled")
	}
	return table, nil
}

// BatchWorkFunc processes a whole group of identifiers in one remote
// submission and returns one row per group member, in group order.
type BatchWorkFunc func(ctx context.Context, job *Job, group []string) ([]Row, error)

// RunBatched is Run for services that accept many identifiers per
// submission.  Identifiers are chunked into groups of at most MaxBatchSize;
// each group is one job with the shared retry and polling behaviour.  The
// result table still carries exactly one row per identifier in submission
// order, and a failing group yields one error row per member.
func (r *Runner) RunBatched(ctx context.Context, identifiers []string, columns []string, fn BatchWorkFunc) (*Table, error) {
	table := NewTable(columns...)
	if len(identifiers) == 0 {
		return table, nil
	}
	if len(columns) == 0 {
		return nil, errors.InvalidParam("result table needs at least one column")
	}
	idColumn := columns[0]

	var cp *Checkpoint
	if r.opts.AutoResume {
		loaded, err := LoadCheckpoint(r.opts.ResumeDir, r.service, identifiers)
		if err != nil {
			return nil, err
		}
		cp = loaded
		if n := cp.CompletedCount(); n > 0 {
			r.log.Info("resuming batch from checkpoint",
				logging.String("digest", cp.Digest),
				logging.Int("completed", n),
				logging.Int("total", len(identifiers)))
		}
	}

	rows := make([]Row, len(identifiers))
	var pending []int
	for i, id := range identifiers {
		if cp != nil {
			if row, ok := cp.CompletedRow(id); ok {
				rows[i] = row
				continue
			}
		}
		pending = append(pending, i)
	}

	var groups [][]int
	for start := 0; start < len(pending); start += r.opts.MaxBatchSize {
		end := start + r.opts.MaxBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		groups = append(groups, pending[start:end])
	}

	sem := make(chan struct{}, r.opts.MaxWorkers)
	var wg sync.WaitGroup
	var cpMu sync.Mutex

	for _, group := range groups {
		ids := make([]string, len(group))
		for k, idx := range group {
			ids[k] = identifiers[idx]
		}
		job := NewJob(ids[0])

		wg.Add(1)
		go func(group []int, ids []string, job *Job) {
			defer wg.Done()

			failAll := func(err error) {
				for _, idx := range group {
					rows[idx] = errorRow(idColumn, identifiers[idx], err)
				}
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				err := errors.Wrap(ctx.Err(), errors.CodeCancelled, "batch cancelled before start")
				job.markFailed(err)
				failAll(err)
				r.opts.Metrics.observeJob(r.service, StatusFailed)
				return
			}
			defer func() { <-sem }()

			var got []Row
			err := r.runAttempts(ctx, job, nil, func(ctx context.Context) error {
				result, err := fn(ctx, job, ids)
				if err != nil {
					return err
				}
				if len(result) != len(ids) {
					return errors.Newf(errors.CodeParse,
						"service returned %d rows for %d submitted structures",
						len(result), len(ids))
				}
				got = result
				return nil
			})
			if err != nil {
				failAll(err)
				return
			}

			cpMu.Lock()
			for k, idx := range group {
				rows[idx] = got[k]
				if cp != nil {
					cp.MarkComplete(identifiers[idx], got[k])
				}
			}
			cpMu.Unlock()
			if cp != nil {
				if saveErr := cp.Save(); saveErr != nil {
					r.log.Warn("failed to persist checkpoint", logging.Err(saveErr))
				}
			}
		}(group, ids, job)
	}
	wg.Wait()

	for _, row := range rows {
		table.Append(row)
	}

	if cp != nil {
		if len(table.FailedRows()) == 0 {
			if err := cp.Discard(); err != nil {
				r.log.Warn("failed to remove finished checkpoint", logging.Err(err))
			}
		} else if err := cp.Save(); err != nil {
			r.log.Warn("failed to persist checkpoint", logging.Err(err))
		}
	}

	if err := ctx.Err(); err != nil {
		return table, errors.Wrap(err, errors.CodeCancelled, "batch cancelled")
	}
	return table, nil
}

// executeJob runs the retry and polling loop for one job and always
// returns a row.
func (r *Runner) executeJob(ctx context.Context, job *Job, idColumn string, fn WorkFunc, cp *Checkpoint) Row {
	var row Row
	err := r.runAttempts(ctx, job, cp, func(ctx context.Context) error {
		got, err := fn(ctx, job)
		if err != nil {
			return err
		}
		row = got
		return nil
	})
	if err != nil {
		return errorRow(idColumn, job.Identifier, err)
	}
	if cp != nil {
		cp.MarkComplete(job.Identifier, row)
		if saveErr := cp.Save(); saveErr != nil {
			r.log.Warn("failed to persist checkpoint", logging.Err(saveErr))
		}
	}
	return row
}

// runAttempts drives one job through submission, retry with backoff and
// rate-limit polling until attempt succeeds or the job fails terminally.
// Returns nil after marking the job complete, or the terminal error after
// marking it failed.
func (r *Runner) runAttempts(ctx context.Context, job *Job, cp *Checkpoint, attempt func(ctx context.Context) error) error {
	start := time.Now()
	defer func() {
		r.opts.Metrics.observeDuration(r.service, time.Since(start))
		r.opts.Metrics.observeJob(r.service, job.Status)
	}()

	fail := func(err error) error {
		job.markFailed(err)
		r.log.Warn("job failed",
			logging.String("identifier", job.Identifier),
			logging.Int("attempts", job.Attempts),
			logging.Err(err))
		return err
	}

	job.markSubmitted()
	if cp != nil {
		cp.MarkStatus(job.Identifier, StatusSubmitted, job.RemoteJobID)
	}

	retries := 0
	var waited time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return fail(errors.Wrap(err, errors.CodeCancelled, "batch cancelled"))
		}

		job.Attempts++
		err := attempt(ctx)
		if err == nil {
			job.markComplete()
			return nil
		}

		switch {
		case errors.IsCode(err, errors.CodeRateLimited) && r.opts.AutoResume:
			if waited >= r.opts.MaxWait {
				return fail(errors.Wrap(err, errors.CodeTimeout,
					"rate-limit polling exceeded the wait budget"))
			}
			job.markPolling()
			if cp != nil {
				cp.MarkStatus(job.Identifier, StatusPolling, job.RemoteJobID)
			}
			r.opts.Metrics.observePollWait(r.service)
			r.log.Info("rate limited, waiting before next poll",
				logging.String("identifier", job.Identifier),
				logging.Duration("wait", r.opts.WaitInterval),
				logging.Duration("waited", waited))
			select {
			case <-time.After(r.opts.WaitInterval):
				waited += r.opts.WaitInterval
			case <-ctx.Done():
				return fail(errors.Wrap(ctx.Err(), errors.CodeCancelled, "batch cancelled while polling"))
			}

		case errors.IsRetryable(err) && retries < r.opts.Retry.MaxRetries:
			backoff := r.opts.Retry.backoffFor(retries)
			retries++
			r.opts.Metrics.observeRetry(r.service)
			r.log.Debug("transient failure, backing off",
				logging.String("identifier", job.Identifier),
				logging.Int("retry", retries),
				logging.Duration("backoff", backoff),
				logging.Err(err))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return fail(errors.Wrap(ctx.Err(), errors.CodeCancelled, "batch cancelled during backoff"))
			}

		default:
			return fail(err)
		}
	}
}

func errorRow(idColumn, identifier string, err error) Row {
	return Row{
		idColumn:    identifier,
		ErrorColumn: err.Error(),
	}
}
