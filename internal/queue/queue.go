// Package queue runs task assessments one at a time under a rate limit.
//
// Jobs run strictly in enqueue order on a single worker goroutine. The worker
// exists only while there is work: enqueueing into an idle queue starts it,
// and it exits once the queue is empty.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bryan-cox/taskquest/internal/effects"
	"github.com/bryan-cox/taskquest/internal/model"
	"github.com/bryan-cox/taskquest/internal/notify"
	"github.com/bryan-cox/taskquest/internal/player"
	"github.com/bryan-cox/taskquest/internal/scorer"
)

// State is the worker state.
type State int

const (
	Idle State = iota
	Draining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Draining:
		return "draining"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// TaskStore records scored tasks.
type TaskStore interface {
	UpsertCompleted(filePath, taskText string, points int, tags []string) error
}

// Options configures a Queue.
type Options struct {
	// RequestsPerMinute caps job starts. Zero or negative disables the limit.
	RequestsPerMinute int
	// ScoreTimeout bounds each scorer call. Zero means no timeout.
	ScoreTimeout time.Duration
	Achievements []effects.Achievement
	Notifier     notify.Notifier
	Logger       *slog.Logger
	// OnJobDone is called on the worker goroutine after each job, before the
	// next job starts.
	OnJobDone func(model.JobResult)
}

// Queue is a FIFO of assessment jobs.
type Queue struct {
	mu      sync.Mutex
	jobs    []model.AssessmentJob
	pending map[model.TaskKey]bool
	state   State
	idle    chan struct{}

	scorer       scorer.Scorer
	fallback     scorer.Heuristic
	store        TaskStore
	player       *player.State
	limiter      *rate.Limiter
	timeout      time.Duration
	achievements []effects.Achievement
	notifier     notify.Notifier
	logger       *slog.Logger
	onJobDone    func(model.JobResult)
	now          func() time.Time
}

// New creates an idle queue. fallback scores tasks whenever s fails.
func New(s scorer.Scorer, fallback scorer.Heuristic, store TaskStore, p *player.State, opts Options) *Queue {
	q := &Queue{
		pending:      make(map[model.TaskKey]bool),
		state:        Idle,
		scorer:       s,
		fallback:     fallback,
		store:        store,
		player:       p,
		timeout:      opts.ScoreTimeout,
		achievements: opts.Achievements,
		notifier:     opts.Notifier,
		logger:       opts.Logger,
		onJobDone:    opts.OnJobDone,
		now:          time.Now,
	}
	if opts.RequestsPerMinute > 0 {
		q.limiter = rate.NewLimiter(rate.Every(MinGap(opts.RequestsPerMinute)), 1)
	}
	if q.notifier == nil {
		q.notifier = notify.Log{Logger: opts.Logger}
	}
	if q.logger == nil {
		q.logger = slog.Default()
	}
	return q
}

// MinGap is the minimum time between job starts for a requests-per-minute
// ceiling.
func MinGap(requestsPerMinute int) time.Duration {
	return time.Minute / time.Duration(requestsPerMinute)
}

// Enqueue adds a job for the task. It returns false, without adding
// anything, if a job for the same task is already queued or running.
func (q *Queue) Enqueue(filePath, taskText string, tags []string) (model.AssessmentJob, bool) {
	job := model.AssessmentJob{
		ID:       uuid.NewString(),
		FilePath: filePath,
		TaskText: taskText,
		Tags:     slices.Clone(tags),
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending[job.Key()] {
		return model.AssessmentJob{}, false
	}
	job.EnqueuedAt = q.now()
	q.jobs = append(q.jobs, job)
	q.pending[job.Key()] = true

	if q.state == Idle {
		q.state = Draining
		q.idle = make(chan struct{})
		go q.drain()
	}
	return job, true
}

// Pending reports whether a job for the task is queued or running.
func (q *Queue) Pending(filePath, taskText string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending[model.TaskKey{FilePath: filePath, TaskText: taskText}]
}

// Len returns the number of jobs waiting to start.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// State returns the worker state.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// WaitIdle blocks until the queue has drained or ctx is done.
func (q *Queue) WaitIdle(ctx context.Context) error {
	q.mu.Lock()
	if q.state == Idle {
		q.mu.Unlock()
		return nil
	}
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.state = Idle
			close(q.idle)
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()

		result := q.run(job)

		q.mu.Lock()
		delete(q.pending, job.Key())
		q.mu.Unlock()

		if q.onJobDone != nil {
			q.onJobDone(result)
		}
	}
}

func (q *Queue) run(job model.AssessmentJob) model.JobResult {
	ctx := context.Background()
	logger := q.logger.With("job_id", job.ID, "path", job.FilePath, "task", job.TaskText)

	if q.limiter != nil {
		if err := q.limiter.Wait(ctx); err != nil {
			logger.Warn("rate limiter wait failed", "error", err)
		}
	}
	result := model.JobResult{Job: job, Status: model.JobRunning, StartedAt: q.now()}
	logger.Debug("assessing task")

	points, err := q.score(ctx, job)
	if err != nil {
		points = q.fallback.Points(job.Tags)
		result.Fallback = true
		logger.Warn("scoring failed, using default points", "error", err, "points", points)
		q.notifier.Notify(fmt.Sprintf("Scoring failed for %q, awarded %d default points", job.TaskText, points))
	}
	result.Points = points

	q.player.AddPoints(points)
	q.player.AddXP(points)
	q.player.IncrementCounter(model.CounterTasksCompleted, 1)
	q.player.IncrementCounter(model.CounterTotalPointsEarned, points)

	unlocked, err := effects.Evaluate(q.player, q.achievements)
	if err != nil {
		logger.Error("could not apply achievement", "error", err)
	}
	for _, a := range unlocked {
		q.notifier.Notify(fmt.Sprintf("Achievement unlocked: %s", a.DisplayName()))
	}

	if err := q.player.Save(); err != nil {
		return q.fail(logger, result, err)
	}
	if err := q.store.UpsertCompleted(job.FilePath, job.TaskText, points, job.Tags); err != nil {
		return q.fail(logger, result, err)
	}

	result.Status = model.JobCompleted
	logger.Info("task assessed", "points", points, "fallback", result.Fallback)
	q.notifier.Notify(fmt.Sprintf("Task completed: %s (+%d points)", job.TaskText, points))
	return result
}

func (q *Queue) score(ctx context.Context, job model.AssessmentJob) (int, error) {
	if q.scorer == nil {
		return 0, fmt.Errorf("no scorer configured")
	}
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	return q.scorer.Score(ctx, job.TaskText, job.Tags)
}

func (q *Queue) fail(logger *slog.Logger, result model.JobResult, err error) model.JobResult {
	result.Status = model.JobFailed
	result.Err = err
	logger.Error("assessment failed", "error", err)
	q.notifier.Notify(fmt.Sprintf("Could not record %q: %v", result.Job.TaskText, err))
	return result
}
