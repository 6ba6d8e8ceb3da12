// Package reconcile compares note content with the task store and turns
// checkbox changes into assessment jobs or point deductions.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/bryan-cox/taskquest/internal/effects"
	"github.com/bryan-cox/taskquest/internal/extract"
	"github.com/bryan-cox/taskquest/internal/model"
	"github.com/bryan-cox/taskquest/internal/notify"
	"github.com/bryan-cox/taskquest/internal/player"
)

// TaskStore is the task store as seen by the reconciliation pass.
type TaskStore interface {
	IsCompleted(filePath, taskText string) bool
	MarkUncompleted(filePath, taskText string) (points int, changed bool, err error)
}

// Enqueuer accepts assessment jobs.
type Enqueuer interface {
	Enqueue(filePath, taskText string, tags []string) (model.AssessmentJob, bool)
	Pending(filePath, taskText string) bool
}

// Notes lists and reads tracked notes.
type Notes interface {
	Notes(folders []string, exclude string) ([]string, error)
	Read(path string) (string, error)
}

// Options configures a Reconciler.
type Options struct {
	DeductOnUncheck bool
	TrackedFolders  []string
	StorageFolder   string
	Achievements    []effects.Achievement
	Notifier        notify.Notifier
	Logger          *slog.Logger
}

// Result summarizes one note's pass.
type Result struct {
	Path      string
	Enqueued  []model.AssessmentJob
	Unchecked int
	Deducted  int
	Unchanged int
}

// ScanResult summarizes a pass over all tracked notes.
type ScanResult struct {
	Notes     []Result
	Failed    map[string]error
	Enqueued  int
	Unchecked int
	Deducted  int
}

// Reconciler runs reconciliation passes. Passes never overlap.
type Reconciler struct {
	store  TaskStore
	queue  Enqueuer
	player *player.State
	notes  Notes
	opts   Options
	logger *slog.Logger

	passMu sync.Mutex
	scans  singleflight.Group
}

// New returns a Reconciler.
func New(store TaskStore, queue Enqueuer, p *player.State, notes Notes, opts Options) *Reconciler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Log{Logger: opts.Logger}
	}
	return &Reconciler{
		store:  store,
		queue:  queue,
		player: p,
		notes:  notes,
		opts:   opts,
		logger: opts.Logger,
	}
}

// ReconcileNote classifies every task in content and acts on the changes.
func (r *Reconciler) ReconcileNote(ctx context.Context, filePath, content string) (Result, error) {
	r.passMu.Lock()
	defer r.passMu.Unlock()
	return r.reconcile(ctx, filePath, content)
}

// ScanNote reads one note and reconciles it.
func (r *Reconciler) ScanNote(ctx context.Context, filePath string) (Result, error) {
	content, err := r.notes.Read(filePath)
	if err != nil {
		return Result{Path: filePath}, err
	}
	return r.ReconcileNote(ctx, filePath, content)
}

// Scan reconciles every tracked note. A call made while another scan is in
// flight waits for that scan and shares its result instead of starting a
// second one.
func (r *Reconciler) Scan(ctx context.Context) (ScanResult, error) {
	v, err, shared := r.scans.Do("scan", func() (any, error) {
		return r.scan(ctx)
	})
	if shared {
		r.logger.Debug("joined in-flight scan")
	}
	if v == nil {
		return ScanResult{}, err
	}
	return v.(ScanResult), err
}

func (r *Reconciler) scan(ctx context.Context) (ScanResult, error) {
	paths, err := r.notes.Notes(r.opts.TrackedFolders, r.opts.StorageFolder)
	if err != nil {
		return ScanResult{}, fmt.Errorf("could not list tracked notes: %w", err)
	}

	result := ScanResult{Failed: map[string]error{}}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		res, err := r.ScanNote(ctx, path)
		if err != nil {
			r.logger.Warn("could not reconcile note, skipping", "path", path, "error", err)
			result.Failed[path] = err
			continue
		}
		result.Notes = append(result.Notes, res)
		result.Enqueued += len(res.Enqueued)
		result.Unchecked += res.Unchecked
		result.Deducted += res.Deducted
	}
	return result, nil
}

func (r *Reconciler) reconcile(ctx context.Context, filePath, content string) (Result, error) {
	result := Result{Path: filePath}
	var errs []error

	for task := range extract.Tasks(content) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		switch {
		// Pending is read before the store: a job upserts its record before
		// it leaves the pending set.
		case task.Completed && r.queue.Pending(filePath, task.Text):
			result.Unchanged++
		case task.Completed && !r.store.IsCompleted(filePath, task.Text):
			if job, ok := r.queue.Enqueue(filePath, task.Text, extract.Tags(task.Text)); ok {
				result.Enqueued = append(result.Enqueued, job)
			}
		case !task.Completed && r.store.IsCompleted(filePath, task.Text):
			unchecked, deducted, err := r.uncheck(filePath, task.Text)
			if unchecked {
				result.Unchecked++
				result.Deducted += deducted
			}
			if err != nil {
				errs = append(errs, err)
			}
		default:
			result.Unchanged++
		}
	}
	return result, errors.Join(errs...)
}

func (r *Reconciler) uncheck(filePath, taskText string) (unchecked bool, deducted int, err error) {
	points, changed, err := r.store.MarkUncompleted(filePath, taskText)
	if err != nil {
		return false, 0, fmt.Errorf("could not mark %q uncompleted: %w", taskText, err)
	}
	if !changed {
		return false, 0, nil
	}
	if !r.opts.DeductOnUncheck {
		return true, 0, nil
	}

	deducted = r.player.DeductPoints(points)
	r.player.IncrementCounter(model.CounterTasksUnchecked, 1)
	r.player.IncrementCounter(model.CounterTotalPointsDeducted, deducted)

	unlocked, err := effects.Evaluate(r.player, r.opts.Achievements)
	if err != nil {
		r.logger.Error("could not apply achievement", "error", err)
	}
	for _, a := range unlocked {
		r.opts.Notifier.Notify(fmt.Sprintf("Achievement unlocked: %s", a.DisplayName()))
	}

	if err := r.player.Save(); err != nil {
		return true, deducted, fmt.Errorf("could not save player after unchecking %q: %w", taskText, err)
	}
	r.logger.Info("task unchecked", "path", filePath, "task", taskText, "deducted", deducted)
	r.opts.Notifier.Notify(fmt.Sprintf("Task unchecked: %s (-%d points)", taskText, deducted))
	return true, deducted, nil
}
