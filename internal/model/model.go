// Package model defines the core data structures for taskquest.
package model

import "time"

// Counter names tracked on the player.
const (
	CounterTasksCompleted      = "tasksCompleted"
	CounterTotalPointsEarned   = "totalPointsEarned"
	CounterTasksUnchecked      = "tasksUnchecked"
	CounterTotalPointsDeducted = "totalPointsDeducted"
)

// KnownCounters lists every counter name achievements may reference.
var KnownCounters = []string{
	CounterTasksCompleted,
	CounterTotalPointsEarned,
	CounterTasksUnchecked,
	CounterTotalPointsDeducted,
}

// Task is a single checkbox line extracted from a note.
type Task struct {
	Text      string
	Completed bool
}

// TaskRecord is a previously seen task. Identity is the (FilePath, TaskText)
// pair, compared exactly.
type TaskRecord struct {
	FilePath    string
	TaskText    string
	Completed   bool
	LastUpdated time.Time
	Points      int
	Tags        []string
}

// Key returns the record identity.
func (r TaskRecord) Key() TaskKey {
	return TaskKey{FilePath: r.FilePath, TaskText: r.TaskText}
}

// TaskKey identifies a task across scans.
type TaskKey struct {
	FilePath string
	TaskText string
}

// AssessmentJob is a deferred request to score a completed task.
type AssessmentJob struct {
	ID         string
	FilePath   string
	TaskText   string
	Tags       []string
	EnqueuedAt time.Time
}

// Key returns the identity of the task the job scores.
func (j AssessmentJob) Key() TaskKey {
	return TaskKey{FilePath: j.FilePath, TaskText: j.TaskText}
}

// JobStatus is the lifecycle state of an assessment job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobResult describes a finished job.
type JobResult struct {
	Job       AssessmentJob
	Status    JobStatus
	Points    int
	Fallback  bool // points came from the local heuristic
	StartedAt time.Time
	Err       error
}
