// Package store persists the tasks taskquest has already processed.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"sync"
	"time"

	"github.com/bryan-cox/taskquest/internal/model"
)

// FileName is the task store file inside the storage folder.
const FileName = "task_storage.json"

// Files is the subset of vault file access the store needs.
type Files interface {
	Exists(path string) bool
	Read(path string) (string, error)
	Write(path, content string) error
	CreateFolder(path string) error
}

// fileData is the on-disk layout of the store.
type fileData struct {
	ProcessedTasks []diskRecord `json:"processedTasks"`
}

type diskRecord struct {
	FilePath    string   `json:"filePath"`
	TaskText    string   `json:"taskText"`
	Completed   bool     `json:"completed"`
	LastUpdated int64    `json:"lastUpdated"`
	Points      int      `json:"points"`
	Tags        []string `json:"tags"`
}

// Store is a JSON-backed list of task records. Every mutation rewrites the
// backing file.
type Store struct {
	mu      sync.Mutex
	files   Files
	folder  string
	records []model.TaskRecord
	now     func() time.Time
}

// Open returns a store kept in folder and loads any existing records.
func Open(files Files, folder string) *Store {
	s := &Store{files: files, folder: folder, now: time.Now}
	s.Load()
	return s
}

func (s *Store) path() string {
	return path.Join(s.folder, FileName)
}

// Load reads the backing file, replacing the in-memory records. A missing or
// unparsable file yields an empty store.
func (s *Store) Load() []model.TaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	p := s.path()
	if !s.files.Exists(p) {
		return nil
	}
	content, err := s.files.Read(p)
	if err != nil {
		slog.Warn("could not read task store, starting empty", "path", p, "error", err)
		return nil
	}
	var data fileData
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		slog.Warn("could not parse task store, starting empty", "path", p, "error", err)
		return nil
	}
	for _, d := range data.ProcessedTasks {
		s.records = append(s.records, model.TaskRecord{
			FilePath:    d.FilePath,
			TaskText:    d.TaskText,
			Completed:   d.Completed,
			LastUpdated: time.UnixMilli(d.LastUpdated),
			Points:      d.Points,
			Tags:        d.Tags,
		})
	}
	return cloneRecords(s.records)
}

// Save overwrites the backing file with records and adopts them as the
// in-memory state.
func (s *Store) Save(records []model.TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = cloneRecords(records)
	return s.write()
}

func (s *Store) write() error {
	data := fileData{ProcessedTasks: make([]diskRecord, 0, len(s.records))}
	for _, r := range s.records {
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		data.ProcessedTasks = append(data.ProcessedTasks, diskRecord{
			FilePath:    r.FilePath,
			TaskText:    r.TaskText,
			Completed:   r.Completed,
			LastUpdated: r.LastUpdated.UnixMilli(),
			Points:      r.Points,
			Tags:        tags,
		})
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode task store: %w", err)
	}
	if s.folder != "" && !s.files.Exists(s.folder) {
		if err := s.files.CreateFolder(s.folder); err != nil {
			return fmt.Errorf("could not save task store: %w", err)
		}
	}
	if err := s.files.Write(s.path(), string(out)); err != nil {
		return fmt.Errorf("could not save task store: %w", err)
	}
	return nil
}

func (s *Store) index(filePath, taskText string) int {
	return slices.IndexFunc(s.records, func(r model.TaskRecord) bool {
		return r.FilePath == filePath && r.TaskText == taskText
	})
}

// Records returns a copy of all records.
func (s *Store) Records() []model.TaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.records)
}

// Get returns the record for the task, if any.
func (s *Store) Get(filePath, taskText string) (model.TaskRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(filePath, taskText)
	if i < 0 {
		return model.TaskRecord{}, false
	}
	return cloneRecord(s.records[i]), true
}

// IsCompleted reports whether the task is recorded as completed.
func (s *Store) IsCompleted(filePath, taskText string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(filePath, taskText)
	return i >= 0 && s.records[i].Completed
}

// UpsertCompleted records the task as completed with the given reward.
func (s *Store) UpsertCompleted(filePath, taskText string, points int, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := model.TaskRecord{
		FilePath:    filePath,
		TaskText:    taskText,
		Completed:   true,
		LastUpdated: s.now(),
		Points:      points,
		Tags:        slices.Clone(tags),
	}
	if i := s.index(filePath, taskText); i >= 0 {
		s.records[i] = rec
	} else {
		s.records = append(s.records, rec)
	}
	return s.write()
}

// MarkUncompleted flips a completed record back to uncompleted and returns
// the points it had awarded. changed is false when there was nothing to flip.
func (s *Store) MarkUncompleted(filePath, taskText string) (points int, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(filePath, taskText)
	if i < 0 || !s.records[i].Completed {
		return 0, false, nil
	}
	s.records[i].Completed = false
	s.records[i].LastUpdated = s.now()
	return s.records[i].Points, true, s.write()
}

// Delete removes the record if present. It reports whether a record was
// removed.
func (s *Store) Delete(filePath, taskText string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(filePath, taskText)
	if i < 0 {
		return false, nil
	}
	s.records = slices.Delete(s.records, i, i+1)
	return true, s.write()
}

// Clear removes every record.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return s.write()
}

func cloneRecord(r model.TaskRecord) model.TaskRecord {
	r.Tags = slices.Clone(r.Tags)
	return r
}

func cloneRecords(records []model.TaskRecord) []model.TaskRecord {
	if records == nil {
		return nil
	}
	out := make([]model.TaskRecord, len(records))
	for i, r := range records {
		out[i] = cloneRecord(r)
	}
	return out
}
