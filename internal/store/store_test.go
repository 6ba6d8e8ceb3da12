package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-cox/taskquest/internal/model"
	"github.com/bryan-cox/taskquest/internal/vault"
)

// memFiles is an in-memory Files implementation.
type memFiles struct {
	files    map[string]string
	folders  map[string]bool
	writeErr error
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[string]string{}, folders: map[string]bool{}}
}

func (m *memFiles) Exists(p string) bool {
	_, ok := m.files[p]
	return ok || m.folders[p]
}

func (m *memFiles) Read(p string) (string, error) {
	c, ok := m.files[p]
	if !ok {
		return "", errors.New("not found")
	}
	return c, nil
}

func (m *memFiles) Write(p, content string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.files[p] = content
	return nil
}

func (m *memFiles) CreateFolder(p string) error { m.folders[p] = true; return nil }

func fixedNow(s *Store, ts time.Time) {
	s.now = func() time.Time { return ts }
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	s := Open(newMemFiles(), ".taskquest")
	assert.Empty(t, s.Records())
	assert.False(t, s.IsCompleted("a.md", "x"))
}

func TestLoadCorruptFileIsEmpty(t *testing.T) {
	files := newMemFiles()
	files.files[".taskquest/"+FileName] = "{not json"
	s := Open(files, ".taskquest")
	assert.Empty(t, s.Records())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	v, err := vault.New(t.TempDir())
	require.NoError(t, err)
	s := Open(v, ".taskquest")

	records := []model.TaskRecord{
		{FilePath: "a.md", TaskText: "Write draft #easy", Completed: true, LastUpdated: time.UnixMilli(1722500000000), Points: 5, Tags: []string{"#easy"}},
		{FilePath: "b.md", TaskText: "Ship it", Completed: false, LastUpdated: time.UnixMilli(1722500001000), Points: 12, Tags: []string{}},
		{FilePath: "b.md", TaskText: "", Completed: true, LastUpdated: time.UnixMilli(1722500002000), Points: 0, Tags: []string{}},
	}
	require.NoError(t, s.Save(records))

	reopened := Open(v, ".taskquest")
	got := reopened.Load()

	sortRecords := cmpopts.SortSlices(func(a, b model.TaskRecord) bool {
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		return a.TaskText < b.TaskText
	})
	if diff := cmp.Diff(records, got, sortRecords); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertCompletedNeverDuplicates(t *testing.T) {
	s := Open(newMemFiles(), ".taskquest")
	ts := time.UnixMilli(1722500000000)
	fixedNow(s, ts)

	require.NoError(t, s.UpsertCompleted("a.md", "task #x", 10, []string{"#x"}))
	_, _, err := s.MarkUncompleted("a.md", "task #x")
	require.NoError(t, err)
	require.NoError(t, s.UpsertCompleted("a.md", "task #x", 7, []string{"#x"}))
	require.NoError(t, s.UpsertCompleted("a.md", "Task #x", 3, nil))

	records := s.Records()
	require.Len(t, records, 2)
	rec, ok := s.Get("a.md", "task #x")
	require.True(t, ok)
	assert.True(t, rec.Completed)
	assert.Equal(t, 7, rec.Points)
	assert.Equal(t, ts, rec.LastUpdated)
	assert.True(t, s.IsCompleted("a.md", "Task #x"))
}

func TestMarkUncompleted(t *testing.T) {
	s := Open(newMemFiles(), ".taskquest")
	require.NoError(t, s.UpsertCompleted("a.md", "t", 42, nil))

	points, changed, err := s.MarkUncompleted("a.md", "t")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 42, points)
	assert.False(t, s.IsCompleted("a.md", "t"))

	points, changed, err = s.MarkUncompleted("a.md", "t")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Zero(t, points)

	_, changed, err = s.MarkUncompleted("a.md", "missing")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestDeleteAndClear(t *testing.T) {
	s := Open(newMemFiles(), ".taskquest")
	require.NoError(t, s.UpsertCompleted("a.md", "one", 1, nil))
	require.NoError(t, s.UpsertCompleted("a.md", "two", 2, nil))

	removed, err := s.Delete("a.md", "one")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.Delete("a.md", "one")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, s.Records(), 1)

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Records())
}

func TestSaveFailureIsReturned(t *testing.T) {
	files := newMemFiles()
	files.writeErr = errors.New("disk full")
	s := Open(files, ".taskquest")

	err := s.UpsertCompleted("a.md", "t", 1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRecordsAreCopies(t *testing.T) {
	s := Open(newMemFiles(), ".taskquest")
	require.NoError(t, s.UpsertCompleted("a.md", "t", 1, []string{"#a"}))

	records := s.Records()
	records[0].Tags[0] = "#mutated"
	rec, _ := s.Get("a.md", "t")
	assert.Equal(t, []string{"#a"}, rec.Tags)
}
