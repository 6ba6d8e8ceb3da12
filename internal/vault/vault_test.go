package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestReadWriteExists(t *testing.T) {
	v, err := New(t.TempDir())
	require.NoError(t, err)

	assert.False(t, v.Exists("store/data.json"))
	require.NoError(t, v.CreateFolder("store"))
	require.NoError(t, v.Write("store/data.json", `{"a":1}`))
	assert.True(t, v.Exists("store/data.json"))

	got, err := v.Read("store/data.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got)

	_, err = v.Read("missing.md")
	assert.Error(t, err)
}

func TestRejectsEscapingPaths(t *testing.T) {
	v, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = v.Read("../secret")
	assert.ErrorIs(t, err, ErrOutsideVault)
	assert.ErrorIs(t, v.Write("/etc/passwd", "x"), ErrOutsideVault)
	assert.False(t, v.Exists("../"))
}

func TestNotes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "daily/2024-08-01.md", "- [x] a")
	writeFile(t, root, "projects/site.md", "- [ ] b")
	writeFile(t, root, "projects/readme.txt", "ignored")
	writeFile(t, root, ".obsidian/workspace.md", "hidden")
	writeFile(t, root, ".taskquest/task_storage.json", "{}")
	writeFile(t, root, "inbox.MD", "- [ ] c")

	v, err := New(root)
	require.NoError(t, err)

	all, err := v.Notes(nil, ".taskquest")
	require.NoError(t, err)
	assert.Equal(t, []string{"daily/2024-08-01.md", "inbox.MD", "projects/site.md"}, all)

	some, err := v.Notes([]string{"projects", "projects"}, ".taskquest")
	require.NoError(t, err)
	assert.Equal(t, []string{"projects/site.md"}, some)
}

func TestNewRejectsFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "note.md", "")
	_, err := New(filepath.Join(root, "note.md"))
	assert.Error(t, err)
}

func TestIsNote(t *testing.T) {
	assert.True(t, IsNote("daily/today.md", ".taskquest"))
	assert.False(t, IsNote(".taskquest/x.md", ".taskquest"))
	assert.False(t, IsNote(".obsidian/x.md", ".taskquest"))
	assert.False(t, IsNote("image.png", ".taskquest"))
}

func TestInFolders(t *testing.T) {
	assert.True(t, InFolders("anywhere/x.md", nil))
	assert.True(t, InFolders("daily/today.md", []string{"projects", "daily/"}))
	assert.True(t, InFolders("projects/web/site.md", []string{"projects"}))
	assert.True(t, InFolders("root.md", []string{"."}))
	assert.False(t, InFolders("projectsold/x.md", []string{"projects"}))
	assert.False(t, InFolders("inbox/x.md", []string{"projects", "daily"}))
}
