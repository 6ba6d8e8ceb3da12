// Package player holds the player's point, XP and counter totals.
//
// All mutation goes through the methods on State so the set of places that
// change a player's totals stays small.
package player

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"path"
	"slices"
	"sync"
)

// FileName is the player file inside the storage folder.
const FileName = "player.json"

// Files is the subset of vault file access the player state needs.
type Files interface {
	Exists(path string) bool
	Read(path string) (string, error)
	Write(path, content string) error
	CreateFolder(path string) error
}

// Totals is a point-in-time copy of the player's state.
type Totals struct {
	Points       int            `json:"points"`
	XP           int            `json:"xp"`
	Stats        map[string]int `json:"stats"`
	Achievements []string       `json:"unlockedAchievements"`
	Titles       []string       `json:"titles"`
}

// State is the mutable player. A State without files is kept in memory only.
type State struct {
	mu     sync.Mutex
	files  Files
	folder string
	totals Totals
}

// New returns an empty in-memory player.
func New() *State {
	return &State{totals: Totals{Stats: map[string]int{}}}
}

// Open returns a player persisted in folder, loading any saved totals.
func Open(files Files, folder string) *State {
	s := &State{files: files, folder: folder}
	s.Load()
	return s
}

func (s *State) path() string {
	return path.Join(s.folder, FileName)
}

// Load replaces the in-memory totals with the saved ones. A missing or
// unparsable file yields an empty player.
func (s *State) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totals = Totals{Stats: map[string]int{}}
	if s.files == nil {
		return
	}
	p := s.path()
	if !s.files.Exists(p) {
		return
	}
	content, err := s.files.Read(p)
	if err != nil {
		slog.Warn("could not read player file, starting fresh", "path", p, "error", err)
		return
	}
	var totals Totals
	if err := json.Unmarshal([]byte(content), &totals); err != nil {
		slog.Warn("could not parse player file, starting fresh", "path", p, "error", err)
		return
	}
	if totals.Stats == nil {
		totals.Stats = map[string]int{}
	}
	s.totals = totals
}

// Save writes the totals to the player file.
func (s *State) Save() error {
	s.mu.Lock()
	totals := s.snapshot()
	s.mu.Unlock()

	if s.files == nil {
		return nil
	}
	out, err := json.MarshalIndent(totals, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode player: %w", err)
	}
	if s.folder != "" && !s.files.Exists(s.folder) {
		if err := s.files.CreateFolder(s.folder); err != nil {
			return fmt.Errorf("could not save player: %w", err)
		}
	}
	if err := s.files.Write(s.path(), string(out)); err != nil {
		return fmt.Errorf("could not save player: %w", err)
	}
	return nil
}

// AddPoints credits n points.
func (s *State) AddPoints(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals.Points += n
}

// DeductPoints removes up to n points, never going below zero, and returns
// how many were actually removed.
func (s *State) DeductPoints(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n = min(n, s.totals.Points)
	if n < 0 {
		n = 0
	}
	s.totals.Points -= n
	return n
}

// AddXP credits n experience points.
func (s *State) AddXP(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals.XP += n
}

// IncrementCounter adds n to the named counter.
func (s *State) IncrementCounter(name string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals.Stats[name] += n
}

// Counter returns the value of the named counter.
func (s *State) Counter(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals.Stats[name]
}

// UnlockTitle adds a title. It reports false if the title was already held.
func (s *State) UnlockTitle(title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.totals.Titles, title) {
		return false
	}
	s.totals.Titles = append(s.totals.Titles, title)
	return true
}

// MarkAchievement records an unlocked achievement. It reports false if the
// achievement was already unlocked.
func (s *State) MarkAchievement(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.totals.Achievements, id) {
		return false
	}
	s.totals.Achievements = append(s.totals.Achievements, id)
	return true
}

// Snapshot returns a copy of the current totals.
func (s *State) Snapshot() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *State) snapshot() Totals {
	return Totals{
		Points:       s.totals.Points,
		XP:           s.totals.XP,
		Stats:        maps.Clone(s.totals.Stats),
		Achievements: slices.Clone(s.totals.Achievements),
		Titles:       slices.Clone(s.totals.Titles),
	}
}

// Level returns the player level for the current XP.
func (s *State) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LevelForXP(s.totals.XP)
}

// LevelForXP maps XP to a level. Level n starts at 50*n*(n-1) XP, so levels
// begin at 0, 100, 300, 600, ...
func LevelForXP(xp int) int {
	level := 1
	for 50*(level+1)*level <= xp {
		level++
	}
	return level
}
