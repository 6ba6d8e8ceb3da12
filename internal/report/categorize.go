// Package report provides task record grouping and text reports.
package report

import (
	"slices"
	"strings"

	"github.com/bryan-cox/taskquest/internal/model"
)

// Filter narrows the records included in a report. Empty fields match all.
type Filter struct {
	Tag  string
	File string
}

// Matches reports whether the record passes the filter. Tags compare
// case-insensitively and the leading '#' is optional.
func (f Filter) Matches(r model.TaskRecord) bool {
	if f.File != "" && r.FilePath != f.File {
		return false
	}
	if f.Tag == "" {
		return true
	}
	want := "#" + strings.TrimPrefix(f.Tag, "#")
	return slices.ContainsFunc(r.Tags, func(tag string) bool {
		return strings.EqualFold(tag, want)
	})
}

// Grouped holds records organized by report section.
type Grouped struct {
	Completed map[string][]model.TaskRecord // note path -> completed records
	Unchecked map[string][]model.TaskRecord // note path -> records unchecked after completion
	TagPoints map[string]int                // tag -> points held by completed records
	Untagged  int                           // points held by completed records without tags
}

// GroupRecords splits records into completed and unchecked sections by note.
func GroupRecords(records []model.TaskRecord, filter Filter) Grouped {
	g := Grouped{
		Completed: make(map[string][]model.TaskRecord),
		Unchecked: make(map[string][]model.TaskRecord),
		TagPoints: make(map[string]int),
	}
	for _, r := range records {
		if !filter.Matches(r) {
			continue
		}
		if !r.Completed {
			g.Unchecked[r.FilePath] = append(g.Unchecked[r.FilePath], r)
			continue
		}
		g.Completed[r.FilePath] = append(g.Completed[r.FilePath], r)
		if len(r.Tags) == 0 {
			g.Untagged += r.Points
		}
		// A task tagged twice with the same tag counts once.
		for _, tag := range uniqueFold(r.Tags) {
			g.TagPoints[tag] += r.Points
		}
	}
	return g
}

func uniqueFold(tags []string) []string {
	var out []string
	for _, tag := range tags {
		tag = strings.ToLower(tag)
		if !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}
