package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bryan-cox/taskquest/internal/model"
)

// Section headers for text output.
const (
	TextHeaderCompleted = "\nCompleted tasks"
	TextHeaderUnchecked = "\nUnchecked after completion"
	TextHeaderTags      = "\nPoints by tag"
)

// Print writes the full report for g.
func Print(out io.Writer, g Grouped) {
	if len(g.Completed) == 0 && len(g.Unchecked) == 0 {
		fmt.Fprintln(out, "No processed tasks yet.")
		return
	}
	PrintCompletedTasks(out, g.Completed)
	PrintUncheckedTasks(out, g.Unchecked)
	PrintTagPoints(out, g.TagPoints, g.Untagged)
}

// PrintCompletedTasks prints completed records grouped by note.
func PrintCompletedTasks(out io.Writer, tasks map[string][]model.TaskRecord) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintln(out, TextHeaderCompleted)
	printByNote(out, tasks, func(r model.TaskRecord) string {
		return fmt.Sprintf("%s (+%d, %s)", displayText(r), r.Points, r.LastUpdated.Format(time.DateOnly))
	})
}

// PrintUncheckedTasks prints records that were completed and later unchecked.
func PrintUncheckedTasks(out io.Writer, tasks map[string][]model.TaskRecord) {
	if len(tasks) == 0 {
		return
	}
	fmt.Fprintln(out, TextHeaderUnchecked)
	printByNote(out, tasks, func(r model.TaskRecord) string {
		return fmt.Sprintf("%s (was %d)", displayText(r), r.Points)
	})
}

// PrintTagPoints prints points per tag, largest first.
func PrintTagPoints(out io.Writer, tagPoints map[string]int, untagged int) {
	if len(tagPoints) == 0 && untagged == 0 {
		return
	}
	fmt.Fprintln(out, TextHeaderTags)

	tags := make([]string, 0, len(tagPoints))
	for tag := range tagPoints {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tagPoints[tags[i]] != tagPoints[tags[j]] {
			return tagPoints[tags[i]] > tagPoints[tags[j]]
		}
		return tags[i] < tags[j]
	})
	for _, tag := range tags {
		fmt.Fprintf(out, "    • %s: %d\n", tag, tagPoints[tag])
	}
	if untagged > 0 {
		fmt.Fprintf(out, "    • (untagged): %d\n", untagged)
	}
}

func printByNote(out io.Writer, tasks map[string][]model.TaskRecord, line func(model.TaskRecord) string) {
	var notes []string
	for note := range tasks {
		notes = append(notes, note)
	}
	sort.Strings(notes)

	for _, note := range notes {
		taskList := tasks[note]

		// Oldest first
		sort.SliceStable(taskList, func(i, j int) bool {
			return taskList[i].LastUpdated.Before(taskList[j].LastUpdated)
		})

		fmt.Fprintf(out, "    • %s\n", note)
		for _, r := range taskList {
			fmt.Fprintf(out, "        ◦ %s\n", line(r))
		}
	}
}

func displayText(r model.TaskRecord) string {
	if r.TaskText == "" {
		return "(empty task)"
	}
	return r.TaskText
}
