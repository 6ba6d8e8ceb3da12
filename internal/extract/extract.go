// Package extract pulls checkbox tasks and hashtags out of markdown text.
package extract

import (
	"iter"
	"regexp"
	"strings"

	"github.com/bryan-cox/taskquest/internal/model"
)

var (
	taskRegex = regexp.MustCompile(`^\s*- \[([ xX])\](.*)$`)
	tagRegex  = regexp.MustCompile(`#[\w-]+`)
)

// Tasks returns the checkbox tasks in content, in document order.
// The sequence can be ranged over any number of times.
func Tasks(content string) iter.Seq[model.Task] {
	return func(yield func(model.Task) bool) {
		for line := range strings.Lines(content) {
			line = strings.TrimRight(line, "\r\n")
			matches := taskRegex.FindStringSubmatch(line)
			if matches == nil {
				continue
			}
			task := model.Task{
				Text:      strings.TrimSpace(matches[2]),
				Completed: strings.EqualFold(matches[1], "x"),
			}
			if !yield(task) {
				return
			}
		}
	}
}

// Tags extracts hashtags from task text in order of appearance.
func Tags(text string) []string {
	return tagRegex.FindAllString(text, -1)
}
