package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bryan-cox/taskquest/internal/model"
	"github.com/bryan-cox/taskquest/internal/player"
)

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 2)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(18)
	valueStyle = lipgloss.NewStyle().Bold(true)
)

type statLine struct {
	label string
	value string
}

func statLines(t player.Totals) []statLine {
	lines := []statLine{
		{"Level", fmt.Sprint(player.LevelForXP(t.XP))},
		{"Points", fmt.Sprint(t.Points)},
		{"XP", fmt.Sprint(t.XP)},
		{"Tasks completed", fmt.Sprint(t.Stats[model.CounterTasksCompleted])},
		{"Points earned", fmt.Sprint(t.Stats[model.CounterTotalPointsEarned])},
		{"Tasks unchecked", fmt.Sprint(t.Stats[model.CounterTasksUnchecked])},
		{"Points deducted", fmt.Sprint(t.Stats[model.CounterTotalPointsDeducted])},
	}
	if len(t.Titles) > 0 {
		lines = append(lines, statLine{"Titles", strings.Join(t.Titles, ", ")})
	}
	if len(t.Achievements) > 0 {
		lines = append(lines, statLine{"Achievements", strings.Join(t.Achievements, ", ")})
	}
	return lines
}

// Summary renders player totals as plain text, one stat per line.
func Summary(t player.Totals) string {
	var sb strings.Builder
	for _, l := range statLines(t) {
		fmt.Fprintf(&sb, "%s: %s\n", l.label, l.value)
	}
	return sb.String()
}

// Card renders player totals as a bordered terminal card.
func Card(t player.Totals) string {
	rows := []string{titleStyle.Render("TaskQuest"), ""}
	for _, l := range statLines(t) {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(l.label), valueStyle.Render(l.value)))
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
