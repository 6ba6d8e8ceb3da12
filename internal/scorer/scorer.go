// Package scorer turns a completed task into a point value.
package scorer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/bryan-cox/taskquest/internal/config"
)

// Scorer assigns points to a completed task.
type Scorer interface {
	Score(ctx context.Context, taskText string, tags []string) (int, error)
}

// ErrNoScore is returned when a reply contains no usable number.
var ErrNoScore = errors.New("no score in reply")

// MaxScore is the largest point value accepted from a scorer reply.
const MaxScore = math.MaxInt32

// Heuristic scores a task locally: the largest multiplier among the task's
// tags (1.0 when none match) times the base value, rounded.
type Heuristic struct {
	BaseValue      float64
	TagMultipliers map[string]float64
}

// NewHeuristic builds a Heuristic from scoring settings.
func NewHeuristic(cfg config.Scoring) Heuristic {
	return Heuristic{BaseValue: cfg.BaseValue, TagMultipliers: cfg.TagMultipliers}
}

// Score never fails.
func (h Heuristic) Score(_ context.Context, _ string, tags []string) (int, error) {
	return h.Points(tags), nil
}

// Points computes the heuristic value for tags.
func (h Heuristic) Points(tags []string) int {
	multiplier := 1.0
	found := false
	for _, tag := range tags {
		m, ok := h.multiplier(tag)
		if !ok {
			continue
		}
		if !found || m > multiplier {
			multiplier = m
			found = true
		}
	}
	return int(math.Round(multiplier * h.BaseValue))
}

func (h Heuristic) multiplier(tag string) (float64, bool) {
	if m, ok := h.TagMultipliers[tag]; ok {
		return m, true
	}
	// Keys differing only in case resolve to the largest multiplier.
	best, found := 0.0, false
	for k, m := range h.TagMultipliers {
		if strings.EqualFold(k, tag) && (!found || m > best) {
			best, found = m, true
		}
	}
	return best, found
}

// New returns the scorer selected by cfg.Provider.
func New(ctx context.Context, cfg config.Scoring) (Scorer, error) {
	switch cfg.Provider {
	case config.ProviderHeuristic, "":
		return NewHeuristic(cfg), nil
	case config.ProviderHTTP:
		return NewHTTP(cfg.Endpoint, cfg.Model, cfg.APIKey(), cfg.BaseValue), nil
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.APIKey(), cfg.Model, cfg.BaseValue)
	default:
		return nil, fmt.Errorf("unknown scoring provider %q", cfg.Provider)
	}
}

// Prompt builds the instruction sent to language-model scorers.
func Prompt(taskText string, tags []string, baseValue float64) string {
	tagList := "none"
	if len(tags) > 0 {
		tagList = strings.Join(tags, ", ")
	}
	return fmt.Sprintf(`You assign reward points to completed to-do items.
A typical task is worth %s points. Longer, harder or more important tasks are worth more; trivial ones are worth less.
Reply with a single whole number and nothing else.

Task: %s
Tags: %s`, strconv.FormatFloat(baseValue, 'f', -1, 64), taskText, tagList)
}

var numberRegex = regexp.MustCompile(`-?\d+(\.\d+)?`)

// ParseScore extracts the first number in a model reply.
func ParseScore(reply string) (int, error) {
	match := numberRegex.FindString(reply)
	if match == "" {
		return 0, fmt.Errorf("%w: %q", ErrNoScore, truncate(reply, 80))
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoScore, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("%w: negative score %s", ErrNoScore, match)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) || f > MaxScore {
		return 0, fmt.Errorf("%w: score %s exceeds %d", ErrNoScore, truncate(match, 20), MaxScore)
	}
	return int(math.Round(f)), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
