// Package effects applies achievement rewards to a player.
//
// Rewards are a closed set of effect kinds interpreted by Apply. Nothing in
// this package evaluates code loaded from configuration.
package effects

import (
	"fmt"
	"slices"

	"github.com/bryan-cox/taskquest/internal/model"
)

// Kind is an effect type.
type Kind string

const (
	KindXPBoost     Kind = "xp_boost"
	KindPointsBoost Kind = "points_boost"
	KindUnlockTitle Kind = "unlock_title"
)

// Effect is a single reward.
type Effect struct {
	Kind   Kind   `yaml:"kind"`
	Amount int    `yaml:"amount,omitempty"`
	Title  string `yaml:"title,omitempty"`
}

// Validate reports whether the effect is well formed.
func (e Effect) Validate() error {
	switch e.Kind {
	case KindXPBoost, KindPointsBoost:
		if e.Amount <= 0 {
			return fmt.Errorf("effect %s needs a positive amount, got %d", e.Kind, e.Amount)
		}
	case KindUnlockTitle:
		if e.Title == "" {
			return fmt.Errorf("effect %s needs a title", e.Kind)
		}
	default:
		return fmt.Errorf("unknown effect kind %q", e.Kind)
	}
	return nil
}

// Player is the set of mutations effects may perform.
type Player interface {
	AddPoints(n int)
	AddXP(n int)
	UnlockTitle(title string) bool
	Counter(name string) int
	MarkAchievement(id string) bool
}

// Apply performs one effect on p.
func Apply(p Player, e Effect) error {
	if err := e.Validate(); err != nil {
		return err
	}
	switch e.Kind {
	case KindXPBoost:
		p.AddXP(e.Amount)
	case KindPointsBoost:
		p.AddPoints(e.Amount)
	case KindUnlockTitle:
		p.UnlockTitle(e.Title)
	}
	return nil
}

// Achievement fires its effects once, the first time Counter reaches
// Threshold.
type Achievement struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Counter   string   `yaml:"counter"`
	Threshold int      `yaml:"threshold"`
	Effects   []Effect `yaml:"effects"`
}

// DisplayName returns Name, or ID when no name is set.
func (a Achievement) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// Validate reports whether the achievement is well formed.
func (a Achievement) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("achievement needs an id")
	}
	if !slices.Contains(model.KnownCounters, a.Counter) {
		return fmt.Errorf("achievement %s: unknown counter %q", a.ID, a.Counter)
	}
	if a.Threshold <= 0 {
		return fmt.Errorf("achievement %s: threshold must be positive", a.ID)
	}
	for _, e := range a.Effects {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("achievement %s: %w", a.ID, err)
		}
	}
	return nil
}

// Evaluate unlocks every achievement whose threshold has been reached and
// applies its effects. It returns the achievements unlocked by this call.
func Evaluate(p Player, achievements []Achievement) ([]Achievement, error) {
	var unlocked []Achievement
	for _, a := range achievements {
		if p.Counter(a.Counter) < a.Threshold {
			continue
		}
		if !p.MarkAchievement(a.ID) {
			continue
		}
		for _, e := range a.Effects {
			if err := Apply(p, e); err != nil {
				return unlocked, fmt.Errorf("achievement %s: %w", a.ID, err)
			}
		}
		unlocked = append(unlocked, a)
	}
	return unlocked, nil
}
