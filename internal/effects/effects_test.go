package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-cox/taskquest/internal/model"
	"github.com/bryan-cox/taskquest/internal/player"
)

func TestApply(t *testing.T) {
	p := player.New()
	require.NoError(t, Apply(p, Effect{Kind: KindPointsBoost, Amount: 10}))
	require.NoError(t, Apply(p, Effect{Kind: KindXPBoost, Amount: 25}))
	require.NoError(t, Apply(p, Effect{Kind: KindUnlockTitle, Title: "Closer"}))

	totals := p.Snapshot()
	assert.Equal(t, 10, totals.Points)
	assert.Equal(t, 25, totals.XP)
	assert.Equal(t, []string{"Closer"}, totals.Titles)
}

func TestApplyRejectsUnknownKinds(t *testing.T) {
	p := player.New()
	err := Apply(p, Effect{Kind: "run_script", Title: "alert(1)"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown effect kind")
	assert.Zero(t, p.Snapshot().Points)
}

func TestEffectValidate(t *testing.T) {
	assert.Error(t, Effect{Kind: KindXPBoost}.Validate())
	assert.Error(t, Effect{Kind: KindUnlockTitle}.Validate())
	assert.NoError(t, Effect{Kind: KindPointsBoost, Amount: 1}.Validate())
}

func TestEvaluateFiresOnce(t *testing.T) {
	achievements := []Achievement{
		{
			ID: "first", Name: "First task", Counter: model.CounterTasksCompleted, Threshold: 1,
			Effects: []Effect{{Kind: KindPointsBoost, Amount: 5}, {Kind: KindUnlockTitle, Title: "Starter"}},
		},
		{
			ID: "ten", Counter: model.CounterTasksCompleted, Threshold: 10,
			Effects: []Effect{{Kind: KindXPBoost, Amount: 100}},
		},
	}
	p := player.New()

	unlocked, err := Evaluate(p, achievements)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	p.IncrementCounter(model.CounterTasksCompleted, 1)
	unlocked, err = Evaluate(p, achievements)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "first", unlocked[0].ID)

	unlocked, err = Evaluate(p, achievements)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	totals := p.Snapshot()
	assert.Equal(t, 5, totals.Points)
	assert.Equal(t, []string{"Starter"}, totals.Titles)
	assert.Equal(t, []string{"first"}, totals.Achievements)
}

func TestAchievementValidate(t *testing.T) {
	good := Achievement{ID: "a", Counter: model.CounterTasksUnchecked, Threshold: 3}
	assert.NoError(t, good.Validate())

	assert.Error(t, Achievement{Counter: model.CounterTasksUnchecked, Threshold: 1}.Validate())
	assert.Error(t, Achievement{ID: "a", Counter: "coins", Threshold: 1}.Validate())
	assert.Error(t, Achievement{ID: "a", Counter: model.CounterTasksUnchecked}.Validate())
	assert.Error(t, Achievement{
		ID: "a", Counter: model.CounterTasksUnchecked, Threshold: 1,
		Effects: []Effect{{Kind: "eval"}},
	}.Validate())
}
