package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
)

func blinded() *condition.ConditionDef {
	return &condition.ConditionDef{ID: "blinded", Name: "Blinded", AimPenalty: 30}
}

func poisoned() *condition.ConditionDef {
	return &condition.ConditionDef{ID: "poisoned", Name: "Poisoned", MaxStacks: 3, DamagePerPulse: 3}
}

func TestActiveSet_Apply_Unstackable(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(blinded(), 3, 10))
	assert.True(t, s.Has("blinded"))
	assert.Equal(t, 1, s.Stacks("blinded"))
}

func TestActiveSet_Apply_StacksCapped(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(poisoned(), 2, 10))
	require.NoError(t, s.Apply(poisoned(), 2, 5))
	assert.Equal(t, 3, s.Stacks("poisoned"))
}

func TestActiveSet_Apply_ExtendsDuration(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(blinded(), 1, 2))
	require.NoError(t, s.Apply(blinded(), 1, 5))
	for i := 0; i < 4; i++ {
		assert.Empty(t, s.Tick())
	}
	assert.Equal(t, []string{"blinded"}, s.Tick())
}

func TestActiveSet_Apply_RejectsBadInput(t *testing.T) {
	s := condition.NewActiveSet()
	assert.Error(t, s.Apply(nil, 1, 1))
	assert.Error(t, s.Apply(blinded(), 1, 0))
	assert.Error(t, s.Apply(blinded(), 1, -2))
}

func TestActiveSet_Tick_PermanentSurvives(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(blinded(), 1, -1))
	for i := 0; i < 100; i++ {
		assert.Empty(t, s.Tick())
	}
	assert.True(t, s.Has("blinded"))
}

func TestActiveSet_Tick_ExpiredSorted(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(poisoned(), 1, 1))
	require.NoError(t, s.Apply(blinded(), 1, 1))
	assert.Equal(t, []string{"blinded", "poisoned"}, s.Tick())
	assert.Equal(t, 0, s.Len())
}

func TestActiveSet_Clone_Independent(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(poisoned(), 1, 3))
	cp := s.Clone()
	require.NoError(t, s.Apply(poisoned(), 1, 3))
	s.Remove("poisoned")
	assert.True(t, cp.Has("poisoned"))
	assert.Equal(t, 1, cp.Stacks("poisoned"))
}

func TestActiveSet_Tick_ExpiresAfterDuration_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := rapid.IntRange(1, 50).Draw(rt, "duration")
		s := condition.NewActiveSet()
		require.NoError(rt, s.Apply(blinded(), 1, d))
		for i := 1; i < d; i++ {
			s.Tick()
			assert.True(rt, s.Has("blinded"))
		}
		s.Tick()
		assert.False(rt, s.Has("blinded"))
	})
}

func TestModifiers(t *testing.T) {
	reg := condition.Builtin()
	s := condition.NewActiveSet()
	for _, id := range []string{condition.Blinded, condition.Inspired, condition.Slowed, condition.Poisoned, condition.Stunned} {
		def, ok := reg.Get(id)
		require.True(t, ok, id)
		require.NoError(t, s.Apply(def, 1, 5))
	}
	assert.Equal(t, -15, condition.AimModifier(s))
	assert.Equal(t, 20, condition.SpeedPenalty(s))
	assert.Equal(t, 10, condition.DodgePenalty(s))
	assert.Equal(t, 3, condition.PulseDamage(s))
	assert.Equal(t, 0, condition.PulseHeal(s))
	assert.True(t, condition.SkipsTurn(s))
}
