package dice_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

type fixedSrc struct {
	val int
	f   float64
}

func (f fixedSrc) Intn(n int) int { return f.val % n }
func (f fixedSrc) Float64() float64 { return f.f }

func TestRollResult_Total_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ds := rapid.SliceOf(rapid.IntRange(1, 20)).Draw(rt, "dice")
		modifier := rapid.IntRange(-100, 100).Draw(rt, "modifier")
		expected := modifier
		for _, d := range ds {
			expected += d
		}
		r := dice.RollResult{Expression: "Nd6+M", Dice: ds, Modifier: modifier}
		assert.Equal(rt, expected, r.Total())
	})
}

func TestRollResult_String(t *testing.T) {
	r := dice.RollResult{Expression: "2d6+3", Dice: []int{4, 5}, Modifier: 3}
	assert.Equal(t, "2d6+3 = [4 5] +3 = 12", r.String())
	assert.Panics(t, func() { _ = dice.RollResult{}.String() })
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want dice.Expression
	}{
		{"d20", dice.Expression{Raw: "d20", Count: 1, Sides: 20}},
		{"2d6", dice.Expression{Raw: "2d6", Count: 2, Sides: 6}},
		{"2d6+3", dice.Expression{Raw: "2d6+3", Count: 2, Sides: 6, Modifier: 3}},
		{"4d8-2", dice.Expression{Raw: "4d8-2", Count: 4, Sides: 8, Modifier: -2}},
		{"4d6kh3+1", dice.Expression{Raw: "4d6kh3+1", Count: 4, Sides: 6, KeepHighest: 3, Modifier: 1}},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := dice.Parse(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []string{"", "d", "2x6", "0d6", "2d1", "3d6kh3", "d6+"} {
		_, err := dice.Parse(in)
		assert.Error(t, err, "expected error for %q", in)
	}
}

func TestRoll_WithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 8).Draw(rt, "count")
		sides := rapid.IntRange(2, 20).Draw(rt, "sides")
		seed := rapid.Int64().Draw(rt, "seed")
		expr := dice.MustParse(fmt.Sprintf("%dd%d", count, sides))
		res := dice.Roll(expr, dice.NewSeededSource(seed))
		require.Len(rt, res.Dice, count)
		for _, d := range res.Dice {
			assert.GreaterOrEqual(rt, d, 1)
			assert.LessOrEqual(rt, d, sides)
		}
	})
}

func TestRoll_KeepHighest(t *testing.T) {
	res := dice.Roll(dice.MustParse("4d6kh3"), fixedSrc{val: 2})
	assert.Len(t, res.Dice, 3)
	assert.Equal(t, 9, res.Total())
}

func TestSeededSource_Deterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Int64().Draw(rt, "seed")
		a, b := dice.NewSeededSource(seed), dice.NewSeededSource(seed)
		for i := 0; i < 50; i++ {
			assert.Equal(rt, a.Intn(1000), b.Intn(1000))
			assert.Equal(rt, a.Float64(), b.Float64())
		}
	})
}

func TestSeededSource_ZeroSeedMatchesOne(t *testing.T) {
	a, b := dice.NewSeededSource(0), dice.NewSeededSource(1)
	assert.Equal(t, a.Intn(1<<30), b.Intn(1<<30))
}

func TestCryptoSource_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
		f := src.Float64()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
	assert.Panics(t, func() { src.Intn(0) })
}

func TestNewSeed_NonZero(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.NotZero(t, dice.NewSeed())
	}
}

func TestRoller_ChanceLogsAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := dice.NewLoggedRoller(fixedSrc{f: 0.30}, zap.New(core))

	assert.True(t, r.Chance("grenade", 35))
	assert.False(t, r.Chance("reposition", 30))

	entries := logs.FilterMessage("chance roll").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "grenade", entries[0].ContextMap()["label"])
}

func TestRoller_Range(t *testing.T) {
	r := dice.NewLoggedRoller(fixedSrc{f: 0.5}, nil)
	assert.InDelta(t, 150.0, r.Range(100, 200), 1e-9)
	assert.Equal(t, 10.0, r.Range(10, 10))
}

func TestRoller_RollExpr(t *testing.T) {
	r := dice.NewLoggedRoller(fixedSrc{val: 3}, zap.NewNop())
	res, err := r.RollExpr("2d6+1")
	require.NoError(t, err)
	assert.Equal(t, 9, res.Total())
	_, err = r.RollExpr("bogus")
	assert.Error(t, err)
}
