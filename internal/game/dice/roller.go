package dice

import "go.uber.org/zap"

// Roller wraps a Source with debug logging and the percentage helpers the
// battle engine rolls against.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src must be non-nil. A nil logger is replaced by a no-op logger.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying Source.
func (r *Roller) Source() Source { return r.src }

// Intn returns a value in [0, n).
func (r *Roller) Intn(n int) int { return r.src.Intn(n) }

// Float64 returns a value in [0, 1).
func (r *Roller) Float64() float64 { return r.src.Float64() }

// Percent returns a roll in [0, 100).
func (r *Roller) Percent() float64 { return r.src.Float64() * 100 }

// Chance rolls a percentage and reports whether it lands below pct.
// pct <= 0 never succeeds and pct >= 100 always does; both still consume a roll
// so that stream positions do not depend on the threshold.
func (r *Roller) Chance(label string, pct float64) bool {
	roll := r.Percent()
	ok := roll < pct
	r.logger.Debug("chance roll",
		zap.String("label", label),
		zap.Float64("roll", roll),
		zap.Float64("threshold", pct),
		zap.Bool("success", ok),
	)
	return ok
}

// Range returns a uniform float in [lo, hi).
func (r *Roller) Range(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.src.Float64()*(hi-lo)
}

// Roll evaluates expr and logs the result at debug level.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses expr and rolls it, logging the result.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}
