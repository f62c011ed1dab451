package rules

import (
	"time"

	"github.com/brensch/snekarcade/game"
)

// EvaluateProgress decides whether a round that survived its last step is
// over. It runs once per step, after movement has been resolved.
func EvaluateProgress(cfg game.RoundConfig, score int, elapsed time.Duration) EndReason {
	switch cfg.Mode {
	case game.ModePoints:
		if score >= game.PointsWinThreshold {
			return ReasonPointsReached
		}
	case game.ModeTime:
		if elapsed >= roundLength(cfg) {
			return ReasonTimeExpired
		}
	}
	return ReasonNone
}

// Remaining is the time left in a TIME round, clamped at zero. POINTS rounds
// have no limit and always report zero.
func Remaining(cfg game.RoundConfig, elapsed time.Duration) time.Duration {
	if cfg.Mode != game.ModeTime {
		return 0
	}
	left := roundLength(cfg) - elapsed
	if left < 0 {
		return 0
	}
	return left
}

func roundLength(cfg game.RoundConfig) time.Duration {
	if cfg.GameTime > 0 {
		return cfg.GameTime
	}
	return game.GameTime
}
