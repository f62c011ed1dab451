package game

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// GameTime is the length of a TIME round.
	GameTime = 180 * time.Second
	// FoodReward is added to the score for every food eaten.
	FoodReward = 10
	// PointsWinThreshold ends a POINTS round. It is far beyond any score a
	// round reaches in practice, so POINTS rounds end by collision or abort.
	PointsWinThreshold = 1_000_000
	// MaxPlayerNameLen bounds the player name in runes.
	MaxPlayerNameLen = 24
	// DefaultInputCooldown is the minimum gap between two accepted steering
	// inputs.
	DefaultInputCooldown = 20 * time.Millisecond
)

var (
	ErrEmptyPlayerName    = errors.New("player name is empty")
	ErrPlayerNameTooLong  = fmt.Errorf("player name is longer than %d characters", MaxPlayerNameLen)
	ErrUnknownDifficulty  = errors.New("unknown difficulty")
	ErrUnknownGameMode    = errors.New("unknown game mode")
	ErrUnknownBarrierMode = errors.New("unknown barrier mode")
	ErrGridTooSmall       = fmt.Errorf("grid size must be at least %d", MinGridSize)
)

// Difficulty selects the tick interval. The interval itself lives in a lookup
// table so the enum carries no payload.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
)

var difficultyNames = [...]string{"EASY", "MEDIUM", "HARD"}

var tickIntervals = [...]time.Duration{
	DifficultyEasy:   150 * time.Millisecond,
	DifficultyMedium: 100 * time.Millisecond,
	DifficultyHard:   50 * time.Millisecond,
}

func (d Difficulty) Valid() bool { return d >= DifficultyEasy && d <= DifficultyHard }

// TickInterval returns the time between two simulation steps.
func (d Difficulty) TickInterval() time.Duration {
	if !d.Valid() {
		return tickIntervals[DifficultyEasy]
	}
	return tickIntervals[d]
}

// Next cycles EASY -> MEDIUM -> HARD -> EASY.
func (d Difficulty) Next() Difficulty {
	return (d + 1) % Difficulty(len(difficultyNames))
}

func (d Difficulty) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
	return difficultyNames[d]
}

func ParseDifficulty(s string) (Difficulty, error) {
	for i, n := range difficultyNames {
		if strings.EqualFold(s, n) {
			return Difficulty(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

func (d Difficulty) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDifficulty, int(d))
	}
	return []byte(d.String()), nil
}

func (d *Difficulty) UnmarshalText(b []byte) error {
	v, err := ParseDifficulty(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// GameMode decides how a round is won.
type GameMode int

const (
	ModePoints GameMode = iota
	ModeTime
)

var gameModeNames = [...]string{"POINTS", "TIME"}

func (m GameMode) Valid() bool { return m == ModePoints || m == ModeTime }

func (m GameMode) Next() GameMode {
	return (m + 1) % GameMode(len(gameModeNames))
}

func (m GameMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("GameMode(%d)", int(m))
	}
	return gameModeNames[m]
}

func ParseGameMode(s string) (GameMode, error) {
	for i, n := range gameModeNames {
		if strings.EqualFold(s, n) {
			return GameMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGameMode, s)
}

func (m GameMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGameMode, int(m))
	}
	return []byte(m.String()), nil
}

func (m *GameMode) UnmarshalText(b []byte) error {
	v, err := ParseGameMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// BarrierMode selects the blocked-cell layout and the edge rules.
type BarrierMode int

const (
	BarrierNone BarrierMode = iota
	BarrierBorder
	BarrierRandom
)

var barrierModeNames = [...]string{"NONE", "BORDER", "RANDOM"}

func (b BarrierMode) Valid() bool { return b >= BarrierNone && b <= BarrierRandom }

func (b BarrierMode) Next() BarrierMode {
	return (b + 1) % BarrierMode(len(barrierModeNames))
}

func (b BarrierMode) String() string {
	if !b.Valid() {
		return fmt.Sprintf("BarrierMode(%d)", int(b))
	}
	return barrierModeNames[b]
}

func ParseBarrierMode(s string) (BarrierMode, error) {
	for i, n := range barrierModeNames {
		if strings.EqualFold(s, n) {
			return BarrierMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBarrierMode, s)
}

func (b BarrierMode) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBarrierMode, int(b))
	}
	return []byte(b.String()), nil
}

func (b *BarrierMode) UnmarshalText(text []byte) error {
	v, err := ParseBarrierMode(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// RoundConfig is fixed for the lifetime of a round.
type RoundConfig struct {
	Difficulty  Difficulty
	Mode        GameMode
	Barrier     BarrierMode
	ColorChange bool
	PlayerName  string

	// GridSize defaults to DefaultGridSize when zero.
	GridSize int32
	// InputCooldown defaults to DefaultInputCooldown when zero. A negative
	// value disables the cooldown.
	InputCooldown time.Duration
	// GameTime defaults to the package GameTime when zero.
	GameTime time.Duration
}

// WithDefaults fills zero-valued optional fields and trims the player name.
func (c RoundConfig) WithDefaults() RoundConfig {
	c.PlayerName = strings.TrimSpace(c.PlayerName)
	if c.GridSize == 0 {
		c.GridSize = DefaultGridSize
	}
	if c.InputCooldown == 0 {
		c.InputCooldown = DefaultInputCooldown
	}
	if c.InputCooldown < 0 {
		c.InputCooldown = 0
	}
	if c.GameTime == 0 {
		c.GameTime = GameTime
	}
	return c
}

// Validate rejects configurations a round cannot start with.
func (c RoundConfig) Validate() error {
	name := strings.TrimSpace(c.PlayerName)
	if name == "" {
		return ErrEmptyPlayerName
	}
	if utf8.RuneCountInString(name) > MaxPlayerNameLen {
		return ErrPlayerNameTooLong
	}
	if !c.Difficulty.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownDifficulty, int(c.Difficulty))
	}
	if !c.Mode.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownGameMode, int(c.Mode))
	}
	if !c.Barrier.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownBarrierMode, int(c.Barrier))
	}
	if c.GridSize != 0 && c.GridSize < MinGridSize {
		return ErrGridTooSmall
	}
	return nil
}

func (c RoundConfig) Grid() Grid {
	if c.GridSize == 0 {
		return Grid{Size: DefaultGridSize}
	}
	return Grid{Size: c.GridSize}
}

// RoundResult is the durable record of a completed round.
type RoundResult struct {
	PlayerName string     `json:"player_name"`
	Score      int        `json:"score"`
	Mode       GameMode   `json:"mode"`
	Difficulty Difficulty `json:"difficulty"`
	// Duration is the round length in seconds.
	Duration float64 `json:"duration"`
}
