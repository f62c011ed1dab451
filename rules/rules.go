package rules

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brensch/snekarcade/game"
)

// Status is the coarse round state.
type Status int

const (
	StatusRunning Status = iota
	StatusEnded
)

func (s Status) String() string {
	if s == StatusEnded {
		return "ended"
	}
	return "running"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// EndReason explains why a round ended.
type EndReason int

const (
	ReasonNone EndReason = iota
	ReasonCollision
	ReasonAborted
	ReasonPointsReached
	ReasonTimeExpired
)

func (r EndReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonCollision:
		return "collision"
	case ReasonAborted:
		return "aborted"
	case ReasonPointsReached:
		return "points_reached"
	case ReasonTimeExpired:
		return "time_expired"
	}
	return fmt.Sprintf("EndReason(%d)", int(r))
}

func (r EndReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Event is what a single Tick call did.
type Event int

const (
	// EventNoMove means the tick interval has not elapsed yet.
	EventNoMove Event = iota
	EventMoved
	EventFoodEaten
	EventEnded
)

func (e Event) String() string {
	switch e {
	case EventNoMove:
		return "no_move"
	case EventMoved:
		return "moved"
	case EventFoodEaten:
		return "food_eaten"
	case EventEnded:
		return "ended"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// TickResult reports the outcome of Tick.
type TickResult struct {
	Event  Event
	Reason EndReason
	// InputRejected is set when the intent passed to Tick was refused
	// (reverse of the current direction, invalid, or inside the cooldown).
	InputRejected bool
	// Eaten is the food cell consumed this tick, valid for EventFoodEaten and
	// for an EventEnded that followed a meal on the same step.
	Eaten game.Point
	Ate   bool
}

// Round is the movement and collision engine for one play session. It is not
// safe for concurrent use; a single control loop owns it.
type Round struct {
	cfg      game.RoundConfig
	grid     game.Grid
	interval time.Duration
	rng      *rand.Rand

	snake      *game.Snake
	snakeColor game.Color
	barriers   Barriers
	food       game.Point
	foodColor  game.Color

	direction game.Direction
	pending   game.Direction
	lastSteer time.Time
	lastMove  time.Time

	start   time.Time
	endedAt time.Time
	score   int
	steps   int
	status  Status
	reason  EndReason
}

// NewRound validates cfg and sets up a fresh round started at now. If rng is
// nil a time-seeded source is used.
func NewRound(cfg game.RoundConfig, now time.Time, rng *rand.Rand) (*Round, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid round config: %w", err)
	}
	cfg = cfg.WithDefaults()
	if rng == nil {
		rng = rand.New(rand.NewSource(now.UnixNano()))
	}

	grid := cfg.Grid()
	r := &Round{
		cfg:        cfg,
		grid:       grid,
		interval:   cfg.Difficulty.TickInterval(),
		rng:        rng,
		snake:      game.NewSnake(grid.Center()),
		snakeColor: game.SnakeGreen,
		direction:  game.DirRight,
		lastMove:   now,
		start:      now,
		status:     StatusRunning,
	}
	r.barriers = GenerateBarriers(cfg.Barrier, grid, rng)
	r.food = SpawnFood(grid, r.snake, r.barriers, rng)
	r.foodColor = RandomColor(rng)
	return r, nil
}

func (r *Round) Config() game.RoundConfig    { return r.cfg }
func (r *Round) Grid() game.Grid             { return r.grid }
func (r *Round) Score() int                  { return r.score }
func (r *Round) Status() Status              { return r.status }
func (r *Round) Reason() EndReason           { return r.reason }
func (r *Round) Ended() bool                 { return r.status == StatusEnded }
func (r *Round) Food() game.Point            { return r.food }
func (r *Round) Barriers() Barriers          { return r.barriers }
func (r *Round) Direction() game.Direction   { return r.direction }
func (r *Round) Snake() *game.Snake          { return r.snake.Clone() }
func (r *Round) StartedAt() time.Time        { return r.start }
func (r *Round) TickInterval() time.Duration { return r.interval }

// NextDirection is the direction the next step will take.
func (r *Round) NextDirection() game.Direction {
	if !r.pending.IsNone() && !r.pending.IsReverseOf(r.direction) {
		return r.pending
	}
	return r.direction
}

// Steer buffers d as the pending direction. It is refused when d is not a
// unit direction, is the exact reverse of the current (not pending)
// direction, or arrives within the input cooldown of the last accepted input.
func (r *Round) Steer(d game.Direction, now time.Time) bool {
	if r.status != StatusRunning || !d.Valid() {
		return false
	}
	if d.IsReverseOf(r.direction) {
		return false
	}
	if !r.lastSteer.IsZero() && now.Sub(r.lastSteer) < r.cfg.InputCooldown {
		return false
	}
	r.pending = d
	r.lastSteer = now
	return true
}

// Tick advances the round by at most one grid step. intent may be
// game.DirNone. The step only happens once the tick interval has elapsed
// since the previous step.
func (r *Round) Tick(now time.Time, intent game.Direction) TickResult {
	if r.status == StatusEnded {
		return TickResult{Event: EventEnded, Reason: r.reason}
	}

	var res TickResult
	if !intent.IsNone() && !r.Steer(intent, now) {
		res.InputRejected = true
	}

	if now.Sub(r.lastMove) < r.interval {
		res.Event = EventNoMove
		return res
	}

	if !r.pending.IsNone() {
		if !r.pending.IsReverseOf(r.direction) {
			r.direction = r.pending
		}
		r.pending = game.DirNone
	}

	return r.step(now, res)
}

func (r *Round) step(now time.Time, res TickResult) TickResult {
	next, collided := r.resolve(r.snake.Head().Add(r.direction))
	if collided {
		r.end(now, ReasonCollision)
		res.Event = EventEnded
		res.Reason = ReasonCollision
		return res
	}

	r.snake.PushHead(next)
	res.Event = EventMoved
	if next == r.food {
		r.score += game.FoodReward
		if r.cfg.ColorChange {
			r.snakeColor = r.foodColor
		}
		res.Event = EventFoodEaten
		res.Eaten = next
		res.Ate = true
		r.food = SpawnFood(r.grid, r.snake, r.barriers, r.rng)
		r.foodColor = RandomColor(r.rng)
	} else {
		r.snake.PopTail()
	}
	r.lastMove = now
	r.steps++

	if reason := EvaluateProgress(r.cfg, r.score, now.Sub(r.start)); reason != ReasonNone {
		r.end(now, reason)
		res.Event = EventEnded
		res.Reason = reason
	}
	return res
}

// resolve applies the barrier-mode rules to a raw next head and returns the
// cell the head lands on and whether the step is fatal.
func (r *Round) resolve(head game.Point) (game.Point, bool) {
	switch r.cfg.Barrier {
	case game.BarrierNone:
		head = r.grid.Wrap(head)
		return head, r.snake.BodyContains(head)
	case game.BarrierRandom:
		// Barriers are absolute cells: test before wrapping.
		if r.barriers.Contains(head) {
			return head, true
		}
		head = r.grid.Wrap(head)
		return head, r.snake.BodyContains(head)
	default:
		if !r.grid.InBounds(head) || r.barriers.Contains(head) || r.snake.BodyContains(head) {
			return head, true
		}
		return head, false
	}
}

// LegalMoves returns the directions that would not end the round if taken on
// the next step. The reverse of the current direction is never included.
func (r *Round) LegalMoves() []game.Direction {
	if r.status != StatusRunning {
		return nil
	}
	moves := make([]game.Direction, 0, 4)
	for _, d := range []game.Direction{game.DirUp, game.DirDown, game.DirLeft, game.DirRight} {
		if d.IsReverseOf(r.direction) {
			continue
		}
		if _, collided := r.resolve(r.snake.Head().Add(d)); !collided {
			moves = append(moves, d)
		}
	}
	return moves
}

// Abort ends a running round immediately. Aborted rounds are never recorded.
func (r *Round) Abort(now time.Time) {
	if r.status == StatusRunning {
		r.end(now, ReasonAborted)
	}
}

func (r *Round) end(now time.Time, reason EndReason) {
	r.status = StatusEnded
	r.reason = reason
	r.endedAt = now
}

// Elapsed is the time since the round started, frozen once it ends.
func (r *Round) Elapsed(now time.Time) time.Duration {
	if r.status == StatusEnded {
		return r.endedAt.Sub(r.start)
	}
	return now.Sub(r.start)
}

// Result returns the round's record. ok is false while the round is running.
func (r *Round) Result() (res game.RoundResult, ok bool) {
	if r.status != StatusEnded {
		return game.RoundResult{}, false
	}
	return game.RoundResult{
		PlayerName: r.cfg.PlayerName,
		Score:      r.score,
		Mode:       r.cfg.Mode,
		Difficulty: r.cfg.Difficulty,
		Duration:   r.endedAt.Sub(r.start).Seconds(),
	}, true
}

// Recordable reports whether the ended round belongs in the score ledger.
func (r *Round) Recordable() bool {
	return r.status == StatusEnded && r.reason != ReasonAborted && r.score > 0
}

// Snapshot is a read-only view of the round for rendering.
type Snapshot struct {
	GridSize   int32          `json:"grid_size"`
	Snake      []game.Point   `json:"snake"`
	SnakeColor game.Color     `json:"snake_color"`
	Food       game.Point     `json:"food"`
	FoodColor  game.Color     `json:"food_color"`
	Barriers   []game.Point   `json:"barriers"`
	Direction  game.Direction `json:"-"`
	Score      int            `json:"score"`
	Steps      int            `json:"steps"`
	Mode       game.GameMode  `json:"mode"`
	Elapsed    time.Duration  `json:"elapsed_ns"`
	Remaining  time.Duration  `json:"remaining_ns"`
	Status     Status         `json:"status"`
	Reason     EndReason      `json:"reason"`
}

// Snapshot copies the current state. now is used for elapsed/remaining while
// the round is running.
func (r *Round) Snapshot(now time.Time) Snapshot {
	body := make([]game.Point, len(r.snake.Body))
	copy(body, r.snake.Body)
	elapsed := r.Elapsed(now)
	return Snapshot{
		GridSize:   r.grid.Size,
		Snake:      body,
		SnakeColor: r.snakeColor,
		Food:       r.food,
		FoodColor:  r.foodColor,
		Barriers:   r.barriers.Cells(),
		Direction:  r.direction,
		Score:      r.score,
		Steps:      r.steps,
		Mode:       r.cfg.Mode,
		Elapsed:    elapsed,
		Remaining:  Remaining(r.cfg, elapsed),
		Status:     r.status,
		Reason:     r.reason,
	}
}
