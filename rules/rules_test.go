package rules

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/brensch/snekarcade/game"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func dumpRound(r *Round) string {
	n := int(r.grid.Size)
	grid := make([][]byte, n)
	for y := range grid {
		grid[y] = make([]byte, n)
		for x := range grid[y] {
			grid[y][x] = '.'
		}
	}
	for _, b := range r.barriers.Cells() {
		if r.grid.InBounds(b) {
			grid[b.Y][b.X] = '#'
		}
	}
	if r.grid.InBounds(r.food) {
		grid[r.food.Y][r.food.X] = '*'
	}
	for i, p := range r.snake.Body {
		if !r.grid.InBounds(p) {
			continue
		}
		if i == 0 {
			grid[p.Y][p.X] = 'H'
		} else {
			grid[p.Y][p.X] = 'o'
		}
	}

	var sb strings.Builder
	for y := 0; y < n; y++ {
		sb.Write(grid[y])
		sb.WriteByte('\n')
	}
	return sb.String()
}

func logTick(t *testing.T, label string, before string, res TickResult, r *Round) {
	t.Helper()
	t.Logf("%s\n  BEFORE:\n%s  RESULT: event=%s reason=%s\n  AFTER:\n%s", label, before, res.Event, res.Reason, dumpRound(r))
}

func newTestRound(t *testing.T, cfg game.RoundConfig, seed int64) *Round {
	t.Helper()
	if cfg.PlayerName == "" {
		cfg.PlayerName = "tester"
	}
	r, err := NewRound(cfg, t0, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewRound: %v", err)
	}
	return r
}

// place overrides the snake and direction and parks the food out of the way.
func place(r *Round, dir game.Direction, body ...game.Point) {
	r.snake = &game.Snake{Body: body}
	r.direction = dir
	r.food = game.Point{X: 1, Y: r.grid.Size - 2}
}

func TestNewRound_RejectsBadConfig(t *testing.T) {
	if _, err := NewRound(game.RoundConfig{PlayerName: " "}, t0, nil); err == nil {
		t.Fatalf("expected error for empty player name")
	}
}

func TestNewRound_InitialState(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 24, Barrier: game.BarrierRandom}, 7)
	if got := r.snake.Body; len(got) != 1 || got[0] != (game.Point{X: 12, Y: 12}) {
		t.Fatalf("snake=%v want [(12,12)]", got)
	}
	if r.direction != game.DirRight {
		t.Fatalf("direction=%v want right", r.direction)
	}
	if r.snakeColor != game.SnakeGreen {
		t.Fatalf("snake colour=%v", r.snakeColor)
	}
	assertFoodPlacement(t, r)
}

func TestTick_MovesOneCellRightWithoutInput(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 24, Barrier: game.BarrierNone}, 1)
	place(r, game.DirRight, game.Point{X: 12, Y: 12})
	before := dumpRound(r)

	res := r.Tick(t0.Add(r.interval), game.DirNone)
	logTick(t, "move right", before, res, r)

	if res.Event != EventMoved {
		t.Fatalf("event=%s want moved", res.Event)
	}
	if got := r.snake.Body; len(got) != 1 || got[0] != (game.Point{X: 13, Y: 12}) {
		t.Fatalf("snake=%v want [(13,12)]", got)
	}
}

func TestTick_EndsOnBorderCollision(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 24, Barrier: game.BarrierBorder}, 1)
	place(r, game.DirLeft, game.Point{X: 1, Y: 1})
	before := dumpRound(r)

	res := r.Tick(t0.Add(r.interval), game.DirNone)
	logTick(t, "border hit", before, res, r)

	if res.Event != EventEnded || res.Reason != ReasonCollision {
		t.Fatalf("result=%+v want ended/collision", res)
	}
	if r.snake.Head() != (game.Point{X: 1, Y: 1}) || r.snake.Len() != 1 {
		t.Fatalf("snake mutated on collision: %v", r.snake.Body)
	}
	if !r.Ended() || r.Reason() != ReasonCollision {
		t.Fatalf("round status=%s reason=%s", r.Status(), r.Reason())
	}
}

func TestTick_EndsWhenTimeRunsOut(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 24, Mode: game.ModeTime}, 3)
	place(r, game.DirRight, game.Point{X: 12, Y: 12})

	res := r.Tick(t0.Add(179*time.Second), game.DirNone)
	if res.Event == EventEnded {
		t.Fatalf("round ended early: %+v", res)
	}

	res = r.Tick(t0.Add(game.GameTime), game.DirNone)
	if res.Event != EventEnded || res.Reason != ReasonTimeExpired {
		t.Fatalf("result=%+v want ended/time_expired", res)
	}
	if got := r.Snapshot(t0.Add(200 * time.Second)).Remaining; got != 0 {
		t.Fatalf("remaining=%s want 0", got)
	}
}

func TestTick_PointsModeIgnoresElapsed(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 24, Mode: game.ModePoints}, 3)
	place(r, game.DirRight, game.Point{X: 12, Y: 12})
	res := r.Tick(t0.Add(10*game.GameTime), game.DirNone)
	if res.Event == EventEnded {
		t.Fatalf("POINTS round ended on time: %+v", res)
	}
	if EvaluateProgress(r.cfg, game.PointsWinThreshold, 0) != ReasonPointsReached {
		t.Fatalf("threshold score should end a POINTS round")
	}
}

func TestTick_GatedByInterval(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 24, Difficulty: game.DifficultyEasy}, 1)
	place(r, game.DirRight, game.Point{X: 12, Y: 12})

	res := r.Tick(t0.Add(r.interval-time.Millisecond), game.DirNone)
	if res.Event != EventNoMove {
		t.Fatalf("event=%s want no_move", res.Event)
	}
	if r.snake.Head() != (game.Point{X: 12, Y: 12}) {
		t.Fatalf("snake moved before the interval elapsed")
	}

	first := t0.Add(r.interval)
	if res := r.Tick(first, game.DirNone); res.Event != EventMoved {
		t.Fatalf("event=%s want moved", res.Event)
	}
	// The interval restarts from the last successful move.
	if res := r.Tick(first.Add(r.interval/2), game.DirNone); res.Event != EventNoMove {
		t.Fatalf("event=%s want no_move", res.Event)
	}
}

func TestSteer_RejectsReverse(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 24}, 1)
	place(r, game.DirRight, game.Point{X: 12, Y: 12}, game.Point{X: 11, Y: 12})

	if r.Steer(game.DirLeft, t0) {
		t.Fatalf("reverse input accepted")
	}
	if r.NextDirection() != game.DirRight {
		t.Fatalf("next=%v want right", r.NextDirection())
	}
	if !r.Steer(game.DirDown, t0) {
		t.Fatalf("perpendicular input rejected")
	}
	if r.NextDirection() != game.DirDown {
		t.Fatalf("next=%v want down", r.NextDirection())
	}
}

func TestSteer_DoublePressCannotReverseWithinTick(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 24, InputCooldown: -1}, 1)
	place(r, game.DirRight, game.Point{X: 12, Y: 12}, game.Point{X: 11, Y: 12}, game.Point{X: 10, Y: 12})

	// Up then Left inside one tick: Left is checked against the current
	// direction (right), not the pending one, so it is refused.
	if !r.Steer(game.DirUp, t0.Add(time.Millisecond)) {
		t.Fatalf("up rejected")
	}
	if r.Steer(game.DirLeft, t0.Add(2*time.Millisecond)) {
		t.Fatalf("left accepted while moving right")
	}

	before := dumpRound(r)
	res := r.Tick(t0.Add(r.interval), game.DirNone)
	logTick(t, "double press", before, res, r)
	if res.Event != EventMoved || r.snake.Head() != (game.Point{X: 12, Y: 11}) {
		t.Fatalf("result=%+v head=%v want moved to (12,11)", res, r.snake.Head())
	}
}

func TestSteer_Cooldown(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 24, InputCooldown: 30 * time.Millisecond}, 1)
	place(r, game.DirRight, game.Point{X: 12, Y: 12})

	if !r.Steer(game.DirUp, t0) {
		t.Fatalf("first input rejected")
	}
	if r.Steer(game.DirDown, t0.Add(10*time.Millisecond)) {
		t.Fatalf("input inside cooldown accepted")
	}
	if !r.Steer(game.DirDown, t0.Add(30*time.Millisecond)) {
		t.Fatalf("input after cooldown rejected")
	}
}

func TestTick_IntentIsBufferedUntilStep(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 24}, 1)
	place(r, game.DirRight, game.Point{X: 12, Y: 12})

	res := r.Tick(t0.Add(time.Millisecond), game.DirDown)
	if res.Event != EventNoMove || res.InputRejected {
		t.Fatalf("result=%+v", res)
	}
	if r.direction != game.DirRight {
		t.Fatalf("direction changed before the step")
	}
	res = r.Tick(t0.Add(r.interval), game.DirNone)
	if res.Event != EventMoved || r.snake.Head() != (game.Point{X: 12, Y: 13}) {
		t.Fatalf("head=%v want (12,13)", r.snake.Head())
	}
	if res := r.Tick(t0.Add(2*r.interval), game.DirUp); !res.InputRejected {
		t.Fatalf("reverse intent not reported as rejected")
	}
}

func TestTick_NoneModeWraps(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 10, Barrier: game.BarrierNone}, 1)
	place(r, game.DirRight, game.Point{X: 9, Y: 4}, game.Point{X: 8, Y: 4})

	res := r.Tick(t0.Add(r.interval), game.DirNone)
	if res.Event != EventMoved {
		t.Fatalf("event=%s", res.Event)
	}
	want := []game.Point{{X: 0, Y: 4}, {X: 9, Y: 4}}
	for i := range want {
		if r.snake.Body[i] != want[i] {
			t.Fatalf("body=%v want=%v", r.snake.Body, want)
		}
	}
}

func TestTick_NoneModeSelfCollision(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 10, Barrier: game.BarrierNone}, 1)
	// A hook: moving up from (5,5) runs into (5,4).
	place(r, game.DirUp,
		game.Point{X: 5, Y: 5}, game.Point{X: 6, Y: 5}, game.Point{X: 6, Y: 4},
		game.Point{X: 5, Y: 4}, game.Point{X: 4, Y: 4})
	before := dumpRound(r)

	res := r.Tick(t0.Add(r.interval), game.DirNone)
	logTick(t, "self collision", before, res, r)
	if res.Reason != ReasonCollision {
		t.Fatalf("reason=%s want collision", res.Reason)
	}
}

func TestTick_RandomModeBarrierTestedBeforeWrap(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 10, Barrier: game.BarrierRandom}, 1)

	// A barrier cell at the wrapped destination does not stop the move:
	// only the raw, unwrapped head is tested against barriers.
	r.barriers = NewBarriers(game.Point{X: 0, Y: 3})
	place(r, game.DirRight, game.Point{X: 9, Y: 3})
	res := r.Tick(t0.Add(r.interval), game.DirNone)
	if res.Event != EventMoved || r.snake.Head() != (game.Point{X: 0, Y: 3}) {
		t.Fatalf("result=%+v head=%v", res, r.snake.Head())
	}

	r2 := newTestRound(t, game.RoundConfig{GridSize: 10, Barrier: game.BarrierRandom}, 1)
	r2.barriers = NewBarriers(game.Point{X: 3, Y: 3})
	place(r2, game.DirRight, game.Point{X: 2, Y: 3})
	res = r2.Tick(t0.Add(r2.interval), game.DirNone)
	if res.Reason != ReasonCollision {
		t.Fatalf("reason=%s want collision with barrier", res.Reason)
	}
}

func TestTick_RandomModeSelfCollisionAfterWrap(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 10, Barrier: game.BarrierRandom}, 1)
	r.barriers = NewBarriers()
	place(r, game.DirUp, game.Point{X: 4, Y: 0}, game.Point{X: 5, Y: 0}, game.Point{X: 5, Y: 9}, game.Point{X: 4, Y: 9})
	res := r.Tick(t0.Add(r.interval), game.DirNone)
	if res.Reason != ReasonCollision {
		t.Fatalf("reason=%s want collision after wrapping onto the body", res.Reason)
	}
}

func TestTick_BorderModeOutOfBoundsWithoutBarriers(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 10, Barrier: game.BarrierBorder}, 1)
	r.barriers = NewBarriers()
	place(r, game.DirUp, game.Point{X: 4, Y: 0})
	res := r.Tick(t0.Add(r.interval), game.DirNone)
	if res.Reason != ReasonCollision {
		t.Fatalf("reason=%s want collision at the edge", res.Reason)
	}
}

func TestTick_EatFoodGrowsAndRecolours(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 12, ColorChange: true}, 5)
	place(r, game.DirRight, game.Point{X: 5, Y: 5}, game.Point{X: 4, Y: 5})
	r.food = game.Point{X: 6, Y: 5}
	r.foodColor = game.Color{R: 1, G: 2, B: 3}
	before := dumpRound(r)

	res := r.Tick(t0.Add(r.interval), game.DirNone)
	logTick(t, "eat food", before, res, r)

	if res.Event != EventFoodEaten || !res.Ate || res.Eaten != (game.Point{X: 6, Y: 5}) {
		t.Fatalf("result=%+v want food_eaten at (6,5)", res)
	}
	if r.score != game.FoodReward {
		t.Fatalf("score=%d want=%d", r.score, game.FoodReward)
	}
	want := []game.Point{{X: 6, Y: 5}, {X: 5, Y: 5}, {X: 4, Y: 5}}
	if len(r.snake.Body) != len(want) {
		t.Fatalf("body=%v want=%v", r.snake.Body, want)
	}
	for i := range want {
		if r.snake.Body[i] != want[i] {
			t.Fatalf("body=%v want=%v", r.snake.Body, want)
		}
	}
	if r.snakeColor != (game.Color{R: 1, G: 2, B: 3}) {
		t.Fatalf("snake colour=%v want food colour", r.snakeColor)
	}
	assertFoodPlacement(t, r)
}

func TestTick_EatFoodKeepsColourWithoutOption(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 12}, 5)
	place(r, game.DirRight, game.Point{X: 5, Y: 5})
	r.food = game.Point{X: 6, Y: 5}
	r.foodColor = game.Color{R: 1, G: 2, B: 3}
	r.Tick(t0.Add(r.interval), game.DirNone)
	if r.snakeColor != game.SnakeGreen {
		t.Fatalf("snake colour=%v want green", r.snakeColor)
	}
}

func TestTick_LengthInvariantUnderRandomPlay(t *testing.T) {
	for _, mode := range []game.BarrierMode{game.BarrierNone, game.BarrierBorder, game.BarrierRandom} {
		for seed := int64(0); seed < 20; seed++ {
			r := newTestRound(t, game.RoundConfig{GridSize: 12, Barrier: mode, InputCooldown: -1}, seed)
			rng := rand.New(rand.NewSource(seed + 100))
			now := t0
			for i := 0; i < 400 && !r.Ended(); i++ {
				now = now.Add(r.interval)
				prevLen := r.snake.Len()
				intent := game.DirNone
				if moves := r.LegalMoves(); len(moves) > 0 && rng.Intn(3) == 0 {
					intent = moves[rng.Intn(len(moves))]
				}
				res := r.Tick(now, intent)
				switch res.Event {
				case EventMoved:
					if r.snake.Len() != prevLen {
						t.Fatalf("mode=%s seed=%d len %d -> %d without food", mode, seed, prevLen, r.snake.Len())
					}
				case EventFoodEaten:
					if r.snake.Len() != prevLen+1 {
						t.Fatalf("mode=%s seed=%d len %d -> %d after food", mode, seed, prevLen, r.snake.Len())
					}
					assertFoodPlacement(t, r)
				}
				assertUniqueBody(t, r)
			}
		}
	}
}

func TestLegalMoves(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 10, Barrier: game.BarrierBorder}, 1)
	place(r, game.DirLeft, game.Point{X: 1, Y: 1}, game.Point{X: 2, Y: 1})
	moves := r.LegalMoves()
	if len(moves) != 1 || moves[0] != game.DirDown {
		t.Fatalf("moves=%v want [down]", moves)
	}
}

func TestAbort(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 12}, 1)
	r.score = 50
	r.Abort(t0.Add(3 * time.Second))
	if !r.Ended() || r.Reason() != ReasonAborted {
		t.Fatalf("status=%s reason=%s", r.Status(), r.Reason())
	}
	if r.Recordable() {
		t.Fatalf("aborted round must not be recordable")
	}
	res, ok := r.Result()
	if !ok || res.Duration != 3 || res.Score != 50 || res.PlayerName != "tester" {
		t.Fatalf("result=%+v ok=%v", res, ok)
	}
	if got := r.Tick(t0.Add(time.Hour), game.DirUp); got.Event != EventEnded || got.Reason != ReasonAborted {
		t.Fatalf("tick after abort=%+v", got)
	}
}

func TestRecordable(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 12}, 1)
	if r.Recordable() {
		t.Fatalf("running round recordable")
	}
	if _, ok := r.Result(); ok {
		t.Fatalf("running round has a result")
	}
	r.end(t0, ReasonCollision)
	if r.Recordable() {
		t.Fatalf("zero score recordable")
	}
	r.score = 10
	if !r.Recordable() {
		t.Fatalf("scored collision not recordable")
	}
}

func TestSnapshotCopiesState(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 12, Mode: game.ModeTime, Barrier: game.BarrierBorder}, 1)
	snap := r.Snapshot(t0.Add(30 * time.Second))
	if snap.Remaining != game.GameTime-30*time.Second {
		t.Fatalf("remaining=%s", snap.Remaining)
	}
	if len(snap.Barriers) != 4*12-4 {
		t.Fatalf("barriers=%d", len(snap.Barriers))
	}
	snap.Snake[0] = game.Point{X: -1, Y: -1}
	if r.snake.Head() == snap.Snake[0] {
		t.Fatalf("snapshot aliases the live snake")
	}
}

func assertFoodPlacement(t *testing.T, r *Round) {
	t.Helper()
	if r.grid.OnRing(r.food) {
		t.Fatalf("food %v on outer ring\n%s", r.food, dumpRound(r))
	}
	if r.snake.Contains(r.food) {
		t.Fatalf("food %v on snake\n%s", r.food, dumpRound(r))
	}
	if r.barriers.Contains(r.food) {
		t.Fatalf("food %v on barrier\n%s", r.food, dumpRound(r))
	}
}

func assertUniqueBody(t *testing.T, r *Round) {
	t.Helper()
	seen := make(map[game.Point]bool, r.snake.Len())
	for _, p := range r.snake.Body {
		if seen[p] {
			t.Fatalf("snake overlaps itself at %v\n%s", p, dumpRound(r))
		}
		seen[p] = true
	}
}

func TestGreedy_ReachesFood(t *testing.T) {
	for _, mode := range []game.BarrierMode{game.BarrierNone, game.BarrierBorder} {
		r := newTestRound(t, game.RoundConfig{GridSize: 16, Barrier: mode, InputCooldown: -1}, 11)
		now := t0
		for i := 0; i < 200 && r.score == 0 && !r.Ended(); i++ {
			now = now.Add(r.interval)
			r.Tick(now, Greedy(r))
		}
		if r.score == 0 {
			t.Fatalf("mode=%s greedy never ate\n%s", mode, dumpRound(r))
		}
	}
}

func TestGreedy_NoLegalMoves(t *testing.T) {
	r := newTestRound(t, game.RoundConfig{GridSize: 10, Barrier: game.BarrierBorder}, 1)
	// Boxed into the top-left corner by its own body.
	place(r, game.DirUp, game.Point{X: 1, Y: 1}, game.Point{X: 1, Y: 2}, game.Point{X: 2, Y: 2}, game.Point{X: 2, Y: 1}, game.Point{X: 3, Y: 1})
	if d := Greedy(r); d != game.DirNone {
		t.Fatalf("greedy=%v want none", d)
	}
}
