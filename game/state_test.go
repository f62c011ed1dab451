package game

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWrap(t *testing.T) {
	g := Grid{Size: 24}
	cases := []struct {
		in, want Point
	}{
		{Point{X: 12, Y: 12}, Point{X: 12, Y: 12}},
		{Point{X: 24, Y: 5}, Point{X: 0, Y: 5}},
		{Point{X: -1, Y: 5}, Point{X: 23, Y: 5}},
		{Point{X: 5, Y: -1}, Point{X: 5, Y: 23}},
		{Point{X: -25, Y: 49}, Point{X: 23, Y: 1}},
	}
	for _, c := range cases {
		if got := g.Wrap(c.in); got != c.want {
			t.Errorf("Wrap(%v)=%v want=%v", c.in, got, c.want)
		}
	}
}

func TestGridRingAndCenter(t *testing.T) {
	g := Grid{Size: 10}
	if c := g.Center(); c != (Point{X: 5, Y: 5}) {
		t.Fatalf("center=%v", c)
	}
	ring := 0
	for y := int32(0); y < g.Size; y++ {
		for x := int32(0); x < g.Size; x++ {
			if g.OnRing(Point{X: x, Y: y}) {
				ring++
			}
		}
	}
	if ring != 4*10-4 {
		t.Fatalf("ring cells=%d want=%d", ring, 36)
	}
	if g.InBounds(Point{X: 10, Y: 0}) || g.InBounds(Point{X: -1, Y: 0}) {
		t.Fatalf("out of range point reported in bounds")
	}
}

func TestDirectionReverse(t *testing.T) {
	if !DirLeft.IsReverseOf(DirRight) {
		t.Fatalf("left should reverse right")
	}
	if DirUp.IsReverseOf(DirRight) {
		t.Fatalf("up does not reverse right")
	}
	if DirNone.IsReverseOf(DirNone) {
		t.Fatalf("none never reverses")
	}
	if !DirDown.Valid() || DirNone.Valid() || (Direction{DX: 1, DY: 1}).Valid() {
		t.Fatalf("unexpected validity")
	}
}

func TestSnakePushPop(t *testing.T) {
	s := NewSnake(Point{X: 3, Y: 3})
	s.PushHead(Point{X: 4, Y: 3})
	s.PushHead(Point{X: 5, Y: 3})
	if s.Len() != 3 || s.Head() != (Point{X: 5, Y: 3}) {
		t.Fatalf("body=%v", s.Body)
	}
	if tail := s.PopTail(); tail != (Point{X: 3, Y: 3}) {
		t.Fatalf("tail=%v", tail)
	}
	if s.BodyContains(Point{X: 5, Y: 3}) {
		t.Fatalf("BodyContains must skip the head")
	}
	if !s.Contains(Point{X: 5, Y: 3}) || !s.BodyContains(Point{X: 4, Y: 3}) {
		t.Fatalf("missing cells in %v", s.Body)
	}

	c := s.Clone()
	c.Body[0] = Point{}
	if s.Body[0] == (Point{}) {
		t.Fatalf("clone shares backing array")
	}
}

func TestTickIntervalLookup(t *testing.T) {
	want := map[Difficulty]time.Duration{
		DifficultyEasy:   150 * time.Millisecond,
		DifficultyMedium: 100 * time.Millisecond,
		DifficultyHard:   50 * time.Millisecond,
	}
	for d, iv := range want {
		if got := d.TickInterval(); got != iv {
			t.Errorf("%s interval=%s want=%s", d, got, iv)
		}
	}
	if DifficultyHard.Next() != DifficultyEasy {
		t.Fatalf("difficulty does not cycle")
	}
}

func TestRoundConfigValidate(t *testing.T) {
	base := RoundConfig{PlayerName: "ada"}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name string
		cfg  RoundConfig
		want error
	}{
		{"empty name", RoundConfig{PlayerName: "   "}, ErrEmptyPlayerName},
		{"long name", RoundConfig{PlayerName: strings.Repeat("x", MaxPlayerNameLen+1)}, ErrPlayerNameTooLong},
		{"bad difficulty", RoundConfig{PlayerName: "a", Difficulty: 7}, ErrUnknownDifficulty},
		{"bad mode", RoundConfig{PlayerName: "a", Mode: 9}, ErrUnknownGameMode},
		{"bad barrier", RoundConfig{PlayerName: "a", Barrier: -1}, ErrUnknownBarrierMode},
		{"tiny grid", RoundConfig{PlayerName: "a", GridSize: 5}, ErrGridTooSmall},
	}
	for _, c := range cases {
		if err := c.cfg.Validate(); !errors.Is(err, c.want) {
			t.Errorf("%s: err=%v want=%v", c.name, err, c.want)
		}
	}
}

func TestRoundResultJSONUsesEnumNames(t *testing.T) {
	r := RoundResult{PlayerName: "ada", Score: 30, Mode: ModeTime, Difficulty: DifficultyHard, Duration: 12.5}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"player_name":"ada","score":30,"mode":"TIME","difficulty":"HARD","duration":12.5}`
	if string(b) != want {
		t.Fatalf("json=%s want=%s", b, want)
	}

	var back RoundResult
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != r {
		t.Fatalf("round trip=%+v want=%+v", back, r)
	}

	if err := json.Unmarshal([]byte(`{"mode":"SPEED"}`), &back); !errors.Is(err, ErrUnknownGameMode) {
		t.Fatalf("unknown mode err=%v", err)
	}
}
