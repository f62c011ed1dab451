// Package session runs rounds on behalf of a presentation layer.
//
// A Session owns at most one live rules.Round. It validates the round
// configuration, forwards ticks to the engine, and at the round boundary
// appends the result to the score ledger and closes the round's replay.
// Nothing is persisted mid-round except replay rows, which go to a temp file.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/brensch/snekarcade/game"
	"github.com/brensch/snekarcade/rules"
	"github.com/brensch/snekarcade/store"
)

var (
	ErrNoRound   = errors.New("no round in progress")
	ErrRoundOver = errors.New("round already ended")
)

// Frame is what a Publisher receives after every step.
type Frame struct {
	RoundID string `json:"round_id"`
	Player  string `json:"player"`
	Event   string `json:"event"`
	rules.Snapshot
}

// Publisher receives frames for spectators. Publish must not block.
type Publisher interface {
	Publish(Frame)
}

type Options struct {
	Logger *slog.Logger
	// ReplayDir enables replay recording when set.
	ReplayDir string
	Publisher Publisher
	// Rand seeds every round's barriers and food. Nil uses a time-seeded
	// source per round.
	Rand *rand.Rand
}

// Outcome describes how the last round was closed.
type Outcome struct {
	RoundID    string
	Result     game.RoundResult
	Reason     rules.EndReason
	Recorded   bool
	ReplayPath string
}

type Session struct {
	ledger *store.Ledger
	log    *slog.Logger
	opts   Options

	round    *rules.Round
	roundID  string
	replay   *store.ReplayWriter
	finished bool
	last     *Outcome
}

func New(ledger *store.Ledger, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{ledger: ledger, log: logger, opts: opts}
}

func (s *Session) Ledger() *store.Ledger { return s.ledger }

// Round returns the current round, or nil before the first Start.
func (s *Session) Round() *rules.Round { return s.round }

func (s *Session) RoundID() string { return s.roundID }

// LastOutcome is the outcome of the most recently closed round.
func (s *Session) LastOutcome() (Outcome, bool) {
	if s.last == nil {
		return Outcome{}, false
	}
	return *s.last, true
}

// Start begins a new round. A round still in progress is aborted first.
// Configuration errors leave the session unchanged.
func (s *Session) Start(cfg game.RoundConfig, now time.Time) (*rules.Round, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s.round != nil && !s.finished {
		if err := s.Abort(now); err != nil {
			return nil, err
		}
	}

	round, err := rules.NewRound(cfg, now, s.opts.Rand)
	if err != nil {
		return nil, err
	}
	s.round = round
	// Version 7 IDs sort by creation time, which the replay listing relies on.
	s.roundID = uuid.Must(uuid.NewV7()).String()
	s.finished = false
	s.replay = nil

	cfg = round.Config()
	log := s.log.With("round_id", s.roundID)
	log.Info("round started",
		"player", cfg.PlayerName,
		"difficulty", cfg.Difficulty,
		"mode", cfg.Mode,
		"barrier", cfg.Barrier,
		"grid", cfg.GridSize,
		"barrier_cells", round.Barriers().Len(),
	)

	if s.opts.ReplayDir != "" {
		w, err := store.NewReplayWriter(s.opts.ReplayDir, s.roundID)
		if err != nil {
			// Replays are optional; the round goes on without one.
			log.Warn("replay disabled for round", "err", err)
		} else {
			s.replay = w
		}
	}

	snap := round.Snapshot(now)
	s.record(snap, "start", true)
	s.publish(snap, "start")
	return round, nil
}

// Tick forwards one tick to the engine. When the tick ends the round the
// result is persisted before Tick returns; a persistence failure is returned
// alongside the tick result.
func (s *Session) Tick(now time.Time, intent game.Direction) (rules.TickResult, error) {
	if s.round == nil {
		return rules.TickResult{}, ErrNoRound
	}
	if s.finished {
		return rules.TickResult{Event: rules.EventEnded, Reason: s.round.Reason()}, ErrRoundOver
	}

	res := s.round.Tick(now, intent)
	if res.Event == rules.EventNoMove {
		return res, nil
	}

	event := res.Event.String()
	if res.Event == rules.EventEnded && res.Ate {
		event = rules.EventFoodEaten.String()
	}
	snap := s.round.Snapshot(now)
	s.record(snap, event, false)
	s.publish(snap, event)

	if res.Event == rules.EventEnded {
		return res, s.finish(now)
	}
	return res, nil
}

// Steer hands one direction key to the running round as it arrives. It
// reports whether the round accepted it.
func (s *Session) Steer(d game.Direction, now time.Time) (bool, error) {
	if s.round == nil {
		return false, ErrNoRound
	}
	if s.finished {
		return false, ErrRoundOver
	}
	return s.round.Steer(d, now), nil
}

// Abort ends the current round without recording it.
func (s *Session) Abort(now time.Time) error {
	if s.round == nil {
		return ErrNoRound
	}
	if s.finished {
		return ErrRoundOver
	}
	s.round.Abort(now)
	snap := s.round.Snapshot(now)
	s.record(snap, rules.EventEnded.String(), false)
	s.publish(snap, rules.EventEnded.String())
	return s.finish(now)
}

// State is the current round's snapshot.
func (s *Session) State(now time.Time) (rules.Snapshot, error) {
	if s.round == nil {
		return rules.Snapshot{}, ErrNoRound
	}
	return s.round.Snapshot(now), nil
}

func (s *Session) finish(now time.Time) error {
	s.finished = true
	result, _ := s.round.Result()
	reason := s.round.Reason()
	out := Outcome{RoundID: s.roundID, Result: result, Reason: reason}
	log := s.log.With("round_id", s.roundID)

	var errs []error
	recorded, err := s.ledger.Append(result, reason == rules.ReasonAborted)
	if err != nil {
		errs = append(errs, fmt.Errorf("append round result: %w", err))
	}
	out.Recorded = recorded

	if s.replay != nil {
		path, rows, err := s.replay.Finalize()
		if err != nil {
			errs = append(errs, fmt.Errorf("finalize replay: %w", err))
		} else {
			out.ReplayPath = path
			log.Debug("replay written", "path", path, "rows", rows)
		}
		s.replay = nil
	}

	s.last = &out
	log.Info("round ended",
		"reason", reason,
		"score", result.Score,
		"duration_s", result.Duration,
		"recorded", recorded,
	)
	return errors.Join(errs...)
}

func (s *Session) record(snap rules.Snapshot, event string, withBarriers bool) {
	if s.replay == nil {
		return
	}
	cfg := s.round.Config()
	row := store.ReplayTickRow{
		RoundID:    s.roundID,
		Seq:        int32(s.replay.Rows()),
		Step:       int32(snap.Steps),
		Player:     cfg.PlayerName,
		Mode:       cfg.Mode.String(),
		Difficulty: cfg.Difficulty.String(),
		Barrier:    cfg.Barrier.String(),
		GridSize:   snap.GridSize,
		SnakeX:     make([]int32, len(snap.Snake)),
		SnakeY:     make([]int32, len(snap.Snake)),
		FoodX:      snap.Food.X,
		FoodY:      snap.Food.Y,
		Score:      int32(snap.Score),
		Event:      event,
		Reason:     snap.Reason.String(),
		ElapsedMs:  snap.Elapsed.Milliseconds(),
	}
	for i, p := range snap.Snake {
		row.SnakeX[i], row.SnakeY[i] = p.X, p.Y
	}
	if withBarriers {
		row.BarrierX = make([]int32, len(snap.Barriers))
		row.BarrierY = make([]int32, len(snap.Barriers))
		for i, p := range snap.Barriers {
			row.BarrierX[i], row.BarrierY[i] = p.X, p.Y
		}
	}

	if err := s.replay.WriteRows(row); err != nil {
		s.log.Warn("replay write failed, dropping replay", "round_id", s.roundID, "err", err)
		_ = s.replay.Discard()
		s.replay = nil
	}
}

func (s *Session) publish(snap rules.Snapshot, event string) {
	if s.opts.Publisher == nil {
		return
	}
	s.opts.Publisher.Publish(Frame{
		RoundID:  s.roundID,
		Player:   s.round.Config().PlayerName,
		Event:    event,
		Snapshot: snap,
	})
}
