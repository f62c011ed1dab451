// Package tui is the terminal front end: menu, name entry, play field, game
// over and stats screens. It drives a session.Session from bubbletea's update
// loop, so the session is only ever touched from one goroutine.
package tui

import (
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/snekarcade/game"
	"github.com/brensch/snekarcade/rules"
	"github.com/brensch/snekarcade/session"
)

// DefaultFrameInterval is how often the play screen polls the engine. It is
// well below the fastest tick interval so steps are not delayed noticeably.
const DefaultFrameInterval = 16 * time.Millisecond

// StatsPageSize is the number of ledger rows per stats page.
const StatsPageSize = 10

type screen int

const (
	screenMenu screen = iota
	screenName
	screenPlay
	screenOver
	screenStats
)

type menuItem int

const (
	itemDifficulty menuItem = iota
	itemMode
	itemBarrier
	itemColor
	itemStart
	itemStats
	itemQuit
	menuItems
)

type Options struct {
	Logger *slog.Logger
	// Defaults preset the menu and the name prompt.
	Defaults game.RoundConfig
	// Now is the clock; nil uses time.Now.
	Now           func() time.Time
	FrameInterval time.Duration
}

// FrameMsg paces the play screen.
type FrameMsg time.Time

type Model struct {
	sess  *session.Session
	log   *slog.Logger
	now   func() time.Time
	frame time.Duration

	screen screen
	cursor menuItem
	cfg    game.RoundConfig
	name   string

	snap    rules.Snapshot
	outcome session.Outcome
	err     error

	statsMode game.GameMode
	statsPage int
}

func New(sess *session.Session, opts Options) Model {
	m := Model{
		sess:  sess,
		log:   opts.Logger,
		now:   opts.Now,
		frame: opts.FrameInterval,
		cfg:   opts.Defaults,
		name:  strings.TrimSpace(opts.Defaults.PlayerName),
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.frame <= 0 {
		m.frame = DefaultFrameInterval
	}
	return m
}

func (m Model) frameCmd() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.screen == screenPlay {
				m.abort()
			}
			return m, tea.Quit
		}
		switch m.screen {
		case screenMenu:
			return m.updateMenu(msg)
		case screenName:
			return m.updateName(msg)
		case screenPlay:
			return m.updatePlay(msg)
		case screenOver:
			return m.updateOver(msg)
		case screenStats:
			return m.updateStats(msg)
		}
	case FrameMsg:
		if m.screen != screenPlay {
			// Stale frame from a round that already ended.
			return m, nil
		}
		return m.step()
	}
	return m, nil
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = (m.cursor + menuItems - 1) % menuItems
	case "down", "j", "tab":
		m.cursor = (m.cursor + 1) % menuItems
	case "enter", " ", "right", "l":
		return m.activate(m.cursor)
	case "d":
		return m.activate(itemDifficulty)
	case "m":
		return m.activate(itemMode)
	case "b":
		return m.activate(itemBarrier)
	case "c":
		return m.activate(itemColor)
	case "s":
		return m.activate(itemStart)
	case "v":
		return m.activate(itemStats)
	}
	return m, nil
}

func (m Model) activate(item menuItem) (tea.Model, tea.Cmd) {
	m.cursor = item
	m.err = nil
	switch item {
	case itemDifficulty:
		m.cfg.Difficulty = m.cfg.Difficulty.Next()
	case itemMode:
		m.cfg.Mode = m.cfg.Mode.Next()
	case itemBarrier:
		m.cfg.Barrier = m.cfg.Barrier.Next()
	case itemColor:
		m.cfg.ColorChange = !m.cfg.ColorChange
	case itemStart:
		m.screen = screenName
	case itemStats:
		m.screen = screenStats
		m.statsMode = game.ModePoints
		m.statsPage = 0
	case itemQuit:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateName(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = screenMenu
		m.err = nil
		return m, nil
	case tea.KeyEnter:
		return m.start()
	case tea.KeyBackspace:
		if _, size := utf8.DecodeLastRuneInString(m.name); size > 0 {
			m.name = m.name[:len(m.name)-size]
		}
		return m, nil
	case tea.KeySpace:
		m.name += " "
		return m, nil
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if unicode.IsPrint(r) {
				m.name += string(r)
			}
		}
		return m, nil
	}
	return m, nil
}

func (m Model) start() (tea.Model, tea.Cmd) {
	cfg := m.cfg
	cfg.PlayerName = m.name
	if _, err := m.sess.Start(cfg, m.now()); err != nil {
		// Stay on the prompt so the name can be fixed.
		m.err = err
		return m, nil
	}
	m.cfg = cfg
	m.err = nil
	m.screen = screenPlay
	if snap, err := m.sess.State(m.now()); err == nil {
		m.snap = snap
	}
	return m, m.frameCmd()
}

func keyDirection(key string) game.Direction {
	switch key {
	case "up", "w", "k":
		return game.DirUp
	case "down", "s", "j":
		return game.DirDown
	case "left", "a", "h":
		return game.DirLeft
	case "right", "d", "l":
		return game.DirRight
	}
	return game.DirNone
}

func (m Model) updatePlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		m.abort()
		m.screen = screenMenu
		return m, nil
	}
	if d := keyDirection(msg.String()); !d.IsNone() {
		if ok, err := m.sess.Steer(d, m.now()); err != nil {
			m.log.Warn("steer", "err", err)
		} else if !ok {
			m.log.Debug("steer refused", "dir", d)
		}
	}
	return m, nil
}

func (m *Model) abort() {
	if err := m.sess.Abort(m.now()); err != nil {
		m.log.Warn("abort round", "err", err)
	}
}

// step forwards one frame to the session.
func (m Model) step() (tea.Model, tea.Cmd) {
	now := m.now()
	res, err := m.sess.Tick(now, game.DirNone)
	if err != nil {
		m.log.Error("tick", "err", err)
		m.err = err
	}
	if snap, serr := m.sess.State(now); serr == nil {
		m.snap = snap
	}
	if res.Event == rules.EventEnded {
		if out, ok := m.sess.LastOutcome(); ok {
			m.outcome = out
		}
		m.screen = screenOver
		return m, nil
	}
	return m, m.frameCmd()
}

func (m Model) updateOver(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		return m.start()
	case "v":
		return m.activate(itemStats)
	case "enter", "esc", " ":
		m.screen = screenMenu
		m.err = nil
	}
	return m, nil
}

func (m Model) updateStats(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.screen = screenMenu
		m.err = nil
	case "f", "tab":
		if m.statsMode == game.ModePoints {
			m.statsMode = game.ModeTime
		} else {
			m.statsMode = game.ModePoints
		}
		m.statsPage = 0
	case "right", "l", "pgdown":
		_, total := m.sess.Ledger().Page(m.statsMode, 0, 0)
		if (m.statsPage+1)*StatsPageSize < total {
			m.statsPage++
		}
	case "left", "h", "pgup":
		if m.statsPage > 0 {
			m.statsPage--
		}
	case "r":
		if err := m.sess.Ledger().Reset(); err != nil {
			m.log.Error("reset ledger", "err", err)
			m.err = err
		} else {
			m.log.Info("ledger reset")
			m.err = nil
		}
		m.statsPage = 0
	}
	return m, nil
}
