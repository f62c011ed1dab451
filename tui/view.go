package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/snekarcade/game"
	"github.com/brensch/snekarcade/rules"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff00"))
	itemStyle    = lipgloss.NewStyle().PaddingLeft(2)
	cursorStyle  = lipgloss.NewStyle().PaddingLeft(2).Bold(true).Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#00aa00"))
	hintStyle    = lipgloss.NewStyle().Faint(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555"))
	barrierStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000"))
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#303030"))
	boardStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#00aa00"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

const cell = "██"

func (m Model) View() string {
	var body string
	switch m.screen {
	case screenMenu:
		body = m.viewMenu()
	case screenName:
		body = m.viewName()
	case screenPlay:
		body = m.viewPlay()
	case screenOver:
		body = m.viewOver()
	case screenStats:
		body = m.viewStats()
	}
	if m.err != nil {
		body += "\n" + errStyle.Render(m.err.Error())
	}
	return body + "\n"
}

func (m Model) menuLabel(item menuItem) string {
	switch item {
	case itemDifficulty:
		return "Difficulty: " + m.cfg.Difficulty.String()
	case itemMode:
		return "Mode: " + m.cfg.Mode.String()
	case itemBarrier:
		return "Barrier: " + m.cfg.Barrier.String()
	case itemColor:
		return fmt.Sprintf("Color Change: %t", m.cfg.ColorChange)
	case itemStart:
		return "Start Game"
	case itemStats:
		return "View Stats"
	case itemQuit:
		return "Quit"
	}
	return ""
}

func (m Model) viewMenu() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("SNEK") + "\n\n")
	for item := menuItem(0); item < menuItems; item++ {
		label := m.menuLabel(item)
		if item == m.cursor {
			b.WriteString(cursorStyle.Render(label))
		} else {
			b.WriteString(itemStyle.Render(label))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n" + hintStyle.Render("↑/↓ move • enter select • d/m/b/c toggle • s start • v stats • q quit"))
	return b.String()
}

func (m Model) viewName() string {
	prompt := panelStyle.Render("Player name: " + m.name + "█")
	return titleStyle.Render("NEW GAME") + "\n\n" + prompt + "\n\n" +
		hintStyle.Render("enter start • esc back")
}

func (m Model) viewPlay() string {
	hud := fmt.Sprintf("Score: %d", m.snap.Score)
	if m.snap.Mode == game.ModeTime {
		hud += "   Time: " + formatClock(m.snap.Remaining)
	}
	return hud + "\n" + boardStyle.Render(renderBoard(m.snap)) + "\n" +
		hintStyle.Render("arrows/wasd steer • esc quit to menu")
}

// formatClock renders d as m:ss, truncating partial seconds.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func renderBoard(s rules.Snapshot) string {
	n := int(s.GridSize)
	if n <= 0 {
		return ""
	}
	grid := make([][]string, n)
	empty := emptyStyle.Render("··")
	for y := range grid {
		grid[y] = make([]string, n)
		for x := range grid[y] {
			grid[y][x] = empty
		}
	}
	set := func(p game.Point, v string) {
		if p.X >= 0 && p.Y >= 0 && int(p.X) < n && int(p.Y) < n {
			grid[p.Y][p.X] = v
		}
	}

	wall := barrierStyle.Render(cell)
	for _, p := range s.Barriers {
		set(p, wall)
	}
	set(s.Food, lipgloss.NewStyle().Foreground(lipgloss.Color(s.FoodColor.Hex())).Render(cell))
	snake := lipgloss.NewStyle().Foreground(lipgloss.Color(s.SnakeColor.Hex()))
	for i := len(s.Snake) - 1; i >= 0; i-- {
		set(s.Snake[i], snake.Render(cell))
	}

	rows := make([]string, n)
	for y := range grid {
		rows[y] = strings.Join(grid[y], "")
	}
	return strings.Join(rows, "\n")
}

func (m Model) viewOver() string {
	out := m.outcome
	var b strings.Builder
	b.WriteString(titleStyle.Render("GAME OVER") + "\n\n")
	fmt.Fprintf(&b, "Player:   %s\n", out.Result.PlayerName)
	fmt.Fprintf(&b, "Score:    %d\n", out.Result.Score)
	fmt.Fprintf(&b, "Mode:     %s (%s)\n", out.Result.Mode, out.Result.Difficulty)
	fmt.Fprintf(&b, "Duration: %.1fs\n", out.Result.Duration)
	fmt.Fprintf(&b, "Ended by: %s\n", strings.ReplaceAll(out.Reason.String(), "_", " "))
	if out.Recorded {
		b.WriteString("Saved to stats.\n")
	} else {
		b.WriteString(hintStyle.Render("Not saved (no score).") + "\n")
	}
	b.WriteString("\n" + hintStyle.Render("enter menu • r play again • v stats • q quit"))
	return b.String()
}

func (m Model) viewStats() string {
	page, total := m.sess.Ledger().Page(m.statsMode, m.statsPage*StatsPageSize, StatsPageSize)
	pages := max(1, (total+StatsPageSize-1)/StatsPageSize)

	var b strings.Builder
	b.WriteString(titleStyle.Render("STATS") + "\n\n")
	fmt.Fprintf(&b, "Filter: %s\n\n", m.statsMode)
	if len(page) == 0 {
		b.WriteString(hintStyle.Render("No games recorded.") + "\n")
	}
	for _, r := range page {
		b.WriteString(statsLine(r) + "\n")
	}
	fmt.Fprintf(&b, "\nPage %d/%d (%d games)\n", m.statsPage+1, pages, total)
	b.WriteString(hintStyle.Render("f filter • ←/→ page • r reset • esc back"))
	return b.String()
}

func statsLine(r game.RoundResult) string {
	line := fmt.Sprintf("%s: %d points", r.PlayerName, r.Score)
	if r.Mode == game.ModeTime {
		line += fmt.Sprintf(" in %.1fs", r.Duration)
	}
	return line
}
