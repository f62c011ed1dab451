package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brensch/snekarcade/game"
	"github.com/brensch/snekarcade/logging"
	"github.com/brensch/snekarcade/rules"
	"github.com/brensch/snekarcade/session"
	"github.com/brensch/snekarcade/store"
)

func main() {
	outDir := flag.String("out-dir", filepath.Join("debug_games"), "Output directory for debug replays")
	ledgerPath := flag.String("ledger", filepath.Join("debug_games", "debug_stats.json"), "Ledger file for debug rounds")
	difficulty := flag.String("difficulty", "HARD", "EASY, MEDIUM or HARD")
	mode := flag.String("mode", "POINTS", "POINTS or TIME")
	barrier := flag.String("barrier", "RANDOM", "NONE, BORDER or RANDOM")
	grid := flag.Int("grid", game.DefaultGridSize, "Cells per side")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Seed for barriers and food")
	maxSteps := flag.Int("max-steps", 2000, "Abort the round after this many steps")
	every := flag.Int("print-every", 0, "Print the board every N steps (0 prints only the final board)")
	verbose := flag.Bool("v", false, "Debug logging to stderr")
	frontendHost := flag.String("frontend", "http://localhost:8080", "Viewer base URL")
	flag.Parse()

	cfg := game.RoundConfig{PlayerName: "autopilot", GridSize: int32(*grid), InputCooldown: -1}
	var err error
	if cfg.Difficulty, err = game.ParseDifficulty(*difficulty); err != nil {
		log.Fatalf("Bad -difficulty: %v", err)
	}
	if cfg.Mode, err = game.ParseGameMode(*mode); err != nil {
		log.Fatalf("Bad -mode: %v", err)
	}
	if cfg.Barrier, err = game.ParseBarrierMode(*barrier); err != nil {
		log.Fatalf("Bad -barrier: %v", err)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	ledger, err := store.OpenLedger(*ledgerPath)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}
	sess := session.New(ledger, session.Options{
		Logger:    logging.New(os.Stderr, level, true),
		ReplayDir: *outDir,
		Rand:      rand.New(rand.NewSource(*seed)),
	})

	// Simulated clock: one engine step per loop iteration.
	now := time.Now()
	round, err := sess.Start(cfg, now)
	if err != nil {
		log.Fatalf("Failed to start round: %v", err)
	}
	log.Printf("Debug round %s: %s/%s/%s grid=%d seed=%d barriers=%d",
		sess.RoundID(), cfg.Difficulty, cfg.Mode, cfg.Barrier, round.Grid().Size, *seed, round.Barriers().Len())

	for step := 1; !round.Ended(); step++ {
		if step > *maxSteps {
			if err := sess.Abort(now); err != nil {
				log.Fatalf("Failed to abort: %v", err)
			}
			break
		}
		now = now.Add(round.TickInterval())
		res, err := sess.Tick(now, rules.Greedy(round))
		if err != nil {
			log.Printf("Persist failed: %v", err)
		}
		if res.Event == rules.EventFoodEaten || (*every > 0 && step%*every == 0) {
			snap := round.Snapshot(now)
			fmt.Printf("  Step %4d | score %4d | len %3d | %s\n", snap.Steps, snap.Score, len(snap.Snake), res.Event)
			if *every > 0 && step%*every == 0 {
				fmt.Println(renderBoard(snap))
			}
		}
	}

	out, _ := sess.LastOutcome()
	final := round.Snapshot(now)
	fmt.Println(renderBoard(final))
	log.Printf("Round complete: %d steps, score %d, reason %s, recorded=%t",
		final.Steps, out.Result.Score, out.Reason, out.Recorded)

	if out.ReplayPath == "" {
		log.Printf("No replay written")
		return
	}
	log.Printf("Debug replay written to: %s", out.ReplayPath)

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("  Debug round ready! With the viewer running on %s:\n", *outDir)
	fmt.Printf("  %s/api/replays/%s\n", *frontendHost, out.RoundID)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()
}

// renderBoard draws # barriers, * food, H head and o body.
func renderBoard(s rules.Snapshot) string {
	n := int(s.GridSize)
	rows := make([][]byte, n)
	for y := range rows {
		rows[y] = []byte(strings.Repeat(".", n))
	}
	set := func(p game.Point, c byte) {
		if p.X >= 0 && p.Y >= 0 && int(p.X) < n && int(p.Y) < n {
			rows[p.Y][p.X] = c
		}
	}
	for _, b := range s.Barriers {
		set(b, '#')
	}
	set(s.Food, '*')
	for i, p := range s.Snake {
		if i == 0 {
			set(p, 'H')
		} else {
			set(p, 'o')
		}
	}
	var b strings.Builder
	for _, r := range rows {
		b.Write(r)
		b.WriteByte('\n')
	}
	return b.String()
}
