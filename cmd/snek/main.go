package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/brensch/snekarcade/game"
	"github.com/brensch/snekarcade/logging"
	"github.com/brensch/snekarcade/session"
	"github.com/brensch/snekarcade/store"
	"github.com/brensch/snekarcade/tui"
	"github.com/brensch/snekarcade/viewer"
)

// envFor maps flags to the environment variable that seeds their default.
var envFor = map[string]string{
	"ledger":     "SNEK_LEDGER",
	"replay-dir": "SNEK_REPLAY_DIR",
	"listen":     "SNEK_LISTEN",
	"grid":       "SNEK_GRID",
	"log-file":   "SNEK_LOG_FILE",
	"log-level":  "SNEK_LOG_LEVEL",
}

func main() {
	var s settings
	configPath := flag.String("config", getEnvOrDefault("SNEK_CONFIG", ""), "Optional YAML config file; flags and environment override it")
	flag.StringVar(&s.Ledger, "ledger", getEnvOrDefault("SNEK_LEDGER", store.DefaultLedgerPath), "Score ledger JSON file")
	flag.StringVar(&s.ReplayDir, "replay-dir", getEnvOrDefault("SNEK_REPLAY_DIR", ""), "Directory for round replay parquet files (empty disables replays)")
	flag.StringVar(&s.Listen, "listen", getEnvOrDefault("SNEK_LISTEN", ""), "HTTP listen address for the stats/replay viewer and live feed (empty disables)")
	flag.IntVar(&s.Grid, "grid", getEnvIntOrDefault("SNEK_GRID", game.DefaultGridSize), "Cells per side of the play field")
	flag.Int64Var(&s.Seed, "seed", 0, "Seed for barriers and food (0 seeds from the clock)")
	flag.StringVar(&s.LogFile, "log-file", getEnvOrDefault("SNEK_LOG_FILE", "snek.log"), "Log file (the terminal is owned by the game)")
	flag.StringVar(&s.LogLevel, "log-level", getEnvOrDefault("SNEK_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	flag.StringVar(&s.Export, "export", "", "Write the ledger to this parquet file and exit")
	replayRefresh := flag.Duration("replay-refresh", getEnvDurationOrDefault("SNEK_REPLAY_REFRESH", 5*time.Second), "How often the viewer rescans the replay directory")
	flag.Parse()

	fc, err := loadFileConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	pinned := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { pinned[f.Name] = true })
	for name, env := range envFor {
		if os.Getenv(env) != "" {
			pinned[name] = true
		}
	}
	s.applyFile(fc, pinned)
	s.Round.GridSize = int32(s.Grid)

	if s.Export != "" {
		ledger, err := store.OpenLedger(s.Ledger)
		if err != nil {
			log.Fatalf("Failed to open ledger: %v", err)
		}
		records := ledger.Records()
		if err := store.ExportLedgerParquet(s.Export, records); err != nil {
			log.Fatalf("Failed to export ledger: %v", err)
		}
		log.Printf("Exported %d rounds to %s", len(records), s.Export)
		return
	}

	if err := run(s, *replayRefresh); err != nil {
		log.Fatalf("snek: %v", err)
	}
}

func run(s settings, replayRefresh time.Duration) error {
	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return err
	}
	logFile, err := os.OpenFile(s.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	// Redirect logs to file to avoid messing up TUI
	log.SetOutput(logFile)
	logger := logging.New(logFile, level, false)
	slog.SetDefault(logger)

	ledger, err := store.OpenLedger(s.Ledger)
	if err != nil {
		return err
	}

	log.Printf("Starting snek")
	log.Printf("  Ledger: %s (%d rounds)", ledger.Path(), ledger.Len())
	log.Printf("  Replay Dir: %q", s.ReplayDir)
	log.Printf("  Listen: %q", s.Listen)
	log.Printf("  Grid: %d", s.Grid)

	opts := session.Options{Logger: logger, ReplayDir: s.ReplayDir}
	if s.Seed != 0 {
		opts.Rand = rand.New(rand.NewSource(s.Seed))
	}
	var hub *viewer.Hub
	if s.Listen != "" {
		hub = viewer.NewHub(logger)
		opts.Publisher = hub
	}
	sess := session.New(ledger, opts)

	if err := s.Round.Validate(); err != nil && !errors.Is(err, game.ErrEmptyPlayerName) {
		// A name is typed in at the prompt; anything else is a bad config.
		return fmt.Errorf("round defaults: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	model := tui.New(sess, tui.Options{Logger: logger, Defaults: s.Round})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))
	g.Go(func() error {
		// Quitting the game stops the viewer too.
		defer cancel()
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("tui: %w", err)
		}
		return nil
	})

	if s.Listen != "" {
		srv := viewer.NewServer(ledger, viewer.Options{
			Logger:        logger,
			ReplayDir:     s.ReplayDir,
			Hub:           hub,
			ReplayRefresh: replayRefresh,
		})
		httpSrv := &http.Server{Addr: s.Listen, Handler: srv.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Printf("Viewer listening on %s", s.Listen)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("viewer: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancelShutdown()
			_ = srv.Close()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if out, ok := sess.LastOutcome(); ok {
		logger.Info("last round", "round_id", out.RoundID, "score", out.Result.Score, "recorded", out.Recorded)
	}
	return err
}
