package viewer

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/brensch/snekarcade/game"
)

// ReplayDB keeps an in-memory DuckDB connection with a `replays` view over
// the finalized replay files in dir. The view is rebuilt every refreshRate so
// newly finished rounds show up.
type ReplayDB struct {
	dir         string
	refreshRate time.Duration
	log         *slog.Logger

	mu          sync.Mutex
	db          *sql.DB
	files       int
	lastRefresh time.Time
}

func NewReplayDB(dir string, refreshRate time.Duration, logger *slog.Logger) *ReplayDB {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplayDB{dir: dir, refreshRate: refreshRate, log: logger}
}

// Get returns the cached connection, rebuilding it when it is stale.
func (c *ReplayDB) Get() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil && time.Since(c.lastRefresh) < c.refreshRate {
		return c.db, nil
	}
	return c.refreshLocked()
}

func (c *ReplayDB) refreshLocked() (*sql.DB, error) {
	start := time.Now()

	files, err := filepath.Glob(filepath.Join(c.dir, "*.parquet"))
	if err != nil {
		return nil, fmt.Errorf("glob replays: %w", err)
	}
	if c.db != nil && len(files) == c.files {
		// Nothing new on disk; keep the open view.
		c.lastRefresh = time.Now()
		return c.db, nil
	}

	newDB, err := openReplayView(c.dir, len(files) > 0)
	if err != nil {
		return nil, err
	}
	if c.db != nil {
		_ = c.db.Close()
	}
	c.db = newDB
	c.files = len(files)
	c.lastRefresh = time.Now()

	c.log.Debug("replay view refreshed", "files", len(files), "took", time.Since(start))
	return c.db, nil
}

func (c *ReplayDB) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		err := c.db.Close()
		c.db = nil
		return err
	}
	return nil
}

func openReplayView(dir string, haveFiles bool) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// Basic pragmas; ignore errors for compatibility across versions.
	_, _ = db.Exec("PRAGMA threads=2")

	if !haveFiles {
		// read_parquet fails on a glob that matches nothing.
		_, err := db.Exec(`CREATE OR REPLACE VIEW replays AS
			SELECT * FROM (
				SELECT
					NULL::VARCHAR AS round_id,
					NULL::INTEGER AS seq,
					NULL::INTEGER AS step,
					NULL::VARCHAR AS player,
					NULL::VARCHAR AS mode,
					NULL::VARCHAR AS difficulty,
					NULL::VARCHAR AS barrier,
					NULL::INTEGER AS grid_size,
					NULL::INTEGER[] AS snake_x,
					NULL::INTEGER[] AS snake_y,
					NULL::INTEGER[] AS barrier_x,
					NULL::INTEGER[] AS barrier_y,
					NULL::INTEGER AS food_x,
					NULL::INTEGER AS food_y,
					NULL::INTEGER AS score,
					NULL::VARCHAR AS event,
					NULL::VARCHAR AS reason,
					NULL::BIGINT AS elapsed_ms,
					NULL::VARCHAR AS filename
			) WHERE 1=0`)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create empty view: %w", err)
		}
		return db, nil
	}

	// The glob is not recursive, so in-progress files under dir/tmp are never read.
	glob := filepath.ToSlash(filepath.Join(dir, "*.parquet"))
	sqlText := `CREATE OR REPLACE VIEW replays AS
		SELECT * FROM read_parquet(['` + escapeSQLString(glob) + `'], filename=true, union_by_name=true)`
	if _, err := db.Exec(sqlText); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create replay view: %w", err)
	}
	return db, nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func queryReplaysTotal(ctx context.Context, db *sql.DB) (int64, error) {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT round_id) FROM replays`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count replays: %w", err)
	}
	return total, nil
}

// queryReplays lists rounds newest first. Round IDs are time-ordered UUIDs.
// A limit of zero or less returns every round from offset on.
func queryReplays(ctx context.Context, db *sql.DB, limit, offset int) ([]ReplaySummary, error) {
	if offset < 0 {
		offset = 0
	}
	page := `LIMIT ? OFFSET ?`
	args := []any{limit, offset}
	if limit <= 0 {
		page = `OFFSET ?`
		args = []any{offset}
	}
	rows, err := db.QueryContext(ctx, `
		SELECT
			round_id,
			MIN(player)::VARCHAR,
			MIN(mode)::VARCHAR,
			MIN(difficulty)::VARCHAR,
			MIN(barrier)::VARCHAR,
			MIN(grid_size)::INTEGER,
			MAX(step)::INTEGER,
			COUNT(*)::BIGINT,
			MAX(score)::INTEGER,
			MAX(elapsed_ms)::BIGINT,
			arg_max(reason, seq)::VARCHAR,
			MIN(filename)::VARCHAR
		FROM replays
		GROUP BY round_id
		ORDER BY round_id DESC
		`+page, args...)
	if err != nil {
		return nil, fmt.Errorf("query replays: %w", err)
	}
	defer rows.Close()

	out := make([]ReplaySummary, 0, max(limit, 0))
	for rows.Next() {
		var s ReplaySummary
		if err := rows.Scan(&s.RoundID, &s.Player, &s.Mode, &s.Difficulty, &s.Barrier, &s.GridSize,
			&s.Steps, &s.Frames, &s.Score, &s.ElapsedMs, &s.Reason, &s.File); err != nil {
			return nil, fmt.Errorf("scan replay summary: %w", err)
		}
		s.File = filepath.Base(s.File)
		out = append(out, s)
	}
	return out, rows.Err()
}

// queryReplay returns every frame of one round. sql.ErrNoRows means the round
// has no finalized replay.
func queryReplay(ctx context.Context, db *sql.DB, roundID string) (ReplayResponse, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT seq, step, grid_size, barrier, snake_x, snake_y, barrier_x, barrier_y,
			food_x, food_y, score, event, reason, elapsed_ms
		FROM replays
		WHERE round_id = ?
		ORDER BY seq`, roundID)
	if err != nil {
		return ReplayResponse{}, fmt.Errorf("query replay: %w", err)
	}
	defer rows.Close()

	resp := ReplayResponse{RoundID: roundID, Barriers: []game.Point{}, Frames: []ReplayFrame{}}
	for rows.Next() {
		var (
			f                    ReplayFrame
			gridSize             int32
			barrier              string
			snakeXAny, snakeYAny any
			barXAny, barYAny     any
		)
		if err := rows.Scan(&f.Seq, &f.Step, &gridSize, &barrier, &snakeXAny, &snakeYAny, &barXAny, &barYAny,
			&f.Food.X, &f.Food.Y, &f.Score, &f.Event, &f.Reason, &f.ElapsedMs); err != nil {
			return ReplayResponse{}, fmt.Errorf("scan replay frame: %w", err)
		}
		resp.GridSize, resp.Barrier = gridSize, barrier
		if bx := asInt32Slice(barXAny); len(bx) > 0 {
			resp.Barriers = zipPoints(bx, asInt32Slice(barYAny))
		}
		f.Snake = zipPoints(asInt32Slice(snakeXAny), asInt32Slice(snakeYAny))
		resp.Frames = append(resp.Frames, f)
	}
	if err := rows.Err(); err != nil {
		return ReplayResponse{}, err
	}
	if len(resp.Frames) == 0 {
		return ReplayResponse{}, sql.ErrNoRows
	}
	return resp, nil
}
