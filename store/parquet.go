package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/snekarcade/game"
)

// LedgerRow is the Parquet shape of a game.RoundResult.
type LedgerRow struct {
	Seq        int32   `parquet:"seq"`
	PlayerName string  `parquet:"player_name,dict"`
	Score      int64   `parquet:"score"`
	Mode       string  `parquet:"mode,dict"`
	Difficulty string  `parquet:"difficulty,dict"`
	Duration   float64 `parquet:"duration"`
}

// ReplayTickRow is one (round, step) snapshot of a recorded round.
//
// Seq orders rows within a round. Step is the engine's move count, which
// repeats on the row that ends the round because the fatal move is not taken.
// Barrier cells never change during a round, so they are stored on the
// step-0 row only and left empty afterwards.
type ReplayTickRow struct {
	RoundID    string `parquet:"round_id,dict"`
	Seq        int32  `parquet:"seq"`
	Step       int32  `parquet:"step"`
	Player     string `parquet:"player,dict"`
	Mode       string `parquet:"mode,dict"`
	Difficulty string `parquet:"difficulty,dict"`
	Barrier    string `parquet:"barrier,dict"`
	GridSize   int32  `parquet:"grid_size"`

	SnakeX []int32 `parquet:"snake_x"`
	SnakeY []int32 `parquet:"snake_y"`

	BarrierX []int32 `parquet:"barrier_x"`
	BarrierY []int32 `parquet:"barrier_y"`

	FoodX int32 `parquet:"food_x"`
	FoodY int32 `parquet:"food_y"`

	Score     int32  `parquet:"score"`
	Event     string `parquet:"event,dict"`
	Reason    string `parquet:"reason,dict"`
	ElapsedMs int64  `parquet:"elapsed_ms"`
}

// LedgerRows converts ledger records into Parquet rows, keeping their order in
// Seq.
func LedgerRows(records []game.RoundResult) []LedgerRow {
	rows := make([]LedgerRow, 0, len(records))
	for i, r := range records {
		rows = append(rows, LedgerRow{
			Seq:        int32(i),
			PlayerName: r.PlayerName,
			Score:      int64(r.Score),
			Mode:       r.Mode.String(),
			Difficulty: r.Difficulty.String(),
			Duration:   r.Duration,
		})
	}
	return rows
}

// ExportLedgerParquet writes records to outPath as a single Parquet file.
func ExportLedgerParquet(outPath string, records []game.RoundResult) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// Write to a temp file and rename atomically.
	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, LedgerRows(records),
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "round_result_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// ReadLedgerParquet reads back a file written by ExportLedgerParquet.
func ReadLedgerParquet(path string) ([]game.RoundResult, error) {
	rows, err := parquet.ReadFile[LedgerRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	out := make([]game.RoundResult, 0, len(rows))
	for _, row := range rows {
		mode, err := game.ParseGameMode(row.Mode)
		if err != nil {
			return nil, err
		}
		diff, err := game.ParseDifficulty(row.Difficulty)
		if err != nil {
			return nil, err
		}
		out = append(out, game.RoundResult{
			PlayerName: row.PlayerName,
			Score:      int(row.Score),
			Mode:       mode,
			Difficulty: diff,
			Duration:   row.Duration,
		})
	}
	return out, nil
}

// ReadReplayParquet loads every row of one replay file.
func ReadReplayParquet(path string) ([]ReplayTickRow, error) {
	rows, err := parquet.ReadFile[ReplayTickRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows, nil
}
