package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// ReplayWriter streams the steps of one round into a Parquet file under
// outDir/tmp and moves it into outDir on Finalize, so readers scanning outDir
// never observe a partially written replay.
type ReplayWriter struct {
	roundID string
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[ReplayTickRow]

	rows int
}

func NewReplayWriter(outDir, roundID string) (*ReplayWriter, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}
	if roundID == "" {
		return nil, fmt.Errorf("roundID is required")
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("round_%s.parquet", roundID)
	tmpPath := filepath.Join(tmpDir, name)
	outPath := filepath.Join(absOut, name)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[ReplayTickRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("snake_x"),
		parquet.SkipPageBounds("snake_y"),
	)
	w.SetKeyValueMetadata("schema", "replay_tick_v1")

	return &ReplayWriter{
		roundID: roundID,
		tmpPath: tmpPath,
		outPath: outPath,
		file:    f,
		writer:  w,
	}, nil
}

func (w *ReplayWriter) RoundID() string { return w.roundID }
func (w *ReplayWriter) TmpPath() string { return w.tmpPath }
func (w *ReplayWriter) OutPath() string { return w.outPath }
func (w *ReplayWriter) Rows() int       { return w.rows }

func (w *ReplayWriter) WriteRows(rows ...ReplayTickRow) error {
	if w.writer == nil || w.file == nil {
		return fmt.Errorf("replay writer is closed")
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := w.writer.Write(rows); err != nil {
		return fmt.Errorf("write replay rows: %w", err)
	}
	w.rows += len(rows)
	return nil
}

// Finalize closes the writer and moves the file out of tmp/. If no rows were
// written the tmp file is removed and outPath is returned empty.
func (w *ReplayWriter) Finalize() (outPath string, rows int, err error) {
	if w.writer == nil && w.file == nil {
		return "", 0, nil
	}
	rows = w.rows

	if err := w.close(); err != nil {
		_ = os.Remove(w.tmpPath)
		return "", 0, err
	}

	if rows == 0 {
		_ = os.Remove(w.tmpPath)
		return "", 0, nil
	}
	if err := os.Rename(w.tmpPath, w.outPath); err != nil {
		return "", 0, fmt.Errorf("rename parquet: %w", err)
	}
	return w.outPath, rows, nil
}

// Discard closes the writer and deletes the partial file.
func (w *ReplayWriter) Discard() error {
	err := w.close()
	_ = os.Remove(w.tmpPath)
	return err
}

func (w *ReplayWriter) close() error {
	var closeErr error
	if w.writer != nil {
		closeErr = w.writer.Close()
		w.writer = nil
	}
	var fileErr error
	if w.file != nil {
		_ = w.file.Sync()
		fileErr = w.file.Close()
		w.file = nil
	}
	if closeErr != nil {
		return fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		return fmt.Errorf("close parquet file: %w", fileErr)
	}
	return nil
}
