package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/serfworks/internal/engine"
)

// SnapshotHeader is the first line of a snapshot file.
type SnapshotHeader struct {
	Version int    `json:"version"`
	GameID  string `json:"game_id"`
	Tick    uint32 `json:"tick"`
	Created int64  `json:"created"`
}

const snapshotVersion = 1

// SnapshotPath names the snapshot of tick in dir.
func SnapshotPath(dir string, tick uint32) string {
	return filepath.Join(dir, fmt.Sprintf("tick-%08d.snap.zst", tick))
}

// WriteSnapshot writes a zstd stream holding a JSON header line followed
// by the text save of g.
func WriteSnapshot(path string, g *engine.Game) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(SnapshotHeader{
		Version: snapshotVersion,
		GameID:  g.ID.String(),
		Tick:    g.Tick,
		Created: time.Now().Unix(),
	})
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := g.SaveText(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (SnapshotHeader, *engine.Game, error) {
	var hdr SnapshotHeader
	f, err := os.Open(path)
	if err != nil {
		return hdr, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return hdr, nil, fmt.Errorf("snapshot header: %w", err)
	}
	if err := json.Unmarshal(line, &hdr); err != nil {
		return hdr, nil, fmt.Errorf("snapshot header: %w", err)
	}
	if hdr.Version != snapshotVersion {
		return hdr, nil, fmt.Errorf("snapshot version %d: unsupported", hdr.Version)
	}
	g, err := engine.LoadText(br)
	if err != nil {
		return hdr, nil, err
	}
	return hdr, g, nil
}
