// Package persistence stores economy saves in SQLite and as zstd snapshot
// files.
package persistence

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/talgya/serfworks/internal/engine"
)

// ErrNoSave is returned when no save exists for the requested game.
var ErrNoSave = errors.New("persistence: no save")

// DB wraps a SQLite connection for economy saves.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		raw_size INTEGER NOT NULL,
		body BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS buildings (
		game_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		type TEXT NOT NULL,
		owner INTEGER NOT NULL,
		pos_q INTEGER NOT NULL,
		pos_r INTEGER NOT NULL,
		constructing INTEGER NOT NULL,
		active INTEGER NOT NULL,
		burning INTEGER NOT NULL,
		knights INTEGER NOT NULL,
		PRIMARY KEY (game_id, id)
	);

	CREATE TABLE IF NOT EXISTS flags (
		game_id TEXT NOT NULL,
		id INTEGER NOT NULL,
		owner INTEGER NOT NULL,
		pos_q INTEGER NOT NULL,
		pos_r INTEGER NOT NULL,
		paths INTEGER NOT NULL,
		resources INTEGER NOT NULL,
		PRIMARY KEY (game_id, id)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_saves_game_tick ON saves(game_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRecord describes a stored save without its body.
type SaveRecord struct {
	ID        int64  `db:"id"`
	GameID    string `db:"game_id"`
	Tick      uint32 `db:"tick"`
	CreatedAt int64  `db:"created_at"`
	RawSize   int64  `db:"raw_size"`
}

// BuildingRow is the queryable summary of a building.
type BuildingRow struct {
	GameID       string `db:"game_id"`
	ID           uint32 `db:"id"`
	Type         string `db:"type"`
	Owner        int    `db:"owner"`
	PosQ         int    `db:"pos_q"`
	PosR         int    `db:"pos_r"`
	Constructing bool   `db:"constructing"`
	Active       bool   `db:"active"`
	Burning      bool   `db:"burning"`
	Knights      int    `db:"knights"`
}

// FlagRow is the queryable summary of a flag.
type FlagRow struct {
	GameID    string `db:"game_id"`
	ID        uint32 `db:"id"`
	Owner     int    `db:"owner"`
	PosQ      int    `db:"pos_q"`
	PosR      int    `db:"pos_r"`
	Paths     int    `db:"paths"`
	Resources int    `db:"resources"`
}

// SaveGame stores a compressed text save of g and replaces its summary
// rows.
func (db *DB) SaveGame(g *engine.Game) (*SaveRecord, error) {
	var raw bytes.Buffer
	if err := g.SaveText(&raw); err != nil {
		return nil, err
	}
	body, err := compress(raw.Bytes())
	if err != nil {
		return nil, err
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec := &SaveRecord{
		GameID:    g.ID.String(),
		Tick:      g.Tick,
		CreatedAt: time.Now().Unix(),
		RawSize:   int64(raw.Len()),
	}
	res, err := tx.Exec(`INSERT INTO saves (game_id, tick, created_at, raw_size, body)
		VALUES (?, ?, ?, ?, ?)`, rec.GameID, rec.Tick, rec.CreatedAt, rec.RawSize, body)
	if err != nil {
		return nil, fmt.Errorf("insert save: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}

	if err := saveSummaries(tx, g); err != nil {
		return nil, err
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		"last_tick", strconv.FormatUint(uint64(g.Tick), 10)); err != nil {
		return nil, fmt.Errorf("save meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("game saved", "game", rec.GameID, "tick", rec.Tick, "bytes", len(body), "raw", rec.RawSize)
	return rec, nil
}

// Summarize builds the summary rows of every building and flag in g.
func Summarize(g *engine.Game) ([]BuildingRow, []FlagRow) {
	id := g.ID.String()
	var buildings []BuildingRow
	for idx, b := range g.Buildings.All() {
		buildings = append(buildings, BuildingRow{
			GameID: id, ID: uint32(idx), Type: b.Type.String(), Owner: b.Owner,
			PosQ: b.Pos.Q, PosR: b.Pos.R, Constructing: b.Constructing,
			Active: b.Active, Burning: b.Burning, Knights: len(b.Knights),
		})
	}

	var flags []FlagRow
	for idx, f := range g.Flags.All() {
		resources := 0
		for _, s := range f.Slots {
			if s.Type.Valid() {
				resources++
			}
		}
		flags = append(flags, FlagRow{
			GameID: id, ID: uint32(idx), Owner: f.Owner, PosQ: f.Pos.Q, PosR: f.Pos.R,
			Paths: int(f.PathBits()), Resources: resources,
		})
	}
	return buildings, flags
}

func saveSummaries(tx *sqlx.Tx, g *engine.Game) error {
	id := g.ID.String()
	if _, err := tx.Exec("DELETE FROM buildings WHERE game_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM flags WHERE game_id = ?", id); err != nil {
		return err
	}

	buildings, flags := Summarize(g)
	for _, row := range buildings {
		if _, err := tx.NamedExec(`INSERT INTO buildings
			(game_id, id, type, owner, pos_q, pos_r, constructing, active, burning, knights)
			VALUES (:game_id, :id, :type, :owner, :pos_q, :pos_r, :constructing, :active, :burning, :knights)`,
			row); err != nil {
			return fmt.Errorf("insert building %d: %w", row.ID, err)
		}
	}
	for _, row := range flags {
		if _, err := tx.NamedExec(`INSERT INTO flags
			(game_id, id, owner, pos_q, pos_r, paths, resources)
			VALUES (:game_id, :id, :owner, :pos_q, :pos_r, :paths, :resources)`,
			row); err != nil {
			return fmt.Errorf("insert flag %d: %w", row.ID, err)
		}
	}
	return nil
}

// LatestSave returns the most recent save of gameID, or of any game when
// gameID is empty.
func (db *DB) LatestSave(gameID string) (*SaveRecord, error) {
	var rec SaveRecord
	var err error
	if gameID == "" {
		err = db.conn.Get(&rec, `SELECT id, game_id, tick, created_at, raw_size
			FROM saves ORDER BY id DESC LIMIT 1`)
	} else {
		err = db.conn.Get(&rec, `SELECT id, game_id, tick, created_at, raw_size
			FROM saves WHERE game_id = ? ORDER BY id DESC LIMIT 1`, gameID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListSaves returns up to limit saves, newest first.
func (db *DB) ListSaves(limit int) ([]SaveRecord, error) {
	var recs []SaveRecord
	err := db.conn.Select(&recs, `SELECT id, game_id, tick, created_at, raw_size
		FROM saves ORDER BY id DESC LIMIT ?`, limit)
	return recs, err
}

// LoadGame decompresses and loads the save with the given id.
func (db *DB) LoadGame(id int64) (*engine.Game, error) {
	var body []byte
	err := db.conn.Get(&body, "SELECT body FROM saves WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("save %d: %w", id, ErrNoSave)
	}
	if err != nil {
		return nil, err
	}
	raw, err := decompress(body)
	if err != nil {
		return nil, fmt.Errorf("save %d: %w", id, err)
	}
	return engine.LoadText(bytes.NewReader(raw))
}

// Buildings returns the building summaries of the last save of gameID.
func (db *DB) Buildings(gameID string) ([]BuildingRow, error) {
	var rows []BuildingRow
	err := db.conn.Select(&rows, "SELECT * FROM buildings WHERE game_id = ? ORDER BY id", gameID)
	return rows, err
}

// Flags returns the flag summaries of the last save of gameID.
func (db *DB) Flags(gameID string) ([]FlagRow, error) {
	var rows []FlagRow
	err := db.conn.Select(&rows, "SELECT * FROM flags WHERE game_id = ? ORDER BY id", gameID)
	return rows, err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

func compress(raw []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

func decompress(body []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(body, nil)
}
