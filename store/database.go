// Package store database for booth settings, logo, admin credentials and saved captures
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db}

	// Create tables if they don't exist
	if err := database.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return database, nil
}

func (d *Database) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS captures (
		name       TEXT NOT NULL PRIMARY KEY,
		template   TEXT NOT NULL,
		shot_count INTEGER NOT NULL,
		"order"    INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		remote_key TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_captures_order ON captures("order");
	CREATE TABLE IF NOT EXISTS booth_settings (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		total_shots       INTEGER NOT NULL,
		countdown_seconds INTEGER NOT NULL,
		template          TEXT NOT NULL,
		background_color  TEXT NOT NULL,
		frame_color       TEXT NOT NULL,
		accent_color      TEXT NOT NULL,
		caption           TEXT NOT NULL,
		logo_scale        INTEGER NOT NULL,
		logo_position     TEXT NOT NULL,
		PRIMARY KEY (singleton)
	);
	CREATE TABLE IF NOT EXISTS booth_logo (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		data         BLOB NOT NULL,
		content_type TEXT NOT NULL,
		PRIMARY KEY (singleton)
	);
	CREATE TABLE IF NOT EXISTS admin_credentials (
		singleton INTEGER NOT NULL DEFAULT 1 CHECK (singleton = 1),
		password_hash TEXT NOT NULL,
		PRIMARY KEY (singleton)
	);
	`
	_, err := d.db.Exec(query)
	return err
}

func (d *Database) InsertCapture(c *Capture) error {
	query := `INSERT INTO captures (name, template, shot_count, "order", created_at, remote_key) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := d.db.Exec(query, c.Name, c.Template, c.ShotCount, c.Order, c.CreatedAt.Unix(), c.RemoteKey)
	if err != nil {
		return fmt.Errorf("failed to insert capture: %w", err)
	}
	return nil
}

const captureColumns = `name, template, shot_count, "order", created_at, remote_key`

func scanCapture(scan func(dest ...any) error) (Capture, error) {
	var c Capture
	var createdAt int64
	if err := scan(&c.Name, &c.Template, &c.ShotCount, &c.Order, &createdAt, &c.RemoteKey); err != nil {
		return Capture{}, err
	}
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return c, nil
}

func (d *Database) queryCaptures(query string, args ...any) ([]Capture, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		c, err := scanCapture(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		captures = append(captures, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return captures, nil
}

// GetCaptures returns a page of captures, newest first.
func (d *Database) GetCaptures(limit int, offset int) ([]Capture, error) {
	query := `SELECT ` + captureColumns + ` FROM captures ORDER BY "order" DESC LIMIT ? OFFSET ?`
	return d.queryCaptures(query, limit, offset)
}

// GetOldestCaptures returns up to n captures, oldest first.
func (d *Database) GetOldestCaptures(n int) ([]Capture, error) {
	query := `SELECT ` + captureColumns + ` FROM captures ORDER BY "order" ASC LIMIT ?`
	return d.queryCaptures(query, n)
}

func (d *Database) GetAllCaptureNames() ([]string, error) {
	rows, err := d.db.Query(`SELECT name FROM captures`)
	if err != nil {
		return nil, fmt.Errorf("failed to query capture names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan capture name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return names, nil
}

func (d *Database) GetCapture(name string) (*Capture, error) {
	query := `SELECT ` + captureColumns + ` FROM captures WHERE name = ?`
	c, err := scanCapture(d.db.QueryRow(query, name).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("capture %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get capture: %w", err)
	}
	return &c, nil
}

func (d *Database) GetCaptureCount() (int, error) {
	query := `SELECT COUNT(*) FROM captures`
	var count int
	err := d.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get capture count: %w", err)
	}
	return count, nil
}

func (d *Database) DeleteCapture(name string) error {
	query := `DELETE FROM captures WHERE name = ?`
	result, err := d.db.Exec(query, name)
	if err != nil {
		return fmt.Errorf("failed to delete capture: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("capture %s: %w", name, ErrNotFound)
	}

	return nil
}

func (d *Database) SetCaptureRemoteKey(name string, key string) error {
	result, err := d.db.Exec(`UPDATE captures SET remote_key = ? WHERE name = ?`, key, name)
	if err != nil {
		return fmt.Errorf("failed to set remote key: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("capture %s: %w", name, ErrNotFound)
	}
	return nil
}

// GetMaxOrder returns the next free order value.
func (d *Database) GetMaxOrder() (int, error) {
	query := `SELECT COALESCE(MAX("order"), -1) FROM captures`
	var maxOrder int
	err := d.db.QueryRow(query).Scan(&maxOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to get max order: %w", err)
	}
	return maxOrder + 1, nil
}

func (d *Database) CaptureExists(name string) (bool, error) {
	query := `SELECT COUNT(*) FROM captures WHERE name = ?`
	var count int
	err := d.db.QueryRow(query, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check capture existence: %w", err)
	}
	return count > 0, nil
}

func (d *Database) GetBoothSettings() (*BoothSettings, error) {
	const query = `
		SELECT total_shots,
		       countdown_seconds,
		       template,
		       background_color,
		       frame_color,
		       accent_color,
		       caption,
		       logo_scale,
		       logo_position
		FROM booth_settings
		WHERE singleton = 1
	`

	var s BoothSettings
	err := d.db.QueryRow(query).Scan(
		&s.TotalShots,
		&s.CountdownSeconds,
		&s.Template,
		&s.BackgroundColor,
		&s.FrameColor,
		&s.AccentColor,
		&s.Caption,
		&s.LogoScale,
		&s.LogoPosition,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// Bootstrap defaults if no settings row exists yet
		defaults := DefaultBoothSettings()
		if err := d.UpsertBoothSettings(defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get booth settings: %w", err)
	}
	return &s, nil
}

func (d *Database) UpsertBoothSettings(s *BoothSettings) error {
	const stmt = `
		INSERT INTO booth_settings (
			singleton,
			total_shots,
			countdown_seconds,
			template,
			background_color,
			frame_color,
			accent_color,
			caption,
			logo_scale,
			logo_position
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			total_shots       = excluded.total_shots,
			countdown_seconds = excluded.countdown_seconds,
			template          = excluded.template,
			background_color  = excluded.background_color,
			frame_color       = excluded.frame_color,
			accent_color      = excluded.accent_color,
			caption           = excluded.caption,
			logo_scale        = excluded.logo_scale,
			logo_position     = excluded.logo_position
	`

	if err := s.Validate(); err != nil {
		return fmt.Errorf("upsert booth settings: %w", err)
	}

	_, err := d.db.Exec(
		stmt,
		s.TotalShots,
		s.CountdownSeconds,
		s.Template,
		s.BackgroundColor,
		s.FrameColor,
		s.AccentColor,
		s.Caption,
		s.LogoScale,
		s.LogoPosition,
	)
	if err != nil {
		return fmt.Errorf("upsert booth settings: %w", err)
	}
	return nil
}

// GetLogo returns ErrNotFound when no logo was uploaded.
func (d *Database) GetLogo() (*Logo, error) {
	var logo Logo
	err := d.db.QueryRow(`SELECT data, content_type FROM booth_logo WHERE singleton = 1`).Scan(&logo.Data, &logo.ContentType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("logo: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get logo: %w", err)
	}
	return &logo, nil
}

func (d *Database) UpsertLogo(logo *Logo) error {
	const stmt = `
		INSERT INTO booth_logo (singleton, data, content_type) VALUES (1, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			data         = excluded.data,
			content_type = excluded.content_type
	`
	if _, err := d.db.Exec(stmt, logo.Data, logo.ContentType); err != nil {
		return fmt.Errorf("upsert logo: %w", err)
	}
	return nil
}

func (d *Database) DeleteLogo() error {
	if _, err := d.db.Exec(`DELETE FROM booth_logo WHERE singleton = 1`); err != nil {
		return fmt.Errorf("delete logo: %w", err)
	}
	return nil
}

// GetAdminHash returns ErrNotFound until a password has been set.
func (d *Database) GetAdminHash() (string, error) {
	var hash string
	err := d.db.QueryRow(`SELECT password_hash FROM admin_credentials WHERE singleton = 1`).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("admin credentials: %w", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get admin hash: %w", err)
	}
	return hash, nil
}

func (d *Database) UpsertAdminHash(hash string) error {
	const stmt = `
		INSERT INTO admin_credentials (singleton, password_hash) VALUES (1, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			password_hash = excluded.password_hash
	`
	if _, err := d.db.Exec(stmt, hash); err != nil {
		return fmt.Errorf("upsert admin hash: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
