// Package assets keeps the screensaver images in a local SQLite database.
package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no image has the requested name
var ErrNotFound = errors.New("image not found")

// ErrExists is returned when adding an image under a name already in use
var ErrExists = errors.New("image already exists")

// Store manages screensaver bitmaps using SQLite
type Store struct {
	db *sql.DB
}

// Image is one stored screensaver frame
type Image struct {
	ID      int64
	Name    string
	Width   int
	Height  int
	Bitmap  []byte
	AddedAt time.Time
}

// Size returns the bitmap size in bytes
func (i Image) Size() int {
	return len(i.Bitmap)
}

// NewStore opens or creates the image database at dbPath
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps ":memory:" databases consistent
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS images (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			bitmap BLOB NOT NULL,
			added_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Add stores a bitmap under name
func (s *Store) Add(ctx context.Context, name string, width, height int, bitmap []byte) (int64, error) {
	if want := (width + 7) / 8 * height; len(bitmap) != want {
		return 0, fmt.Errorf("bitmap is %d bytes, want %d for %dx%d", len(bitmap), want, width, height)
	}

	query := `
		INSERT INTO images (name, width, height, bitmap, added_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query, name, width, height, bitmap, time.Now().Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return 0, fmt.Errorf("%w: %s", ErrExists, name)
		}
		return 0, fmt.Errorf("failed to insert image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// List returns every image in the order it was added
func (s *Store) List(ctx context.Context) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, width, height, bitmap, added_at
		FROM images
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []Image
	for rows.Next() {
		var img Image
		var addedUnix int64

		if err := rows.Scan(&img.ID, &img.Name, &img.Width, &img.Height, &img.Bitmap, &addedUnix); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		img.AddedAt = time.Unix(addedUnix, 0)
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating images: %w", err)
	}

	return images, nil
}

// Bitmaps returns the bitmaps of every image sized width x height, in
// screensaver order. Images of other sizes are skipped.
func (s *Store) Bitmaps(ctx context.Context, width, height int) ([][]byte, error) {
	images, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for _, img := range images {
		if img.Width == width && img.Height == height {
			out = append(out, img.Bitmap)
		}
	}
	return out, nil
}

// Remove deletes the image called name
func (s *Store) Remove(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM images WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return nil
}

// Count returns the number of stored images
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM images").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}
	return count, nil
}
