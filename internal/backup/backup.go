// Package backup takes encrypted snapshots of the larder database and keeps
// them in the object store next to recipe photos.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dukerupert/larder/internal/database"
)

// KeyPrefix is where archives live in the bucket.
const KeyPrefix = "backups/"

const mediaType = "application/octet-stream"

// Bucket stores and fetches archives.
type Bucket interface {
	Put(ctx context.Context, key, mediaType string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Result describes an uploaded archive.
type Result struct {
	Key  string
	Size int
}

// Create snapshots db with VACUUM INTO, encrypts the snapshot and uploads
// it under KeyPrefix.
func Create(ctx context.Context, db *sql.DB, bucket Bucket, passphrase string, now time.Time) (*Result, error) {
	if passphrase == "" {
		return nil, errors.New("backup passphrase is required")
	}

	dir, err := os.MkdirTemp("", "larder-backup-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	snapshot := filepath.Join(dir, "larder.db")
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, snapshot); err != nil {
		return nil, fmt.Errorf("snapshot database: %w", err)
	}
	plaintext, err := os.ReadFile(snapshot)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	sealed, err := Encrypt(plaintext, passphrase)
	if err != nil {
		return nil, err
	}

	key := KeyPrefix + "larder-" + now.UTC().Format("2006-01-02T150405Z") + ".db.enc"
	if _, err := bucket.Put(ctx, key, mediaType, sealed); err != nil {
		return nil, err
	}
	return &Result{Key: key, Size: len(sealed)}, nil
}

// Restore downloads and decrypts the archive under key, checks that it is
// a sound larder database, and writes it to dbPath. The server must not be
// running against dbPath.
func Restore(ctx context.Context, bucket Bucket, key, passphrase, dbPath string) error {
	if !strings.HasPrefix(key, KeyPrefix) {
		key = KeyPrefix + key
	}
	sealed, err := bucket.Get(ctx, key)
	if err != nil {
		return err
	}
	plaintext, err := Decrypt(sealed, passphrase)
	if err != nil {
		return err
	}

	tmp := dbPath + ".restore"
	if err := os.WriteFile(tmp, plaintext, 0o600); err != nil {
		return fmt.Errorf("write restored database: %w", err)
	}
	if err := verify(tmp); err != nil {
		os.Remove(tmp)
		return err
	}

	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")
	if err := os.Rename(tmp, dbPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	return nil
}

func verify(path string) error {
	db, err := database.Connect(path)
	if err != nil {
		return fmt.Errorf("open restored database: %w", err)
	}
	defer db.Close()

	var integrity string
	if err := db.QueryRow(`PRAGMA integrity_check`).Scan(&integrity); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if integrity != "ok" {
		return fmt.Errorf("integrity check failed: %s", integrity)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'pantry_items'`).Scan(&n); err != nil {
		return fmt.Errorf("inspect restored database: %w", err)
	}
	if n == 0 {
		return errors.New("archive is not a larder database")
	}
	return nil
}
