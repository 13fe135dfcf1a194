package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/store"
)

type memBucket struct {
	objects map[string][]byte
}

func newMemBucket() *memBucket {
	return &memBucket{objects: map[string][]byte{}}
}

func (b *memBucket) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	b.objects[key] = bytes.Clone(data)
	return "https://files.example.com/" + key, nil
}

func (b *memBucket) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("no object %s", key)
	}
	return data, nil
}

func TestEncryptRoundTrip(t *testing.T) {
	plaintext := []byte("pantry contents")

	sealed, err := Encrypt(plaintext, "correct horse")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Contains(sealed, plaintext) {
		t.Error("ciphertext contains the plaintext")
	}

	again, err := Encrypt(plaintext, "correct horse")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(sealed[:saltSize], again[:saltSize]) {
		t.Error("salt reused across archives")
	}

	got, err := Decrypt(sealed, "correct horse")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Decrypt = %q, want %q", got, plaintext)
	}
}

func TestDecryptFailures(t *testing.T) {
	sealed, err := Encrypt([]byte("data"), "right")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	tampered := bytes.Clone(sealed)
	tampered[len(tampered)-1] ^= 0xff

	tests := []struct {
		name       string
		data       []byte
		passphrase string
	}{
		{"wrong passphrase", sealed, "wrong"},
		{"tampered", tampered, "right"},
		{"too small", []byte("short"), "right"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decrypt(tt.data, tt.passphrase); !errors.Is(err, ErrDecrypt) {
				t.Errorf("Decrypt error = %v, want ErrDecrypt", err)
			}
		})
	}
}

func TestCreateAndRestore(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	u, err := store.NewUserStore(db).Upsert(ctx, "ext-1", "a@example.com", "Alice")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	h, err := store.NewHouseholdStore(db).Create(ctx, u.ID, "Smiths")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	store.NewPantryStore(db).AddBatch(ctx, h.ID, []model.ParsedItem{{Name: "Rice", Quantity: 2, Unit: "kg"}}, nil)

	bucket := newMemBucket()
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	res, err := Create(ctx, db, bucket, "secret", now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Key != "backups/larder-2026-03-01T093000Z.db.enc" {
		t.Errorf("key = %q", res.Key)
	}
	if res.Size != len(bucket.objects[res.Key]) {
		t.Errorf("size = %d, stored %d", res.Size, len(bucket.objects[res.Key]))
	}

	dbPath := filepath.Join(t.TempDir(), "restored.db")
	if err := Restore(ctx, bucket, "larder-2026-03-01T093000Z.db.enc", "secret", dbPath); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	restored, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("open restored: %v", err)
	}
	defer restored.Close()
	items, err := store.NewPantryStore(restored).List(ctx, h.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].IngredientName != "Rice" || items[0].Quantity != 2 {
		t.Errorf("restored pantry = %+v", items)
	}
}

func TestCreateRequiresPassphrase(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := Create(context.Background(), db, newMemBucket(), "", time.Now()); err == nil {
		t.Error("Create without passphrase succeeded")
	}
}

func TestRestoreRejects(t *testing.T) {
	ctx := context.Background()
	bucket := newMemBucket()

	junk, err := Encrypt([]byte(strings.Repeat("not a database ", 100)), "secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	bucket.objects[KeyPrefix+"junk.db.enc"] = junk

	dir := t.TempDir()
	if err := Restore(ctx, bucket, "junk.db.enc", "wrong", filepath.Join(dir, "a.db")); !errors.Is(err, ErrDecrypt) {
		t.Errorf("wrong passphrase error = %v, want ErrDecrypt", err)
	}
	if err := Restore(ctx, bucket, "junk.db.enc", "secret", filepath.Join(dir, "b.db")); err == nil {
		t.Error("restoring a non-database succeeded")
	}
	if err := Restore(ctx, bucket, "missing.db.enc", "secret", filepath.Join(dir, "c.db")); err == nil {
		t.Error("restoring a missing key succeeded")
	}
}
