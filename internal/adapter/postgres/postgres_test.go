package postgres

import (
	"context"
	"os"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("FOODFOLLOW_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("FOODFOLLOW_TEST_DATABASE_URL not set")
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBlobStore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	key := "@food-follow/meals/test-" + t.Name()
	t.Cleanup(func() { _ = db.Delete(context.Background(), key) })

	if _, ok, err := db.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get missing: ok=%v err=%v", ok, err)
	}
	if err := db.Set(ctx, key, `[{"id":"1"}]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := db.Set(ctx, key, `[{"id":"2"}]`); err != nil {
		t.Fatalf("Set upsert: %v", err)
	}
	v, ok, err := db.Get(ctx, key)
	if err != nil || !ok || v != `[{"id":"2"}]` {
		t.Fatalf("Get: v=%q ok=%v err=%v", v, ok, err)
	}
	if err := db.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := db.Get(ctx, key); ok {
		t.Error("expected key to be gone")
	}
}
