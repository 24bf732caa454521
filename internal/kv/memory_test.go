package kv

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "session:a", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := store.Get(ctx, "session:a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != "v1" {
		t.Errorf("value = %q, want %q", value, "v1")
	}

	if err := store.Delete(ctx, "session:a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	value, err = store.Get(ctx, "session:a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != nil {
		t.Errorf("value after delete = %q, want nil", value)
	}
}

func TestMemoryStore_MissingKey_ReturnsNilNil(t *testing.T) {
	store := NewMemoryStore()

	value, err := store.Get(context.Background(), "session:missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != nil {
		t.Errorf("value = %q, want nil", value)
	}
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.Now = func() time.Time { return current }
	ctx := context.Background()

	if err := store.Set(ctx, "session:a", []byte("v1"), time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// TTL内は取得できる
	value, _ := store.Get(ctx, "session:a")
	if value == nil {
		t.Fatal("value should be retrievable before expiry")
	}

	// TTLを過ぎると取得できない
	current = current.Add(2 * time.Second)
	value, err := store.Get(ctx, "session:a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != nil {
		t.Errorf("value after expiry = %q, want nil", value)
	}
}

func TestMemoryStore_ZeroTTL_KeepsExistingExpiry(t *testing.T) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.Now = func() time.Time { return current }
	ctx := context.Background()

	if err := store.Set(ctx, "session:a", []byte("v1"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// 30分後に上書き（TTL維持）
	current = current.Add(30 * time.Minute)
	if err := store.Set(ctx, "session:a", []byte("v2"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// 最初の期限（開始から1時間）までは取得できる
	current = current.Add(29 * time.Minute)
	value, _ := store.Get(ctx, "session:a")
	if string(value) != "v2" {
		t.Errorf("value = %q, want %q", value, "v2")
	}

	// 最初の期限を過ぎると取得できない（上書きで延長されない）
	current = current.Add(2 * time.Minute)
	value, _ = store.Get(ctx, "session:a")
	if value != nil {
		t.Errorf("overwrite with zero TTL must not extend expiry, got %q", value)
	}
}

func TestMemoryStore_ZeroTTL_AbsentKey_IsNoOp(t *testing.T) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.Now = func() time.Time { return current }
	ctx := context.Background()

	// 存在しないキーへのTTL維持書き込みはキーを作成しない
	if err := store.Set(ctx, "session:gone", []byte("v1"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, err := store.Get(ctx, "session:gone")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != nil {
		t.Errorf("zero-TTL write must not create a missing key, got %q", value)
	}

	// 期限切れキーへのTTL維持書き込みも復活させない
	if err := store.Set(ctx, "session:expired", []byte("v1"), time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	current = current.Add(2 * time.Second)
	if err := store.Set(ctx, "session:expired", []byte("v2"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, _ = store.Get(ctx, "session:expired")
	if value != nil {
		t.Errorf("zero-TTL write must not revive an expired key, got %q", value)
	}
}
