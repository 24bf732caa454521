package kv

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore はインメモリのStore実装。
// テストおよびRedisなしのローカル起動で使用する。TTLはStore側で強制する。
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry

	// Now は現在時刻の取得関数。テストで時計を注入するために差し替え可能。
	Now func() time.Time
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		Now:     time.Now,
	}
}

// Set はキーに値を保存する。ttl == 0 の場合は既存キーの期限を維持した
// 上書きのみを行い、キーが存在しない（または期限切れの）場合は何もしない。
// 消えたキーをTTL維持書き込みで復活させないのはRedisStoreと同じ契約。
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl == 0 {
		existing, ok := s.entries[key]
		if !ok || !s.Now().Before(existing.expiresAt) {
			return nil
		}
		s.entries[key] = memoryEntry{value: value, expiresAt: existing.expiresAt}
		return nil
	}

	s.entries[key] = memoryEntry{value: value, expiresAt: s.Now().Add(ttl)}
	return nil
}

// Get はキーの値を取得する。キーが存在しないか期限切れの場合は(nil, nil)を返す。
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !s.Now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	return entry.value, nil
}

// Delete はキーを削除する。
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
