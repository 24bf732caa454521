package kv

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewRedisStore_Initializes(t *testing.T) {
	store := NewRedisStore("localhost:6379", "", 0)
	if store == nil {
		t.Fatal("expected non-nil store")
	}
	if err := store.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}
}

// 到達不能なアドレスに対する操作はErrUnavailableとして伝播することを検証。
// 障害が「セッションなし」(nil, nil)に化けないことがセキュリティ上の要件。
func TestRedisStore_UnreachableServer_ReturnsErrUnavailable(t *testing.T) {
	store := NewRedisStore("127.0.0.1:1", "", 0)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := store.Set(ctx, "session:abc", []byte("{}"), time.Minute); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Set error = %v, want ErrUnavailable", err)
	}

	value, err := store.Get(ctx, "session:abc")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Get error = %v, want ErrUnavailable", err)
	}
	if value != nil {
		t.Errorf("Get value = %v, want nil", value)
	}

	if err := store.Delete(ctx, "session:abc"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Delete error = %v, want ErrUnavailable", err)
	}

	if err := store.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Ping error = %v, want ErrUnavailable", err)
	}
}
