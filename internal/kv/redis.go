// Package kv はセッション永続化に使用するキーバリューストアのクライアントを提供する。
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable はストアへの接続・通信障害を表す。
// 障害を「セッションなし」と同一視すると、ストア停止が全ユーザーのログアウト
// （あるいはより危険な誤認証）に化けるため、呼び出し側はこのエラーを
// 認証失敗や匿名扱いに変換してはならない。
var ErrUnavailable = errors.New("session store unavailable")

// Store はセッションレコードの保存に必要なキーバリュー操作のインターフェース。
// 有効期限の強制はストア側の責務であり、クライアントは期限切れキーを観測しない。
type Store interface {
	// Set はキーに値を保存する。上書きセマンティクス（last write wins）。
	// ttl > 0 の場合は絶対期限を設定する。ttl == 0 の場合は既存キーのTTLを
	// 維持した上書きのみを行い、キーが存在しなければ何もしない。
	// 削除済み・期限切れのキーをTTL維持書き込みで復活させてはならない。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get はキーの値を取得する。キーが存在しない（または期限切れの）場合は(nil, nil)を返す。
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete はキーを削除する。キーが存在しない場合もエラーにはならない。
	Delete(ctx context.Context, key string) error
}

// RedisStore はRedisを使用したStore実装。
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore はRedis接続を開いたRedisStoreを生成する。
// redis.NewClientは接続を試行しないため、実際の接続確認にはPing()を使用すること。
func NewRedisStore(addr, passwd string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: passwd,
		DB:       db,
	})
	return &RedisStore{client: client}
}

// Set はキーに値を保存する。ttl == 0 の場合は既存キーのTTLを引き継ぐ。
// TTL維持の上書きはXXモード（存在するキーのみ）で行う。KEEPTTLを無条件の
// SETで使うと、別デバイスのサインアウト等で消えたキーが無期限キーとして
// 再作成されてしまうため、消えたキーへの上書きは黙って何もしない。
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		err := s.client.SetArgs(ctx, key, value, redis.SetArgs{
			Mode:    "XX",
			KeepTTL: true,
		}).Err()
		if errors.Is(err, redis.Nil) {
			// キーが既に消えている: 復活させない
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
		}
		return nil
	}

	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Get はキーの値を取得する。キーが存在しない場合は(nil, nil)を返す。
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	return value, nil
}

// Delete はキーを削除する。
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Ping はストアへの疎通を確認する。ヘルスチェックで使用する。
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return nil
}

// Close はRedis接続を閉じる。
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// compile-time interface check
var _ Store = (*RedisStore)(nil)
