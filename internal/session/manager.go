// Package session はセッションの発行・検証・更新・破棄を提供する。
// セッションレコードはキーバリューストアに保存された非正規化ユーザースナップショットで、
// ルックアップキーは高エントロピーのランダムトークン。トークンは認証情報としての
// 比較には一切使用しない。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/hitoshi/campusmarket/internal/cookie"
	"github.com/hitoshi/campusmarket/internal/kv"
	"github.com/hitoshi/campusmarket/internal/model"
)

const (
	// CookieName はセッションIDを保持するCookieの名前。
	CookieName = "sessionId"

	// keyPrefix はストア上のセッションキーのプレフィックス。
	keyPrefix = "session:"

	// tokenLength はセッショントークンのバイト長。256ビットのエントロピー。
	tokenLength = 32
)

// Manager はセッションのライフサイクルを管理する。
// ストアとCookieトランスポート以外には依存せず、ホストランタイムに依存しない。
type Manager struct {
	store kv.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager はManagerを生成する。ttlはセッションの固定有効期間。
func NewManager(store kv.Store, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// CreateSession は新しいセッションを発行する。
// ランダムトークンを生成し、スナップショットをTTL付きでストアへ書き込み、
// セッションCookieを設定する。Cookie書き込み失敗はストア障害と区別して返す。
func (m *Manager) CreateSession(ctx context.Context, data model.SessionData, cookies cookie.Cookies) error {
	sessionID, err := generateToken()
	if err != nil {
		return fmt.Errorf("failed to generate session token: %w", err)
	}

	value, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	if err := m.store.Set(ctx, keyPrefix+sessionID, value, m.ttl); err != nil {
		return err
	}

	// Cookieの絶対期限はストア側TTLと一致させる
	expires := m.now().Add(m.ttl)
	if err := cookies.Set(CookieName, sessionID, cookie.Options{
		HTTPOnly: true,
		Secure:   true,
		Path:     "/",
		Expires:  expires,
		SameSite: cookie.SameSiteLax,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrCookieTransport, err)
	}

	return nil
}

// GetUserFromSession はCookieのセッションIDからスナップショットを取得する。
// Cookieが無い場合は(nil, nil)（匿名）。保存値がスキーマ検証に失敗した場合も
// 有効な身元として扱わず、警告ログのみ残して匿名に降格する。
// ストア障害はそのまま伝播し、匿名扱いには変換しない。
func (m *Manager) GetUserFromSession(ctx context.Context, cookies cookie.Cookies) (*model.SessionData, error) {
	ck, ok := cookies.Get(CookieName)
	if !ok {
		return nil, nil
	}

	value, err := m.store.Get(ctx, keyPrefix+ck.Value)
	if err != nil {
		return nil, err
	}
	if value == nil {
		// キーなし＝期限切れまたは破棄済み
		return nil, nil
	}

	var data model.SessionData
	if err := json.Unmarshal(value, &data); err != nil {
		slog.Warn("corrupted session record: invalid JSON",
			slog.String("error", err.Error()),
		)
		return nil, nil
	}
	if err := validateSnapshot(&data); err != nil {
		slog.Warn("corrupted session record: schema validation failed",
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	return &data, nil
}

// UpdateSessionData はセッションレコードのスナップショットを同一キーのまま上書きする。
// ユーザーはログアウトされず、セッションの継続性が保たれる。
// TTLは引き継がれるため、有効期限は発行時から変わらない（スライド更新しない）。
// 身元フィールド（ユーザー名等）を変更する呼び出し側は必ずこのメソッドを呼ぶこと。
// アクティブなセッションが無い場合（Cookieが無い、またはレコードが
// 削除・期限切れ済み）は何もしない。削除済みセッションを復活させない。
func (m *Manager) UpdateSessionData(ctx context.Context, cookies cookie.Cookies, data model.SessionData) error {
	ck, ok := cookies.Get(CookieName)
	if !ok {
		return nil
	}

	value, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	// ttl=0 は既存キーのTTL維持を意味する
	return m.store.Set(ctx, keyPrefix+ck.Value, value, 0)
}

// DeleteUserSession はセッションレコードとCookieを破棄する。
// アクティブなセッションが無い場合もエラーにせず、冪等に振る舞う。
// ストア側の削除に失敗してもCookieは必ず削除し、ユーザーをローカルには
// ログアウト済みにしたうえでエラーを返す。
func (m *Manager) DeleteUserSession(ctx context.Context, cookies cookie.Cookies) error {
	ck, ok := cookies.Get(CookieName)
	if !ok {
		return nil
	}

	storeErr := m.store.Delete(ctx, keyPrefix+ck.Value)

	if err := cookies.Delete(CookieName); err != nil {
		return fmt.Errorf("%w: %v", ErrCookieTransport, err)
	}

	return storeErr
}

// validateSnapshot は保存されたセッションレコードのスキーマ検証を行う。
// 破損したレコードを有効な身元として扱わないための防衛線。
func validateSnapshot(d *model.SessionData) error {
	if d.UserID == "" {
		return fmt.Errorf("userId is empty")
	}
	if len(d.Username) < 3 || len(d.Username) > 30 {
		return fmt.Errorf("username length %d is out of range", len(d.Username))
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		return fmt.Errorf("email is invalid: %w", err)
	}
	if d.CreatedAt.IsZero() || d.UpdatedAt.IsZero() {
		return fmt.Errorf("timestamps are missing")
	}
	return nil
}

// generateToken は暗号的に安全な乱数源から256ビットのセッショントークンを生成する。
func generateToken() (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
