// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/campusmarket/internal/cookie"
	"github.com/hitoshi/campusmarket/internal/kv"
	"github.com/hitoshi/campusmarket/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストにセッションスナップショットを格納するためのキー。
var userContextKey = contextKey("session_user")

// SessionReader はセッションの読み取りに必要なインターフェース。
// session.Managerの部分集合として定義する。
type SessionReader interface {
	GetUserFromSession(ctx context.Context, cookies cookie.Cookies) (*model.SessionData, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// スナップショットをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証リクエストには401を返す。BANされたアカウントのセッションは
// ストア上は有効なため、ここで拒否する（セッション層ではなく消費側の責務）。
// ストア障害は401ではなく503として区別する。
func NewSessionMiddleware(sessions SessionReader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := sessions.GetUserFromSession(r.Context(), cookie.NewHTTP(w, r))
			if err != nil {
				if errors.Is(err, kv.ErrUnavailable) {
					slog.Error("session store unavailable",
						slog.String("error", err.Error()),
					)
					WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewSessionUnavailableError())
					return
				}
				slog.Error("failed to read session",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if user == nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if user.IsBanned {
				WriteErrorResponse(w, http.StatusForbidden, model.NewAccountBannedError())
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext はリクエストコンテキストからセッションスナップショットを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.SessionData, error) {
	user, ok := ctx.Value(userContextKey).(*model.SessionData)
	if !ok || user == nil {
		return nil, fmt.Errorf("session user not found in context")
	}
	return user, nil
}

// ContextWithUser はコンテキストにセッションスナップショットを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.SessionData) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
