// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/campusmarket/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID string) (*model.User, error)

	// FindByIdentifier はユーザー名またはメールアドレスでユーザーを検索する。
	// 大文字小文字を区別しない単一クエリで検索し、どちらが一致したかは返さない
	// （アカウント列挙攻撃対策）。見つからない場合はnilを返す。
	FindByIdentifier(ctx context.Context, identifier string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。大文字小文字を区別しない。
	// 見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。大文字小文字を区別しない。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はname、username、email、bio、updated_atを更新する。
	UpdateProfile(ctx context.Context, user *model.User) error
}
