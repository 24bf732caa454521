// Package profile はプロフィール編集と入力可否チェックのドメインロジックを提供する。
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/campusmarket/internal/auth"
	"github.com/hitoshi/campusmarket/internal/cookie"
	"github.com/hitoshi/campusmarket/internal/kv"
	"github.com/hitoshi/campusmarket/internal/model"
	"github.com/hitoshi/campusmarket/internal/repository"
)

// SessionSync はプロフィール編集後のセッション同期のインターフェース。
// session.Managerの部分集合として定義する。
type SessionSync interface {
	UpdateSessionData(ctx context.Context, cookies cookie.Cookies, data model.SessionData) error
}

// Sanitizer は自己紹介文の無害化のインターフェース。
type Sanitizer interface {
	Sanitize(bio string) string
}

// Service はプロフィール管理のサービス層。
type Service struct {
	userRepo  repository.UserRepository
	sessions  SessionSync
	sanitizer Sanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, sessions SessionSync, sanitizer Sanitizer) *Service {
	return &Service{
		userRepo:  userRepo,
		sessions:  sessions,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// EditInput はプロフィール編集の入力。
type EditInput struct {
	Name     string
	Username string
	Email    string
	Bio      string
}

// Edit はプロフィールを更新する。
// ユーザー名・メールアドレスの変更時は、自分以外のユーザーによる使用を
// 大文字小文字を区別せずにチェックする。永続化に成功した後でのみ
// セッションスナップショットを同一キーのまま同期し、ユーザーは
// ログアウトされない。順序が重要: 永続化に失敗した値がセッションに
// 残ってはならない。
func (s *Service) Edit(ctx context.Context, current *model.SessionData, input EditInput, cookies cookie.Cookies) (*model.User, error) {
	if current == nil {
		return nil, model.NewUnauthorizedError()
	}

	// 1. 入力バリデーション
	if fields := validateEdit(input); len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	// 2. 変更されたフィールドの一意性チェック（userId != currentの行のみ衝突）
	if !strings.EqualFold(input.Username, current.Username) {
		existing, err := s.userRepo.FindByUsername(ctx, input.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username uniqueness: %w", err)
		}
		if existing != nil && existing.UserID != current.UserID {
			return nil, model.NewUsernameTakenError()
		}
	}
	if !strings.EqualFold(input.Email, current.Email) {
		existing, err := s.userRepo.FindByEmail(ctx, input.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
		}
		if existing != nil && existing.UserID != current.UserID {
			return nil, model.NewEmailTakenError()
		}
	}

	// 3. 既存レコードの取得
	user, err := s.userRepo.FindByID(ctx, current.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUnauthorizedError()
	}

	// 4. 永続化（ストア書き込みが先、セッション同期は後）
	user.Name = input.Name
	user.Username = input.Username
	user.Email = input.Email
	user.Bio = s.sanitizer.Sanitize(input.Bio)
	user.UpdatedAt = s.now()

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	// 5. セッションスナップショットの同期
	// 身元フィールド（username、email）のどれが変わったかに関わらず常に同期する
	if err := s.sessions.UpdateSessionData(ctx, cookies, user.Snapshot()); err != nil {
		if errors.Is(err, kv.ErrUnavailable) {
			return nil, model.NewSessionUnavailableError()
		}
		return nil, fmt.Errorf("failed to sync session: %w", err)
	}

	slog.Info("profile updated",
		slog.String("user_id", user.UserID),
	)

	return user, nil
}

// Availability は可否チェックの結果。
type Availability struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// CheckUsernameAvailability はユーザー名が使用可能かを返す。
func (s *Service) CheckUsernameAvailability(ctx context.Context, username string) (Availability, error) {
	if fe := auth.ValidateUsername(username); fe != nil {
		return Availability{Available: false, Message: fe.Message}, nil
	}

	existing, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return Availability{}, fmt.Errorf("failed to check username availability: %w", err)
	}
	if existing != nil {
		return Availability{Available: false, Message: "Username already exists"}, nil
	}

	return Availability{Available: true, Message: "Username is available"}, nil
}

// CheckEmailAvailability はメールアドレスが使用可能かを返す。
func (s *Service) CheckEmailAvailability(ctx context.Context, email string) (Availability, error) {
	if fe := auth.ValidateEmail(email); fe != nil {
		return Availability{Available: false, Message: fe.Message}, nil
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return Availability{}, fmt.Errorf("failed to check email availability: %w", err)
	}
	if existing != nil {
		return Availability{Available: false, Message: "Email is already registered"}, nil
	}

	return Availability{Available: true, Message: "Email is available"}, nil
}

// validateEdit はプロフィール編集入力の全フィールドを検証する。
func validateEdit(input EditInput) []model.FieldError {
	var fields []model.FieldError
	if fe := auth.ValidateName(input.Name); fe != nil {
		fields = append(fields, *fe)
	}
	if fe := auth.ValidateUsername(input.Username); fe != nil {
		fields = append(fields, *fe)
	}
	if fe := auth.ValidateEmail(input.Email); fe != nil {
		fields = append(fields, *fe)
	}
	if len(input.Bio) > 500 {
		fields = append(fields, model.FieldError{Field: "bio", Message: "Bio must be less than 500 characters"})
	}
	return fields
}
