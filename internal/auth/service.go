// Package auth はサインアップ・サインイン・サインアウトの認証フローを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/campusmarket/internal/cookie"
	"github.com/hitoshi/campusmarket/internal/kv"
	"github.com/hitoshi/campusmarket/internal/model"
	"github.com/hitoshi/campusmarket/internal/password"
	"github.com/hitoshi/campusmarket/internal/repository"
	"github.com/hitoshi/campusmarket/internal/session"
)

// SessionManager は認証フローが必要とするセッション操作のインターフェース。
// session.Managerの部分集合として定義する。
type SessionManager interface {
	CreateSession(ctx context.Context, data model.SessionData, cookies cookie.Cookies) error
	DeleteUserSession(ctx context.Context, cookies cookie.Cookies) error
}

// MetricsCollector は認証結果のメトリクス記録のインターフェース。
type MetricsCollector interface {
	RecordSignup()
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
	RecordHashLatency(duration time.Duration)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	sessions SessionManager
	metrics  MetricsCollector
	now      func() time.Time
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(userRepo repository.UserRepository, sessions SessionManager, metrics MetricsCollector) *Service {
	return &Service{
		userRepo: userRepo,
		sessions: sessions,
		metrics:  metrics,
		now:      time.Now,
	}
}

// SignUpInput はサインアップの入力。
type SignUpInput struct {
	Name            string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// SignInInput はサインインの入力。Identifierはユーザー名またはメールアドレス。
type SignInInput struct {
	Identifier string
	Password   string
}

// SignUp は新規ユーザーを登録し、セッションを発行する。
// ユーザー名・メールアドレスの一意性は大文字小文字を区別せずに検証する。
// いずれかの段階で失敗した場合は構造化エラーを返し、部分的な成功で
// 認証済みにすることはない。
func (s *Service) SignUp(ctx context.Context, input SignUpInput, cookies cookie.Cookies) (*model.User, error) {
	// 1. 入力バリデーション
	if fields := validateSignUp(input); len(fields) > 0 {
		return nil, model.NewValidationError(fields)
	}

	// 2. 一意性チェック（大文字小文字を区別しない）
	existing, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username uniqueness: %w", err)
	}
	if existing != nil {
		return nil, model.NewUsernameTakenError()
	}

	existing, err = s.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	// 3. ソルト生成とパスワードハッシュ化
	salt, err := password.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	hashStart := s.now()
	hash, err := password.Hash(input.Password, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	s.recordHashLatency(time.Since(hashStart))

	// 4. ユーザー作成
	now := s.now()
	user := &model.User{
		UserID:       uuid.New().String(),
		Name:         input.Name,
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Salt:         salt,
		IsVerified:   false,
		IsBanned:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// 5. セッション発行
	if err := s.sessions.CreateSession(ctx, user.Snapshot(), cookies); err != nil {
		return nil, mapSessionError(err)
	}

	if s.metrics != nil {
		s.metrics.RecordSignup()
	}
	slog.Info("user signed up",
		slog.String("user_id", user.UserID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// SignIn は認証情報を検証し、セッションを発行する。
// 「ユーザーが存在しない」と「パスワードが違う」はどちらも同一の
// 汎用エラーを返す（アカウント列挙攻撃対策）。BANアカウントのみ
// 明示的なメッセージを返し、セッションは発行しない。
func (s *Service) SignIn(ctx context.Context, input SignInInput, cookies cookie.Cookies) (*model.User, error) {
	// 1. ユーザー名またはメールアドレスで検索（単一クエリ）
	user, err := s.userRepo.FindByIdentifier(ctx, input.Identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.recordLoginFailure("unknown_identifier")
		return nil, model.NewInvalidCredentialsError()
	}

	// 2. BANチェック
	if user.IsBanned {
		s.recordLoginFailure("banned")
		slog.Warn("banned account sign-in attempt",
			slog.String("user_id", user.UserID),
		)
		return nil, model.NewAccountBannedError()
	}

	// 3. パスワード検証
	hashStart := s.now()
	ok, err := password.Compare(input.Password, user.Salt, user.PasswordHash)
	s.recordHashLatency(time.Since(hashStart))
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.recordLoginFailure("wrong_password")
		// 内部ログには原因を残すが、ユーザーには汎用メッセージを返す
		slog.Info("sign-in failed: wrong password",
			slog.String("user_id", user.UserID),
		)
		return nil, model.NewInvalidCredentialsError()
	}

	// 4. セッション発行
	if err := s.sessions.CreateSession(ctx, user.Snapshot(), cookies); err != nil {
		return nil, mapSessionError(err)
	}

	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
	slog.Info("user signed in",
		slog.String("user_id", user.UserID),
	)

	return user, nil
}

// SignOut はセッションを破棄する。
// ストア側の削除に失敗してもログに残すだけでエラーは返さない。
// バックエンド障害のせいでユーザーが「ログアウトできない」状態に
// 陥ってはならないため、呼び出し側から見ると常に成功する。
func (s *Service) SignOut(ctx context.Context, cookies cookie.Cookies) {
	if err := s.sessions.DeleteUserSession(ctx, cookies); err != nil {
		slog.Error("failed to delete session on sign-out",
			slog.String("error", err.Error()),
		)
	}
}

// validateSignUp はサインアップ入力の全フィールドを検証する。
func validateSignUp(input SignUpInput) []model.FieldError {
	var fields []model.FieldError
	if fe := ValidateName(input.Name); fe != nil {
		fields = append(fields, *fe)
	}
	if fe := ValidateUsername(input.Username); fe != nil {
		fields = append(fields, *fe)
	}
	if fe := ValidateEmail(input.Email); fe != nil {
		fields = append(fields, *fe)
	}
	if fe := ValidatePassword(input.Password); fe != nil {
		fields = append(fields, *fe)
	}
	if input.Password != input.ConfirmPassword {
		fields = append(fields, model.FieldError{Field: "confirmPassword", Message: "Passwords do not match"})
	}
	return fields
}

// mapSessionError はセッション発行失敗をユーザー向けの構造化エラーに変換する。
// ストア障害を「認証情報が違う」と誤解させないため、原因別にメッセージを分ける。
func mapSessionError(err error) error {
	switch {
	case errors.Is(err, kv.ErrUnavailable):
		return model.NewSessionUnavailableError()
	case errors.Is(err, session.ErrCookieTransport):
		return model.NewCookieTransportError()
	default:
		return fmt.Errorf("failed to create session: %w", err)
	}
}

func (s *Service) recordLoginFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure(reason)
	}
}

func (s *Service) recordHashLatency(d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordHashLatency(d)
	}
}
