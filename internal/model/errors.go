// Package model はドメインモデルを定義する。
package model

import "fmt"

// FieldError はフォーム入力の個別フィールドに対するバリデーションエラーを表す。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと、フィールド単位のエラー一覧を含む。
type APIError struct {
	Code     string       // エラーコード
	Message  string       // エラーメッセージ
	Category string       // カテゴリ: auth, validation, session, system
	Fields   []FieldError // バリデーション失敗時のフィールド別エラー（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeAccountBanned      = "ACCOUNT_BANNED"
	ErrCodeSessionUnavailable = "SESSION_SERVICE_UNAVAILABLE"
	ErrCodeCookieTransport    = "COOKIE_TRANSPORT_FAILED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeUsernameTaken      = "USERNAME_TAKEN"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
)

// NewValidationError はフィールド別エラーを束ねたバリデーションエラーを生成する。
func NewValidationError(fields []FieldError) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "Some fields are invalid.",
		Category: "validation",
		Fields:   fields,
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// 列挙攻撃対策のため、「ユーザーが存在しない」と「パスワードが違う」を
// 区別しない単一のメッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
	}
}

// NewAccountBannedError はBANアカウントエラーを生成する。
// 汎用メッセージ方針の唯一の例外として、BANされたことを明示的に伝える。
func NewAccountBannedError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountBanned,
		Message:  "This account has been banned. Contact support if you believe this is a mistake.",
		Category: "auth",
	}
}

// NewSessionUnavailableError はセッションストア障害エラーを生成する。
// ストア障害を「パスワードが違う」と誤解させてはならないため、
// 認証失敗とは明確に区別したメッセージを返す。
func NewSessionUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionUnavailable,
		Message:  "Service temporarily unavailable. Please try again later.",
		Category: "session",
	}
}

// NewCookieTransportError はCookie書き込み失敗エラーを生成する。
// セッションストア障害とはメッセージを区別する。
func NewCookieTransportError() *APIError {
	return &APIError{
		Code:     ErrCodeCookieTransport,
		Message:  "Unable to create a session. Please enable cookies and try again.",
		Category: "session",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication required.",
		Category: "auth",
	}
}

// NewUsernameTakenError はユーザー名重複エラーを生成する。
func NewUsernameTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  "Username already exists",
		Category: "validation",
		Fields:   []FieldError{{Field: "username", Message: "Username already exists"}},
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "Email is already registered",
		Category: "validation",
		Fields:   []FieldError{{Field: "email", Message: "Email is already registered"}},
	}
}
