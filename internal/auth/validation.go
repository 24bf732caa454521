package auth

import (
	"net/mail"
	"regexp"

	"github.com/hitoshi/campusmarket/internal/model"
)

// usernamePattern はユーザー名に使用可能な文字を定義する。
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateUsername はユーザー名の形式を検証する。問題なければnilを返す。
func ValidateUsername(username string) *model.FieldError {
	if len(username) < 3 {
		return &model.FieldError{Field: "username", Message: "Username must be at least 3 characters"}
	}
	if len(username) > 30 {
		return &model.FieldError{Field: "username", Message: "Username must be less than 30 characters"}
	}
	if !usernamePattern.MatchString(username) {
		return &model.FieldError{Field: "username", Message: "Username can only contain letters, numbers, and underscores"}
	}
	return nil
}

// ValidateEmail はメールアドレスの構文を検証する。問題なければnilを返す。
func ValidateEmail(email string) *model.FieldError {
	if email == "" {
		return &model.FieldError{Field: "email", Message: "Email is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &model.FieldError{Field: "email", Message: "Invalid email format"}
	}
	return nil
}

// ValidatePassword はパスワードの長さを検証する。問題なければnilを返す。
func ValidatePassword(pw string) *model.FieldError {
	if len(pw) < 8 {
		return &model.FieldError{Field: "password", Message: "Password must be at least 8 characters"}
	}
	if len(pw) > 128 {
		return &model.FieldError{Field: "password", Message: "Password must be less than 128 characters"}
	}
	return nil
}

// ValidateName は表示名を検証する。問題なければnilを返す。
func ValidateName(name string) *model.FieldError {
	if name == "" {
		return &model.FieldError{Field: "name", Message: "Name is required"}
	}
	if len(name) > 50 {
		return &model.FieldError{Field: "name", Message: "Name must be less than 50 characters"}
	}
	return nil
}
