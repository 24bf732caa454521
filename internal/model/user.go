package model

import "time"

// User はマーケットプレイスの利用ユーザーを表す。
// PasswordHashとSaltは認証フロー以外で参照しないこと。
type User struct {
	UserID       string
	Name         string
	Username     string
	Email        string
	PasswordHash string
	Salt         string
	Bio          string
	IsVerified   bool
	IsBanned     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SessionData はセッションストアに保存する非正規化されたユーザースナップショット。
// 認証済みリクエストをRDBへの問い合わせなしに認可するために使用する。
// JSONタグはセッションストア上の永続フォーマットそのものであり、
// フィールドの変更には既存セッションとの互換性の考慮が必要。
type SessionData struct {
	UserID     string    `json:"userId"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"isVerified"`
	IsBanned   bool      `json:"isBanned"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Snapshot はUserからセッション用スナップショットを生成する。
func (u *User) Snapshot() SessionData {
	return SessionData{
		UserID:     u.UserID,
		Username:   u.Username,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		IsBanned:   u.IsBanned,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
