// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/campusmarket/internal/auth"
	"github.com/hitoshi/campusmarket/internal/cookie"
	"github.com/hitoshi/campusmarket/internal/kv"
	"github.com/hitoshi/campusmarket/internal/middleware"
	"github.com/hitoshi/campusmarket/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// SignUp は新規ユーザーを登録し、セッションを発行する。
	SignUp(ctx context.Context, input auth.SignUpInput, cookies cookie.Cookies) (*model.User, error)
	// SignIn は認証情報を検証し、セッションを発行する。
	SignIn(ctx context.Context, input auth.SignInInput, cookies cookie.Cookies) (*model.User, error)
	// SignOut はセッションを破棄する。常に成功する。
	SignOut(ctx context.Context, cookies cookie.Cookies)
}

// SessionReaderInterface は/auth/meが必要とするセッション読み取りインターフェース。
type SessionReaderInterface interface {
	GetUserFromSession(ctx context.Context, cookies cookie.Cookies) (*model.SessionData, error)
}

// AuthHandler は認証フローのHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	sessions SessionReaderInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, sessions SessionReaderInterface) *AuthHandler {
	return &AuthHandler{
		service:  service,
		sessions: sessions,
	}
}

// registerRequest はアカウント登録リクエストのボディ。
type registerRequest struct {
	Name            string `json:"name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// loginRequest はサインインリクエストのボディ。
// identifierはユーザー名またはメールアドレス。
type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。
// パスワードハッシュとソルトは含めない。
type userResponse struct {
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Bio        string    `json:"bio,omitempty"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newUserResponse(user *model.User) userResponse {
	return userResponse{
		UserID:     user.UserID,
		Name:       user.Name,
		Username:   user.Username,
		Email:      user.Email,
		Bio:        user.Bio,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}

// Register はアカウント登録を処理する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST_BODY",
			Message:  "Request body must be valid JSON.",
			Category: "validation",
		})
		return
	}

	user, err := h.service.SignUp(r.Context(), auth.SignUpInput{
		Name:            req.Name,
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	}, cookie.NewHTTP(w, r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, newUserResponse(user))
}

// Login はサインインを処理する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST_BODY",
			Message:  "Request body must be valid JSON.",
			Category: "validation",
		})
		return
	}

	user, err := h.service.SignIn(r.Context(), auth.SignInInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	}, cookie.NewHTTP(w, r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, newUserResponse(user))
}

// Logout はサインアウトを処理する。常に200を返す。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.SignOut(r.Context(), cookie.NewHTTP(w, r))
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me は現在のセッションのスナップショットを返す。
// セッションがない場合は401、ストア障害時は503を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.sessions.GetUserFromSession(r.Context(), cookie.NewHTTP(w, r))
	if err != nil {
		if errors.Is(err, kv.ErrUnavailable) {
			middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewSessionUnavailableError())
			return
		}
		handleServiceError(w, err)
		return
	}
	if user == nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSONResponse(w, http.StatusOK, user)
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation:
		return http.StatusBadRequest
	case model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeAccountBanned:
		return http.StatusForbidden
	case model.ErrCodeSessionUnavailable:
		return http.StatusServiceUnavailable
	case model.ErrCodeCookieTransport:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeUsernameTaken, model.ErrCodeEmailTaken:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
