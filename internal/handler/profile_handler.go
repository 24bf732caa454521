package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/campusmarket/internal/cookie"
	"github.com/hitoshi/campusmarket/internal/middleware"
	"github.com/hitoshi/campusmarket/internal/model"
	"github.com/hitoshi/campusmarket/internal/profile"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	// Edit はプロフィールを更新し、セッションスナップショットを同期する。
	Edit(ctx context.Context, current *model.SessionData, input profile.EditInput, cookies cookie.Cookies) (*model.User, error)
	// CheckUsernameAvailability はユーザー名が使用可能かを返す。
	CheckUsernameAvailability(ctx context.Context, username string) (profile.Availability, error)
	// CheckEmailAvailability はメールアドレスが使用可能かを返す。
	CheckEmailAvailability(ctx context.Context, email string) (profile.Availability, error)
}

// ProfileHandler はプロフィール管理のHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// editProfileRequest はプロフィール編集リクエストのボディ。
type editProfileRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`
}

// EditProfile はプロフィール編集を処理する。
// PUT /api/profile
func (h *ProfileHandler) EditProfile(w http.ResponseWriter, r *http.Request) {
	current, err := middleware.UserFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req editProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST_BODY",
			Message:  "Request body must be valid JSON.",
			Category: "validation",
		})
		return
	}

	user, err := h.service.Edit(r.Context(), current, profile.EditInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
	}, cookie.NewHTTP(w, r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, newUserResponse(user))
}

// CheckUsername はユーザー名の使用可否を返す。
// GET /api/availability/username?username=x
func (h *ProfileHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	result, err := h.service.CheckUsernameAvailability(r.Context(), username)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

// CheckEmail はメールアドレスの使用可否を返す。
// GET /api/availability/email?email=x
func (h *ProfileHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	result, err := h.service.CheckEmailAvailability(r.Context(), email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}
