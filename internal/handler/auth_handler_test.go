package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/campusmarket/internal/auth"
	"github.com/hitoshi/campusmarket/internal/cookie"
	"github.com/hitoshi/campusmarket/internal/kv"
	"github.com/hitoshi/campusmarket/internal/model"
)

// mockAuthService はAuthServiceInterfaceのモック実装。
type mockAuthService struct {
	signUpFunc  func(ctx context.Context, input auth.SignUpInput, cookies cookie.Cookies) (*model.User, error)
	signInFunc  func(ctx context.Context, input auth.SignInInput, cookies cookie.Cookies) (*model.User, error)
	signOutFunc func(ctx context.Context, cookies cookie.Cookies)
}

func (m *mockAuthService) SignUp(ctx context.Context, input auth.SignUpInput, cookies cookie.Cookies) (*model.User, error) {
	return m.signUpFunc(ctx, input, cookies)
}

func (m *mockAuthService) SignIn(ctx context.Context, input auth.SignInInput, cookies cookie.Cookies) (*model.User, error) {
	return m.signInFunc(ctx, input, cookies)
}

func (m *mockAuthService) SignOut(ctx context.Context, cookies cookie.Cookies) {
	if m.signOutFunc != nil {
		m.signOutFunc(ctx, cookies)
	}
}

// mockSessionReader はSessionReaderInterfaceのモック実装。
type mockSessionReader struct {
	getUserFromSessionFunc func(ctx context.Context, cookies cookie.Cookies) (*model.SessionData, error)
}

func (m *mockSessionReader) GetUserFromSession(ctx context.Context, cookies cookie.Cookies) (*model.SessionData, error) {
	return m.getUserFromSessionFunc(ctx, cookies)
}

func testUser() *model.User {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &model.User{
		UserID:    "u-1",
		Name:      "Alice Smith",
		Username:  "alice",
		Email:     "alice@example.edu",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRegister_Success(t *testing.T) {
	var gotInput auth.SignUpInput
	service := &mockAuthService{
		signUpFunc: func(ctx context.Context, input auth.SignUpInput, cookies cookie.Cookies) (*model.User, error) {
			gotInput = input
			return testUser(), nil
		},
	}
	h := NewAuthHandler(service, &mockSessionReader{})

	body := `{"name":"Alice Smith","username":"alice","email":"alice@example.edu","password":"password123","confirmPassword":"password123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if gotInput.Username != "alice" || gotInput.ConfirmPassword != "password123" {
		t.Errorf("service received input = %+v", gotInput)
	}

	var resp userResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserID != "u-1" {
		t.Errorf("userId = %q, want u-1", resp.UserID)
	}
}

// レスポンスJSONにパスワードハッシュとソルトが含まれないことを検証する。
func TestRegister_ResponseExcludesCredentialFields(t *testing.T) {
	user := testUser()
	user.PasswordHash = "deadbeef"
	user.Salt = "cafebabe"
	service := &mockAuthService{
		signUpFunc: func(ctx context.Context, input auth.SignUpInput, cookies cookie.Cookies) (*model.User, error) {
			return user, nil
		},
	}
	h := NewAuthHandler(service, &mockSessionReader{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	raw := rec.Body.String()
	if strings.Contains(raw, "deadbeef") || strings.Contains(raw, "cafebabe") {
		t.Errorf("response must not leak credential fields: %s", raw)
	}
}

func TestRegister_InvalidJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockSessionReader{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRegister_ValidationErrorIncludesFields(t *testing.T) {
	service := &mockAuthService{
		signUpFunc: func(ctx context.Context, input auth.SignUpInput, cookies cookie.Cookies) (*model.User, error) {
			return nil, model.NewValidationError([]model.FieldError{
				{Field: "username", Message: "Username must be between 3 and 30 characters"},
			})
		},
	}
	h := NewAuthHandler(service, &mockSessionReader{})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var body struct {
		Code   string             `json:"code"`
		Fields []model.FieldError `json:"fields"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", body.Code)
	}
	if len(body.Fields) != 1 || body.Fields[0].Field != "username" {
		t.Errorf("fields = %+v", body.Fields)
	}
}

func TestLogin_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "認証情報不一致",
			serviceErr: model.NewInvalidCredentialsError(),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_CREDENTIALS",
		},
		{
			name:       "BANアカウント",
			serviceErr: model.NewAccountBannedError(),
			wantStatus: http.StatusForbidden,
			wantCode:   "ACCOUNT_BANNED",
		},
		{
			name:       "セッションストア障害",
			serviceErr: model.NewSessionUnavailableError(),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "SESSION_SERVICE_UNAVAILABLE",
		},
		{
			name:       "Cookie書き込み失敗",
			serviceErr: model.NewCookieTransportError(),
			wantStatus: http.StatusBadRequest,
			wantCode:   "COOKIE_TRANSPORT_FAILED",
		},
		{
			name:       "想定外のエラー",
			serviceErr: fmt.Errorf("db connection lost"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockAuthService{
				signInFunc: func(ctx context.Context, input auth.SignInInput, cookies cookie.Cookies) (*model.User, error) {
					return nil, tt.serviceErr
				},
			}
			h := NewAuthHandler(service, &mockSessionReader{})

			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"identifier":"alice","password":"x"}`))
			rec := httptest.NewRecorder()
			h.Login(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body struct {
				Code string `json:"code"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestLogin_Success(t *testing.T) {
	service := &mockAuthService{
		signInFunc: func(ctx context.Context, input auth.SignInInput, cookies cookie.Cookies) (*model.User, error) {
			if input.Identifier != "alice@example.edu" {
				t.Errorf("identifier = %q", input.Identifier)
			}
			return testUser(), nil
		},
	}
	h := NewAuthHandler(service, &mockSessionReader{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"identifier":"alice@example.edu","password":"password123"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	called := false
	service := &mockAuthService{
		signOutFunc: func(ctx context.Context, cookies cookie.Cookies) {
			called = true
		},
	}
	h := NewAuthHandler(service, &mockSessionReader{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !called {
		t.Error("SignOut should be called")
	}
}

func TestMe_ReturnsSnapshot(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sessions := &mockSessionReader{
		getUserFromSessionFunc: func(ctx context.Context, cookies cookie.Cookies) (*model.SessionData, error) {
			return &model.SessionData{
				UserID:    "u-1",
				Username:  "alice",
				Email:     "alice@example.edu",
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		},
	}
	h := NewAuthHandler(&mockAuthService{}, sessions)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp model.SessionData
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Username != "alice" {
		t.Errorf("username = %q, want alice", resp.Username)
	}
}

func TestMe_AnonymousReturns401(t *testing.T) {
	sessions := &mockSessionReader{
		getUserFromSessionFunc: func(ctx context.Context, cookies cookie.Cookies) (*model.SessionData, error) {
			return nil, nil
		},
	}
	h := NewAuthHandler(&mockAuthService{}, sessions)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestMe_StoreOutageReturns503(t *testing.T) {
	sessions := &mockSessionReader{
		getUserFromSessionFunc: func(ctx context.Context, cookies cookie.Cookies) (*model.SessionData, error) {
			return nil, fmt.Errorf("%w: connection refused", kv.ErrUnavailable)
		},
	}
	h := NewAuthHandler(&mockAuthService{}, sessions)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
