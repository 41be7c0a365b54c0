package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	iauth "github.com/dishpatch/dishpatch/internal/auth"
	"github.com/dishpatch/dishpatch/internal/middleware"
	"github.com/dishpatch/dishpatch/internal/models"
	"github.com/dishpatch/dishpatch/internal/services"
)

type envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newAuthTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Account{}, &models.AuditLog{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "dishpatch-test",
		SessionTTL: time.Hour,
	})
	require.NoError(t, err)

	accounts, err := services.NewAccountService(db, jwtSvc, nil, nil,
		services.WithBaseURL("http://localhost:8000"),
		services.WithMailDispatcher(func(fn func()) { fn() }),
	)
	require.NoError(t, err)

	handler := NewAuthHandler(accounts)
	requireAuth := middleware.Auth(jwtSvc)

	r := gin.New()
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
		auth.POST("/verify-email", handler.VerifyEmail)
		auth.POST("/forgot-password", handler.ForgotPassword)
		auth.POST("/reset-password", handler.ResetPassword)

		auth.GET("/me", requireAuth, handler.Me)
		auth.POST("/resend-verification", requireAuth, handler.ResendVerification)
		auth.POST("/change-password", requireAuth, handler.ChangePassword)
	}

	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func registerViaAPI(t *testing.T, r *gin.Engine, email string) (token string, accountID uint) {
	t.Helper()

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "Pat Diner",
		"email":    email,
		"password": "orig-password",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)

	token = env.Data["token"].(string)
	account := env.Data["account"].(map[string]any)
	return token, uint(account["id"].(float64))
}

func TestRegisterEndpoint(t *testing.T) {
	r, _ := newAuthTestServer(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "Pat Diner",
		"email":    "api@example.com",
		"password": "orig-password",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)
	require.NotEmpty(t, env.Data["token"])

	account := env.Data["account"].(map[string]any)
	require.Equal(t, "api@example.com", account["email"])
	require.Equal(t, false, account["is_email_verified"])

	// The password never appears in the response body.
	require.NotContains(t, w.Body.String(), "orig-password")
	require.NotContains(t, w.Body.String(), "password_hash")
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	r, _ := newAuthTestServer(t)
	registerViaAPI(t, r, "taken@example.com")

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "Other",
		"email":    "taken@example.com",
		"password": "another-password",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.False(t, env.Success)
	require.Equal(t, "DUPLICATE_EMAIL", env.Error.Code)
}

func TestRegisterEndpointValidation(t *testing.T) {
	r, _ := newAuthTestServer(t)

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "Pat",
		"email":    "not-an-email",
		"password": "orig-password",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	w, env = doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "Pat",
		"email":    "ok@example.com",
		"password": "tiny",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestLoginEndpoint(t *testing.T) {
	r, _ := newAuthTestServer(t)
	registerViaAPI(t, r, "login-api@example.com")

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "login-api@example.com",
		"password": "orig-password",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, env.Data["token"])

	w, env = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "login-api@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)

	// Unknown accounts produce the identical error payload.
	w2, env2 := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "ghost@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, w.Code, w2.Code)
	require.Equal(t, env.Error.Code, env2.Error.Code)
	require.Equal(t, env.Error.Message, env2.Error.Message)
}

func TestVerifyEmailEndpoint(t *testing.T) {
	r, db := newAuthTestServer(t)
	_, accountID := registerViaAPI(t, r, "verify-api@example.com")

	var account models.Account
	require.NoError(t, db.Take(&account, "id = ?", accountID).Error)
	require.NotNil(t, account.EmailVerificationToken)

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/verify-email", "", gin.H{
		"token": *account.EmailVerificationToken,
	})
	require.Equal(t, http.StatusOK, w.Code)
	payload := env.Data["account"].(map[string]any)
	require.Equal(t, true, payload["is_email_verified"])

	// Redeeming again reports an invalid token.
	w, env = doJSON(t, r, http.MethodPost, "/api/auth/verify-email", "", gin.H{
		"token": *account.EmailVerificationToken,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "INVALID_TOKEN", env.Error.Code)
}

func TestForgotPasswordEndpointNeverLeaks(t *testing.T) {
	r, _ := newAuthTestServer(t)
	registerViaAPI(t, r, "forgot-api@example.com")

	wKnown, envKnown := doJSON(t, r, http.MethodPost, "/api/auth/forgot-password", "", gin.H{
		"email": "forgot-api@example.com",
	})
	wUnknown, envUnknown := doJSON(t, r, http.MethodPost, "/api/auth/forgot-password", "", gin.H{
		"email": "missing@example.com",
	})

	require.Equal(t, http.StatusOK, wKnown.Code)
	require.Equal(t, wKnown.Code, wUnknown.Code)
	require.Equal(t, envKnown.Data, envUnknown.Data)
}

func TestResetPasswordEndpoint(t *testing.T) {
	r, db := newAuthTestServer(t)
	_, accountID := registerViaAPI(t, r, "reset-api@example.com")

	_, _ = doJSON(t, r, http.MethodPost, "/api/auth/forgot-password", "", gin.H{
		"email": "reset-api@example.com",
	})

	var account models.Account
	require.NoError(t, db.Take(&account, "id = ?", accountID).Error)
	require.NotNil(t, account.PasswordResetToken)

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/reset-password", "", gin.H{
		"token":        *account.PasswordResetToken,
		"new_password": "fresh-password",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "reset-api@example.com",
		"password": "fresh-password",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, env.Success)
}

func TestMeEndpoint(t *testing.T) {
	r, _ := newAuthTestServer(t)
	token, accountID := registerViaAPI(t, r, "me-api@example.com")

	w, env := doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, accountID, env.Data["id"].(float64))
	require.Equal(t, "me-api@example.com", env.Data["email"])

	w, env = doJSON(t, r, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "UNAUTHORIZED", env.Error.Code)
}

func TestChangePasswordEndpoint(t *testing.T) {
	r, _ := newAuthTestServer(t)
	token, _ := registerViaAPI(t, r, "change-api@example.com")

	w, env := doJSON(t, r, http.MethodPost, "/api/auth/change-password", token, gin.H{
		"current_password": "wrong-guess",
		"new_password":     "changed-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "WRONG_PASSWORD", env.Error.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/change-password", token, gin.H{
		"current_password": "orig-password",
		"new_password":     "changed-password",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "change-api@example.com",
		"password": "changed-password",
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestResendVerificationEndpoint(t *testing.T) {
	r, db := newAuthTestServer(t)
	token, accountID := registerViaAPI(t, r, "resend-api@example.com")

	var before models.Account
	require.NoError(t, db.Take(&before, "id = ?", accountID).Error)

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/resend-verification", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var after models.Account
	require.NoError(t, db.Take(&after, "id = ?", accountID).Error)
	require.NotEqual(t, *before.EmailVerificationToken, *after.EmailVerificationToken)

	// Once verified the endpoint refuses.
	_, env := doJSON(t, r, http.MethodPost, "/api/auth/verify-email", "", gin.H{
		"token": *after.EmailVerificationToken,
	})
	require.True(t, env.Success)

	w, env = doJSON(t, r, http.MethodPost, "/api/auth/resend-verification", token, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "ALREADY_VERIFIED", env.Error.Code)
}
