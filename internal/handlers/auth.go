package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dishpatch/dishpatch/internal/middleware"
	"github.com/dishpatch/dishpatch/internal/models"
	"github.com/dishpatch/dishpatch/internal/services"
	appErrors "github.com/dishpatch/dishpatch/pkg/errors"
	"github.com/dishpatch/dishpatch/pkg/metrics"
	"github.com/dishpatch/dishpatch/pkg/response"
)

// AuthHandler exposes the account credential lifecycle over HTTP.
type AuthHandler struct {
	accounts *services.AccountService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(accounts *services.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

func accountPayload(account *models.Account) gin.H {
	return gin.H{
		"id":                account.ID,
		"name":              account.Name,
		"email":             account.Email,
		"phone":             account.Phone,
		"is_email_verified": account.IsEmailVerified,
		"created_at":        account.CreatedAt,
	}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	account, token, err := h.accounts.Register(requestContext(c), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrDuplicateEmail) {
			metrics.Registrations.WithLabelValues("duplicate").Inc()
		} else {
			metrics.Registrations.WithLabelValues("failure").Inc()
		}
		response.Error(c, err)
		return
	}

	metrics.Registrations.WithLabelValues("success").Inc()
	response.Success(c, http.StatusCreated, gin.H{
		"account": accountPayload(account),
		"token":   token,
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	account, token, err := h.accounts.Login(requestContext(c), req.Email, req.Password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	response.Success(c, http.StatusOK, gin.H{
		"account": accountPayload(account),
		"token":   token,
	})
}

// POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req tokenRequest
	if !bindAndValidate(c, &req) {
		return
	}

	account, err := h.accounts.VerifyEmail(requestContext(c), req.Token)
	if err != nil {
		metrics.TokenConsumptions.WithLabelValues("verify", tokenResult(err)).Inc()
		response.Error(c, err)
		return
	}

	metrics.TokenConsumptions.WithLabelValues("verify", "success").Inc()
	response.Success(c, http.StatusOK, gin.H{"account": accountPayload(account)})
}

// POST /api/auth/resend-verification
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.accounts.ResendVerification(requestContext(c), accountID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sent": true})
}

// POST /api/auth/forgot-password
//
// The response shape is identical whether or not the email belongs to an
// account, so the endpoint cannot be used for enumeration.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.RequestPasswordReset(requestContext(c), req.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sent": true})
}

// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.ResetPassword(requestContext(c), req.Token, req.NewPassword); err != nil {
		metrics.TokenConsumptions.WithLabelValues("reset", tokenResult(err)).Inc()
		response.Error(c, err)
		return
	}

	metrics.TokenConsumptions.WithLabelValues("reset", "success").Inc()
	response.Success(c, http.StatusOK, gin.H{"reset": true})
}

// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req changePasswordRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.accounts.ChangePassword(requestContext(c), accountID, req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"changed": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	account, err := h.accounts.GetByID(requestContext(c), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, accountPayload(account))
}

func tokenResult(err error) string {
	switch {
	case errors.Is(err, appErrors.ErrTokenExpired):
		return "expired"
	case errors.Is(err, appErrors.ErrInvalidToken):
		return "invalid"
	default:
		return "failure"
	}
}
