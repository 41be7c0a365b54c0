package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dishpatch/dishpatch/internal/handlers"
)

type authRouteDeps struct {
	AuthHandler *handlers.AuthHandler
}

func registerAuthRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc, deps authRouteDeps) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", deps.AuthHandler.Register)
		auth.POST("/login", deps.AuthHandler.Login)
		auth.POST("/verify-email", deps.AuthHandler.VerifyEmail)
		auth.POST("/forgot-password", deps.AuthHandler.ForgotPassword)
		auth.POST("/reset-password", deps.AuthHandler.ResetPassword)
	}

	authed := api.Group("/auth")
	authed.Use(requireAuth)
	{
		authed.GET("/me", deps.AuthHandler.Me)
		authed.POST("/resend-verification", deps.AuthHandler.ResendVerification)
		authed.POST("/change-password", deps.AuthHandler.ChangePassword)
	}
}
