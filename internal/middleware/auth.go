package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/dishpatch/dishpatch/internal/auth"
	"github.com/dishpatch/dishpatch/pkg/errors"
	"github.com/dishpatch/dishpatch/pkg/response"
)

const (
	// CtxAccountIDKey is the gin context key carrying the authenticated account id.
	CtxAccountIDKey = "accountID"
	// CtxClaimsKey is the gin context key carrying the full token claims.
	CtxClaimsKey = "authClaims"
)

// Auth enforces bearer-token authentication using the supplied JWT service.
// Missing, malformed, tampered and expired tokens are all rejected with the
// same 401 before any handler logic runs.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateSessionToken(token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxAccountIDKey, claims.AccountID)

		c.Next()
	}
}

// AccountID extracts the authenticated account id set by Auth.
func AccountID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(CtxAccountIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
