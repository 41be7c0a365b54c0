package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dishpatch/dishpatch/internal/auth"
	"github.com/dishpatch/dishpatch/pkg/crypto"
	"github.com/dishpatch/dishpatch/pkg/logger"
)

const jwtSecretBytes = 48

// ErrMissingJWTSecret is returned when production starts without a signing secret.
var ErrMissingJWTSecret = errors.New("auth.jwt.secret must be configured in production")

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}

	return auth.JWTConfig{
		Secret:     c.JWT.Secret,
		Issuer:     c.JWT.Issuer,
		SessionTTL: ttl,
	}
}

// EnsureSigningSecret enforces the signing-secret policy. Production refuses
// to start without a configured secret; any other environment receives a
// generated ephemeral secret, and the substitution is logged so the weak
// default is never silent.
func EnsureSigningSecret(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if strings.TrimSpace(cfg.Auth.JWT.Secret) != "" {
		return nil
	}

	if cfg.Server.IsProduction() {
		return ErrMissingJWTSecret
	}

	secret, err := crypto.GenerateToken(jwtSecretBytes)
	if err != nil {
		return fmt.Errorf("generate jwt secret: %w", err)
	}
	cfg.Auth.JWT.Secret = secret

	logger.WithModule("bootstrap").Warn(
		"auth.jwt.secret not configured; generated an ephemeral secret, sessions will not survive a restart",
	)
	return nil
}
