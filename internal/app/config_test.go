package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dishpatch/dishpatch/internal/auth"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "development", cfg.Server.Environment)
	require.False(t, cfg.Server.IsProduction())

	require.Equal(t, "sqlite", cfg.Database.Driver)

	require.Equal(t, "dishpatch", cfg.Auth.JWT.Issuer)
	require.Equal(t, 7*24*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, 24*time.Hour, cfg.Auth.VerificationExpiry)
	require.Equal(t, time.Hour, cfg.Auth.ResetExpiry)
	require.False(t, cfg.Auth.RequireVerifiedEmail)

	require.False(t, cfg.Email.SMTP.Enabled)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, 90, cfg.Maintenance.AuditRetentionDays)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("DISHPATCH_SERVER_PORT", "9100")
	t.Setenv("DISHPATCH_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("DISHPATCH_AUTH_REQUIRE_VERIFIED_EMAIL", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "env-secret", cfg.Auth.JWT.Secret)
	require.True(t, cfg.Auth.RequireVerifiedEmail)
}

func TestIsProduction(t *testing.T) {
	require.True(t, ServerConfig{Environment: "production"}.IsProduction())
	require.True(t, ServerConfig{Environment: " Production "}.IsProduction())
	require.False(t, ServerConfig{Environment: "development"}.IsProduction())
	require.False(t, ServerConfig{}.IsProduction())
}

func TestJWTServiceConfigFallsBackToDefaultTTL(t *testing.T) {
	cfg := AuthConfig{JWT: JWTSettings{Secret: "s", Issuer: "dishpatch"}}

	jwtCfg := cfg.JWTServiceConfig()
	require.Equal(t, auth.DefaultSessionTTL, jwtCfg.SessionTTL)
	require.Equal(t, "dishpatch", jwtCfg.Issuer)
}

func TestEnsureSigningSecretProductionFailsClosed(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Environment = "production"

	err := EnsureSigningSecret(cfg)
	require.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestEnsureSigningSecretGeneratesOutsideProduction(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Environment = "development"

	require.NoError(t, EnsureSigningSecret(cfg))
	require.NotEmpty(t, cfg.Auth.JWT.Secret)

	// A configured secret is never replaced.
	cfg.Server.Environment = "production"
	require.NoError(t, EnsureSigningSecret(cfg))
}
