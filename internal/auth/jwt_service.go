package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL defines the fallback validity period for session tokens.
const DefaultSessionTTL = 7 * 24 * time.Hour

// JWTConfig bundles the configuration required to build a JWTService.
type JWTConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	Clock      func() time.Time
}

// Claims represents the custom claims embedded in issued session tokens.
type Claims struct {
	AccountID uint `json:"uid"`
	jwt.RegisteredClaims
}

// JWTService issues and validates the signed, self-contained session tokens.
// Tokens are stateless: there is no revocation before natural expiry.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTService constructs a JWTService. The signing secret is mandatory;
// the startup layer decides whether a missing secret is fatal or replaced
// with a generated one.
func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt: secret must be provided")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

// GenerateSessionToken issues a signed token carrying the account identity.
func (s *JWTService) GenerateSessionToken(accountID uint) (string, error) {
	if accountID == 0 {
		return "", errors.New("jwt: account id is required")
	}

	now := s.now()
	claims := &Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(accountID), 10),
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, nil
}

// ValidateSessionToken parses and validates a signed token, returning the claims.
// Malformed tokens, signature mismatches and expired tokens all fail here;
// callers must collapse every failure to a single unauthenticated outcome.
func (s *JWTService) ValidateSessionToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("jwt: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwt: parse token: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("jwt: invalid issuer")
	}

	if claims.AccountID == 0 {
		return nil, errors.New("jwt: missing account id claim")
	}

	return &claims, nil
}
