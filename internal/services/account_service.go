package services

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dishpatch/dishpatch/internal/auth"
	"github.com/dishpatch/dishpatch/internal/models"
	"github.com/dishpatch/dishpatch/pkg/crypto"
	apperrors "github.com/dishpatch/dishpatch/pkg/errors"
	"github.com/dishpatch/dishpatch/pkg/logger"
	"github.com/dishpatch/dishpatch/pkg/mail"
	"github.com/dishpatch/dishpatch/pkg/metrics"
)

const (
	defaultVerificationExpiry = 24 * time.Hour
	defaultResetExpiry        = time.Hour
	minPasswordLength         = 6
)

// AccountOption customises the AccountService.
type AccountOption func(*AccountService)

// WithBaseURL sets the base URL used in verification and reset links.
func WithBaseURL(url string) AccountOption {
	return func(s *AccountService) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithVerificationExpiry overrides the verification token lifetime.
func WithVerificationExpiry(d time.Duration) AccountOption {
	return func(s *AccountService) {
		if d > 0 {
			s.verificationExpiry = d
		}
	}
}

// WithResetExpiry overrides the password-reset token lifetime.
func WithResetExpiry(d time.Duration) AccountOption {
	return func(s *AccountService) {
		if d > 0 {
			s.resetExpiry = d
		}
	}
}

// WithClock injects a custom time source.
func WithClock(clock func() time.Time) AccountOption {
	return func(s *AccountService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithRequireVerifiedEmail gates login on a verified email address.
func WithRequireVerifiedEmail(require bool) AccountOption {
	return func(s *AccountService) {
		s.requireVerifiedEmail = require
	}
}

// WithMailDispatcher overrides how outbound mail work is scheduled. The
// default dispatcher runs sends on their own goroutine so a slow or failing
// mail server never blocks the caller's success path; tests substitute a
// synchronous dispatcher.
func WithMailDispatcher(dispatch func(func())) AccountOption {
	return func(s *AccountService) {
		if dispatch != nil {
			s.dispatch = dispatch
		}
	}
}

// AccountService governs the account credential lifecycle: registration,
// login, email verification, password reset and password changes. All
// token-bearing writes happen in a single UPDATE guarded by the token value
// itself, which keeps consumption single-use under concurrency.
type AccountService struct {
	db     *gorm.DB
	jwt    *auth.JWTService
	mailer mail.Mailer
	audit  *AuditService

	baseURL              string
	verificationExpiry   time.Duration
	resetExpiry          time.Duration
	requireVerifiedEmail bool
	now                  func() time.Time
	dispatch             func(func())
}

// NewAccountService constructs the service with the provided collaborators.
// The mailer and audit service may be nil; both are best-effort.
func NewAccountService(db *gorm.DB, jwt *auth.JWTService, mailer mail.Mailer, audit *AuditService, opts ...AccountOption) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if jwt == nil {
		return nil, errors.New("account service: jwt service is required")
	}

	service := &AccountService{
		db:                 db,
		jwt:                jwt,
		mailer:             mailer,
		audit:              audit,
		verificationExpiry: defaultVerificationExpiry,
		resetExpiry:        defaultResetExpiry,
		now:                time.Now,
		dispatch:           func(fn func()) { go fn() },
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// RegisterInput captures the fields accepted at registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Register creates an account, mints its verification token pair and issues a
// session token. The verification email is dispatched fire-and-forget: a
// delivery failure is logged but never fails the registration.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*models.Account, string, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	email := normaliseEmail(input.Email)
	if name == "" {
		return nil, "", apperrors.NewBadRequest("name is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, "", err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, "", err
	}

	// Pre-check for a friendlier error; the unique index on email remains the
	// source of truth when two registrations race past this point.
	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("email = ?", email).
		Count(&existing).Error; err != nil {
		return nil, "", storeError(err)
	}
	if existing > 0 {
		return nil, "", apperrors.ErrDuplicateEmail
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("account service: hash password: %w", err)
	}

	token, expiresAt, err := s.mintToken(s.verificationExpiry)
	if err != nil {
		return nil, "", err
	}

	account := &models.Account{
		Name:                       name,
		Email:                      email,
		Phone:                      strings.TrimSpace(input.Phone),
		PasswordHash:               hashed,
		EmailVerificationToken:     &token,
		EmailVerificationExpiresAt: &expiresAt,
	}

	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, "", apperrors.ErrDuplicateEmail
		}
		return nil, "", storeError(err)
	}

	sessionToken, err := s.jwt.GenerateSessionToken(account.ID)
	if err != nil {
		return nil, "", fmt.Errorf("account service: issue session token: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: &account.ID,
		Action:    "account.register",
		Resource:  account.Email,
		Result:    "success",
	})

	s.sendVerificationEmail(account.Email, token)

	return account, sessionToken, nil
}

// Login validates credentials and issues a session token. Unknown emails and
// wrong passwords produce the same error; verification status is only
// reported once the credentials themselves have been confirmed.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	ctx = ensureContext(ctx)

	email = normaliseEmail(email)
	if email == "" || password == "" {
		return nil, "", apperrors.ErrInvalidCredentials
	}

	var account models.Account
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", storeError(err)
	}

	if !crypto.VerifyPassword(account.PasswordHash, password) {
		recordAudit(s.audit, ctx, AuditEntry{
			AccountID: &account.ID,
			Action:    "account.login",
			Result:    "failure",
		})
		return nil, "", apperrors.ErrInvalidCredentials
	}

	if s.requireVerifiedEmail && !account.IsEmailVerified {
		return nil, "", apperrors.ErrEmailNotVerified
	}

	token, err := s.jwt.GenerateSessionToken(account.ID)
	if err != nil {
		return nil, "", fmt.Errorf("account service: issue session token: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: &account.ID,
		Action:    "account.login",
		Result:    "success",
	})

	return &account, token, nil
}

// VerifyEmail consumes a verification token: the pair is cleared and the
// verified flag set in one UPDATE keyed on the token value. An expired token
// is left in place so the account can request a resend.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (*models.Account, error) {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewBadRequest("token is required")
	}

	var account models.Account
	err := s.db.WithContext(ctx).
		Where("email_verification_token = ? AND is_email_verified = ?", token, false).
		Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrInvalidToken
	}
	if err != nil {
		return nil, storeError(err)
	}

	if account.EmailVerificationExpiresAt == nil || account.EmailVerificationExpiresAt.Before(s.now()) {
		return nil, apperrors.ErrTokenExpired
	}

	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND email_verification_token = ?", account.ID, token).
		Updates(map[string]any{
			"is_email_verified":             true,
			"email_verification_token":      nil,
			"email_verification_expires_at": nil,
		})
	if result.Error != nil {
		return nil, storeError(result.Error)
	}
	if result.RowsAffected == 0 {
		// Consumed or reissued between lookup and update.
		return nil, apperrors.ErrInvalidToken
	}

	account.IsEmailVerified = true
	account.EmailVerificationToken = nil
	account.EmailVerificationExpiresAt = nil

	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: &account.ID,
		Action:    "account.verify_email",
		Result:    "success",
	})

	return &account, nil
}

// ResendVerification replaces any existing verification pair with a fresh one
// and re-sends the verification email.
func (s *AccountService) ResendVerification(ctx context.Context, accountID uint) error {
	ctx = ensureContext(ctx)

	var account models.Account
	err := s.db.WithContext(ctx).Take(&account, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return storeError(err)
	}

	if account.IsEmailVerified {
		return apperrors.ErrAlreadyVerified
	}

	token, expiresAt, err := s.mintToken(s.verificationExpiry)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&account).Updates(map[string]any{
		"email_verification_token":      token,
		"email_verification_expires_at": expiresAt,
	}).Error; err != nil {
		return storeError(err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: &account.ID,
		Action:    "account.resend_verification",
		Result:    "success",
	})

	s.sendVerificationEmail(account.Email, token)
	return nil
}

// RequestPasswordReset mints a reset pair and emails the reset link when the
// email belongs to an account. Unknown emails succeed identically so the
// endpoint cannot be used to discover accounts.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	ctx = ensureContext(ctx)

	email = normaliseEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	var account models.Account
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.WithModule("accounts").Debug("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return storeError(err)
	}

	token, expiresAt, err := s.mintToken(s.resetExpiry)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&account).Updates(map[string]any{
		"password_reset_token":      token,
		"password_reset_expires_at": expiresAt,
	}).Error; err != nil {
		return storeError(err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: &account.ID,
		Action:    "account.password_reset_request",
		Result:    "success",
	})

	s.sendResetEmail(account.Email, token)
	return nil
}

// ResetPassword consumes a reset token: the new hash is written and the pair
// cleared in one UPDATE keyed on the token value. Expired tokens are left in
// place; the account must request a new reset.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.NewBadRequest("token is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	var account models.Account
	err := s.db.WithContext(ctx).
		Where("password_reset_token = ?", token).
		Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrInvalidToken
	}
	if err != nil {
		return storeError(err)
	}

	if account.PasswordResetExpiresAt == nil || account.PasswordResetExpiresAt.Before(s.now()) {
		return apperrors.ErrTokenExpired
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("account service: hash password: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND password_reset_token = ?", account.ID, token).
		Updates(map[string]any{
			"password_hash":             hashed,
			"password_reset_token":      nil,
			"password_reset_expires_at": nil,
		})
	if result.Error != nil {
		return storeError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrInvalidToken
	}

	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: &account.ID,
		Action:    "account.password_reset",
		Result:    "success",
	})

	return nil
}

// ChangePassword verifies the current credential before writing the new hash.
func (s *AccountService) ChangePassword(ctx context.Context, accountID uint, currentPassword, newPassword string) error {
	ctx = ensureContext(ctx)

	var account models.Account
	err := s.db.WithContext(ctx).Take(&account, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return storeError(err)
	}

	// The caller proves the current credential before any feedback about the
	// replacement password.
	if !crypto.VerifyPassword(account.PasswordHash, currentPassword) {
		recordAudit(s.audit, ctx, AuditEntry{
			AccountID: &account.ID,
			Action:    "account.password_change",
			Result:    "failure",
		})
		return apperrors.ErrWrongPassword
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("account service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&account).
		Update("password_hash", hashed).Error; err != nil {
		return storeError(err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		AccountID: &account.ID,
		Action:    "account.password_change",
		Result:    "success",
	})

	return nil
}

// GetByID loads an account by its numeric identifier.
func (s *AccountService) GetByID(ctx context.Context, accountID uint) (*models.Account, error) {
	ctx = ensureContext(ctx)

	var account models.Account
	err := s.db.WithContext(ctx).Take(&account, "id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, storeError(err)
	}
	return &account, nil
}

func (s *AccountService) mintToken(ttl time.Duration) (string, time.Time, error) {
	token, err := crypto.GenerateToken(crypto.TokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("account service: generate token: %w", err)
	}
	return token, s.now().Add(ttl), nil
}

func (s *AccountService) sendVerificationEmail(email, token string) {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.baseURL, token)
	body := fmt.Sprintf(
		"<p>Welcome to Dishpatch!</p><p>Please confirm your email address by visiting <a href=%q>%s</a>.</p><p>The link expires in %s. If you did not create an account, you can ignore this message.</p>",
		link, link, s.verificationExpiry,
	)
	s.deliver("verification", email, "Confirm your Dishpatch account", body)
}

func (s *AccountService) sendResetEmail(email, token string) {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	body := fmt.Sprintf(
		"<p>We received a request to reset your Dishpatch password.</p><p>Choose a new password at <a href=%q>%s</a>.</p><p>The link expires in %s. If you did not request a reset, no action is needed.</p>",
		link, link, s.resetExpiry,
	)
	s.deliver("reset", email, "Reset your Dishpatch password", body)
}

// deliver schedules a best-effort send. Failures are logged and counted but
// never propagated to the operation that triggered the email.
func (s *AccountService) deliver(kind, to, subject, body string) {
	if s.mailer == nil {
		return
	}

	msg := mail.Message{To: []string{to}, Subject: subject, Body: body}
	s.dispatch(func() {
		err := s.mailer.Send(context.Background(), msg)
		switch {
		case err == nil:
			metrics.EmailsSent.WithLabelValues(kind, "success").Inc()
		case errors.Is(err, mail.ErrSMTPDisabled):
			metrics.EmailsSent.WithLabelValues(kind, "disabled").Inc()
		default:
			metrics.EmailsSent.WithLabelValues(kind, "failure").Inc()
			logger.WithModule("accounts").Warn("email delivery failed",
				zap.String("kind", kind),
				zap.Error(err),
			)
		}
	})
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return apperrors.NewBadRequest("email is required")
	}
	if _, err := netmail.ParseAddress(email); err != nil {
		return apperrors.NewBadRequest("email must be a valid address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.NewBadRequest(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}
