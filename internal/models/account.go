package models

import "time"

// Account is the persistent identity record for a customer.
//
// The verification and reset token pairs are independent of each other: either
// may be present while the other is absent, but within a pair the token and its
// expiry are always both set or both nil. Writes that consume a pair (verify,
// reset) clear the pair and apply the companion change in a single UPDATE so no
// reader ever observes a half-applied transition.
type Account struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Phone string `json:"phone,omitempty"`

	PasswordHash string `gorm:"not null" json:"-"`

	IsEmailVerified            bool       `gorm:"default:false" json:"is_email_verified"`
	EmailVerificationToken     *string    `gorm:"uniqueIndex" json:"-"`
	EmailVerificationExpiresAt *time.Time `json:"-"`

	PasswordResetToken     *string    `gorm:"uniqueIndex" json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
