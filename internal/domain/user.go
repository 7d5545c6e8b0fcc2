package domain

import "time"

// User is the credential record for one account.
// TOTPSecret is nil until second-factor enrollment; re-enrollment
// overwrites it, which invalidates every code derived from the old secret.
type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Username     string    `json:"username" dynamodbav:"username"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Phone        *string   `json:"phone,omitempty" dynamodbav:"phone"`
	TOTPSecret   *string   `json:"-" dynamodbav:"totp_secret"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// TOTPEnabled reports whether a second-factor secret is currently enrolled.
func (u *User) TOTPEnabled() bool {
	return u.TOTPSecret != nil && *u.TOTPSecret != ""
}

type RegisterRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=64"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Phone    *string `json:"phone" validate:"omitempty,e164"`
}
