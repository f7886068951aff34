package domain

import "time"

// User is the account record.
//
// Session notes:
//   - PasswordHash is the only form the secret ever exists in server-side.
//   - RefreshToken holds the single currently-valid refresh token (nil = no
//     active session). Login and refresh overwrite it and logout clears it,
//     so a new login silently ends any other active session for the account.
type User struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	Username string `json:"username" gorm:"uniqueIndex;not null"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	FullName string `json:"full_name" gorm:"not null"`

	PasswordHash string  `json:"-" gorm:"column:password_hash;not null"`
	RefreshToken *string `json:"-" gorm:"column:refresh_token"`

	AvatarURL     string `json:"avatar_url"`
	CoverImageURL string `json:"cover_image_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Sanitize strips secret and session material before the record leaves the
// service layer.
func (u *User) Sanitize() *User {
	u.PasswordHash = ""
	u.RefreshToken = nil
	return u
}

// HasActiveSession reports whether a refresh token is currently stored.
func (u *User) HasActiveSession() bool {
	return u.RefreshToken != nil && *u.RefreshToken != ""
}
