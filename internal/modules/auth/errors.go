package auth

import "errors"

var (
	// 400-class
	ErrAllFieldsRequired = errors.New("all fields are required")
	ErrAvatarRequired    = errors.New("avatar image is required")
	ErrUploadFailed      = errors.New("image upload failed")

	// 409-class
	ErrUserExists = errors.New("user with username or email already exists")

	// 404-class
	ErrUserNotFound = errors.New("user not found")

	// 401-class
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenUsed    = errors.New("refresh token expired or used")
	ErrUnauthorized        = errors.New("unauthorized")

	// 500-class: post-condition violations, e.g. account vanished right
	// after creation.
	ErrRegistrationFailed = errors.New("something went wrong while registering the user")
)
