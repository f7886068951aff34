package auth

import (
	"context"

	"videotube/internal/domain"
	jwtpkg "videotube/internal/pkg/jwt"
)

// UserRepositoryInterface covers only the methods the session lifecycle uses.
// SetRefreshToken/GetByRefreshToken form the session store contract: one
// stored token per account, single-field overwrite, last writer wins.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	SetRefreshToken(ctx context.Context, userID int64, token *string) error
	GetByRefreshToken(ctx context.Context, token string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateAccountDetails(ctx context.Context, userID int64, fullName, email string) error
	UpdateAvatarURL(ctx context.Context, userID int64, url string) error
	UpdateCoverImageURL(ctx context.Context, userID int64, url string) error
}

// tokenIssuer is the slice of the jwt service the lifecycle needs.
type tokenIssuer interface {
	GenerateAccessToken(userID int64, username string) (string, error)
	GenerateRefreshToken(userID int64, username string) (string, error)
	ValidateRefreshToken(token string) (*jwtpkg.Claims, error)
}
