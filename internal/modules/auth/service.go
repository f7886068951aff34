package auth

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"

	"videotube/internal/domain"
	"videotube/internal/media"
	"videotube/internal/pkg/hash"

	"gorm.io/gorm"
)

// Service is the session lifecycle manager: it owns the state transitions
// across register, login, refresh, change-password and logout. All session
// state lives on the account record; the service itself holds no mutable
// state and is safe for concurrent use.
type Service struct {
	users  UserRepositoryInterface
	tokens tokenIssuer
	media  media.Uploader
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

func NewService(users UserRepositoryInterface, tokens tokenIssuer, uploader media.Uploader) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		media:  uploader,
	}
}

// Register creates an account in the anonymous state. The avatar is
// mandatory and must reach the media host before the account exists; the
// cover image is best effort. Both local temp files are removed after the
// upload attempt regardless of outcome.
func (s *Service) Register(ctx context.Context, req RegisterRequest, avatarPath, coverPath string) (*domain.User, error) {
	defer removeTempFile(avatarPath)
	defer removeTempFile(coverPath)

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	password := strings.TrimSpace(req.Password)
	if username == "" || email == "" || fullName == "" || password == "" {
		return nil, ErrAllFieldsRequired
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	if avatarPath == "" {
		return nil, ErrAvatarRequired
	}
	avatarURL, err := s.media.UploadFile(ctx, avatarPath)
	if err != nil {
		return nil, ErrUploadFailed
	}

	coverURL := ""
	if coverPath != "" {
		// Cover is optional in the contract, so a failed upload does not
		// abort registration.
		if url, err := s.media.UploadFile(ctx, coverPath); err == nil {
			coverURL = url
		} else {
			log.Printf("cover image upload failed for %s: %v", username, err)
		}
	}

	passwordHash, err := hash.Password(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  passwordHash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	created, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, ErrRegistrationFailed
	}

	return created.Sanitize(), nil
}

// Login verifies the secret and starts a session: a fresh access+refresh
// pair is minted and the refresh token is persisted on the account,
// overwriting any prior value. Whatever session existed before is gone.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	identifier := strings.TrimSpace(req.Identifier())
	if identifier == "" || req.Password == "" {
		return nil, ErrAllFieldsRequired
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !hash.Verify(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokenPair(ctx, user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:         user.Sanitize(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// RefreshSession rotates the session. The presented token must carry a valid
// unexpired signature AND exactly match the value stored on the account; the
// second check is what makes an already-rotated token permanently unusable.
func (s *Service) RefreshSession(ctx context.Context, presented string) (*TokenPair, error) {
	if strings.TrimSpace(presented) == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.tokens.ValidateRefreshToken(presented)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != presented {
		// Valid signature but not the stored value: a rotated or logged-out
		// token is being replayed, or a concurrent login/refresh won the
		// race for this account.
		return nil, ErrRefreshTokenUsed
	}

	return s.issueTokenPair(ctx, user.ID, user.Username)
}

// ChangePassword re-hashes and stores the new secret. The stored refresh
// token is deliberately left untouched: existing sessions survive a
// password change.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return ErrAllFieldsRequired
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if !hash.Verify(oldPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	newHash, err := hash.Password(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, newHash)
}

// Logout clears the stored refresh token unconditionally. Clearing an
// already-empty token is a no-op success, so the operation is idempotent.
// Outstanding access tokens stay valid until their own expiry.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	err := s.users.SetRefreshToken(ctx, userID, nil)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.Sanitize(), nil
}

func (s *Service) UpdateAccountDetails(ctx context.Context, userID int64, req UpdateAccountRequest) (*domain.User, error) {
	if strings.TrimSpace(req.FullName) == "" && strings.TrimSpace(req.Email) == "" {
		return nil, ErrAllFieldsRequired
	}
	if err := s.users.UpdateAccountDetails(ctx, userID, req.FullName, req.Email); err != nil {
		return nil, err
	}
	return s.GetCurrentUser(ctx, userID)
}

// UpdateAvatar replaces the avatar with a freshly uploaded image. Same
// temp-file obligation as Register.
func (s *Service) UpdateAvatar(ctx context.Context, userID int64, localPath string) (*domain.User, error) {
	defer removeTempFile(localPath)

	if localPath == "" {
		return nil, ErrAvatarRequired
	}
	url, err := s.media.UploadFile(ctx, localPath)
	if err != nil {
		return nil, ErrUploadFailed
	}
	if err := s.users.UpdateAvatarURL(ctx, userID, url); err != nil {
		return nil, err
	}
	return s.GetCurrentUser(ctx, userID)
}

func (s *Service) UpdateCoverImage(ctx context.Context, userID int64, localPath string) (*domain.User, error) {
	defer removeTempFile(localPath)

	if localPath == "" {
		return nil, ErrUploadFailed
	}
	url, err := s.media.UploadFile(ctx, localPath)
	if err != nil {
		return nil, ErrUploadFailed
	}
	if err := s.users.UpdateCoverImageURL(ctx, userID, url); err != nil {
		return nil, err
	}
	return s.GetCurrentUser(ctx, userID)
}

// issueTokenPair mints both tokens and persists the refresh token on the
// account. The single UPDATE makes the new session the only valid one.
func (s *Service) issueTokenPair(ctx context.Context, userID int64, username string) (*TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(userID, username)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(userID, username)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, userID, &refreshToken); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Best-effort cleanup; a failed remove must never mask the primary error.
func removeTempFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to remove temp file %s: %v", path, err)
	}
}
