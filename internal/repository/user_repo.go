package repository

import (
	"context"
	"strings"

	"videotube/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func normalizeUsername(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func normalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.Username = normalizeUsername(u.Username)
	u.Email = normalizeEmail(u.Email)
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Where("username = ?", normalizeUsername(username)).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsernameOrEmail resolves the login identifier, which may be either a
// handle or a contact address.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*domain.User, error) {
	id := strings.ToLower(strings.TrimSpace(identifier))
	var u domain.User
	err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", id, id).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ExistsByUsernameOrEmail backs the duplicate check on registration.
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("username = ? OR email = ?", normalizeUsername(username), normalizeEmail(email)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetRefreshToken overwrites the single stored refresh token for the account
// in one UPDATE; last writer wins, nil clears. Returns
// gorm.ErrRecordNotFound when the account does not exist.
func (r *UserRepository) SetRefreshToken(ctx context.Context, userID int64, token *string) error {
	tx := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Update("refresh_token", token)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		// Update on a missing row is not an error for gorm; the clearing
		// case must still be idempotent, so only a missing account counts.
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// GetByRefreshToken cross-checks a presented refresh token against persisted
// state by exact match.
func (r *UserRepository) GetByRefreshToken(ctx context.Context, token string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Where("refresh_token = ?", token).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash).Error
}

func (r *UserRepository) UpdateAccountDetails(ctx context.Context, userID int64, fullName, email string) error {
	updates := map[string]any{}
	if strings.TrimSpace(fullName) != "" {
		updates["full_name"] = strings.TrimSpace(fullName)
	}
	if strings.TrimSpace(email) != "" {
		updates["email"] = normalizeEmail(email)
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(updates).Error
}

func (r *UserRepository) UpdateAvatarURL(ctx context.Context, userID int64, url string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Update("avatar_url", url).Error
}

func (r *UserRepository) UpdateCoverImageURL(ctx context.Context, userID int64, url string) error {
	return r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Update("cover_image_url", url).Error
}
