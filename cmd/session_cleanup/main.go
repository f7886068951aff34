// Clears stored refresh tokens whose signature no longer verifies (expired
// or signed with a retired secret). Run from cron; the API never reads an
// expired token successfully, so this is pure hygiene for the users table.
package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"videotube/internal/config"
	"videotube/internal/database"
	"videotube/internal/domain"
	jwtsvc "videotube/internal/pkg/jwt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	tokens := jwtsvc.New(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	ctx := context.Background()

	var users []domain.User
	if err := db.WithContext(ctx).Where("refresh_token IS NOT NULL").Find(&users).Error; err != nil {
		log.Fatal(err)
	}

	cleared := 0
	for _, u := range users {
		if u.RefreshToken == nil {
			continue
		}
		if _, err := tokens.ValidateRefreshToken(*u.RefreshToken); err == nil {
			continue
		}
		if err := db.WithContext(ctx).Model(&domain.User{}).
			Where("id = ? AND refresh_token = ?", u.ID, *u.RefreshToken).
			Update("refresh_token", nil).Error; err != nil {
			log.Printf("failed to clear session for user %d: %v", u.ID, err)
			continue
		}
		cleared++
	}

	log.Printf("session cleanup done: %d of %d stored tokens cleared", cleared, len(users))
}
