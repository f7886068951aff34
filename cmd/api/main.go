package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"videotube/internal/config"
	"videotube/internal/database"
	"videotube/internal/domain"
	"videotube/internal/media"
	"videotube/internal/middleware"
	"videotube/internal/modules/auth"
	"videotube/internal/modules/channel"
	jwtsvc "videotube/internal/pkg/jwt"
	"videotube/internal/repository"
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

	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Video{},
		&domain.Subscription{},
		&domain.WatchHistoryEntry{},
	); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	videoRepo := repository.NewVideoRepository(db)

	tokens := jwtsvc.New(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	mediaClient, err := media.NewClient(context.Background(), media.Options{
		Endpoint:      cfg.MediaEndpoint,
		AccessKey:     cfg.MediaAccessKey,
		SecretKey:     cfg.MediaSecretKey,
		Bucket:        cfg.MediaBucket,
		UseSSL:        cfg.MediaUseSSL,
		PublicBaseURL: cfg.MediaPublicBaseURL,
		Timeout:       cfg.UploadTimeout,
	})
	if err != nil {
		log.Fatal(err)
	}

	authService := auth.NewService(userRepo, tokens, mediaClient)
	authHandler := auth.NewHandler(authService, cfg.RefreshTokenTTL, cfg.CookieSecure, cfg.CookieSameSite, cfg.CookiePath)

	channelService := channel.NewService(userRepo, subscriptionRepo, videoRepo)
	channelHandler := channel.NewHandler(channelService)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)

		// protected
		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(tokens))
		{
			authHandler.RegisterProtectedRoutes(protected)
			channelHandler.RegisterProtectedRoutes(protected)
		}
	}

	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
