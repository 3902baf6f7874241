package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"pressroom/invitehub/internal/config"
	"pressroom/invitehub/internal/handler"
	"pressroom/invitehub/internal/invitation"
	"pressroom/invitehub/internal/invites"
	"pressroom/invitehub/internal/model"
	"pressroom/invitehub/internal/repository"
	"pressroom/invitehub/internal/service"
	"pressroom/invitehub/pkg/crypto"
	jwtpkg "pressroom/invitehub/pkg/jwt"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	var logger *zap.Logger
	if cfg.Log.Format == "json" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// 3. Connect to PostgreSQL
	db, err := config.NewPostgresDB(cfg.Database.Postgres)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	// 4. Auto-migrate if enabled
	if cfg.Database.Postgres.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		logger.Info("database migration completed")
	}

	// 5. Initialize state store (Redis or in-memory)
	var stateStore repository.StateStore
	switch cfg.State.Backend {
	case "redis":
		redisClient, err := config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		stateStore = repository.NewRedisStateStore(redisClient)
		logger.Info("using Redis state store")
	case "memory":
		stateStore = repository.NewMemoryStateStore()
		logger.Info("using in-memory state store")
	default:
		logger.Fatal("unknown state backend", zap.String("backend", cfg.State.Backend))
	}

	// 6. Initialize repositories
	invitationRepo := repository.NewPGInvitationRepository(db)
	userRepo := repository.NewPGUserRepository(db)
	contextRepo := repository.NewPGContextRepository(db)

	// 7. Initialize mail sender (optional; invitations still dispatch without it)
	var mailer service.MailSender
	if cfg.SMTP.Host != "" {
		mailer, err = service.NewSMTPSender(cfg.SMTP)
		if err != nil {
			logger.Fatal("failed to init smtp sender", zap.Error(err))
		}
		logger.Info("SMTP sender initialized", zap.String("host", cfg.SMTP.Host))
	} else {
		logger.Warn("no SMTP host configured, invitation mail disabled")
	}

	// 8. Initialize the invitation factory and type registry
	factory := invitation.NewFactory(invitation.Deps{
		Invitations: invitationRepo,
		Users:       userRepo,
		Contexts:    contextRepo,
		Hasher:      crypto.BcryptHasher{},
		GenerateKey: crypto.GenerateInviteKey,
		Mailer:      mailer,
		Logger:      logger,
		ExpiryDays:  cfg.Invite.ExpiryDays,
		SiteLocale:  cfg.Site.PrimaryLocale,
	})
	factory.Init(map[string]invitation.Constructor{
		invites.TypeRoleAssignment: invites.NewRoleAssignmentInvite(cfg.Site.BaseURL),
		invites.TypeEmailChange:    invites.NewEmailChangeInvite(cfg.Site.BaseURL),
	})
	logger.Info("invitation types registered", zap.Strings("types", factory.Types()))

	// 9. Initialize JWT manager
	jwtManager := jwtpkg.NewManager(
		cfg.JWT.SigningKey,
		cfg.JWT.Issuer,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)

	// 10. Initialize services and handlers
	invitationService := service.NewInvitationService(
		factory, invitationRepo, stateStore, crypto.BcryptHasher{},
		cfg.Invite, nil, logger,
	)
	invitationHandler := handler.NewInvitationHandler(invitationService)
	receiveHandler := handler.NewReceiveHandler(invitationService)
	redirectHandler := handler.NewActionRedirectHandler(invitationService, cfg.Site.FrontendURL)

	// 11. Setup router
	router := handler.SetupRouter(cfg, logger, jwtManager, invitationHandler, receiveHandler, redirectHandler)

	// 12. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 13. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 14. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}
