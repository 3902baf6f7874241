package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pressroom/invitehub/internal/config"
	"pressroom/invitehub/internal/handler/middleware"
	jwtpkg "pressroom/invitehub/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	invitationHandler *InvitationHandler,
	receiveHandler *ReceiveHandler,
	redirectHandler *ActionRedirectHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Mail-link actions (public, keyed by the one-time secret in the URL)
	r.GET("/invitation/:id/:key/accept", redirectHandler.AcceptHandle)
	r.GET("/invitation/:id/:key/decline", redirectHandler.DeclineHandle)

	// Invitee flow (public, keyed per request)
	receive := r.Group("/api/v1/invitations")
	{
		receive.GET("/:id/receive", receiveHandler.Receive)
		receive.PATCH("/:id/refine", receiveHandler.Refine)
		receive.POST("/:id/finalize", receiveHandler.Finalize)
		receive.POST("/:id/decline", receiveHandler.Decline)
	}

	// Staff flow (JWT-guarded)
	staff := r.Group("/api/v1/invitations")
	staff.Use(middleware.JWTAuth(jwtManager))
	{
		staff.POST("", invitationHandler.Add)
		staff.GET("", invitationHandler.List)
		staff.GET("/:id", invitationHandler.Get)
		staff.PATCH("/:id/populate", invitationHandler.Populate)
		staff.POST("/:id/invite", invitationHandler.Invite)
	}

	return r
}
