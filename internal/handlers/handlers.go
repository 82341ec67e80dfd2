package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Vankh007/tv4u-sub002/internal/cache"
	"github.com/Vankh007/tv4u-sub002/internal/catalog"
	"github.com/Vankh007/tv4u-sub002/internal/config"
	"github.com/Vankh007/tv4u-sub002/internal/middleware"
	"github.com/Vankh007/tv4u-sub002/internal/repository"
	"github.com/Vankh007/tv4u-sub002/internal/service"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	playback *service.PlaybackService
	leases   *service.LeaseService
	catalog  catalog.Provider
	db       *pgxpool.Pool
	cache    *redis.Client
}

func NewHandlerSet(
	log zerolog.Logger,
	db *pgxpool.Pool,
	cacheClient *redis.Client,
	presigner service.SourcePresigner,
	catalogProvider catalog.Provider,
	cfg *config.AppConfig,
) HandlerSet {
	subRepo := repository.NewSubscriptionRepository(db)
	rentalRepo := repository.NewRentalRepository(db)
	planRepo := repository.NewPlanRepository(db, cacheClient)
	sessionRepo := repository.NewDeviceSessionRepository(db)
	grants := cache.NewGrantStore(cacheClient)

	entitlements := service.NewEntitlementService(subRepo, rentalRepo, cfg, log)
	playback := service.NewPlaybackService(entitlements, grants, presigner, cfg, log)
	leases := service.NewLeaseService(sessionRepo, subRepo, planRepo, cfg, log)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		playback: playback,
		leases:   leases,
		catalog:  catalogProvider,
		db:       db,
		cache:    cacheClient,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		playback := v1.Group("/playback")
		playback.GET("/capabilities/:token", h.VerifyCapability)
		playback.Use(middleware.Auth(h.cfg))
		playback.POST("/authorize", h.AuthorizePlayback)

		devices := v1.Group("/devices")
		devices.Use(middleware.Auth(h.cfg))
		devices.POST("/heartbeat", h.Heartbeat)
		devices.GET("", h.ListDevices)
		devices.DELETE("/:deviceId", h.SignOutDevice)
		devices.POST("/signout-others", h.SignOutOtherDevices)
	}
}
