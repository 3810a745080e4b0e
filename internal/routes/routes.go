package routes

import (
	"wallet-backend/internal/config"
	"wallet-backend/internal/handlers"
	"wallet-backend/internal/middleware"
	"wallet-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, cfg *config.Config) *gin.Engine {
	router := gin.New()

	router.Use(middleware.LoggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())

	generator := services.NewCodeGenerator(cfg.Referral.CodeLength)
	registryService := services.NewRegistryService(db, generator, cfg.Referral.MaxCodesPerReferrer)
	referrerService := services.NewReferrerService(db)
	legacyService := services.NewLegacyCodeService(db, registryService)
	visitService := services.NewVisitService(db, cfg.Referral.MatchWindowMinutes, cfg.Referral.UserAgentMaxLength)
	matchService := services.NewMatchService(db,
		cfg.Referral.MatchEnabled, cfg.Referral.StrictUAMatch,
		cfg.Referral.MaxCandidatesPerIP, cfg.Referral.UserAgentMaxLength)
	attributionService := services.NewAttributionService(db, cfg.Referral.ExpiryHours)
	authService := services.NewAuthService(db)

	authHandler := handlers.NewAuthHandler(authService, attributionService, cfg)
	visitHandler := handlers.NewVisitHandler(visitService, matchService)
	referralHandler := handlers.NewReferralHandler(registryService, referrerService, legacyService, attributionService)
	adminHandler := handlers.NewAdminHandler(registryService, referrerService)

	api := router.Group("/api")

	// 未认证接口，限流更紧
	public := api.Group("/referral")
	public.Use(middleware.RateLimitMiddleware(30))
	{
		public.POST("/visit", visitHandler.SubmitVisit)
		public.POST("/match", visitHandler.RequestMatch)
	}

	auth := api.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware(60))
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.RateLimitMiddleware(60))
	protected.Use(middleware.AuthMiddleware(db, cfg))
	{
		user := protected.Group("/auth")
		{
			user.GET("/me", authHandler.GetMe)
		}

		referral := protected.Group("/referral")
		{
			referral.POST("/codes", referralHandler.RequestCode)
			referral.GET("/codes", referralHandler.ListCodes)
			referral.PUT("/codes/:code", referralHandler.UpdateCode)
			referral.POST("/code", referralHandler.RequestOwnCode)
			referral.GET("/stats", referralHandler.Stats)
			referral.POST("/convert", referralHandler.Convert)
			referral.POST("/referrer", referralHandler.RequestReferrer)
			referral.PUT("/referrer/notify", referralHandler.UpdateNotify)
		}
	}

	admin := api.Group("/admin/referral")
	admin.Use(middleware.AuthMiddleware(db, cfg))
	admin.Use(middleware.AdminMiddleware())
	{
		admin.GET("/codes", adminHandler.ListCodes)
		admin.POST("/codes/:id/approve", adminHandler.ApproveCode)
		admin.POST("/codes/:id/reject", adminHandler.RejectCode)
		admin.GET("/referrers", adminHandler.ListReferrers)
		admin.POST("/referrers/:id/approve", adminHandler.ApproveReferrer)
		admin.POST("/referrers/:id/reject", adminHandler.RejectReferrer)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "服务运行正常",
		})
	})

	return router
}
