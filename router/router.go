package router

import (
	"log"
	"net/http"

	"moneyflow/api"
	"moneyflow/config"
	_ "moneyflow/docs"
	"moneyflow/middleware"
	"moneyflow/service"
	"moneyflow/store"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()
	r.Use(CORSMiddleware())

	goalStore := store.NewGoalStore(db)
	ledgerStore := store.NewLedgerStore(db)
	categoryStore := store.NewCategoryStore(db)
	membershipStore := store.NewMembershipStore(db)

	syncer := service.NewGoalSynchronizer(goalStore, ledgerStore,
		service.WithNotifier(newGoalNotifier(cfg, membershipStore)),
		service.WithReopenPolicy(cfg.Goals.ReopenOnTargetRaise),
	)

	goalHandler := api.NewGoalHandler(goalStore, categoryStore, membershipStore, syncer, api.GoalHandlerOptions{
		PersistOnRead: cfg.Goals.PersistOnRead,
		AllowReopen:   cfg.Goals.ReopenOnTargetRaise,
	})
	transactionHandler := api.NewTransactionHandler(ledgerStore, categoryStore, membershipStore, syncer)
	categoryHandler := api.NewCategoryHandler(categoryStore, membershipStore)
	organizationHandler := api.NewOrganizationHandler(membershipStore)

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth())
	{
		orgs := v1.Group("/organizations")
		{
			orgs.POST("", organizationHandler.Create)
			orgs.GET("", organizationHandler.List)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", categoryHandler.List)
			categories.POST("", categoryHandler.Create)
		}

		transactions := v1.Group("/transactions")
		{
			transactions.GET("", transactionHandler.List)
			transactions.POST("", transactionHandler.Create)
			transactions.DELETE("", transactionHandler.Delete)
			transactions.GET("/summary", transactionHandler.Summary)
			transactions.GET("/export", transactionHandler.ExportCSV)
		}

		goals := v1.Group("/goals")
		{
			goals.GET("", goalHandler.List)
			goals.POST("", goalHandler.Create)
			goals.PUT("", goalHandler.Update)
			goals.DELETE("", goalHandler.Delete)
			goals.GET("/export", goalHandler.Export)
			goals.POST("/sync",
				middleware.RateLimit(cfg.RateLimit.SyncMaxRequests, cfg.RateLimit.SyncWindow()),
				goalHandler.Sync)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	return r
}

// newGoalNotifier 按配置组装目标达成通知渠道
func newGoalNotifier(cfg *config.Config, orgs service.OrganizationFinder) service.GoalNotifier {
	var notifiers service.MultiNotifier
	if cfg.Notify.Email.Enabled {
		notifiers = append(notifiers, service.NewEmailNotifier(service.NewEmailService(&cfg.Notify.Email), orgs))
	}
	if cfg.Notify.Discord.Enabled {
		discord, err := service.NewDiscordNotifier(&cfg.Notify.Discord)
		if err != nil {
			log.Printf("Discord 通知初始化失败，已跳过: %v", err)
		} else {
			notifiers = append(notifiers, discord)
		}
	}
	if len(notifiers) == 0 {
		return nil
	}
	return notifiers
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
