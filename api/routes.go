package api

import (
	"github.com/gin-gonic/gin"

	"github.com/lokario/backoffice/api/handlers"
	"github.com/lokario/backoffice/api/middleware"
	"github.com/lokario/backoffice/config"
	"github.com/lokario/backoffice/internal/logger"
	"github.com/lokario/backoffice/internal/repository"
	"github.com/lokario/backoffice/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, log logger.Logger, s *services.Services, repos *repository.Repositories, appConfig *config.AppConfig) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())

	r.GET("/health", handlers.HealthCheck)

	// Provider webhooks authenticate with per-integration secrets checked
	// inside the handler, never with the API key.
	webhooks := r.Group("/inbox/webhooks")
	webhooks.Use(middleware.TracingMiddleware())
	{
		webhooks.POST("/:channel", handlers.InboundWebhook(s.IngestionService, repos, s.Encryptor))
	}

	// Scheduler endpoints, for deployments where an external cron drives
	// the jobs instead of the embedded scheduler. Both verbs so a plain
	// curl or a platform pinger can trigger them.
	cronSecret := middleware.CronSecretMiddleware(log, appConfig.CronSecret)

	syncHandler := handlers.CronSyncMailboxes(s.IngestionService, s.ClassifierService)
	r.GET("/inbox/sync", cronSecret, syncHandler)
	r.POST("/inbox/sync", cronSecret, syncHandler)

	followUpHandler := handlers.CronFollowUps(s.FollowUpService)
	r.GET("/followups/process-automatic", cronSecret, followUpHandler)
	r.POST("/followups/process-automatic", cronSecret, followUpHandler)

	cron := r.Group("/cron")
	cron.Use(cronSecret)
	cron.Use(middleware.TracingMiddleware())
	{
		cron.POST("/reconcile-deletions", handlers.CronReconcileDeletions(s.IngestionService, repos))
		cron.POST("/release-pending-replies", handlers.CronReleasePendingReplies(s.AutoReplyService))
		cron.POST("/classify-conversations", handlers.CronClassifyConversations(s.ClassifierService))
	}

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-LOKARIO-API-KEY",
		ValidAPIKey: appConfig.APIKey,
	})

	v1 := r.Group("/v1")
	v1.Use(apiKeyMiddleware)
	v1.Use(middleware.TracingMiddleware())
	{
		companies := v1.Group("/companies/:companyId")
		{
			companies.POST("/conversations/:id/auto-reply/accept", handlers.AcceptAutoReply(s.AutoReplyService))
		}
	}
}
