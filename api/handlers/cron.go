package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/lokario/backoffice/interfaces"
	"github.com/lokario/backoffice/internal/enum"
	"github.com/lokario/backoffice/internal/repository"
	"github.com/lokario/backoffice/internal/tracing"
	"github.com/lokario/backoffice/internal/utils"
)

// Cron endpoints exist for deployments driven by an external scheduler
// instead of the embedded one. Each runs its job synchronously and reports
// the outcome, so the scheduler sees failures.

func cronResult(c *gin.Context, err error) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     err.Error(),
			"timestamp": utils.Now(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"timestamp": utils.Now(),
	})
}

func CronSyncMailboxes(ingestion interfaces.IngestionService, classifier interfaces.ClassifierService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := ingestion.SyncMailboxes(ctx); err != nil {
			cronResult(c, err)
			return
		}
		cronResult(c, classifier.ClassifyAll(ctx))
	}
}

func CronReconcileDeletions(ingestion interfaces.IngestionService, repos *repository.Repositories) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		integrations, err := repos.IntegrationRepository.ListActive(ctx, enum.IntegrationIMAP)
		if err != nil {
			cronResult(c, err)
			return
		}
		var lastErr error
		for _, integration := range integrations {
			if err := ingestion.ReconcileDeletions(ctx, integration); err != nil {
				tracing.TraceErr(opentracing.SpanFromContext(ctx), err)
				lastErr = err
			}
		}
		cronResult(c, lastErr)
	}
}

func CronFollowUps(followUps interfaces.FollowUpService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cronResult(c, followUps.RunAll(c.Request.Context()))
	}
}

func CronReleasePendingReplies(autoReply interfaces.AutoReplyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cronResult(c, autoReply.ReleasePending(c.Request.Context(), utils.Now()))
	}
}

func CronClassifyConversations(classifier interfaces.ClassifierService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cronResult(c, classifier.ClassifyAll(c.Request.Context()))
	}
}
