package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/lokario/backoffice/interfaces"
	apperrors "github.com/lokario/backoffice/internal/errors"
	"github.com/lokario/backoffice/internal/tracing"
)

// AcceptAutoReply sends the draft held for manual approval.
func AcceptAutoReply(autoReply interfaces.AutoReplyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := opentracing.SpanFromContext(ctx)

		companyID := c.Param("companyId")
		conversationID := c.Param("id")

		err := autoReply.Accept(ctx, companyID, conversationID)
		if err != nil {
			if errors.Is(err, apperrors.ErrMessageNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no auto-reply pending approval"})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "auto-reply sent"})
	}
}
