package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/lokario/backoffice/internal/tracing"
)

func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := tracing.StartTracerSpan(
			c.Request.Context(),
			c.Request.Method+" "+c.FullPath(),
		)
		defer span.Finish()

		tracing.TagComponentRest(span)

		if id := c.Param("id"); id != "" {
			tracing.TagEntity(span, id)
		}
		if companyID := c.Param("companyId"); companyID != "" {
			tracing.TagCompany(span, companyID)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
