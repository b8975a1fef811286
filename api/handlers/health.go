package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lokario/backoffice/internal/utils"
)

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": utils.Now(),
	})
}
