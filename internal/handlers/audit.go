package handlers

import (
	"net/http"

	"grc-backend/internal/database"
	"grc-backend/internal/models"

	"github.com/gin-gonic/gin"
)

func ListAuditLogs(c *gin.Context) {
	var logs []models.AuditLog
	if err := database.DB.
		Preload("User").
		Order("created_at desc").
		Limit(200).
		Find(&logs).Error; err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}
