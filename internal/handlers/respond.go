package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"grc-backend/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// fail maps domain errors onto HTTP statuses.
func fail(c *gin.Context, err error) {
	var ie *models.InvariantError
	switch {
	case errors.As(err, &ie):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invariant violated", "reasons": ie.Reasons})
	case errors.Is(err, models.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrStaleVersion):
		c.JSON(http.StatusConflict, gin.H{"error": "version conflict, reload and retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// parseID reads a positive numeric path parameter; responds 400 itself on
// bad input.
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.Atoi(c.Param(param))
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func currentUserID(c *gin.Context) uint {
	sess := sessions.Default(c)
	if uid, ok := sess.Get("user_id").(uint); ok {
		return uid
	}
	return 0
}

func currentUsername(c *gin.Context) string {
	if uVal, ok := c.Get("CurrentUser"); ok {
		if u, ok := uVal.(models.User); ok {
			return u.Username
		}
	}
	return ""
}
