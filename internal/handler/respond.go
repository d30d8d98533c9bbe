package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kratovich/reviewdb/internal/apperr"
	"github.com/kratovich/reviewdb/internal/models"
	"github.com/kratovich/reviewdb/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// respondError maps the error taxonomy onto HTTP status codes. Unclassified
// errors are logged and surfaced as a generic 500.
func respondError(c *gin.Context, err error) {
	var status int
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindInvalidCredential:
		status = http.StatusBadRequest
	case apperr.KindAuthentication:
		status = http.StatusUnauthorized
	case apperr.KindAuthorization:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	default:
		logger.Log.Error("Unhandled error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// pagination extracts page-number pagination from query params.
func pagination(c *gin.Context) (offset, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return (page - 1) * size, size
}

func respondPage(c *gin.Context, total int64, results any) {
	c.JSON(http.StatusOK, gin.H{
		"count":   total,
		"results": results,
	})
}

// pathID parses a numeric path parameter; a non-numeric value can never
// reference a row, so it reads as not found.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": name + " not found"})
		return 0, false
	}
	return uint(id), true
}

func userJSON(u *models.User) gin.H {
	return gin.H{
		"username":   u.Username,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"bio":        u.Bio,
		"role":       u.Role,
	}
}

func reviewJSON(r *models.Review) gin.H {
	return gin.H{
		"id":       r.ID,
		"text":     r.Text,
		"author":   r.Author.Username,
		"score":    r.Score,
		"pub_date": r.CreatedAt,
	}
}

func commentJSON(cm *models.Comment) gin.H {
	return gin.H{
		"id":       cm.ID,
		"text":     cm.Text,
		"author":   cm.Author.Username,
		"pub_date": cm.CreatedAt,
	}
}
