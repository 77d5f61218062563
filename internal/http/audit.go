package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/fediarchive/internal/database/audit"
	"github.com/mrlokans/fediarchive/internal/entities"
)

type AuditController struct {
	auditor Auditor
}

func NewAuditController(auditor Auditor) *AuditController {
	return &AuditController{
		auditor: auditor,
	}
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/audit?account=&type=&page=&limit=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}

	filter := audit.Filter{
		AccountID: c.Query("account"),
		EventType: entities.AuditEventType(c.Query("type")),
	}
	offset := (page - 1) * limit

	events, total, err := ac.auditor.GetEvents(filter, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load audit events",
		})
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}
