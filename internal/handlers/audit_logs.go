package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mbelyakov/sales_crm/internal/audit"
	"github.com/mbelyakov/sales_crm/internal/authz"
	authmw "github.com/mbelyakov/sales_crm/internal/middleware/auth"
	"github.com/mbelyakov/sales_crm/internal/models"
)

type AuditLogHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

func (h *AuditLogHandler) List(c echo.Context) error {
	user := authmw.CurrentUser(c)
	if !authz.CanViewAuditLogs(authz.Role(user.Role)) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to view audit logs")
	}

	userID := c.QueryParam("user_id")
	action := c.QueryParam("action")
	logType := c.QueryParam("type")
	startDate := c.QueryParam("start_date")
	endDate := c.QueryParam("end_date")
	limit := parseIntDefault(c.QueryParam("limit"), 100)
	offset := parseIntDefault(c.QueryParam("offset"), 0)

	q := h.DB.Model(&models.AuditLog{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if action != "" {
		q = q.Where("action = ?", action)
	}
	if logType != "" {
		q = q.Where("type = ?", logType)
	}
	if startDate != "" {
		q = q.Where("timestamp >= ?", startDate)
	}
	if endDate != "" {
		q = q.Where("timestamp <= ?", endDate)
	}

	var logs []models.AuditLog
	if err := q.Order("timestamp DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load audit logs")
	}

	ip, agent := clientInfo(c)
	h.Audit.Record(c.Request().Context(), audit.Event{
		UserID: user.ID,
		Action: "VIEW_AUDIT_LOGS",
		Type:   "audit_log",
		Details: map[string]any{
			"filters": map[string]any{
				"user_id":    userID,
				"action":     action,
				"type":       logType,
				"start_date": startDate,
				"end_date":   endDate,
			},
			"pagination": map[string]any{"limit": limit, "offset": offset},
			"count":      len(logs),
		},
		IP:    ip,
		Agent: agent,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"audit_logs": logs,
		"pagination": echo.Map{
			"limit":  limit,
			"offset": offset,
			"count":  len(logs),
		},
	})
}

// UserLogs lets anyone read their own trail; reading someone else's needs an
// unrestricted role.
func (h *AuditLogHandler) UserLogs(c echo.Context) error {
	user := authmw.CurrentUser(c)
	targetID := c.Param("id")

	if !authz.CanViewUserAudit(user.ID, authz.Role(user.Role), targetID) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to view these audit logs")
	}

	limit := parseIntDefault(c.QueryParam("limit"), 50)

	var logs []models.AuditLog
	if err := h.DB.Where("user_id = ?", targetID).Order("timestamp DESC").Limit(limit).Find(&logs).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load audit logs")
	}

	ip, agent := clientInfo(c)
	h.Audit.Record(c.Request().Context(), audit.Event{
		UserID:  user.ID,
		Action:  "VIEW_USER_AUDIT_LOGS",
		Type:    "audit_log",
		Details: map[string]any{"target_user_id": targetID, "count": len(logs)},
		IP:      ip,
		Agent:   agent,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"user_id":    targetID,
		"audit_logs": logs,
		"count":      len(logs),
	})
}

func (h *AuditLogHandler) ResourceLogs(c echo.Context) error {
	user := authmw.CurrentUser(c)
	if !authz.CanViewAuditLogs(authz.Role(user.Role)) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to view resource audit logs")
	}

	logType := c.Param("type")
	resourceID := c.Param("id")

	var logs []models.AuditLog
	if err := h.DB.Where("type = ? AND resource_id = ?", logType, resourceID).Order("timestamp DESC").Find(&logs).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load audit logs")
	}

	ip, agent := clientInfo(c)
	h.Audit.Record(c.Request().Context(), audit.Event{
		UserID: user.ID,
		Action: "VIEW_RESOURCE_AUDIT_LOGS",
		Type:   "audit_log",
		Details: map[string]any{
			"target_type":        logType,
			"target_resource_id": resourceID,
			"count":              len(logs),
		},
		IP:    ip,
		Agent: agent,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"type":        logType,
		"resource_id": resourceID,
		"audit_logs":  logs,
		"count":       len(logs),
	})
}
