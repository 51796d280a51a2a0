package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mbelyakov/sales_crm/internal/authz"
	authmw "github.com/mbelyakov/sales_crm/internal/middleware/auth"
	"github.com/mbelyakov/sales_crm/internal/models"
)

type DealHandler struct {
	DB *gorm.DB
}

func (h *DealHandler) List(c echo.Context) error {
	user := authmw.CurrentUser(c)
	filter := c.QueryParam("assigned_to")

	q := h.DB.Model(&models.Deal{})
	if filter != "" {
		q = q.Where("assigned_to = ?", filter)
	} else if !authz.Role(user.Role).Unrestricted() {
		q = q.Where("assigned_to = ?", user.ID)
	}

	var deals []models.Deal
	if err := q.Find(&deals).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list deals")
	}

	return c.JSON(http.StatusOK, deals)
}

func (h *DealHandler) Create(c echo.Context) error {
	user := authmw.CurrentUser(c)

	var req models.Deal
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	req.ID = ""

	// A sales_rep creating an unassigned deal gets it assigned to themselves.
	if req.AssignedTo == "" && !authz.Role(user.Role).Unrestricted() {
		req.AssignedTo = user.ID
	}

	if req.AssignedTo != "" {
		ok, err := userExists(h.DB, req.AssignedTo)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create deal")
		}
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "Assigned user not found")
		}
	}
	if req.CustomerID != "" {
		var customer models.Customer
		if err := h.DB.Where("id = ?", req.CustomerID).First(&customer).Error; err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Customer not found")
		}
	}

	if err := h.DB.Create(&req).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create deal")
	}

	return c.JSON(http.StatusOK, req)
}

func (h *DealHandler) Get(c echo.Context) error {
	user := authmw.CurrentUser(c)

	var deal models.Deal
	if err := h.DB.Where("id = ?", c.Param("id")).First(&deal).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Deal not found")
	}

	if !authz.CanAccess(user.ID, authz.Role(user.Role), deal.AssignedTo) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to view this deal")
	}

	return c.JSON(http.StatusOK, deal)
}

func (h *DealHandler) Update(c echo.Context) error {
	user := authmw.CurrentUser(c)
	id := c.Param("id")

	var existing models.Deal
	if err := h.DB.Where("id = ?", id).First(&existing).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Deal not found")
	}
	if !authz.CanAccess(user.ID, authz.Role(user.Role), existing.AssignedTo) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to update this deal")
	}

	var req models.Deal
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.ID = ""

	if req.AssignedTo != "" {
		ok, err := userExists(h.DB, req.AssignedTo)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update deal")
		}
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "Assigned user not found")
		}
	}

	if err := h.DB.Model(&existing).Updates(req).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update deal")
	}

	return c.JSON(http.StatusOK, existing)
}

func (h *DealHandler) Delete(c echo.Context) error {
	user := authmw.CurrentUser(c)
	id := c.Param("id")

	var existing models.Deal
	if err := h.DB.Where("id = ?", id).First(&existing).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Deal not found")
	}
	if !authz.CanAccess(user.ID, authz.Role(user.Role), existing.AssignedTo) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to delete this deal")
	}

	if err := h.DB.Delete(&models.Deal{}, "id = ?", id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete deal")
	}

	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (h *DealHandler) UpdateStatus(c echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}

	result := h.DB.Model(&models.Deal{}).Where("id = ?", c.Param("id")).Updates(map[string]any{
		"status": req.Status,
		"stage":  req.Status,
	})
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update deal")
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Deal not found")
	}

	var deal models.Deal
	if err := h.DB.Where("id = ?", c.Param("id")).First(&deal).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update deal")
	}

	return c.JSON(http.StatusOK, deal)
}

func (h *DealHandler) Assign(c echo.Context) error {
	var req struct {
		AssignedTo string `json:"assigned_to"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var assignee models.User
	if err := h.DB.Where("id = ?", req.AssignedTo).First(&assignee).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "User not found")
	}

	id := c.Param("id")
	var deal models.Deal
	if err := h.DB.Where("id = ?", id).First(&deal).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Deal not found")
	}

	if err := h.DB.Model(&deal).Update("assigned_to", req.AssignedTo).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to assign deal")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"message":     "Deal assigned to " + assignee.Name,
		"deal_id":     id,
		"assigned_to": req.AssignedTo,
	})
}

// Pipeline buckets deals by stage. Unknown stages are dropped, matching the
// fixed set of pipeline columns.
func (h *DealHandler) Pipeline(c echo.Context) error {
	filter := c.QueryParam("assigned_to")

	q := h.DB.Model(&models.Deal{})
	if filter != "" {
		q = q.Where("assigned_to = ?", filter)
	}

	var deals []models.Deal
	if err := q.Find(&deals).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load pipeline")
	}

	pipeline := map[string][]models.Deal{
		"open":        {},
		"in_progress": {},
		"won":         {},
		"lost":        {},
	}
	for _, deal := range deals {
		stage := deal.Stage
		if stage == "" {
			stage = "open"
		}
		if _, ok := pipeline[stage]; ok {
			pipeline[stage] = append(pipeline[stage], deal)
		}
	}

	return c.JSON(http.StatusOK, pipeline)
}
