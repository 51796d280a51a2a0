package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mbelyakov/sales_crm/internal/audit"
	"github.com/mbelyakov/sales_crm/internal/authz"
	authmw "github.com/mbelyakov/sales_crm/internal/middleware/auth"
	"github.com/mbelyakov/sales_crm/internal/models"
)

type CustomerHandler struct {
	DB    *gorm.DB
	Audit *audit.Recorder
}

// userExists validates assignment targets before writes.
func userExists(db *gorm.DB, id string) (bool, error) {
	var user models.User
	err := db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (h *CustomerHandler) List(c echo.Context) error {
	user := authmw.CurrentUser(c)
	filter := c.QueryParam("assigned_to")

	// An explicit filter is honored verbatim for any role; only its absence
	// scopes a sales_rep to their own records.
	q := h.DB.Model(&models.Customer{})
	if filter != "" {
		q = q.Where("assigned_to = ?", filter)
	} else if !authz.Role(user.Role).Unrestricted() {
		q = q.Where("assigned_to = ?", user.ID)
	}

	var customers []models.Customer
	if err := q.Find(&customers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list customers")
	}

	ip, agent := clientInfo(c)
	h.Audit.Record(c.Request().Context(), audit.Event{
		UserID:  user.ID,
		Action:  "READ",
		Type:    "customer",
		Details: map[string]any{"filter": map[string]any{"assigned_to": filter}, "count": len(customers)},
		IP:      ip,
		Agent:   agent,
	})

	return c.JSON(http.StatusOK, customers)
}

func (h *CustomerHandler) Create(c echo.Context) error {
	var req models.Customer
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	req.ID = ""

	if req.AssignedTo != "" {
		ok, err := userExists(h.DB, req.AssignedTo)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create customer")
		}
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "Assigned user not found")
		}
	}

	if err := h.DB.Create(&req).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create customer")
	}

	user := authmw.CurrentUser(c)
	ip, agent := clientInfo(c)
	h.Audit.Record(c.Request().Context(), audit.Event{
		UserID:     user.ID,
		Action:     "CREATE",
		Type:       "customer",
		ResourceID: req.ID,
		Details:    map[string]any{"created_data": req},
		IP:         ip,
		Agent:      agent,
	})

	return c.JSON(http.StatusOK, req)
}

func (h *CustomerHandler) Get(c echo.Context) error {
	user := authmw.CurrentUser(c)

	var customer models.Customer
	if err := h.DB.Where("id = ?", c.Param("id")).First(&customer).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}

	if !authz.CanAccess(user.ID, authz.Role(user.Role), customer.AssignedTo) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to view this customer")
	}

	return c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) Update(c echo.Context) error {
	user := authmw.CurrentUser(c)
	id := c.Param("id")

	var existing models.Customer
	if err := h.DB.Where("id = ?", id).First(&existing).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}
	if !authz.CanAccess(user.ID, authz.Role(user.Role), existing.AssignedTo) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to update this customer")
	}

	var req models.Customer
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.ID = ""

	if req.AssignedTo != "" {
		ok, err := userExists(h.DB, req.AssignedTo)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update customer")
		}
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "Assigned user not found")
		}
	}

	if err := h.DB.Model(&existing).Updates(req).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update customer")
	}

	ip, agent := clientInfo(c)
	h.Audit.Record(c.Request().Context(), audit.Event{
		UserID:     user.ID,
		Action:     "UPDATE",
		Type:       "customer",
		ResourceID: id,
		Details:    map[string]any{"new_data": req},
		IP:         ip,
		Agent:      agent,
	})

	return c.JSON(http.StatusOK, existing)
}

func (h *CustomerHandler) Delete(c echo.Context) error {
	user := authmw.CurrentUser(c)
	id := c.Param("id")

	var existing models.Customer
	if err := h.DB.Where("id = ?", id).First(&existing).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}
	if !authz.CanAccess(user.ID, authz.Role(user.Role), existing.AssignedTo) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to delete this customer")
	}

	if err := h.DB.Delete(&models.Customer{}, "id = ?", id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete customer")
	}

	ip, agent := clientInfo(c)
	h.Audit.Record(c.Request().Context(), audit.Event{
		UserID:     user.ID,
		Action:     "DELETE",
		Type:       "customer",
		ResourceID: id,
		Details:    map[string]any{"deleted_data": existing},
		IP:         ip,
		Agent:      agent,
	})

	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

func (h *CustomerHandler) Assign(c echo.Context) error {
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
	var customer models.Customer
	if err := h.DB.Where("id = ?", id).First(&customer).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}

	if err := h.DB.Model(&customer).Update("assigned_to", req.AssignedTo).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to assign customer")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"message":     "Customer assigned to " + assignee.Name,
		"customer_id": id,
		"assigned_to": req.AssignedTo,
	})
}

func (h *CustomerHandler) ListDeals(c echo.Context) error {
	id := c.Param("id")

	var customer models.Customer
	if err := h.DB.Where("id = ?", id).First(&customer).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}

	var deals []models.Deal
	if err := h.DB.Where("customer_id = ?", id).Find(&deals).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list deals")
	}

	return c.JSON(http.StatusOK, deals)
}

// CreateDeal creates a deal under a customer. An unassigned deal inherits
// the customer's assignee.
func (h *CustomerHandler) CreateDeal(c echo.Context) error {
	id := c.Param("id")

	var customer models.Customer
	if err := h.DB.Where("id = ?", id).First(&customer).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}

	var req models.Deal
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}
	req.ID = ""
	req.CustomerID = id
	if req.AssignedTo == "" {
		req.AssignedTo = customer.AssignedTo
	}

	if err := h.DB.Create(&req).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create deal")
	}

	return c.JSON(http.StatusOK, req)
}

func (h *CustomerHandler) ListNotes(c echo.Context) error {
	id := c.Param("id")

	var customer models.Customer
	if err := h.DB.Where("id = ?", id).First(&customer).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}

	var notes []models.Note
	if err := h.DB.Where("customer_id = ?", id).Find(&notes).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list notes")
	}

	return c.JSON(http.StatusOK, notes)
}

func (h *CustomerHandler) CreateNote(c echo.Context) error {
	id := c.Param("id")

	var customer models.Customer
	if err := h.DB.Where("id = ?", id).First(&customer).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}

	var req models.Note
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content is required")
	}
	req.ID = ""
	req.CustomerID = id
	req.CreatedAt = time.Now()

	if err := h.DB.Create(&req).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create note")
	}

	return c.JSON(http.StatusOK, req)
}
