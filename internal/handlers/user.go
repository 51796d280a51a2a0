package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mbelyakov/sales_crm/internal/authz"
	"github.com/mbelyakov/sales_crm/internal/models"
)

type UserHandler struct {
	DB *gorm.DB
}

func (h *UserHandler) List(c echo.Context) error {
	var users []models.User
	if err := h.DB.Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list users")
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// Create adds a user record without credentials. Such a user cannot log in
// until they register; this exists for setting up assignment targets.
func (h *UserHandler) Create(c echo.Context) error {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name and email are required")
	}
	if req.Role == "" {
		req.Role = string(authz.RoleSalesRep)
	}
	if !authz.Known(authz.Role(req.Role)) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}

	user := models.User{Name: req.Name, Email: req.Email, Role: req.Role}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Email already registered")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "User created successfully"})
}

func (h *UserHandler) Get(c echo.Context) error {
	var user models.User
	if err := h.DB.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

func (h *UserHandler) Update(c echo.Context) error {
	var user models.User
	if err := h.DB.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Role != "" && !authz.Known(authz.Role(req.Role)) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}

	updates := map[string]any{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Role != "" {
		updates["role"] = req.Role
	}
	if len(updates) > 0 {
		if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update user")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "User updated successfully"})
}

func (h *UserHandler) Delete(c echo.Context) error {
	result := h.DB.Delete(&models.User{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete user")
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}

// Dashboard aggregates a user's assigned book of business in memory over
// the already fetched rows.
func (h *UserHandler) Dashboard(c echo.Context) error {
	id := c.Param("id")

	var user models.User
	if err := h.DB.Where("id = ?", id).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}

	var customers []models.Customer
	if err := h.DB.Where("assigned_to = ?", id).Find(&customers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load dashboard")
	}
	var deals []models.Deal
	if err := h.DB.Where("assigned_to = ?", id).Find(&deals).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load dashboard")
	}

	var active, won []models.Deal
	var totalRevenue, potentialRevenue float64
	for _, d := range deals {
		switch {
		case dealWon(d):
			won = append(won, d)
			totalRevenue += d.Amount
		case dealActive(d):
			active = append(active, d)
			potentialRevenue += d.Amount
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":               user,
		"assigned_customers": len(customers),
		"assigned_deals":     len(deals),
		"active_deals":       len(active),
		"won_deals":          len(won),
		"total_revenue":      totalRevenue,
		"potential_revenue":  potentialRevenue,
		"customers":          firstN(customers, 5),
		"deals":              firstN(deals, 5),
	})
}

func (h *UserHandler) Customers(c echo.Context) error {
	var customers []models.Customer
	if err := h.DB.Where("assigned_to = ?", c.Param("id")).Find(&customers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list customers")
	}
	return c.JSON(http.StatusOK, echo.Map{"customers": customers})
}

func (h *UserHandler) Deals(c echo.Context) error {
	var deals []models.Deal
	if err := h.DB.Where("assigned_to = ?", c.Param("id")).Find(&deals).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list deals")
	}
	return c.JSON(http.StatusOK, echo.Map{"deals": deals})
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
