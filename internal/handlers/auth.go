package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mbelyakov/sales_crm/internal/audit"
	"github.com/mbelyakov/sales_crm/internal/authz"
	"github.com/mbelyakov/sales_crm/internal/hash"
	authmw "github.com/mbelyakov/sales_crm/internal/middleware/auth"
	"github.com/mbelyakov/sales_crm/internal/models"
	"github.com/mbelyakov/sales_crm/internal/token"
)

type AuthHandler struct {
	DB     *gorm.DB
	Tokens *token.Service
	Audit  *audit.Recorder
}

// Unknown email and wrong password answer identically so callers cannot
// enumerate accounts. The audit trail keeps the distinguishing reason.
const badCredentialsMessage = "Incorrect email or password"

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}
	if req.Role == "" {
		req.Role = string(authz.RoleSalesRep)
	}
	if !authz.Known(authz.Role(req.Role)) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}

	ip, agent := clientInfo(c)
	ctx := c.Request().Context()

	var existing models.User
	err := h.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		h.Audit.Record(ctx, audit.Event{
			Action:  "REGISTER_FAILED",
			Type:    "user",
			Details: map[string]any{"reason": "Email already registered", "email": req.Email},
			IP:      ip,
			Agent:   agent,
		})
		return echo.NewHTTPError(http.StatusBadRequest, "Email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
	}

	digest, salt, err := hash.HashPassword(req.Password, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: digest,
		PasswordSalt: salt,
		Role:         req.Role,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create user")
	}

	accessToken, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create token")
	}

	h.Audit.Record(ctx, audit.Event{
		UserID:     user.ID,
		Action:     "REGISTER",
		Type:       "user",
		ResourceID: user.ID,
		Details:    map[string]any{"email": user.Email, "role": user.Role},
		IP:         ip,
		Agent:      agent,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": accessToken,
		"token_type":   "bearer",
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ip, agent := clientInfo(c)
	ctx := c.Request().Context()

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		h.Audit.Record(ctx, audit.Event{
			Action:  "LOGIN_FAILED",
			Type:    "user",
			Details: map[string]any{"reason": "User not found", "email": req.Email},
			IP:      ip,
			Agent:   agent,
		})
		return echo.NewHTTPError(http.StatusUnauthorized, badCredentialsMessage)
	}

	if !hash.CheckPassword(req.Password, user.PasswordHash, user.PasswordSalt) {
		h.Audit.Record(ctx, audit.Event{
			UserID:  user.ID,
			Action:  "LOGIN_FAILED",
			Type:    "user",
			Details: map[string]any{"reason": "Invalid password", "email": req.Email},
			IP:      ip,
			Agent:   agent,
		})
		return echo.NewHTTPError(http.StatusUnauthorized, badCredentialsMessage)
	}

	accessToken, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create token")
	}

	h.Audit.Record(ctx, audit.Event{
		UserID:  user.ID,
		Action:  "LOGIN",
		Type:    "user",
		Details: map[string]any{"email": req.Email},
		IP:      ip,
		Agent:   agent,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": accessToken,
		"token_type":   "bearer",
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	user := authmw.CurrentUser(c)

	accessToken, err := h.Tokens.Issue(user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create token")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": accessToken,
		"token_type":   "bearer",
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	user := authmw.CurrentUser(c)

	return c.JSON(http.StatusOK, echo.Map{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user := authmw.CurrentUser(c)

	if !hash.CheckPassword(req.CurrentPassword, user.PasswordHash, user.PasswordSalt) {
		return echo.NewHTTPError(http.StatusBadRequest, "Current password is incorrect")
	}

	digest, salt, err := hash.HashPassword(req.NewPassword, "")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update password")
	}

	result := h.DB.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"password_hash": digest,
		"password_salt": salt,
	})
	if result.Error != nil || result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update password")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully"})
}
