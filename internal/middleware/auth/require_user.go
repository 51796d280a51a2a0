package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mbelyakov/sales_crm/internal/models"
	"github.com/mbelyakov/sales_crm/internal/token"
)

// ContextKey is where RequireUser stores the resolved *models.User.
const ContextKey = "user"

// invalid-token and unknown-user cases both answer with the same message so
// nothing about the failure leaks to the caller.
const unauthorizedMessage = "Could not validate credentials"

type Middleware struct {
	DB     *gorm.DB
	Tokens *token.Service
}

// RequireUser verifies the bearer token and resolves its subject against the
// users table. A valid signature is not proof of current existence, so a
// missing user row is still a 401.
func (m *Middleware) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			return echo.NewHTTPError(http.StatusUnauthorized, unauthorizedMessage)
		}

		userID, err := m.Tokens.Verify(strings.TrimSpace(header[len(prefix):]))
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, unauthorizedMessage)
		}

		var user models.User
		if err := m.DB.Where("id = ?", userID).First(&user).Error; err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, unauthorizedMessage)
		}

		c.Set(ContextKey, &user)
		return next(c)
	}
}

// CurrentUser returns the user stored by RequireUser, or nil outside of an
// authenticated route.
func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(ContextKey).(*models.User)
	return u
}
