package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

func clientInfo(c echo.Context) (ip, agent string) {
	return c.RealIP(), c.Request().UserAgent()
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
