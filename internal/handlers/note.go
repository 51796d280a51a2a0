package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mbelyakov/sales_crm/internal/models"
)

type NoteHandler struct {
	DB *gorm.DB
}

func (h *NoteHandler) List(c echo.Context) error {
	var notes []models.Note
	if err := h.DB.Find(&notes).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list notes")
	}
	return c.JSON(http.StatusOK, notes)
}

func (h *NoteHandler) Delete(c echo.Context) error {
	result := h.DB.Delete(&models.Note{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete note")
	}
	if result.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Note not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}
