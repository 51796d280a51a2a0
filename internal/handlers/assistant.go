package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mbelyakov/sales_crm/internal/assistant"
	"github.com/mbelyakov/sales_crm/internal/models"
)

type AssistantHandler struct {
	DB        *gorm.DB
	Assistant *assistant.Client
}

const assistantFailedMessage = "Assistant request failed"

func (h *AssistantHandler) Motivation(c echo.Context) error {
	quote, err := h.Assistant.Complete(c.Request().Context(),
		"generate a motivational sales quote or advice in one sentence. keep it short, inspiring, and sales-focused.")
	if err != nil {
		c.Logger().Errorf("assistant error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, assistantFailedMessage)
	}
	return c.JSON(http.StatusOK, echo.Map{"quote": quote})
}

func (h *AssistantHandler) FunFact(c echo.Context) error {
	fact, err := h.Assistant.Complete(c.Request().Context(), "generate a fun fact about sales.")
	if err != nil {
		c.Logger().Errorf("assistant error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, assistantFailedMessage)
	}
	return c.JSON(http.StatusOK, echo.Map{"fun_fact": fact})
}

// customerContext loads the customer and its deals for prompt building.
func (h *AssistantHandler) customerContext(customerID string) (*models.Customer, []models.Deal, error) {
	var customer models.Customer
	if err := h.DB.Where("id = ?", customerID).First(&customer).Error; err != nil {
		return nil, nil, err
	}
	var deals []models.Deal
	if err := h.DB.Where("customer_id = ?", customerID).Find(&deals).Error; err != nil {
		return nil, nil, err
	}
	return &customer, deals, nil
}

func dealsTotal(deals []models.Deal) float64 {
	var total float64
	for _, d := range deals {
		total += d.Amount
	}
	return total
}

func (h *AssistantHandler) GenerateEmail(c echo.Context) error {
	var req struct {
		CustomerID string `json:"customer_id"`
		Type       string `json:"type"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	customer, deals, err := h.customerContext(req.CustomerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}

	prompt := fmt.Sprintf(`Write a professional %s email for:
Customer: %s at %s
Email: %s
Active Deals: %d worth $%.2f

Make it:
- Professional but friendly
- Personalized
- Under 150 words

Include subject line.`,
		req.Type, customer.Name, customer.Company, customer.Email, len(deals), dealsTotal(deals))

	email, err := h.Assistant.Complete(c.Request().Context(), prompt)
	if err != nil {
		c.Logger().Errorf("assistant error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, assistantFailedMessage)
	}
	return c.JSON(http.StatusOK, echo.Map{"email": email})
}

func (h *AssistantHandler) HandleObjection(c echo.Context) error {
	var req struct {
		Objection string `json:"objection"`
		Context   string `json:"context"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Objection == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "objection is required")
	}

	prompt := fmt.Sprintf(`help handle this sales objection:
objection: %q
context: %s

provide:
1. 3 different response approaches
2. questions to ask back
3. evidence/proof points to use
4. how to redirect conversation
5. when to concede vs push back
be practical and conversational.`,
		req.Objection, req.Context)

	response, err := h.Assistant.Complete(c.Request().Context(), prompt)
	if err != nil {
		c.Logger().Errorf("assistant error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, assistantFailedMessage)
	}
	return c.JSON(http.StatusOK, echo.Map{"response": response})
}

func (h *AssistantHandler) MeetingPrep(c echo.Context) error {
	var req struct {
		CustomerID string `json:"customer_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	customer, deals, err := h.customerContext(req.CustomerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}

	var notes []models.Note
	if err := h.DB.Where("customer_id = ?", req.CustomerID).Order("created_at DESC").Limit(5).Find(&notes).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load notes")
	}

	prompt := fmt.Sprintf(`Create a meeting prep brief for:
Customer: %s (%s)
Active Deals: %d worth $%.2f
Recent History: %d recent interactions

Provide:
1. Key talking points
2. Questions to ask
3. Potential objections & responses
4. Goals for this meeting
5. Follow-up actions

Keep it concise and actionable.`,
		customer.Name, customer.Company, len(deals), dealsTotal(deals), len(notes))

	prep, err := h.Assistant.Complete(c.Request().Context(), prompt)
	if err != nil {
		c.Logger().Errorf("assistant error: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, assistantFailedMessage)
	}
	return c.JSON(http.StatusOK, echo.Map{"prep": prep})
}
