package handlers

import (
	"math"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mbelyakov/sales_crm/internal/models"
)

type AnalyticsHandler struct {
	DB *gorm.DB
}

// Historical rows carry the outcome in either status or stage, so both are
// consulted.
func dealWon(d models.Deal) bool {
	return d.Status == "won" || d.Stage == "won"
}

func dealLost(d models.Deal) bool {
	return d.Status == "lost" || d.Stage == "lost"
}

func dealActive(d models.Deal) bool {
	switch d.Status {
	case "open", "in_progress":
		return true
	}
	switch d.Stage {
	case "open", "in_progress":
		return true
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (h *AnalyticsHandler) DealsSummary(c echo.Context) error {
	filter := c.QueryParam("assigned_to")

	q := h.DB.Model(&models.Deal{})
	if filter != "" {
		q = q.Where("assigned_to = ?", filter)
	}

	var deals []models.Deal
	if err := q.Find(&deals).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load deals")
	}

	var won, lost, open int
	var totalRevenue, potentialRevenue float64
	for _, d := range deals {
		switch {
		case dealWon(d):
			won++
			totalRevenue += d.Amount
		case dealLost(d):
			lost++
		case dealActive(d):
			open++
			potentialRevenue += d.Amount
		}
	}

	total := len(deals)
	rate := 0.0
	if total > 0 {
		rate = float64(won) / float64(total) * 100
	}
	avg := 0.0
	if won > 0 {
		avg = totalRevenue / float64(won)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_deals":         total,
		"won_deals":           won,
		"lost_deals":          lost,
		"open_deals":          open,
		"win_rate_percentage": round2(rate),
		"total_revenue":       totalRevenue,
		"potential_revenue":   potentialRevenue,
		"average_deal_size":   round2(avg),
		"filtered_by_user":    filter != "",
	})
}

func (h *AnalyticsHandler) CustomerValue(c echo.Context) error {
	id := c.Param("id")

	var customer models.Customer
	if err := h.DB.Where("id = ?", id).First(&customer).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Customer not found")
	}

	var deals []models.Deal
	if err := h.DB.Where("customer_id = ?", id).Find(&deals).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load deals")
	}

	var won int
	var total, potential float64
	for _, d := range deals {
		switch {
		case dealWon(d):
			won++
			total += d.Amount
		case dealActive(d):
			potential += d.Amount
		}
	}

	avg := 0.0
	if won > 0 {
		avg = total / float64(won)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"customer_id":       id,
		"customer_name":     customer.Name,
		"total_value":       total,
		"potential_value":   potential,
		"total_deals":       len(deals),
		"won_deals":         won,
		"average_deal_size": round2(avg),
	})
}

// TopCustomers builds a revenue leaderboard over won deals and returns the
// ten best.
func (h *AnalyticsHandler) TopCustomers(c echo.Context) error {
	filter := c.QueryParam("assigned_to")

	customerQ := h.DB.Model(&models.Customer{})
	dealQ := h.DB.Model(&models.Deal{})
	if filter != "" {
		customerQ = customerQ.Where("assigned_to = ?", filter)
		dealQ = dealQ.Where("assigned_to = ?", filter)
	}

	var customers []models.Customer
	if err := customerQ.Find(&customers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load customers")
	}
	var deals []models.Deal
	if err := dealQ.Find(&deals).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load deals")
	}

	wonByCustomer := map[string][]models.Deal{}
	for _, d := range deals {
		if dealWon(d) {
			wonByCustomer[d.CustomerID] = append(wonByCustomer[d.CustomerID], d)
		}
	}

	leaderboard := []echo.Map{}
	for _, customer := range customers {
		won := wonByCustomer[customer.ID]
		var total float64
		for _, d := range won {
			total += d.Amount
		}
		if total <= 0 {
			continue
		}
		leaderboard = append(leaderboard, echo.Map{
			"customer_id":       customer.ID,
			"customer_name":     customer.Name,
			"company":           customer.Company,
			"email":             customer.Email,
			"total_revenue":     total,
			"deals_count":       len(won),
			"average_deal_size": round2(total / float64(len(won))),
			"assigned_to":       customer.AssignedTo,
		})
	}
	sort.Slice(leaderboard, func(i, j int) bool {
		return leaderboard[i]["total_revenue"].(float64) > leaderboard[j]["total_revenue"].(float64)
	})

	top := leaderboard
	if len(top) > 10 {
		top = top[:10]
	}

	return c.JSON(http.StatusOK, echo.Map{
		"top_customers":                top,
		"total_customers_with_revenue": len(leaderboard),
		"filtered_by_user":             filter != "",
	})
}

// TeamPerformance computes per-rep win rates and revenue, sorted by revenue.
func (h *AnalyticsHandler) TeamPerformance(c echo.Context) error {
	var users []models.User
	if err := h.DB.Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load users")
	}
	var deals []models.Deal
	if err := h.DB.Find(&deals).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load deals")
	}

	dealsByUser := map[string][]models.Deal{}
	for _, d := range deals {
		dealsByUser[d.AssignedTo] = append(dealsByUser[d.AssignedTo], d)
	}

	stats := []echo.Map{}
	var teamRevenue, teamPotential float64
	for _, user := range users {
		userDeals := dealsByUser[user.ID]
		var won, active int
		var revenue, potential float64
		for _, d := range userDeals {
			switch {
			case dealWon(d):
				won++
				revenue += d.Amount
			case dealActive(d):
				active++
				potential += d.Amount
			}
		}
		winRate := 0.0
		if len(userDeals) > 0 {
			winRate = round2(float64(won) / float64(len(userDeals)) * 100)
		}
		teamRevenue += revenue
		teamPotential += potential
		stats = append(stats, echo.Map{
			"user_id":           user.ID,
			"user_name":         user.Name,
			"email":             user.Email,
			"role":              user.Role,
			"total_deals":       len(userDeals),
			"won_deals":         won,
			"active_deals":      active,
			"revenue":           revenue,
			"potential_revenue": potential,
			"win_rate":          winRate,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i]["revenue"].(float64) > stats[j]["revenue"].(float64)
	})

	return c.JSON(http.StatusOK, echo.Map{
		"team_performance":     stats,
		"total_team_revenue":   teamRevenue,
		"total_team_potential": teamPotential,
	})
}
