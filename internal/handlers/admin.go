package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AbdRaqeeb/fastfood-api/internal/models"
	"github.com/AbdRaqeeb/fastfood-api/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db    *gorm.DB
	cache ResponseCache
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, rc ResponseCache) *AdminHandler {
	return &AdminHandler{db: db, cache: rc}
}

// ListCustomers returns paginated customer accounts.
func (h *AdminHandler) ListCustomers(c *fiber.Ctx) error {
	return h.cache.serve(c, cacheCustomers, func() (fiber.Map, error) {
		return h.listAccounts(c, models.RoleUser)
	})
}

// ListCooks returns paginated cook accounts.
func (h *AdminHandler) ListCooks(c *fiber.Ctx) error {
	return h.cache.serve(c, cacheCooks, func() (fiber.Map, error) {
		return h.listAccounts(c, models.RoleCook)
	})
}

func (h *AdminHandler) listAccounts(c *fiber.Ctx, role models.Role) (fiber.Map, error) {
	pg := utils.ParsePagination(c)
	query := h.db.Table(accountTable(role))

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var accounts []models.Account
	if err := query.Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&accounts).Error; err != nil {
		return nil, err
	}

	return fiber.Map{
		"success":    true,
		"data":       accounts,
		"pagination": pg.Meta(total),
	}, nil
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalCooks int64
	if err := h.db.Model(&models.Cook{}).Count(&totalCooks).Error; err != nil {
		return err
	}

	var totalFoods int64
	if err := h.db.Model(&models.Food{}).Count(&totalFoods).Error; err != nil {
		return err
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		return err
	}

	// Orders by status
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var statusCounts []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	ordersByStatus := make(map[string]int64)
	for _, sc := range statusCounts {
		ordersByStatus[sc.Status] = sc.Count
	}

	var revenue float64
	if err := h.db.Model(&models.Order{}).
		Where("status = ?", models.StatusReady).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&revenue).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":      totalUsers,
			"total_cooks":      totalCooks,
			"total_foods":      totalFoods,
			"total_orders":     totalOrders,
			"orders_by_status": ordersByStatus,
			"revenue":          decimal.NewFromFloat(revenue).StringFixed(2),
		},
	})
}
