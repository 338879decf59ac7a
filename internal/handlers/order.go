package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/AbdRaqeeb/fastfood-api/internal/middleware"
	"github.com/AbdRaqeeb/fastfood-api/internal/models"
	"github.com/AbdRaqeeb/fastfood-api/internal/services"
	"github.com/AbdRaqeeb/fastfood-api/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder places an order for the authenticated principal.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req services.CreateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.Create(c.UserContext(), principal, req)
	if err != nil {
		return orderError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

// ListMyOrders returns orders placed by the authenticated principal.
func (h *OrderHandler) ListMyOrders(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return h.list(c, services.OrderFilter{UserID: &principal.ID})
}

// ListOrders returns all orders for staff, optionally filtered by status.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	return h.list(c, services.OrderFilter{})
}

func (h *OrderHandler) list(c *fiber.Ctx, filter services.OrderFilter) error {
	if status := models.OrderStatus(c.Query("status")); status != "" {
		if !status.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "status must be one of [pending processing ready]")
		}
		filter.Status = status
	}

	pg := utils.ParsePagination(c)
	orders, total, err := h.orders.List(c.UserContext(), filter, pg)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       orders,
		"pagination": pg.Meta(total),
	})
}

// GetOrder returns an order with its lines. Customers only see their own orders.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orders.Get(c.UserContext(), id)
	if err != nil {
		return orderError(err)
	}
	if principal.Role == models.RoleUser && order.UserID != principal.ID {
		return orderError(services.ErrNotOrderOwner)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// UpdateOrder lets staff advance the status or assign a cook.
func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	var req services.UpdateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Status == nil && req.CookID == nil {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	order, err := h.orders.Update(c.UserContext(), id, req)
	if err != nil {
		return orderError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type rateOrderRequest struct {
	Rating models.Rating `json:"rating"`
}

// RateOrder records the owner's rating.
func (h *OrderHandler) RateOrder(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	var req rateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.Rate(c.UserContext(), principal, id, req.Rating)
	if err != nil {
		return orderError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// DeleteOrder removes an order and its lines.
func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.orders.Delete(c.UserContext(), id); err != nil {
		return orderError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// orderError maps service errors to HTTP errors. Unknown errors pass through
// to ErrorHandler and surface as a generic 500.
func orderError(err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidOrder):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrFoodNotFound):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrOrderNotFound), errors.Is(err, services.ErrCookNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotOrderOwner):
		return fiber.NewError(fiber.StatusForbidden, "access denied")
	case errors.Is(err, services.ErrStatusRegression),
		errors.Is(err, services.ErrOrderNotReady),
		errors.Is(err, services.ErrAlreadyRated):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrReferenceCollision):
		log.Printf("[Order] %v", err)
		return err
	default:
		return err
	}
}
