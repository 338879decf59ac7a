package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AbdRaqeeb/fastfood-api/internal/models"
	"github.com/AbdRaqeeb/fastfood-api/internal/services"
	"github.com/AbdRaqeeb/fastfood-api/internal/utils"
)

// FoodHandler exposes food CRUD endpoints.
type FoodHandler struct {
	db       *gorm.DB
	uploader services.ImageUploader
	cache    ResponseCache
}

// NewFoodHandler constructs FoodHandler.
func NewFoodHandler(db *gorm.DB, uploader services.ImageUploader, rc ResponseCache) *FoodHandler {
	return &FoodHandler{db: db, uploader: uploader, cache: rc}
}

// unit_cost is read separately so multipart forms and JSON bodies both work.
type foodRequest struct {
	Name            *string          `json:"name" form:"name" validate:"omitempty,min=1,max=200"`
	Description     *string          `json:"description" form:"description" validate:"omitempty,max=300"`
	UnitCost        *decimal.Decimal `json:"unit_cost" form:"-"`
	CookingDuration *int             `json:"cooking_duration" form:"cooking_duration" validate:"omitempty,gte=0"`
	Unit            *string          `json:"unit" form:"unit" validate:"omitempty,max=50"`
	CategoryID      *uint            `json:"category_id" form:"category_id" validate:"omitempty,gt=0"`
}

func parseFoodRequest(c *fiber.Ctx) (foodRequest, error) {
	var req foodRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.UnitCost == nil {
		if raw := strings.TrimSpace(c.FormValue("unit_cost")); raw != "" {
			cost, err := decimal.NewFromString(raw)
			if err != nil {
				return req, fiber.NewError(fiber.StatusBadRequest, "unit_cost must be a number")
			}
			req.UnitCost = &cost
		}
	}
	if req.UnitCost != nil && req.UnitCost.IsNegative() {
		return req, fiber.NewError(fiber.StatusBadRequest, "unit_cost must not be negative")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return req, nil
}

// ListFoods returns paginated foods, optionally filtered by category_id.
func (h *FoodHandler) ListFoods(c *fiber.Ctx) error {
	return h.cache.serve(c, cacheFoods, func() (fiber.Map, error) {
		query := h.db.Model(&models.Food{})
		if v := c.Query("category_id"); v != "" {
			if id, err := strconv.ParseUint(v, 10, 64); err == nil {
				query = query.Where("category_id = ?", id)
			}
		}
		return h.page(c, query)
	})
}

// SearchFoods matches foods by name, case-insensitively.
func (h *FoodHandler) SearchFoods(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	query := h.db.Model(&models.Food{}).
		Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")

	payload, err := h.page(c, query)
	if err != nil {
		return err
	}
	return c.JSON(payload)
}

// FoodsByCategory lists the foods of one category.
func (h *FoodHandler) FoodsByCategory(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	var count int64
	if err := h.db.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fiber.NewError(fiber.StatusNotFound, "category not found")
	}

	payload, err := h.page(c, h.db.Model(&models.Food{}).Where("category_id = ?", id))
	if err != nil {
		return err
	}
	return c.JSON(payload)
}

func (h *FoodHandler) page(c *fiber.Ctx, query *gorm.DB) (fiber.Map, error) {
	pg := utils.ParsePagination(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var foods []models.Food
	if err := query.Preload("Category").
		Limit(pg.Limit).Offset(pg.Offset).
		Order("name asc").
		Find(&foods).Error; err != nil {
		return nil, err
	}

	return fiber.Map{
		"success":    true,
		"data":       foods,
		"pagination": pg.Meta(total),
	}, nil
}

// GetFood loads a food with its category.
func (h *FoodHandler) GetFood(c *fiber.Ctx) error {
	food, err := h.findFood(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": food})
}

// CreateFood persists a food; multipart "images" files are uploaded.
func (h *FoodHandler) CreateFood(c *fiber.Ctx) error {
	req, err := parseFoodRequest(c)
	if err != nil {
		return err
	}
	if req.Name == nil || *req.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if req.UnitCost == nil {
		return fiber.NewError(fiber.StatusBadRequest, "unit_cost is required")
	}
	if req.CategoryID == nil {
		return fiber.NewError(fiber.StatusBadRequest, "category_id is required")
	}
	if err := h.ensureCategory(*req.CategoryID); err != nil {
		return err
	}

	food := models.Food{
		Name:       *req.Name,
		UnitCost:   req.UnitCost.Round(2),
		CategoryID: *req.CategoryID,
		Images:     []string{},
	}
	if req.Description != nil {
		food.Description = *req.Description
	}
	if req.CookingDuration != nil {
		food.CookingDuration = *req.CookingDuration
	}
	if req.Unit != nil {
		food.Unit = *req.Unit
	}

	images, err := uploadFiles(c, h.uploader, "images", services.FolderFoods)
	if err != nil {
		return err
	}
	if len(images) > 0 {
		food.Images = images
	}

	if err := h.db.Create(&food).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "food already exists in this category")
		}
		return err
	}

	h.cache.invalidate(c.UserContext(), cacheFoods)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": food})
}

// UpdateFood applies the provided fields; uploaded images replace the current set.
func (h *FoodHandler) UpdateFood(c *fiber.Ctx) error {
	food, err := h.findFood(c)
	if err != nil {
		return err
	}

	req, err := parseFoodRequest(c)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.UnitCost != nil {
		updates["unit_cost"] = req.UnitCost.Round(2)
	}
	if req.CookingDuration != nil {
		updates["cooking_duration"] = *req.CookingDuration
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	if req.CategoryID != nil {
		if err := h.ensureCategory(*req.CategoryID); err != nil {
			return err
		}
		updates["category_id"] = *req.CategoryID
	}

	images, err := uploadFiles(c, h.uploader, "images", services.FolderFoods)
	if err != nil {
		return err
	}
	if len(images) > 0 {
		if err := h.db.Model(food).Omit(clause.Associations).Select("images").
			Updates(&models.Food{Images: images}).Error; err != nil {
			return err
		}
	}

	if len(updates) > 0 {
		if err := h.db.Model(food).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "food already exists in this category")
			}
			return err
		}
	}

	h.cache.invalidate(c.UserContext(), cacheFoods)

	updated, err := h.findFood(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": updated})
}

// DeleteFood removes a food unless past orders reference it.
func (h *FoodHandler) DeleteFood(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	res := h.db.Delete(&models.Food{}, id)
	if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
		return fiber.NewError(fiber.StatusConflict, "food is referenced by orders")
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "food not found")
	}

	h.cache.invalidate(c.UserContext(), cacheFoods)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FoodHandler) findFood(c *fiber.Ctx) (*models.Food, error) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return nil, err
	}

	var food models.Food
	if err := h.db.Preload("Category").First(&food, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "food not found")
		}
		return nil, err
	}
	return &food, nil
}

func (h *FoodHandler) ensureCategory(id uint) error {
	var count int64
	if err := h.db.Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "category not found")
	}
	return nil
}

// RegisterFoodRoutes attaches food routes; guards protect the write endpoints.
func (h *FoodHandler) RegisterFoodRoutes(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/", h.ListFoods)
	router.Get("/search", h.SearchFoods)
	router.Get("/category/:id", h.FoodsByCategory)
	router.Get("/:id", h.GetFood)

	write := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guards...), handler)
	}
	router.Post("/", write(h.CreateFood)...)
	router.Put("/:id", write(h.UpdateFood)...)
	router.Delete("/:id", write(h.DeleteFood)...)
}
