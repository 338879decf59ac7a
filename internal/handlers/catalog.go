package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AbdRaqeeb/fastfood-api/internal/models"
	"github.com/AbdRaqeeb/fastfood-api/internal/services"
	"github.com/AbdRaqeeb/fastfood-api/internal/utils"
)

// CatalogHandler manages food categories.
type CatalogHandler struct {
	db       *gorm.DB
	uploader services.ImageUploader
	cache    ResponseCache
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB, uploader services.ImageUploader, rc ResponseCache) *CatalogHandler {
	return &CatalogHandler{db: db, uploader: uploader, cache: rc}
}

type categoryRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=100"`
	Description string `json:"description" form:"description" validate:"max=200"`
}

// ListCategories returns paginated categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	return h.cache.serve(c, cacheCategories, func() (fiber.Map, error) {
		pg := utils.ParsePagination(c)
		var categories []models.Category
		var total int64

		if err := h.db.Model(&models.Category{}).Count(&total).Error; err != nil {
			return nil, err
		}

		if err := h.db.Limit(pg.Limit).Offset(pg.Offset).Order("name asc").
			Find(&categories).Error; err != nil {
			return nil, err
		}

		return fiber.Map{
			"success":    true,
			"data":       categories,
			"pagination": pg.Meta(total),
		}, nil
	})
}

// GetCategory returns a single category by ID.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	category, err := h.findCategory(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": category})
}

// CreateCategory persists a new category; an optional multipart "image" is uploaded.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	category := models.Category{Name: req.Name, Description: req.Description}
	if file, err := c.FormFile("image"); err == nil {
		url, err := uploadFile(c, h.uploader, file, services.FolderCategories)
		if err != nil {
			return err
		}
		category.Image = url
	}

	if err := h.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "category already exists")
		}
		return err
	}

	h.cache.invalidate(c.UserContext(), cacheCategories)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": category})
}

// UpdateCategory updates an existing category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	category, err := h.findCategory(c)
	if err != nil {
		return err
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		req.Name = category.Name
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	updates := map[string]interface{}{"name": req.Name}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if file, err := c.FormFile("image"); err == nil {
		url, err := uploadFile(c, h.uploader, file, services.FolderCategories)
		if err != nil {
			return err
		}
		updates["image"] = url
	}

	if err := h.db.Model(category).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "category already exists")
		}
		return err
	}

	h.cache.invalidate(c.UserContext(), cacheCategories, cacheFoods)
	return c.JSON(fiber.Map{"success": true, "data": category})
}

// DeleteCategory removes a category and its foods.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return err
	}

	res := h.db.Delete(&models.Category{}, id)
	if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
		return fiber.NewError(fiber.StatusConflict, "category has foods referenced by orders")
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "category not found")
	}

	h.cache.invalidate(c.UserContext(), cacheCategories, cacheFoods)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) findCategory(c *fiber.Ctx) (*models.Category, error) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		return nil, err
	}

	var category models.Category
	if err := h.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return nil, err
	}
	return &category, nil
}
