package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AbdRaqeeb/fastfood-api/internal/middleware"
	"github.com/AbdRaqeeb/fastfood-api/internal/models"
	"github.com/AbdRaqeeb/fastfood-api/internal/services"
	"github.com/AbdRaqeeb/fastfood-api/internal/utils"
)

// ProfileHandler manages the authenticated account's own profile.
type ProfileHandler struct {
	db       *gorm.DB
	uploader services.ImageUploader
	cache    ResponseCache
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB, uploader services.ImageUploader, rc ResponseCache) *ProfileHandler {
	return &ProfileHandler{db: db, uploader: uploader, cache: rc}
}

type updateProfileRequest struct {
	Name  string `json:"name" validate:"omitempty,min=2,max=200"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

// UpdateProfile updates name and phone.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}
	updates["updated_at"] = time.Now()

	if err := h.updateAccount(c, principal, updates); err != nil {
		return err
	}

	account, err := loadAccount(h.db, principal)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": accountResponse{Account: *account, Role: principal.Role}})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// ChangePassword replaces the password after checking the current one.
func (h *ProfileHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	account, err := loadAccount(h.db, principal)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(account.PasswordHash, req.OldPassword) {
		return fiber.NewError(fiber.StatusBadRequest, "old password is incorrect")
	}

	passwordHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.updateAccount(c, principal, map[string]interface{}{
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	}); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "password updated"})
}

// UploadPhoto stores the multipart "image" file and saves its URL on the account.
func (h *ProfileHandler) UploadPhoto(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "image file is required")
	}

	url, err := uploadFile(c, h.uploader, file, profileFolder(principal.Role))
	if err != nil {
		return err
	}

	if err := h.updateAccount(c, principal, map[string]interface{}{
		"image":      url,
		"updated_at": time.Now(),
	}); err != nil {
		return err
	}

	log.Printf("[Profile] %s %d uploaded a photo", principal.Role, principal.ID)
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"image": url}})
}

func (h *ProfileHandler) updateAccount(c *fiber.Ctx, principal utils.Principal, updates map[string]interface{}) error {
	res := h.db.Table(accountTable(principal.Role)).Where("id = ?", principal.ID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "account not found")
	}
	if prefix := accountCachePrefix(principal.Role); prefix != "" {
		h.cache.invalidate(c.UserContext(), prefix)
	}
	return nil
}

func profileFolder(role models.Role) string {
	switch role {
	case models.RoleCook:
		return services.FolderCooks
	case models.RoleAdmin:
		return services.FolderAdmins
	default:
		return services.FolderUsers
	}
}
