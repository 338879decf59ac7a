package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/AbdRaqeeb/fastfood-api/internal/config"
	"github.com/AbdRaqeeb/fastfood-api/internal/middleware"
	"github.com/AbdRaqeeb/fastfood-api/internal/models"
	"github.com/AbdRaqeeb/fastfood-api/internal/utils"
)

// AuthHandler bundles dependencies for registration and login of every role.
type AuthHandler struct {
	db    *gorm.DB
	cfg   *config.Config
	cache ResponseCache
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, rc ResponseCache) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, cache: rc}
}

// accountTable maps a role to the table holding its accounts.
func accountTable(role models.Role) string {
	switch role {
	case models.RoleCook:
		return "cooks"
	case models.RoleAdmin:
		return "admins"
	default:
		return "users"
	}
}

func accountCachePrefix(role models.Role) string {
	switch role {
	case models.RoleCook:
		return cacheCooks
	case models.RoleUser:
		return cacheCustomers
	default:
		return ""
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=200"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

type accountResponse struct {
	models.Account
	Role models.Role `json:"role"`
}

// Register returns a handler creating an account for the given role.
func (h *AuthHandler) Register(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if err := utils.ValidateStruct(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var existing int64
		if err := h.db.Table(accountTable(role)).Where("email = ?", req.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fiber.NewError(fiber.StatusConflict, "account already exists")
		}

		passwordHash, err := utils.HashPassword(req.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		account := models.Account{
			Name:         req.Name,
			Email:        req.Email,
			Phone:        req.Phone,
			PasswordHash: passwordHash,
			IsActive:     true,
		}
		if err := h.db.Table(accountTable(role)).Create(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fiber.NewError(fiber.StatusConflict, "account already exists")
			}
			return err
		}

		if prefix := accountCachePrefix(role); prefix != "" {
			h.cache.invalidate(c.UserContext(), prefix)
		}

		token, err := h.issueToken(account, role)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"data":    accountResponse{Account: account, Role: role},
			"token":   token,
		})
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login returns a handler authenticating an account of the given role.
func (h *AuthHandler) Login(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if err := utils.ValidateStruct(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var account models.Account
		if err := h.db.Table(accountTable(role)).Where("email = ?", req.Email).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
			}
			return err
		}

		if !utils.CheckPassword(account.PasswordHash, req.Password) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		if !account.IsActive {
			return fiber.NewError(fiber.StatusForbidden, "account is disabled")
		}

		token, err := h.issueToken(account, role)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data":    accountResponse{Account: account, Role: role},
			"token":   token,
		})
	}
}

// LoggedAccount returns the account behind the current token.
func (h *AuthHandler) LoggedAccount(c *fiber.Ctx) error {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	account, err := loadAccount(h.db, principal)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": accountResponse{Account: *account, Role: principal.Role}})
}

func (h *AuthHandler) issueToken(account models.Account, role models.Role) (string, error) {
	return utils.GenerateToken(h.cfg.JWTSecret, utils.Principal{
		ID:    account.ID,
		Name:  account.Name,
		Email: account.Email,
		Role:  role,
	}, h.cfg.TokenExpires)
}

func loadAccount(db *gorm.DB, principal utils.Principal) (*models.Account, error) {
	var account models.Account
	if err := db.Table(accountTable(principal.Role)).Where("id = ?", principal.ID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "account not found")
		}
		return nil, err
	}
	return &account, nil
}
