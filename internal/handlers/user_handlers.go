package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/VKx64/Farely-Backend/internal/apperr"
	"github.com/VKx64/Farely-Backend/internal/middleware"
	"github.com/VKx64/Farely-Backend/internal/models"
	"github.com/VKx64/Farely-Backend/internal/services"
	"github.com/VKx64/Farely-Backend/internal/utils"
)

type UserHandler struct {
	svc services.UserService
	log *zap.Logger
}

func NewUserHandler(svc services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return apperr.Auth("no token")
	}
	return c.JSON(fiber.Map{"user": user.Sanitized()})
}

// updateProfileReq binds only mutable profile fields; attempts to set
// password, id, role or verification flags are dropped at the boundary.
type updateProfileReq struct {
	FirstName     string      `json:"firstName"`
	LastName      string      `json:"lastName"`
	MiddleInitial string      `json:"middleInitial" validate:"omitempty,max=1"`
	Suffix        string      `json:"suffix"`
	Birthday      string      `json:"birthday"`
	Gender        string      `json:"gender" validate:"omitempty,oneof=male female other"`
	Address       *addressReq `json:"address"`
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	user := middleware.UserFromCtx(c)
	if user == nil {
		return apperr.Auth("no token")
	}

	var req updateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if verr := utils.ValidateStruct(req); verr != nil {
		return verr
	}

	update := services.ProfileUpdate{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		MiddleInitial: req.MiddleInitial,
		Suffix:        req.Suffix,
		Gender:        models.Gender(req.Gender),
	}
	if req.Birthday != "" {
		birthday, err := time.Parse("2006-01-02", req.Birthday)
		if err != nil {
			return apperr.Validation("birthday must be an ISO date (YYYY-MM-DD)")
		}
		update.Birthday = &birthday
	}
	if req.Address != nil {
		update.Address = &models.Address{
			Line1:      req.Address.Line1,
			Line2:      req.Address.Line2,
			City:       req.Address.City,
			State:      req.Address.State,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		}
	}

	updated, err := h.svc.UpdateProfile(c.Context(), user.ID.Hex(), update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": updated})
}

// ListUsers is the admin-only paginated listing.
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	page := int64(c.QueryInt("page", 1))
	limit := int64(c.QueryInt("limit", 10))

	users, pagination, err := h.svc.ListUsers(c.Context(), page, limit)
	if err != nil {
		return err
	}
	if users == nil {
		users = []*models.User{}
	}

	return c.JSON(fiber.Map{
		"users":      users,
		"pagination": pagination,
	})
}

// DeleteUser is the admin-only hard delete.
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	if err := h.svc.DeleteUser(c.Context(), c.Params("userId")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "user deleted"})
}
