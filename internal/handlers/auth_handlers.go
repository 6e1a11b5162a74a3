package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/VKx64/Farely-Backend/internal/apperr"
	"github.com/VKx64/Farely-Backend/internal/models"
	"github.com/VKx64/Farely-Backend/internal/services"
	"github.com/VKx64/Farely-Backend/internal/utils"
)

type AuthHandler struct {
	svc services.AuthService
	log *zap.Logger
}

func NewAuthHandler(svc services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

type registerReq struct {
	EmailOrPhone    string `json:"emailOrPhone" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	ReferralCode    string `json:"referralCode"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if verr := utils.ValidateStruct(req); verr != nil {
		return verr
	}

	result, err := h.svc.StartRegistration(c.Context(), services.RegisterInput{
		Identifier:      req.EmailOrPhone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		ReferralCode:    req.ReferralCode,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"userId":        result.UserID,
		"otpSent":       true,
		"contactMethod": result.ContactMethod,
	})
}

type verifyOTPReq struct {
	EmailOrPhone string `json:"emailOrPhone" validate:"required"`
	OtpCode      string `json:"otpCode" validate:"required,len=6,numeric"`
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if verr := utils.ValidateStruct(req); verr != nil {
		return verr
	}

	user, err := h.svc.VerifyChallenge(c.Context(), req.EmailOrPhone, req.OtpCode)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"userId":   user.ID.Hex(),
		"verified": true,
	})
}

type resendOTPReq struct {
	EmailOrPhone string `json:"emailOrPhone" validate:"required"`
}

func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req resendOTPReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if verr := utils.ValidateStruct(req); verr != nil {
		return verr
	}

	if err := h.svc.ResendChallenge(c.Context(), req.EmailOrPhone); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"otpSent": true})
}

type addressReq struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country" validate:"required"`
}

type completeProfileReq struct {
	UserID        string     `json:"userId" validate:"required"`
	FirstName     string     `json:"firstName" validate:"required"`
	LastName      string     `json:"lastName" validate:"required"`
	MiddleInitial string     `json:"middleInitial" validate:"omitempty,max=1"`
	Suffix        string     `json:"suffix"`
	Birthday      string     `json:"birthday" validate:"required"`
	Gender        string     `json:"gender" validate:"required,oneof=male female other"`
	Address       addressReq `json:"address"`
	TermsAccepted bool       `json:"termsAccepted"`
}

func (h *AuthHandler) CompleteProfile(c *fiber.Ctx) error {
	var req completeProfileReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if verr := utils.ValidateStruct(req); verr != nil {
		return verr
	}

	birthday, err := time.Parse("2006-01-02", req.Birthday)
	if err != nil {
		return apperr.Validation("birthday must be an ISO date (YYYY-MM-DD)")
	}

	user, token, err := h.svc.CompleteProfile(c.Context(), req.UserID, services.ProfileInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		MiddleInitial: req.MiddleInitial,
		Suffix:        req.Suffix,
		Birthday:      birthday,
		Gender:        models.Gender(req.Gender),
		Address: models.Address{
			Line1:      req.Address.Line1,
			Line2:      req.Address.Line2,
			City:       req.Address.City,
			State:      req.Address.State,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		},
	}, req.TermsAccepted)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

type loginReq struct {
	EmailOrPhone string `json:"emailOrPhone" validate:"required"`
	Password     string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if verr := utils.ValidateStruct(req); verr != nil {
		return verr
	}

	user, token, err := h.svc.Login(c.Context(), req.EmailOrPhone, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}
