package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/pancakepress/posts-api/internal/api/dto"
	"github.com/pancakepress/posts-api/internal/domain"
	"github.com/pancakepress/posts-api/internal/repository"
	"github.com/pancakepress/posts-api/internal/service"
	"github.com/pancakepress/posts-api/internal/validation"
	apperrors "github.com/pancakepress/posts-api/pkg/util"
)

// UsersHandler exposes signup and login.
type UsersHandler struct {
	auth      *service.AuthService
	validator *validation.Validator
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, validator *validation.Validator) *UsersHandler {
	return &UsersHandler{auth: authService, validator: validator}
}

// Signup handles POST /user/signup.
func (h *UsersHandler) Signup(c *fiber.Ctx) error {
	var req dto.UserSignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if errs := h.validator.Struct(req); errs != nil {
		return apperrors.NewValidationError("invalid payload", toDetails(errs))
	}

	token, err := h.auth.Signup(c.UserContext(), req.Fullname, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return apperrors.NewConflict("email already registered", nil)
		}
		return apperrors.NewInternalError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": authResponse(token)})
}

// Login handles POST /user/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if errs := h.validator.Struct(req); errs != nil {
		return apperrors.NewValidationError("invalid payload", toDetails(errs))
	}

	token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return apperrors.NewUnauthorized("Wrong login details!")
		}
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": authResponse(token)})
}

func authResponse(t *domain.AccessToken) dto.AuthResponse {
	return dto.AuthResponse{AccessToken: t.Token, ExpiresAt: t.ExpiresAt}
}
