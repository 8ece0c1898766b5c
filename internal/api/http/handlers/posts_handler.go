package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pancakepress/posts-api/internal/api/dto"
	"github.com/pancakepress/posts-api/internal/auth"
	"github.com/pancakepress/posts-api/internal/domain"
	"github.com/pancakepress/posts-api/internal/repository"
	"github.com/pancakepress/posts-api/internal/service"
	"github.com/pancakepress/posts-api/internal/validation"
	apperrors "github.com/pancakepress/posts-api/pkg/util"
)

const postNotFoundMessage = "No such post with the supplied ID."

// PostsHandler exposes the post CRUD endpoints.
type PostsHandler struct {
	service   *service.PostService
	validator *validation.Validator
	logger    *zap.Logger
}

// NewPostsHandler constructs handler.
func NewPostsHandler(postService *service.PostService, validator *validation.Validator, logger *zap.Logger) *PostsHandler {
	return &PostsHandler{service: postService, validator: validator, logger: logger}
}

// List handles GET /posts.
func (h *PostsHandler) List(c *fiber.Ctx) error {
	posts, err := h.service.List(c.UserContext())
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	data := make([]dto.PostResponse, 0, len(posts))
	for _, p := range posts {
		data = append(data, dto.NewPostResponse(p))
	}
	return c.JSON(fiber.Map{"data": data})
}

// Get handles GET /posts/:id.
func (h *PostsHandler) Get(c *fiber.Ctx) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	post, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return mapPostError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewPostResponse(*post)})
}

// Create handles POST /posts. Requires the guard.
func (h *PostsHandler) Create(c *fiber.Ctx) error {
	req, err := h.parse(c)
	if err != nil {
		return err
	}
	subject, _ := auth.SubjectFromContext(c)

	post, err := h.service.Create(c.UserContext(), subject, req.Title, req.Content)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	h.logger.Debug("post added", zap.Int64("post_id", post.ID), zap.String("subject", subject))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewPostResponse(*post)})
}

// Update handles PUT /posts/:id. Requires the guard.
func (h *PostsHandler) Update(c *fiber.Ctx) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	req, err := h.parse(c)
	if err != nil {
		return err
	}
	subject, _ := auth.SubjectFromContext(c)

	post, err := h.service.Update(c.UserContext(), subject, id, domain.PostUpdate{Title: req.Title, Content: req.Content})
	if err != nil {
		return mapPostError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewPostResponse(*post)})
}

// Delete handles DELETE /posts/:id. Requires the guard.
func (h *PostsHandler) Delete(c *fiber.Ctx) error {
	id, err := postID(c)
	if err != nil {
		return err
	}
	subject, _ := auth.SubjectFromContext(c)

	if err := h.service.Delete(c.UserContext(), subject, id); err != nil {
		return mapPostError(err)
	}
	return c.JSON(fiber.Map{"data": fmt.Sprintf("post with id %d has been removed.", id)})
}

func (h *PostsHandler) parse(c *fiber.Ctx) (*dto.PostRequest, error) {
	var req dto.PostRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, apperrors.NewValidationError("invalid payload", nil)
	}
	if errs := h.validator.Struct(req); errs != nil {
		return nil, apperrors.NewValidationError("invalid payload", toDetails(errs))
	}
	return &req, nil
}

func postID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("id must be a positive integer", nil)
	}
	return int64(id), nil
}

func mapPostError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(postNotFoundMessage)
	}
	return apperrors.NewInternalError(err)
}

func toDetails(errs map[string]string) map[string]any {
	details := make(map[string]any, len(errs))
	for k, v := range errs {
		details[k] = v
	}
	return details
}
