package handlers

import (
	"net/http"

	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/policy"
	"github.com/anonto42/inkwell/backend/internal/repositories"
)

// CategoryHandler manages post categories
type CategoryHandler struct {
	categoryRepository repositories.CategoryRepository
	userRepository     repositories.UserRepository
}

func NewCategoryHandler(categoryRepo repositories.CategoryRepository, userRepo repositories.UserRepository) *CategoryHandler {
	return &CategoryHandler{categoryRepository: categoryRepo, userRepository: userRepo}
}

func (h *CategoryHandler) RegisterPublicCategoryRoutes(g *echo.Group) {
	g.GET("/categories", h.ListCategories)
}

// RegisterCategoryRoutes registers the editor/admin routes
func (h *CategoryHandler) RegisterCategoryRoutes(g *echo.Group) {
	g.POST("/categories", h.CreateCategory)
	g.PUT("/categories/:id", h.UpdateCategory)
	g.DELETE("/categories/:id", h.DeleteCategory)
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.categoryRepository.ListCategories(c.Request().Context())
	if err != nil {
		return internalError(c, err)
	}
	return success(c, http.StatusOK, categories)
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	if err := h.authorize(c); err != nil {
		return err
	}
	var req models.CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	category := &models.Category{Name: req.Name, Slug: slug.Make(req.Name)}
	if err := h.categoryRepository.CreateCategory(c.Request().Context(), category); err != nil {
		return h.writeError(c, err)
	}
	return success(c, http.StatusCreated, category)
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	if err := h.authorize(c); err != nil {
		return err
	}
	id, err := parseID(c, "id", "category")
	if err != nil {
		return err
	}
	var req models.CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	category, err := h.categoryRepository.GetCategoryByID(ctx, id)
	if err != nil {
		return notFoundOr(c, err, "Category not found")
	}
	category.Name = req.Name
	category.Slug = slug.Make(req.Name)
	if err := h.categoryRepository.UpdateCategory(ctx, category); err != nil {
		return h.writeError(c, err)
	}
	return success(c, http.StatusOK, category)
}

// DeleteCategory removes the category. Its posts stay, uncategorised.
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	if err := h.authorize(c); err != nil {
		return err
	}
	id, err := parseID(c, "id", "category")
	if err != nil {
		return err
	}
	if err := h.categoryRepository.DeleteCategory(c.Request().Context(), id); err != nil {
		return notFoundOr(c, err, "Category not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CategoryHandler) authorize(c echo.Context) error {
	user, err := currentUser(c, h.userRepository)
	if err != nil {
		return err
	}
	if !policy.Can(subjectOf(user), policy.CategoryManage, policy.Resource{}) {
		return forbidden("Only editors and admins can manage categories")
	}
	return nil
}

func (h *CategoryHandler) writeError(c echo.Context, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return echo.NewHTTPError(http.StatusConflict, "Category already exists")
	}
	return internalError(c, err)
}
