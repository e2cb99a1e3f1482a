package validators

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/inkwell/backend/internal/models"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// NewValidator returns the validator with the service's custom rules.
func NewValidator() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("reaction_kind", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseReactionKind(fl.Field().String())
		return ok
	})
	return &Validator{validate: v}
}

// Validate returns a 400 describing the first failures.
func (cv *Validator) Validate(i interface{}) error {
	if err := cv.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
