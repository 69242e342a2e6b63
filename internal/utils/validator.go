package utils

import (
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/exam-service/internal/errors"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps the struct validator with all custom validations registered.
type Validator struct {
	structValidator *validator.Validate
}

// NewValidator creates a validator with all custom validations registered
func NewValidator() *Validator {
	structValidator := validator.New()
	RegisterCustomValidators(structValidator)
	return &Validator{structValidator: structValidator}
}

// Validate validates struct tags and converts failures into field-level
// validation errors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// Struct exposes the underlying validator for callers that want raw errors.
func (v *Validator) Struct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Custom validation functions

func ValidateQuestionType(fl validator.FieldLevel) bool {
	validTypes := []models.QuestionType{
		models.SingleChoice,
		models.MultiChoice,
		models.FreeText,
		models.FreeTextImage,
		models.ImageOnly,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateDifficultyLevel(fl validator.FieldLevel) bool {
	validLevels := []models.DifficultyLevel{
		models.DifficultyEasy,
		models.DifficultyMedium,
		models.DifficultyHard,
	}

	value := fl.Field().String()
	for _, validLevel := range validLevels {
		if string(validLevel) == value {
			return true
		}
	}
	return false
}

func ValidateUserRole(fl validator.FieldLevel) bool {
	validRoles := []models.UserRole{
		models.RoleStudent,
		models.RoleTeacher,
		models.RoleAdmin,
	}

	value := fl.Field().String()
	for _, validRole := range validRoles {
		if string(validRole) == value {
			return true
		}
	}
	return false
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", ValidateQuestionType)
	validate.RegisterValidation("difficulty_level", ValidateDifficultyLevel)
	validate.RegisterValidation("user_role", ValidateUserRole)

	// Register custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
