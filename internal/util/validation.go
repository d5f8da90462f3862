package util

import (
	"istas_backend/internal/scoring"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("severity", validateSeverity)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateSeverity(fl validator.FieldLevel) bool {
	_, ok := scoring.ParseSeverity(fl.Field().String())
	return ok
}
