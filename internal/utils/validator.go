package utils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/VKx64/Farely-Backend/internal/apperr"
)

var validate = validator.New()

// ValidateStruct runs validator tags over a request struct and converts
// failures into the uniform validation error shape.
func ValidateStruct(s interface{}) *apperr.Error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return apperr.Validation("invalid request body")
	}

	fields := make([]apperr.FieldError, len(ve))
	for i, fe := range ve {
		fields[i] = apperr.FieldError{Field: fe.Field()}
		switch fe.Tag() {
		case "required":
			fields[i].Message = fmt.Sprintf("%s is required", fe.Field())
		case "email":
			fields[i].Message = fmt.Sprintf("%s must be a valid email address", fe.Field())
		case "min":
			fields[i].Message = fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
		case "max":
			fields[i].Message = fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
		case "len":
			fields[i].Message = fmt.Sprintf("%s must be exactly %s characters long", fe.Field(), fe.Param())
		case "oneof":
			fields[i].Message = fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
		default:
			fields[i].Message = fmt.Sprintf("validation failed on field '%s' for tag '%s'", fe.Field(), fe.Tag())
		}
	}
	return apperr.Validation("validation failed", fields...)
}
