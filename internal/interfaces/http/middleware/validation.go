package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/cotiza/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator makes field errors use the json tag name, falling back to
// the form tag for query bindings.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			switch name {
			case "-":
				return ""
			case "":
				continue
			}
			return name
		}
		return ""
	})
}

// HandleValidationError answers 400 for a failed ShouldBind call
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

// FormatValidationErrors reports each field error under its path below the
// request struct, e.g. items[0].quantity. Errors that are not field errors
// mean the body could not be decoded.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Invalid request body", requestID)
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fieldPath(fe)] = validationMessage(fe)
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

// tagMessages renders a rule failure; param is the rule argument
var tagMessages = map[string]func(param, unit string) string{
	"required": func(string, string) string { return "This field is required" },
	"email":    func(string, string) string { return "Invalid email format" },
	"uuid":     func(string, string) string { return "Invalid UUID format" },
	"min":      func(p, u string) string { return "Must be at least " + p + u },
	"max":      func(p, u string) string { return "Must be at most " + p + u },
	"len":      func(p, _ string) string { return "Must be exactly " + p + " characters" },
	"oneof":    func(p, _ string) string { return "Must be one of: " + p },
	"datetime": func(p, _ string) string { return "Must be a date in the format " + p },
	"gt":       func(p, _ string) string { return "Must be greater than " + p },
	"gte":      func(p, _ string) string { return "Must be greater than or equal to " + p },
	"lte":      func(p, _ string) string { return "Must be less than or equal to " + p },
}

func validationMessage(fe validator.FieldError) string {
	render, ok := tagMessages[fe.Tag()]
	if !ok {
		return "Invalid value"
	}
	return render(fe.Param(), sizeUnit(fe.Kind()))
}

// sizeUnit names what min and max count for a field of kind k
func sizeUnit(k reflect.Kind) string {
	switch k {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	}
	return ""
}
