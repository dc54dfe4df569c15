package utils

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields under their JSON names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// ValidateStruct runs the validate tags of out and returns one message per failing field.
func ValidateStruct(out any) map[string]string {
	err := validate.Struct(out)
	if err == nil {
		return nil
	}
	return validationErrorsToMap(err)
}

// BindAndValidate binds the JSON body into out and validates it. On failure it writes a 400
// response and returns an error so the handler can stop.
func BindAndValidate(ctx *gin.Context, out any) error {
	if err := ctx.ShouldBindJSON(out); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"message": err.Error(),
		})
		return err
	}
	if fields := ValidateStruct(out); len(fields) > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": fields,
		})
		return errors.New("validation failed")
	}
	return nil
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		out["error"] = err.Error()
		return out
	}
	for _, fe := range ve {
		out[fe.Field()] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "numeric":
		return "must contain only digits"
	}
	return "failed on " + fe.Tag()
}
