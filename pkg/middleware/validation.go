package middleware

import (
	stderrors "errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/decoflow/production-service/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	customMu     sync.Mutex
	customTags   = map[string]string{}
)

var (
	orderNumberRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{1,31}$`)
	machineIDRegex   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,31}$`)
	pinRegex         = regexp.MustCompile(`^[0-9]{4,8}$`)
)

var builtinValidations = map[string]validator.Func{
	"order_number": func(fl validator.FieldLevel) bool { return orderNumberRegex.MatchString(fl.Field().String()) },
	"machine_id":   func(fl validator.FieldLevel) bool { return machineIDRegex.MatchString(fl.Field().String()) },
	"pin":          func(fl validator.FieldLevel) bool { return pinRegex.MatchString(fl.Field().String()) },
	"safe_string":  validateSafeString,
}

var builtinMessages = map[string]string{
	"order_number": "must be a valid order number",
	"machine_id":   "must be a valid machine ID",
	"pin":          "must be a 4 to 8 digit PIN",
	"safe_string":  "contains invalid characters",
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// InitValidator initializes the standalone validator and Gin's binding
// validator with the shared custom validators
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(jsonTagName)
		for tag, fn := range builtinValidations {
			_ = validate.RegisterValidation(tag, fn)
		}

		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(jsonTagName)
			for tag, fn := range builtinValidations {
				_ = v.RegisterValidation(tag, fn)
			}
		}
	})

	return validate
}

// RegisterValidation adds a service specific validator to both engines.
// message is used by ValidationErrorFormatter.
func RegisterValidation(tag string, fn validator.Func, message string) error {
	v := InitValidator()

	customMu.Lock()
	defer customMu.Unlock()

	if err := v.RegisterValidation(tag, fn); err != nil {
		return err
	}
	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := engine.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	customTags[tag] = message
	return nil
}

// GetValidator returns the singleton validator instance
func GetValidator() *validator.Validate {
	return InitValidator()
}

func validateSafeString(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), "\x00<>")
}

// ValidationErrorFormatter formats validation errors into a field map
func ValidationErrorFormatter(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if stderrors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fields[e.Field()] = formatValidationError(e)
		}
	}

	return fields
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "dive":
		return "is invalid"
	}

	if msg, ok := builtinMessages[e.Tag()]; ok {
		return msg
	}

	customMu.Lock()
	msg, ok := customTags[e.Tag()]
	customMu.Unlock()
	if ok && msg != "" {
		return msg
	}
	return "is invalid"
}

// BindAndValidate binds request body and validates it
func BindAndValidate(c *gin.Context, obj any) *errors.AppError {
	if err := c.ShouldBindJSON(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if stderrors.As(err, &validationErrors) {
			return errors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(validationErrors))
		}
		return errors.ErrBadRequest("invalid request body: " + err.Error())
	}
	return nil
}

// BindQuery binds and validates query parameters
func BindQuery(c *gin.Context, obj any) *errors.AppError {
	if err := c.ShouldBindQuery(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if stderrors.As(err, &validationErrors) {
			return errors.ErrValidationWithFields("invalid query parameters", ValidationErrorFormatter(validationErrors))
		}
		return errors.ErrBadRequest("invalid query parameters: " + err.Error())
	}
	return nil
}

// ValidateStruct validates a struct using the validator
func ValidateStruct(obj any) *errors.AppError {
	if err := GetValidator().Struct(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if stderrors.As(err, &validationErrors) {
			return errors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(validationErrors))
		}
		return errors.ErrBadRequest("validation failed: " + err.Error())
	}
	return nil
}

// SanitizeString removes null bytes and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// InputSanitizer middleware sanitizes query parameters
func InputSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Request.URL.Query()
		for key, values := range query {
			for i, v := range values {
				values[i] = SanitizeString(v)
			}
			query[key] = values
		}
		c.Request.URL.RawQuery = query.Encode()

		c.Next()
	}
}

// ContentType middleware ensures JSON bodies on POST/PUT/PATCH
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			contentType := c.GetHeader("Content-Type")
			if c.Request.ContentLength > 0 && !strings.HasPrefix(contentType, "application/json") {
				AbortWithAppError(c, errors.NewAppError("INVALID_CONTENT_TYPE", "Content-Type must be application/json", http.StatusUnsupportedMediaType))
				return
			}
		}
		c.Next()
	}
}
