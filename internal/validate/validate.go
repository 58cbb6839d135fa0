// Package validate provides schema-driven request validation middleware.
// Each middleware parses one input channel (body, query or params) into a
// typed schema struct, applies declared defaults, runs the validator rules
// and replaces the channel's raw value with the normalized result.
package validate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/auth-gateway/pkg/util"
)

const (
	bodyKey   = "validated_body"
	queryKey  = "validated_query"
	paramsKey = "validated_params"
)

var check = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report field paths by their wire name, not the Go field name.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "query", "params"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return v
}

// Body returns a middleware that validates the request body against the
// schema struct T and stores the normalized value for the handler.
func Body[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := new(T)
		if err := c.BodyParser(payload); err != nil {
			return util.NewValidationError("Invalid request payload", map[string]any{
				"body": []string{"must be a well-formed request body"},
			})
		}
		if err := normalize(payload); err != nil {
			return err
		}
		c.Locals(bodyKey, payload)
		return c.Next()
	}
}

// Query returns a middleware validating the query string, with string-to-type
// coercion handled by the parser.
func Query[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := new(T)
		if err := c.QueryParser(payload); err != nil {
			return util.NewValidationError("Invalid query parameters", map[string]any{
				"query": []string{"must contain well-formed parameters"},
			})
		}
		if err := normalize(payload); err != nil {
			return err
		}
		c.Locals(queryKey, payload)
		return c.Next()
	}
}

// Params returns a middleware validating route parameters.
func Params[T any]() fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := new(T)
		if err := c.ParamsParser(payload); err != nil {
			return util.NewValidationError("Invalid path parameters", map[string]any{
				"params": []string{"must contain well-formed parameters"},
			})
		}
		if err := normalize(payload); err != nil {
			return err
		}
		c.Locals(paramsKey, payload)
		return c.Next()
	}
}

// BodyOf retrieves the normalized body produced by Body[T].
func BodyOf[T any](c *fiber.Ctx) *T {
	if payload, ok := c.Locals(bodyKey).(*T); ok {
		return payload
	}
	return new(T)
}

// QueryOf retrieves the normalized query produced by Query[T].
func QueryOf[T any](c *fiber.Ctx) *T {
	if payload, ok := c.Locals(queryKey).(*T); ok {
		return payload
	}
	return new(T)
}

// ParamsOf retrieves the normalized params produced by Params[T].
func ParamsOf[T any](c *fiber.Ctx) *T {
	if payload, ok := c.Locals(paramsKey).(*T); ok {
		return payload
	}
	return new(T)
}

func normalize(payload any) error {
	if err := applyDefaults(payload); err != nil {
		return util.NewInternalError(err)
	}
	if err := check.Struct(payload); err != nil {
		violations, ok := err.(validator.ValidationErrors)
		if !ok {
			return util.NewInternalError(err)
		}
		return util.NewValidationError("Request validation failed", detailsFor(violations))
	}
	return nil
}

// detailsFor collects every violated field path with human-readable reasons.
func detailsFor(violations validator.ValidationErrors) map[string]any {
	details := make(map[string]any, len(violations))
	for _, violation := range violations {
		path := fieldPath(violation)
		reasons, _ := details[path].([]string)
		details[path] = append(reasons, reasonFor(violation))
	}
	return details
}

func fieldPath(violation validator.FieldError) string {
	// Namespace starts with the schema struct's type name; drop it.
	namespace := violation.Namespace()
	if idx := strings.Index(namespace, "."); idx >= 0 {
		return namespace[idx+1:]
	}
	return violation.Field()
}

func reasonFor(violation validator.FieldError) string {
	switch violation.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if violation.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", violation.Param())
		}
		return fmt.Sprintf("must be at least %s", violation.Param())
	case "max":
		if violation.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", violation.Param())
		}
		return fmt.Sprintf("must be at most %s", violation.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", violation.Param())
	default:
		return fmt.Sprintf("failed the %q rule", violation.Tag())
	}
}

// applyDefaults fills zero-valued fields from `default` struct tags.
func applyDefaults(payload any) error {
	value := reflect.ValueOf(payload)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("schema must be a pointer to struct, got %T", payload)
	}
	elem := value.Elem()
	structType := elem.Type()

	for i := 0; i < elem.NumField(); i++ {
		field := elem.Field(i)
		tag := structType.Field(i).Tag.Get("default")
		if tag == "" || !field.CanSet() || !field.IsZero() {
			continue
		}
		if err := setFromString(field, tag); err != nil {
			return fmt.Errorf("default for %s: %w", structType.Field(i).Name, err)
		}
	}
	return nil
}

func setFromString(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(parsed)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(parsed)
	case reflect.Float32, reflect.Float64:
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		field.SetFloat(parsed)
	case reflect.Bool:
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(parsed)
	default:
		return fmt.Errorf("unsupported default kind %s", field.Kind())
	}
	return nil
}
