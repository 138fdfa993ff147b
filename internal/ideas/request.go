package ideas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseRequest decodes an untyped JSON payload into a normalized request.
// Each known field is decoded on its own so that every type mismatch is
// reported together with the validation failures. Unknown fields are ignored.
func ParseRequest(body []byte) (*GenerationRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, &ValidationError{Errors: []FieldError{{
			Field:   "(root)",
			Message: "request body must be a JSON object",
		}}}
	}

	req := GenerationRequest{Count: DefaultCount}
	var errs []FieldError

	if raw, ok := present(fields, "niche"); ok {
		if err := json.Unmarshal(raw, &req.Niche); err != nil {
			errs = append(errs, FieldError{Field: "niche", Message: "must be a string"})
		}
	}

	if raw, ok := present(fields, "branding"); ok {
		if fe := decodeBranding(raw, &req.Branding); fe != nil {
			errs = append(errs, *fe)
		}
	}

	if raw, ok := present(fields, "platforms"); ok {
		var names []string
		if err := json.Unmarshal(raw, &names); err != nil {
			errs = append(errs, FieldError{Field: "platforms", Message: "must be an array of strings"})
		}
		for _, name := range names {
			req.Platforms = append(req.Platforms, Platform(name))
		}
	}

	if raw, ok := present(fields, "count"); ok {
		count, fe := decodeCount(raw)
		if fe != nil {
			errs = append(errs, *fe)
		} else {
			req.Count = count
		}
	}

	applyDefaults(&req)
	errs = append(errs, validateRequest(req, errs)...)
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return &req, nil
}

// NormalizeRequest applies defaults and validation to a typed request.
// A zero Count means "use the default".
func NormalizeRequest(req GenerationRequest) (*GenerationRequest, error) {
	if req.Count == 0 {
		req.Count = DefaultCount
	}

	applyDefaults(&req)
	if errs := validateRequest(req, nil); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return &req, nil
}

// present returns a field's raw value, treating JSON null as absent.
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func decodeBranding(raw json.RawMessage, out *Branding) *FieldError {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return &FieldError{Field: "branding", Message: "must be an object"}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &FieldError{
				Field:   "branding." + typeErr.Field,
				Message: fmt.Sprintf("must be %s", describeType(typeErr.Type)),
			}
		}
		return &FieldError{Field: "branding", Message: "must be an object"}
	}
	return nil
}

func decodeCount(raw json.RawMessage) (int, *FieldError) {
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, &FieldError{Field: "count", Message: "must be a number"}
	}
	if value != math.Trunc(value) {
		return 0, &FieldError{Field: "count", Message: "must be an integer"}
	}
	if value < MinCount || value > MaxCount {
		return 0, &FieldError{Field: "count", Message: fmt.Sprintf("must be between %d and %d", MinCount, MaxCount)}
	}
	return int(value), nil
}

func describeType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Slice:
		return "an array"
	case reflect.String:
		return "a string"
	default:
		return "a " + t.Kind().String()
	}
}

func applyDefaults(req *GenerationRequest) {
	req.Niche = strings.TrimSpace(req.Niche)
	req.Branding.Voice = strings.TrimSpace(req.Branding.Voice)
	req.Branding.Values = compact(req.Branding.Values)
	req.Branding.Colors = compact(req.Branding.Colors)
	req.Platforms = dedupePlatforms(req.Platforms)
	if len(req.Platforms) == 0 {
		req.Platforms = DefaultPlatforms()
	}
}

// compact trims entries and drops blanks.
func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// dedupePlatforms lowercases names and keeps the first occurrence of each.
func dedupePlatforms(platforms []Platform) []Platform {
	seen := make(map[Platform]bool, len(platforms))
	var out []Platform
	for _, p := range platforms {
		p = Platform(strings.ToLower(strings.TrimSpace(string(p))))
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// validateRequest runs struct validation, skipping fields that already
// failed to decode.
func validateRequest(req GenerationRequest, decodeErrs []FieldError) []FieldError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "(root)", Message: err.Error()}}
	}

	failed := make(map[string]bool, len(decodeErrs))
	for _, fe := range decodeErrs {
		failed[strings.SplitN(fe.Field, ".", 2)[0]] = true
	}

	var out []FieldError
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		if failed[rootField(field)] {
			continue
		}
		out = append(out, FieldError{Field: field, Message: fieldMessage(fe)})
	}
	return out
}

// fieldPath drops the struct name from "GenerationRequest.platforms[1]".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func rootField(path string) string {
	if i := strings.IndexAny(path, ".["); i >= 0 {
		return path[:i]
	}
	return path
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be between %d and %d", MinCount, MaxCount)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be between %d and %d", MinCount, MaxCount)
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
