package api

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds validated skip/limit query parameters.
type Pagination struct {
	Skip  int
	Limit int
}

// ParsePagination validates skip (>= 0, default 0) and limit (1..1000,
// default 100) query parameters.
func ParsePagination(c *fiber.Ctx) (Pagination, []ErrorDetail) {
	p := Pagination{Skip: 0, Limit: 100}
	var details []ErrorDetail

	if raw := c.Query("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			details = append(details, ErrorDetail{Field: "skip", Rule: "min", Message: "skip must be a non-negative integer"})
		} else {
			p.Skip = n
		}
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			details = append(details, ErrorDetail{Field: "limit", Rule: "range", Message: "limit must be between 1 and 1000"})
		} else {
			p.Limit = n
		}
	}
	return p, details
}

// ParseID parses an integer path parameter.
func ParseID(c *fiber.Ctx, name string) (int64, *AppError) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil {
		return 0, ValidationError([]ErrorDetail{{
			Field:   name,
			Rule:    "type",
			Message: fmt.Sprintf("%s must be an integer", name),
		}})
	}
	return id, nil
}

// DecodeBody parses a JSON request body into a map. Malformed bodies
// fail validation (422) like any other bad input.
func DecodeBody(c *fiber.Ctx) (map[string]any, *AppError) {
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return nil, ValidationError([]ErrorDetail{{
			Field:   "body",
			Rule:    "json",
			Message: "Request body must be a JSON object",
		}})
	}
	return body, nil
}

// --- body field helpers ---
//
// These operate on a JSON body decoded into map[string]any so handlers can
// distinguish an absent key from an explicit null (partial updates).

// StringField extracts a string field. A present null yields (nil, true, nil).
func StringField(body map[string]any, key string, maxLen int) (*string, bool, *ErrorDetail) {
	raw, present := body[key]
	if !present {
		return nil, false, nil
	}
	if raw == nil {
		return nil, true, nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil, true, &ErrorDetail{Field: key, Rule: "type", Message: key + " must be a string"}
	}
	if maxLen > 0 && len(s) > maxLen {
		return nil, true, &ErrorDetail{Field: key, Rule: "max_length", Message: fmt.Sprintf("%s must be at most %d characters", key, maxLen)}
	}
	return &s, true, nil
}

// RequiredString extracts a mandatory non-empty string field.
func RequiredString(body map[string]any, key string, maxLen int) (string, *ErrorDetail) {
	val, present, detail := StringField(body, key, maxLen)
	if detail != nil {
		return "", detail
	}
	if !present || val == nil || *val == "" {
		return "", &ErrorDetail{Field: key, Rule: "required", Message: key + " is required"}
	}
	return *val, nil
}

// IntField extracts an integer field (JSON numbers decode as float64).
func IntField(body map[string]any, key string) (*int64, bool, *ErrorDetail) {
	raw, present := body[key]
	if !present {
		return nil, false, nil
	}
	if raw == nil {
		return nil, true, nil
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) {
		return nil, true, &ErrorDetail{Field: key, Rule: "type", Message: key + " must be an integer"}
	}
	n := int64(f)
	return &n, true, nil
}

// StringSliceField extracts a []string field.
func StringSliceField(body map[string]any, key string) ([]string, bool, *ErrorDetail) {
	raw, present := body[key]
	if !present {
		return nil, false, nil
	}
	if raw == nil {
		return []string{}, true, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, true, &ErrorDetail{Field: key, Rule: "type", Message: key + " must be an array of strings"}
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, true, &ErrorDetail{Field: key, Rule: "type", Message: key + " must be an array of strings"}
		}
		result = append(result, s)
	}
	return result, true, nil
}

// DocField extracts a JSON object field.
func DocField(body map[string]any, key string) (map[string]any, bool, *ErrorDetail) {
	raw, present := body[key]
	if !present {
		return nil, false, nil
	}
	if raw == nil {
		return map[string]any{}, true, nil
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, true, &ErrorDetail{Field: key, Rule: "type", Message: key + " must be an object"}
	}
	return doc, true, nil
}
