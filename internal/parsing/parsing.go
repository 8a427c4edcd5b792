// Package parsing turns raw model output into a validated review.
package parsing

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"github.com/yaklabco/docqa/pkg/model"
	"github.com/yaklabco/docqa/pkg/plan"
)

const (
	openTag  = "<json>"
	closeTag = "</json>"
)

// reviewValidate checks decoded reviews. Field names in errors use json tags.
//
//nolint:gochecknoglobals // Validator caches struct metadata; share one instance.
var reviewValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ExtractJSON returns the JSON payload of a model response.
// It prefers the text between <json> and the last </json>. When the closing tag
// is missing, as when generation stopped on it, everything after <json> is
// returned. Without an opening tag the whole text is returned. The result is trimmed.
func ExtractJSON(text string) string {
	start := strings.Index(text, openTag)
	if start == -1 {
		return strings.TrimSpace(text)
	}

	body := start + len(openTag)
	end := strings.LastIndex(text, closeTag)
	if end > start {
		return strings.TrimSpace(text[body:end])
	}
	return strings.TrimSpace(text[body:])
}

// ParseReview extracts, decodes and validates a review from model output.
// Every failure is a *plan.MalformedToolCall of kind InvalidOutput whose reason
// includes the extracted text, so it can be fed back to the model.
func ParseReview(text string) (*model.ReviewResponse, error) {
	payload := ExtractJSON(text)

	var review model.ReviewResponse
	if err := json.Unmarshal([]byte(payload), &review); err != nil {
		return nil, invalid(fmt.Sprintf("Model did not return valid JSON: %v. Model response: %s", err, payload))
	}

	if err := checkSchema(payload, &review); err != nil {
		return nil, invalid(fmt.Sprintf("JSON does not match schema: %v. Model response: %s", err, payload))
	}

	return &review, nil
}

// checkSchema validates field constraints and the presence of keys that may
// legitimately hold empty values.
func checkSchema(payload string, review *model.ReviewResponse) error {
	if !gjson.Get(payload, "issues").IsArray() {
		return errors.New("issues: field required")
	}

	var problems []string
	for i, issue := range gjson.Get(payload, "issues").Array() {
		if !issue.Get("replace_with").Exists() {
			problems = append(problems, fmt.Sprintf("issues[%d].replace_with: field required", i))
		}
	}

	if err := reviewValidate.Struct(review); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate review: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// describe renders a field error as "path: problem".
func describe(fe validator.FieldError) string {
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}

	switch fe.Tag() {
	case "required":
		return path + ": field required"
	case "oneof":
		return fmt.Sprintf("%s: %q is not one of %s", path, fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s: failed %s", path, fe.Tag())
	}
}

func invalid(reason string) error {
	return &plan.MalformedToolCall{Kind: plan.KindInvalidOutput, Reason: reason}
}
