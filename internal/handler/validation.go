package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var titleChars = regexp.MustCompile(`^[\p{L}\p{N} ,'\-]*$`)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("title_chars", func(fl validator.FieldLevel) bool {
		return titleChars.MatchString(fl.Field().String())
	})
	return v
}

// validationMessages turns validator errors into the sentences the API
// returns in a 422 body.
func validationMessages(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return messages
}

func fieldMessage(fe validator.FieldError) string {
	field := humanize(fe.Field())

	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Int {
			return field + " must be greater than 0"
		}
		return field + " can't be blank"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s is too long (maximum is %s characters)", field, fe.Param())
	case "title_chars":
		return field + " can only contain alphanumeric characters, spaces, commas (,), hyphens (-), and apostrophes (')"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// humanize turns "unit_weight" into "Unit weight".
func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
