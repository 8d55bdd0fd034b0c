package wizard

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("validation failed")

// ValidationError привязана к конкретному вопросу, чтобы фронт показал её под полем.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

var (
	validate   = validator.New()
	phoneChars = regexp.MustCompile(`^\+?[0-9 ()\-.]+$`)
)

func init() {
	if err := validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !phoneChars.MatchString(s) {
			return false
		}
		digits := 0
		for _, r := range s {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		return digits >= 7 && digits <= 15
	}); err != nil {
		panic(err)
	}
}

// ValidEmail использует ту же проверку, что и вопросы типа email.
func ValidEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// Validate проверяет ответ и возвращает нормализованное значение для хранения.
// Пустой ответ на необязательный вопрос допустим и хранится как nil.
func (q *Question) Validate(value any) (any, error) {
	fail := func(msg string) (any, error) {
		return nil, &ValidationError{Field: q.ID, Message: msg}
	}

	switch q.Type {
	case TypeMultiSelect:
		values, ok := stringSlice(value)
		if !ok {
			return fail("expected a list of options")
		}
		if len(values) == 0 {
			if q.Required {
				return fail("choose at least one option")
			}
			return nil, nil
		}
		seen := make(map[string]struct{}, len(values))
		out := make([]string, 0, len(values))
		for _, v := range values {
			if !q.hasOption(v) {
				return fail(fmt.Sprintf("unknown option %q", v))
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
		return out, nil

	case TypeNumber:
		n, present, ok := number(value)
		if !ok {
			return fail("expected a number")
		}
		if !present {
			if q.Required {
				return fail("this field is required")
			}
			return nil, nil
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return fail("expected a number")
		}
		if n < 0 {
			return fail("must not be negative")
		}
		return n, nil
	}

	s, ok := value.(string)
	if value != nil && !ok {
		return fail("expected text")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		if q.Required {
			return fail("this field is required")
		}
		return nil, nil
	}

	switch q.Type {
	case TypeEmail:
		if validate.Var(s, "email") != nil {
			return fail("enter a valid email address")
		}
		s = strings.ToLower(s)
	case TypePhone:
		if validate.Var(s, "phone") != nil {
			return fail("enter a valid phone number")
		}
	case TypeSelect:
		if !q.hasOption(s) {
			return fail(fmt.Sprintf("unknown option %q", s))
		}
	}

	if q.MinLength > 0 && validate.Var(s, "min="+strconv.Itoa(q.MinLength)) != nil {
		return fail(fmt.Sprintf("must be at least %d characters", q.MinLength))
	}
	if q.MaxLength > 0 && validate.Var(s, "max="+strconv.Itoa(q.MaxLength)) != nil {
		return fail(fmt.Sprintf("must be at most %d characters", q.MaxLength))
	}
	return s, nil
}

func stringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// number принимает число из JSON или строку с числом.
func number(v any) (n float64, present, ok bool) {
	switch t := v.(type) {
	case nil:
		return 0, false, true
	case float64:
		return t, true, true
	case int:
		return float64(t), true, true
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0, false, true
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false, false
		}
		return f, true, true
	}
	return 0, false, false
}
