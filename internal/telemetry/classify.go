package telemetry

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

// ErrorClass returns a short label for err suitable for metric attributes.
// Application errors are labelled by their code; anything else by the innermost
// concrete type, snake_cased.
func ErrorClass(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}
