package errors

import (
	goerrors "errors"
	"reflect"
	"strings"
)

// Classify derives a low-cardinality error class for metric and log tags,
// such as "net_opderror" for a refused connection or "errors_errorstring"
// for a plain stdlib error. Pipeline dashboards group failures by this tag.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	// The outer layers are usually fmt wrapping; the innermost type carries
	// the signal.
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

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
