// Package escape converts rendered values to output text.
package escape

import (
	"fmt"
	"strings"
)

// SafeString is text that is written to the output without escaping.
type SafeString string

func (s SafeString) String() string { return string(s) }

var replacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"`", "&#x60;",
)

// Expression returns the text of v with HTML-significant characters
// replaced by entities. A [SafeString] is returned verbatim, and nil and
// false produce the empty string.
func Expression(v any) string {
	if s, ok := v.(SafeString); ok {
		return string(s)
	}

	s := String(v)
	if !strings.ContainsAny(s, "&<>\"'`") {
		return s
	}

	return replacer.Replace(s)
}

// String returns the text of v without escaping. nil and false produce the
// empty string.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		if !x {
			return ""
		}

		return "true"
	case string:
		return x
	case SafeString:
		return string(x)
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	default:
		return fmt.Sprint(x)
	}
}

// Raw returns the text of v without escaping. It is a replacement for
// [Expression] when rendering non-HTML output.
func Raw(v any) string { return String(v) }
