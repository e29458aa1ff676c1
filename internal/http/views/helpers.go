package views

import (
	"html"
	"strconv"
)

func FormatInt64(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Esc escapes text for element content and attribute values.
func Esc(v string) string {
	return html.EscapeString(v)
}
