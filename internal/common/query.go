package common

import (
	"net/http"
	"strconv"
	"strings"
)

// QueryInt reads an integer query parameter from the request, falling back to
// def when the parameter is absent or not a valid integer.
func QueryInt(r *http.Request, name string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return parsed
}
