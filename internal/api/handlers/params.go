package handlers

import (
	"fmt"
	"net/url"
	"strconv"
)

// intParam parses an integer query parameter, applying a default when absent
// and rejecting values outside [min, max] before any storage work happens.
func intParam(q url.Values, name string, def, min, max int64) (int64, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s must be between %d and %d", name, min, max)
	}
	return v, nil
}
