package server

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultHistoryLimit = 100
	defaultWindowHours  = 24
	maxLimit            = 5000
	maxHours            = 24 * 365
)

// positiveInt reads a positive integer from the query string or the posted form,
// falling back to def when the parameter is absent
func positiveInt(c *gin.Context, key string, def, upper int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		raw, ok = c.GetPostForm(key)
	}
	if !ok || raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, v)
	}
	if v > upper {
		return 0, fmt.Errorf("%s must not exceed %d", key, upper)
	}
	return v, nil
}

// timeWindow reads the RFC 3339 start and end query parameters. A missing end
// is now and a missing start is defaultWindowHours before end. ok is false
// when neither parameter is present.
func timeWindow(c *gin.Context, now time.Time) (start, end time.Time, ok bool, err error) {
	rawStart, rawEnd := c.Query("start"), c.Query("end")
	if rawStart == "" && rawEnd == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	end = now
	if rawEnd != "" {
		if end, err = time.Parse(time.RFC3339, rawEnd); err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("end must be an RFC 3339 time, got %q", rawEnd)
		}
	}
	start = end.Add(-defaultWindowHours * time.Hour)
	if rawStart != "" {
		if start, err = time.Parse(time.RFC3339, rawStart); err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("start must be an RFC 3339 time, got %q", rawStart)
		}
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, false, fmt.Errorf("start %s is after end %s", rawStart, end.Format(time.RFC3339))
	}
	return start, end, true, nil
}
