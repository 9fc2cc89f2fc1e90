package shared

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ParseBoolFilter parses a boolean query parameter and returns a pointer to bool or nil
func ParseBoolFilter(c *gin.Context, key string) *bool {
	switch c.Query(key) {
	case "true", "1":
		return &[]bool{true}[0]
	case "false", "0":
		return &[]bool{false}[0]
	default:
		return nil
	}
}

// ParseTimeFilter parses an RFC 3339 query parameter, returning nil when absent or malformed
func ParseTimeFilter(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

// ParsePage returns the 1-based page number. ok is false when the parameter is
// present but not a positive integer.
func ParsePage(c *gin.Context) (page int, ok bool) {
	raw := c.Query("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}
