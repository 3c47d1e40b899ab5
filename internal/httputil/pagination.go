package httputil

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultPageLimit is the page size of issue and key listings when no limit is given.
	DefaultPageLimit = 20
	// MaxPageLimit caps the page size a caller may request.
	MaxPageLimit = 100
)

// ParsePagination reads the offset and limit query parameters of a listing.
// Offset defaults to 0 and limit to DefaultPageLimit.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limit, err = queryInt(c, "limit", DefaultPageLimit)
	if err != nil || limit < 1 || limit > MaxPageLimit {
		return 0, 0, fmt.Errorf("invalid limit parameter: must be between 1 and %d", MaxPageLimit)
	}

	return offset, limit, nil
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
