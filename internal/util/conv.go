package util

import (
	"fmt"
	"strconv"
)

// ParseID parses a positive path id.
func ParseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}
