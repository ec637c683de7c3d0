package utils

import (
	"strconv"
)

// ParseIntDefault converts s to int, returns def if s is not a number
func ParseIntDefault(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
