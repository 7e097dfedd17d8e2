package infrastructure

import (
	"strconv"
	"strings"
	"time"
)

// parseClockDuration parses "m:ss" or "h:mm:ss". Anything else yields 0.
func parseClockDuration(s string) time.Duration {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}

	var total int
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}
