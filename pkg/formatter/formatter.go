package formatter

import (
	"fmt"
	"strconv"
	"time"
)

// FormatNumber converts an integer to a string with commas as thousands separators.
// Example: 1234567 -> "1,234,567"
func FormatNumber(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		s = s[1:]
	}

	le := len(s)
	if le <= 3 {
		if n < 0 {
			return "-" + s
		}
		return s
	}

	sepCount := (le - 1) / 3

	res := make([]byte, le+sepCount)

	j := len(res) - 1
	for i := le - 1; i >= 0; i-- {
		res[j] = s[i]
		j--
		if (le-i)%3 == 0 && i > 0 {
			res[j] = ','
			j--
		}
	}

	if n < 0 {
		return "-" + string(res)
	}
	return string(res)
}

type interval struct {
	label   string
	seconds int64
}

var intervals = []interval{
	{"year", 31536000},
	{"month", 2592000},
	{"day", 86400},
	{"hour", 3600},
	{"minute", 60},
	{"second", 1},
}

// TimeAgo renders the distance between t and now as "3 hours ago", or "just now" under a second.
func TimeAgo(t, now time.Time) string {
	secondsAgo := int64(now.Sub(t) / time.Second)

	for _, iv := range intervals {
		count := secondsAgo / iv.seconds
		if count > 0 {
			if count == 1 {
				return fmt.Sprintf("1 %s ago", iv.label)
			}
			return fmt.Sprintf("%d %ss ago", count, iv.label)
		}
	}

	return "just now"
}
