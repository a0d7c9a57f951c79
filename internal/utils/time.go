package utils

import "time"

// NowMS returns the current time in milliseconds since epoch. All entity
// timestamps in the system use this resolution.
func NowMS() int64 {
	return time.Now().UnixMilli()
}
