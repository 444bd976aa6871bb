package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AttendanceStatsKey returns the cache key for a day's attendance snapshot.
// An empty class means the snapshot spans all classes.
func (r *CacheKeyStruct) AttendanceStatsKey(date, class string) string {
	if class == "" {
		class = "all"
	}
	return fmt.Sprintf("attendance:stats:%s:%s", date, class)
}

var CacheKey = NewCacheKeyStruct()
