package utils

import "time"

func StringPtr(s string) *string {
	return &s
}

func Float64Ptr(f float64) *float64 {
	return &f
}

func TimePtr(t time.Time) *time.Time {
	return &t
}

func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
