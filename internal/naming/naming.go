// Package naming normalises the user-chosen name of a merged document.
package naming

import (
	"strings"
	"time"
)

const (
	// DefaultPrefix starts every generated name.
	DefaultPrefix = "merged-document-"
	// Extension is appended when missing.
	Extension = ".pdf"
)

// TodayStamp formats t as the UTC calendar date used in default names.
func TodayStamp(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// Normalize trims raw, falls back to DefaultPrefix+todayStamp when nothing is
// left, and appends Extension unless the name already ends with it in any
// letter case.
func Normalize(raw, todayStamp string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		name = DefaultPrefix + todayStamp
	}
	if !strings.HasSuffix(strings.ToLower(name), Extension) {
		name += Extension
	}
	return name
}
