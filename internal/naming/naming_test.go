package naming

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "merged-document-2024-01-01.pdf"},
		{"   \t ", "merged-document-2024-01-01.pdf"},
		{"report", "report.pdf"},
		{"  report  ", "report.pdf"},
		{"Report.PDF", "Report.PDF"},
		{"scan.pdf", "scan.pdf"},
		{"archive.pdf.zip", "archive.pdf.zip.pdf"},
		{"notes.", "notes..pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw, "2024-01-01"))
		})
	}
}

func TestTodayStamp(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2024, 1, 2, 5, 0, 0, 0, loc)

	assert.Equal(t, "2024-01-01", TodayStamp(ts))
}
