package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1 234,56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{"12,5", "12.5"},
		{"12.5", "12.5"},
		{"-50,00", "-50"},
		{`"-1 000,10"`, "-1000.1"},
		{"1\u00a0234,56", "1234.56"},
		{"1,234,567", "1234567"},
		{"1.234.567", "1234567"},
		{"42", "42"},
		{"'7.25'", "7.25"},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.raw)
		require.True(t, ok, "ParseAmount(%q) should succeed", tt.raw)
		assert.Equal(t, tt.want, got.String(), "ParseAmount(%q)", tt.raw)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "NOTANUMBER", "12,5 zł", "--5", "1.2.3,4,5"} {
		_, ok := ParseAmount(raw)
		assert.False(t, ok, "ParseAmount(%q) should fail", raw)
	}
}

func TestParseDate_ExplicitLayouts(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2024-03-04", "2024-03-04"}, // YYYY-MM-DD
		{"04.03.2024", "2024-03-04"}, // DD.MM.YYYY
		{"03/04/2024", "2024-03-04"}, // MM/DD/YYYY
		{"04-03-2024", "2024-03-04"}, // DD-MM-YYYY
		{"2024/03/04", "2024-03-04"}, // YYYY/MM/DD
		{" 2024-12-31 ", "2024-12-31"},
		{`"31.12.2024"`, "2024-12-31"},
	}
	for _, tt := range tests {
		got, ok := NormalizeDate(tt.raw)
		require.True(t, ok, "NormalizeDate(%q) should succeed", tt.raw)
		assert.Equal(t, tt.want, got, "NormalizeDate(%q)", tt.raw)
	}
}

func TestParseDate_USLayoutBeforeDayFirst(t *testing.T) {
	// MM/DD/YYYY is the only slash layout with the year last.
	got, ok := NormalizeDate("04/03/2024")
	require.True(t, ok)
	assert.Equal(t, "2024-04-03", got)
}

func TestParseDate_Fallback(t *testing.T) {
	got, ok := ParseDate("March 4, 2024")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseDate("2024-03-04 15:30:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), got, "time of day is dropped")
}

func TestParseDate_Invalid(t *testing.T) {
	for _, raw := range []string{"", "NOTADATE", "yesterday-ish", "2024-13-45"} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, "ParseDate(%q) should fail", raw)
	}
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	got := Day(time.Date(2024, 3, 4, 23, 59, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), got)
}
