package display

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func pct(v float64) *float64 { return &v }

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0m"},
		{59, "0m"},
		{60, "1m"},
		{119, "1m"},
		{3599, "59m"},
		{3600, "1h 0m"},
		{3725, "1h 2m"},
		{10 * 3600, "10h 0m"},
		{23*3600 + 59*60 + 59, "23h 59m"},
		{-5, "0m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, FormatDuration(tt.seconds))
		})
	}
}

func TestFocusDots(t *testing.T) {
	tests := []struct {
		name string
		in   *float64
		want string
	}{
		{"absent", nil, ""},
		{"zero", pct(0), ""},
		{"below first half step", pct(9), "○○○○○"},
		{"half step rounds up", pct(10), "◉○○○○"},
		{"fifty", pct(50), "◉◉◉○○"},
		{"seventy", pct(70), "◉◉◉◉○"},
		{"eighty nine", pct(89), "◉◉◉◉○"},
		{"ninety", pct(90), "◉◉◉◉◉"},
		{"full", pct(100), "◉◉◉◉◉"},
		{"over full clamps", pct(140), "◉◉◉◉◉"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FocusDots(tt.in))
		})
	}
}

func TestFocusLabel(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, ""},
		{pct(0), ""},
		{pct(5), "Not Focused"},
		{pct(10), "Focus: Low"},
		{pct(29), "Focus: Low"},
		{pct(30), "Focus: Mild"},
		{pct(50), "Focus: Moderate"},
		{pct(69), "Focus: Moderate"},
		{pct(70), "Focus: High"},
		{pct(90), "Focus: Very High"},
		{pct(100), "Focus: Very High"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, FocusLabel(tt.in))
	}
}

func TestFocusIndexCoversRange(t *testing.T) {
	for p := 0; p <= 100; p++ {
		idx := FocusIndex(float64(p))
		require.GreaterOrEqual(t, idx, 0)
		require.LessOrEqual(t, idx, 5)
	}
	require.Equal(t, 0, FocusIndex(-20))
	require.Equal(t, 5, FocusIndex(1000))
}

func TestFormatPercentage(t *testing.T) {
	require.Equal(t, "72", FormatPercentage(72))
	require.Equal(t, "72.5", FormatPercentage(72.5))
}
