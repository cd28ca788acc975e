package display

import (
	"math"
	"strconv"
	"strings"
)

const (
	filledDot = "◉"
	emptyDot  = "○"
	dotSlots  = 5
)

// focusLevels is indexed by FocusIndex.
var focusLevels = [dotSlots + 1]string{
	"Not Focused",
	"Focus: Low",
	"Focus: Mild",
	"Focus: Moderate",
	"Focus: High",
	"Focus: Very High",
}

// FocusIndex maps a focus percentage to 0..5 using round-half-up on p/20.
// Out-of-range percentages are clamped.
func FocusIndex(percentage float64) int {
	if math.IsNaN(percentage) || percentage <= 0 {
		return 0
	}
	idx := int(math.Floor(percentage/20.0 + 0.5))
	if idx > dotSlots {
		return dotSlots
	}
	return idx
}

// FocusDots renders the five-slot focus gauge. A missing or zero percentage
// renders as an empty string.
func FocusDots(percentage *float64) string {
	if !hasFocus(percentage) {
		return ""
	}
	filled := FocusIndex(*percentage)
	return strings.Repeat(filledDot, filled) + strings.Repeat(emptyDot, dotSlots-filled)
}

// FocusLabel returns the textual focus level for the tooltip. A missing or
// zero percentage renders as an empty string.
func FocusLabel(percentage *float64) string {
	if !hasFocus(percentage) {
		return ""
	}
	return focusLevels[FocusIndex(*percentage)]
}

// FormatPercentage prints a percentage without a trailing ".0".
func FormatPercentage(percentage float64) string {
	return strconv.FormatFloat(percentage, 'f', -1, 64)
}

func hasFocus(percentage *float64) bool {
	return percentage != nil && *percentage != 0 && !math.IsNaN(*percentage)
}
