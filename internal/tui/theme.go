package tui

import "strings"

type palette struct {
	Name      string
	Text      string
	TextMuted string
	Border    string
	Accent    string
	Focus     string
	Success   string
	Warning   string
	Error     string
}

var paletteOrder = []string{"default", "high-contrast", "ocean", "sunset"}

var palettes = map[string]palette{
	"default": {
		Name:      "default",
		Text:      "#E6EDF3",
		TextMuted: "#8B9AAE",
		Border:    "#223043",
		Accent:    "#5B8DEF",
		Focus:     "#7AA2F7",
		Success:   "#3FB950",
		Warning:   "#D29922",
		Error:     "#F85149",
	},
	"high-contrast": {
		Name:      "high-contrast",
		Text:      "#FFFFFF",
		TextMuted: "#C0C0C0",
		Border:    "#FFFFFF",
		Accent:    "#00A2FF",
		Focus:     "#FFD400",
		Success:   "#00FF5A",
		Warning:   "#FFB000",
		Error:     "#FF4040",
	},
	"ocean": {
		Name:      "ocean",
		Text:      "#D8ECF7",
		TextMuted: "#78A2B8",
		Border:    "#1E4A61",
		Accent:    "#3DD3FF",
		Focus:     "#71E0FF",
		Success:   "#55E39F",
		Warning:   "#FFC857",
		Error:     "#FF6B6B",
	},
	"sunset": {
		Name:      "sunset",
		Text:      "#F6E7E4",
		TextMuted: "#C89A90",
		Border:    "#5D2E3F",
		Accent:    "#FF8C5A",
		Focus:     "#FFB077",
		Success:   "#7ED957",
		Warning:   "#FFD166",
		Error:     "#FF5D73",
	},
}

func resolvePalette(name string) palette {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if p, ok := palettes[trimmed]; ok {
		return p
	}
	return palettes["default"]
}

func cyclePalette(current string, delta int) palette {
	current = strings.ToLower(strings.TrimSpace(current))
	idx := 0
	for i, candidate := range paletteOrder {
		if candidate == current {
			idx = i
			break
		}
	}
	idx = (idx + delta) % len(paletteOrder)
	if idx < 0 {
		idx += len(paletteOrder)
	}
	return resolvePalette(paletteOrder[idx])
}

// ThemeNames lists the available themes.
func ThemeNames() []string {
	return append([]string(nil), paletteOrder...)
}
