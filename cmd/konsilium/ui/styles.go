// Package ui provides the visual styling for the Konsilium query form.
// Light/dark palettes share one set of semantic colors.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Light Mode Colors (Default)
	LightBackground = lipgloss.Color("#f4f5f6")
	LightForeground = lipgloss.Color("#1b2a41")
	LightPrimary    = lipgloss.Color("#1b4f72") // Deep teal-blue
	LightAccent     = lipgloss.Color("#2e86c1")
	LightMuted      = lipgloss.Color("#8a94a3")
	LightBorder     = lipgloss.Color("#c9d1db")
	LightDisabled   = lipgloss.Color("#b4bcc7")

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#141d2b")
	DarkForeground = lipgloss.Color("#f2f2f2")
	DarkPrimary    = lipgloss.Color("#5dade2")
	DarkAccent     = lipgloss.Color("#85c1e9")
	DarkMuted      = lipgloss.Color("#6c7a8c")
	DarkBorder     = lipgloss.Color("#2a3850")
	DarkDisabled   = lipgloss.Color("#3d4a5e")

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Disabled   lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
		Disabled:   LightDisabled,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Disabled:   DarkDisabled,
		IsDark:     true,
	}
}

// DetectTheme guesses the terminal background from COLORFGBG, falling back to light.
func DetectTheme() Theme {
	// Format is usually "foreground;background"
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			// 0-6 and 8 (dark grey) are dark backgrounds
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
					return DarkTheme()
				}
			}
		}
	}

	if os.Getenv("KONSILIUM_DARK_MODE") == "1" {
		return DarkTheme()
	}

	return LightTheme()
}

// ThemeByName resolves a ui.theme config value ("auto", "light", "dark").
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	default:
		return DetectTheme()
	}
}

// Styles holds all the styled components of the form
type Styles struct {
	Theme Theme

	// Layout
	Header lipgloss.Style
	Footer lipgloss.Style

	// Text
	Label lipgloss.Style
	Muted lipgloss.Style

	// Input row
	Input         lipgloss.Style
	InputFocused  lipgloss.Style
	InputDisabled lipgloss.Style
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonOff     lipgloss.Style

	// Output
	Output      lipgloss.Style
	Placeholder lipgloss.Style

	// Status
	Error   lipgloss.Style
	Notice  lipgloss.Style
	Spinner lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)

	button := lipgloss.NewStyle().
		Padding(0, 2).
		MarginLeft(1).
		Bold(true)

	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		Label: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Input:         box.BorderForeground(theme.Border),
		InputFocused:  box.BorderForeground(theme.Accent),
		InputDisabled: box.BorderForeground(theme.Disabled).Foreground(theme.Disabled),

		Button: button.
			Background(theme.Border).
			Foreground(theme.Foreground),
		ButtonFocused: button.
			Background(theme.Accent).
			Foreground(lipgloss.Color("#ffffff")),
		ButtonOff: button.
			Background(theme.Disabled).
			Foreground(theme.Muted),

		Output: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(theme.Border).
			Foreground(theme.Foreground).
			Padding(0, 1),

		Placeholder: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(Destructive).
			Padding(0, 1).
			Bold(true),

		Notice: lipgloss.NewStyle().
			Foreground(Success),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),
	}
}

// HeaderTitle is the banner text shown at the top of the form.
const HeaderTitle = "Консилиум – помощь в лечении онкобольных"

// Banner renders the header bar across width columns.
func (s Styles) Banner(width int) string {
	if width <= 0 {
		return s.Header.Render(HeaderTitle)
	}
	return s.Header.Width(width).Render(HeaderTitle)
}
