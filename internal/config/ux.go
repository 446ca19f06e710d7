package config

// Theme names accepted by ui.theme.
const (
	ThemeAuto  = "auto"
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ValidThemes lists all accepted ui.theme values.
var ValidThemes = []string{ThemeAuto, ThemeLight, ThemeDark}

// UIConfig holds terminal user interface configuration.
type UIConfig struct {
	// Theme is "auto" (detect from the terminal), "light" or "dark".
	Theme string `yaml:"theme"`

	// RenderMarkdown renders the response through glamour instead of
	// showing the raw text.
	RenderMarkdown bool `yaml:"render_markdown"`
}
