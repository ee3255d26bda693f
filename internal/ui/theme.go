package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines colors and styles for the UI.
type Theme struct {
	Name string

	// Base colors
	Background string // Outermost background
	Surface    string // Header and command bar
	SurfaceAlt string // Unfocused panels
	FocusBg    string // Focused panels

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string
	ViewerRing  string // border around the viewer's own entry

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// Triage classification colors, keyed by normalized classification.
	ClassificationColors map[string]string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Background: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Background)),

		Surface: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)),

		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		FaintText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Faint)),

		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		SuccessText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),

		WarningText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		InfoText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Info)),

		Header: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),

		Logo: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),

		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Background)).
			Background(lipgloss.Color(t.Accent)).
			Bold(true).
			Padding(0, 1),

		classificationColors: t.ClassificationColors,
		background:           t.Background,
		muted:                t.Muted,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Background lipgloss.Style
	Surface    lipgloss.Style

	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style

	Header lipgloss.Style
	Logo   lipgloss.Style
	Badge  lipgloss.Style

	classificationColors map[string]string
	background           string
	muted                string
}

// ClassificationStyle returns a badge style for a triage classification.
func (s Styles) ClassificationStyle(classification string) lipgloss.Style {
	color := s.classificationColors[normalizeClassification(classification)]
	if color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// WithBackground returns a copy of Styles with every style on bgColor.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	return Styles{
		Background: s.Background.Background(bg),
		Surface:    s.Surface.Background(bg),

		Text:        s.Text.Background(bg),
		MutedText:   s.MutedText.Background(bg),
		FaintText:   s.FaintText.Background(bg),
		AccentText:  s.AccentText.Background(bg),
		SuccessText: s.SuccessText.Background(bg),
		WarningText: s.WarningText.Background(bg),
		DangerText:  s.DangerText.Background(bg),
		InfoText:    s.InfoText.Background(bg),

		Header: s.Header.Background(bg),
		Logo:   s.Logo.Background(bg),
		Badge:  s.Badge,

		classificationColors: s.classificationColors,
		background:           s.background,
		muted:                s.muted,
	}
}

// normalizeClassification maps the portal's triage labels, in English or
// Portuguese, onto the color keys.
func normalizeClassification(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "vermelho", "emergência", "emergencia", "emergency":
		return "red"
	case "laranja", "muito urgente", "very urgent":
		return "orange"
	case "amarelo", "urgente", "urgent":
		return "yellow"
	case "verde", "pouco urgente", "less urgent":
		return "green"
	case "azul", "não urgente", "nao urgente", "non urgent", "non-urgent":
		return "blue"
	}
	return v
}

// Theme definitions

var themes = map[string]Theme{
	"Clinic":   clinicTheme(),
	"Nightfox": nightfoxTheme(),
	"Slate":    slateTheme(),
}

var themeOrder = []string{"Clinic", "Nightfox", "Slate"}

// GetTheme returns a theme by name, falling back to the first theme.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return clinicTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

// triage is the Manchester palette shared by every theme.
func triage() map[string]string {
	return map[string]string{
		"red":    "#dc2626",
		"orange": "#ea580c",
		"yellow": "#eab308",
		"green":  "#16a34a",
		"blue":   "#2563eb",
	}
}

func clinicTheme() Theme {
	return Theme{
		Name: "Clinic",

		Background: "#0b1a1f",
		Surface:    "#10262d",
		SurfaceAlt: "#15313a",
		FocusBg:    "#1b3b45",

		SelectionBg:   "#1f5f6b",
		SelectionText: "#f0fdfa",

		Border:      "#2f5560",
		BorderFocus: "#2dd4bf",
		ViewerRing:  "#5eead4",

		Text:    "#e6f4f1",
		Muted:   "#8fb3ad",
		Faint:   "#5f817b",
		Accent:  "#2dd4bf",
		Success: "#4ade80",
		Warning: "#fbbf24",
		Danger:  "#f87171",
		Info:    "#7dd3fc",

		ClassificationColors: triage(),
	}
}

func nightfoxTheme() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name: "Nightfox",

		Background: "#131a24",
		Surface:    "#192330",
		SurfaceAlt: "#212e3f",
		FocusBg:    "#29394f",

		SelectionBg:   "#2b3b51",
		SelectionText: "#cdcecf",

		Border:      "#39506d",
		BorderFocus: "#719cd6",
		ViewerRing:  "#63cdcf",

		Text:    "#cdcecf",
		Muted:   "#738091",
		Faint:   "#71839b",
		Accent:  "#719cd6",
		Success: "#81b29a",
		Warning: "#dbc074",
		Danger:  "#c94f6d",
		Info:    "#63cdcf",

		ClassificationColors: triage(),
	}
}

func slateTheme() Theme {
	// Tailwind CSS Slate/Sky palette: https://tailwindcss.com/docs/colors
	return Theme{
		Name: "Slate",

		Background: "#020617",
		Surface:    "#0f172a",
		SurfaceAlt: "#1e293b",
		FocusBg:    "#283548",

		SelectionBg:   "#0284c7",
		SelectionText: "#f8fafc",

		Border:      "#334155",
		BorderFocus: "#38bdf8",
		ViewerRing:  "#7dd3fc",

		Text:    "#f1f5f9",
		Muted:   "#94a3b8",
		Faint:   "#64748b",
		Accent:  "#38bdf8",
		Success: "#22c55e",
		Warning: "#f59e0b",
		Danger:  "#ef4444",
		Info:    "#06b6d4",

		ClassificationColors: triage(),
	}
}
