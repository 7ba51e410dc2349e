package output

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"taskboard/internal/service"
)

// Theme is the palette used for task rendering.
type Theme struct {
	Name   string
	High   lipgloss.TerminalColor
	Medium lipgloss.TerminalColor
	Low    lipgloss.TerminalColor
	Muted  lipgloss.TerminalColor
	Accent lipgloss.TerminalColor
	Error  lipgloss.TerminalColor
}

// Light keeps priorities in grayscale; darker means more urgent.
var Light = Theme{
	Name:   "light",
	High:   lipgloss.Color("232"),
	Medium: lipgloss.Color("240"),
	Low:    lipgloss.Color("246"),
	Muted:  lipgloss.Color("244"),
	Accent: lipgloss.Color("27"),
	Error:  lipgloss.Color("160"),
}

// Dark colors priorities red, yellow and green.
var Dark = Theme{
	Name:   "dark",
	High:   lipgloss.Color("#fca5a5"),
	Medium: lipgloss.Color("#fde047"),
	Low:    lipgloss.Color("#86efac"),
	Muted:  lipgloss.Color("245"),
	Accent: lipgloss.Color("62"),
	Error:  lipgloss.Color("203"),
}

// ThemeFor returns Dark when dark is set, otherwise Light.
func ThemeFor(dark bool) Theme {
	if dark {
		return Dark
	}
	return Light
}

// Priority returns the color for p.
func (t Theme) Priority(p service.Priority) lipgloss.TerminalColor {
	switch p {
	case service.PriorityHigh:
		return t.High
	case service.PriorityLow:
		return t.Low
	default:
		return t.Medium
	}
}

// newLipglossRenderer returns a renderer for w that honors NO_COLOR.
// Writers that are not terminals get the Ascii profile.
func newLipglossRenderer(w io.Writer) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}
