package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Color palette "Blue Moon" from https://gogh-co.github.io/Gogh/
const (
	colorGray     = "#353b52"
	colorWhite    = "#ffffff"
	colorGreen    = "#acfab4"
	colorGreenDim = "#b4c4b4"
	colorRed      = "#e61f44"
	colorRedDim   = "#d06178"
	colorPurple   = "#b9a3eb"
	colorBlue     = "#89ddff"

	marqueeTickDuration = time.Second / 20
	marqueeGap          = 4

	bordersAndPaddingWidth = 4
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorBlue)).
			Background(lipgloss.Color(colorGray)).
			Padding(0, 2).Align(lipgloss.Center)
	subtitleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorBlue))
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray)).
			Background(lipgloss.Color(colorGreen))
	dangerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(colorGray)).
				Background(lipgloss.Color(colorRed))
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorWhite))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorBlue))
	tagStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(colorPurple))
	dateStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorPurple))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray))
)

// TextStatusColorize paints text by status: 1 green, 2 red, anything else gray.
func TextStatusColorize(text string, status int) string {
	switch status {
	case 1:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreenDim)).Render(text)
	case 2:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorRedDim)).Render(text)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)).Render(text)
	}
}

// Generates pointer symbol when line in focus
func generateLinePointer(isPoint bool, length int) string {
	if isPoint {
		return ">" + strings.Repeat(" ", length-1)
	}
	return strings.Repeat(" ", length)
}

// Scrolls text that does not fit into availableWidth
func (m model) marqueeText(text string, availableWidth int) string {
	if len(text) <= availableWidth || availableWidth <= 0 {
		return text
	}
	paddedText := text + strings.Repeat(" ", marqueeGap) + text
	offset := m.marqueeOffset % (len(text) + marqueeGap)
	return paddedText[offset : offset+availableWidth]
}

// Truncates text to availableWidth with two trailing dots
func truncate(text string, availableWidth int) string {
	if len(text) <= availableWidth || availableWidth <= 3 {
		return text
	}
	return text[:availableWidth-2] + ".."
}

// Widens whichever column has focus
func (m model) columnWidths() (int, int, int) {
	var leftWidth, middleWidth int
	switch m.columnFocus {
	case focusTags:
		leftWidth = (m.width * 30) / 100
		middleWidth = (m.width * 40) / 100
	case focusTimeline:
		leftWidth = (m.width * 20) / 100
		middleWidth = (m.width * 40) / 100
	default:
		leftWidth = (m.width * 20) / 100
		middleWidth = (m.width * 25) / 100
	}
	return leftWidth, middleWidth, m.width - leftWidth - middleWidth
}
