package styles

import "github.com/charmbracelet/lipgloss"

// Oxocarbon color scheme - IBM Carbon inspired
var (
	Base01  = lipgloss.Color("#393939") // borders, secondary UI
	Base03  = lipgloss.Color("#767676") // muted elements
	Base05  = lipgloss.Color("#f2f4f8") // primary foreground
	White   = lipgloss.Color("#ffffff")
	Teal    = lipgloss.Color("#3ddbd9")
	Red     = lipgloss.Color("#ff5252")
	Green   = lipgloss.Color("#42be65")
	Purple  = lipgloss.Color("#be95ff") // main accent
	Magenta = lipgloss.Color("#ff7eb6")
)

var (
	AppStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Base01)

	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Purple).
			Padding(0, 1).
			Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(Teal).
			Bold(true)

	TimeStyle = lipgloss.NewStyle().
			Foreground(Base05)

	CaptionStyle = lipgloss.NewStyle().
			Foreground(Magenta).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Base03)

	BadgeStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)
)
