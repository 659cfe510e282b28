package ui

// Layout constants, in terminal cells.
const (
	HeaderHeight = 2 // title bar + divider
	FooterHeight = 2 // divider + help line
	StatusHeight = 1 // tag page loading/end line

	RowIndent     = 2
	MinRowWidth   = 20
	ReaderPadding = 4

	CompactModeWidth = 80
)

// LayoutConfig provides computed dimensions for a terminal size.
type LayoutConfig struct {
	TerminalWidth  int
	TerminalHeight int
	IsCompact      bool
}

// NewLayoutConfig creates a layout configuration for the given terminal size.
func NewLayoutConfig(width, height int) LayoutConfig {
	return LayoutConfig{
		TerminalWidth:  width,
		TerminalHeight: height,
		IsCompact:      width < CompactModeWidth,
	}
}

// BodyHeight is the height left for page content between header and footer.
func (l LayoutConfig) BodyHeight() int {
	return max(0, l.TerminalHeight-HeaderHeight-FooterHeight)
}

// RowWidth is the usable width of a list row.
func (l LayoutConfig) RowWidth() int {
	return max(MinRowWidth, l.TerminalWidth-RowIndent)
}

// ReaderWidth is the markdown wrap width. A positive wrap from config wins
// when it fits.
func (l LayoutConfig) ReaderWidth(wrap int) int {
	w := max(MinRowWidth, l.TerminalWidth-ReaderPadding)
	if wrap > 0 && wrap < w {
		return wrap
	}
	return w
}
