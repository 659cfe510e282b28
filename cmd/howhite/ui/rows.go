package ui

import (
	"strings"

	"howhite/internal/blog"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// fit truncates s to width cells and pads it to exactly width.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = runewidth.Truncate(s, width, ellipsis)
	return runewidth.FillRight(s, width)
}

// articleRow renders one article as exactly height lines of at most width
// cells: title, meta line with tag badges, excerpt. Extra lines are blank;
// a short height drops lines from the bottom.
func articleRow(s Styles, a blog.Article, width, height int, selected bool) []string {
	if height <= 0 {
		return nil
	}
	marker := "  "
	if selected {
		marker = s.Cursor.Render("▌ ")
	}
	inner := max(1, width-2)

	title := s.Title.Render(fit(a.Title, inner))
	meta := metaLine(s, a, inner)
	excerpt := s.Muted.Render(fit(blog.Excerpt(a, blog.ExcerptLength), inner))

	lines := []string{marker + title, "  " + meta, "  " + excerpt}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines[:height]
}

// metaLine is "date · author" followed by as many tag badges as fit.
func metaLine(s Styles, a blog.Article, width int) string {
	parts := []string{blog.FormatDate(a.CreatedAt, blog.LayoutDate)}
	if a.Author.Name != "" {
		parts = append(parts, a.Author.Name)
	}
	if a.Category != nil && a.Category.Name != "" {
		parts = append(parts, a.Category.Name)
	}
	plain := runewidth.Truncate(strings.Join(parts, " · "), width, ellipsis)
	line := s.Muted.Render(plain)
	used := runewidth.StringWidth(plain)

	for _, t := range a.Tags {
		badge := s.TagBadge(t)
		w := lipgloss.Width(badge) + 1
		if used+w > width {
			break
		}
		line += " " + badge
		used += w
	}
	return line
}

// rowKey identifies a rendered row for the render cache.
func rowKey(a blog.Article, width, height int, selected, dark bool) uint64 {
	return ComputeKey(a.ID, a.UpdatedAt.UnixNano(), a.Title, width, height, selected, dark)
}

// sliceLines returns lines [from, from+n) padded with blanks to n.
func sliceLines(lines []string, from, n int) []string {
	out := make([]string, 0, n)
	for i := from; i < from+n; i++ {
		if i >= 0 && i < len(lines) {
			out = append(out, lines[i])
		} else {
			out = append(out, "")
		}
	}
	return out
}
