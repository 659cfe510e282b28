package blog

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultTagColor is used for tags without a colour of their own.
const DefaultTagColor = "#3b82f6"

// ExcerptLength is the excerpt size used by list and tag pages.
const ExcerptLength = 200

// Date layouts accepted by FormatDate.
const (
	LayoutFull      = "2006-01-02 15:04:05"
	LayoutDate      = "2006-01-02"
	LayoutTime      = "15:04:05"
	LayoutYearMonth = "2006-01"
	LayoutMonthDay  = "01-02"
)

// FormatDate formats t with layout; the zero time formats as "".
func FormatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	if layout == "" {
		layout = LayoutFull
	}
	return t.Format(layout)
}

// RelativeTime describes t relative to now ("3 hours ago"). Months are 30
// days and years 12 months.
func RelativeTime(t, now time.Time) string {
	secs := int(now.Sub(t) / time.Second)
	if secs < 0 {
		secs = 0
	}
	if secs < 60 {
		return plural(secs, "second")
	}
	mins := secs / 60
	if mins < 60 {
		return plural(mins, "minute")
	}
	hours := mins / 60
	if hours < 24 {
		return plural(hours, "hour")
	}
	days := hours / 24
	if days < 30 {
		return plural(days, "day")
	}
	months := days / 30
	if months < 12 {
		return plural(months, "month")
	}
	return plural(months/12, "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// Truncate cuts s to at most max runes and appends "..." when it did.
func Truncate(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// Excerpt returns the article excerpt, or its content reduced to plain text,
// truncated to max runes.
func Excerpt(a Article, max int) string {
	src := a.Excerpt
	if strings.TrimSpace(src) == "" {
		src = a.Content
	}
	text := PlainText(src)
	if text == "" {
		return ""
	}
	return Truncate(text, max)
}

var (
	slugSpace   = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)
	slugDashes  = regexp.MustCompile(`-{2,}`)
)

// Slugify turns a title into a URL slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugSpace.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// FilterByTag keeps the articles carrying tagID, preserving order.
func FilterByTag(articles []Article, tagID string) []Article {
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if a.HasTag(tagID) {
			out = append(out, a)
		}
	}
	return out
}

// FilterByCategory keeps the articles filed under categoryID, preserving
// order.
func FilterByCategory(articles []Article, categoryID string) []Article {
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if a.Category != nil && a.Category.ID == categoryID {
			out = append(out, a)
		}
	}
	return out
}

// Matches reports whether every word of query occurs, case-insensitively, in
// the article title, excerpt, body text or tag names. An empty query matches
// nothing.
func Matches(a Article, query string) bool {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return false
	}
	var hay strings.Builder
	hay.WriteString(a.Title)
	hay.WriteByte(' ')
	hay.WriteString(a.Excerpt)
	hay.WriteByte(' ')
	hay.WriteString(PlainText(a.Content))
	for _, t := range a.Tags {
		hay.WriteByte(' ')
		hay.WriteString(t.Name)
	}
	text := strings.ToLower(hay.String())
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

// Search keeps the articles matching query, preserving order.
func Search(articles []Article, query string) []Article {
	out := make([]Article, 0)
	for _, a := range articles {
		if Matches(a, query) {
			out = append(out, a)
		}
	}
	return out
}

var hexColor = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// TagColor returns the tag colour as #rrggbb, or DefaultTagColor.
func TagColor(t Tag) string {
	if !hexColor.MatchString(t.Color) {
		return DefaultTagColor
	}
	if !strings.HasPrefix(t.Color, "#") {
		return "#" + t.Color
	}
	return t.Color
}
