package ui

import (
	"fmt"
	"strings"

	"howhite/internal/blog"
	"howhite/internal/feed"
	"howhite/internal/logging"
	"howhite/internal/virtual"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// ReaderPage renders one article's markdown with glamour.
type ReaderPage struct {
	styles   Styles
	keys     KeyMap
	viewport viewport.Model
	debounce *Debouncer
	wrap     int // configured wrap, 0 = fit terminal
	width    int
	article  *blog.Article
	origin   feed.Origin
	slug     string
	err      error
	rendered int // width the content was last rendered at

	comments       []blog.Comment
	commentsLoaded bool
	commentsErr    error
}

// NewReaderPage creates the page. Resize re-renders are debounced on sched.
func NewReaderPage(sched virtual.Scheduler, wrap int, styles Styles) *ReaderPage {
	return &ReaderPage{
		styles:   styles,
		keys:     DefaultKeyMap(),
		viewport: viewport.New(80, 20),
		debounce: NewDebouncer(sched, DefaultResizeDuration),
		wrap:     wrap,
		width:    80,
	}
}

// Reset shows the loading state for slug.
func (p *ReaderPage) Reset(slug string) {
	p.debounce.Cancel()
	p.slug = slug
	p.article = nil
	p.err = nil
	p.clearComments()
	p.viewport.SetContent(p.styles.Muted.Render("Loading " + slug + "..."))
}

func (p *ReaderPage) clearComments() {
	p.comments = nil
	p.commentsLoaded = false
	p.commentsErr = nil
}

// SetArticle displays a.
func (p *ReaderPage) SetArticle(a *blog.Article, origin feed.Origin) {
	p.article = a
	p.origin = origin
	p.slug = a.Slug
	p.err = nil
	p.clearComments()
	p.render()
	p.viewport.GotoTop()
}

// SetComments appends the comment thread below the article. Results for an
// article no longer on display are dropped. The scroll position is kept.
func (p *ReaderPage) SetComments(articleID string, comments []blog.Comment, err error) {
	if p.article == nil || p.article.ID != articleID {
		return
	}
	if err != nil {
		logging.Get(logging.CategoryUI).Warn("comments for %s: %v", p.article.Slug, err)
	}
	p.comments = comments
	p.commentsErr = err
	p.commentsLoaded = true
	p.render()
}

// Comments returns the thread on display.
func (p *ReaderPage) Comments() []blog.Comment { return p.comments }

// SetError shows a load failure.
func (p *ReaderPage) SetError(err error) {
	p.err = err
	p.article = nil
	p.viewport.SetContent(p.styles.Error.Render(err.Error()))
}

// SetSize resizes the viewport immediately and re-renders once resizing
// settles.
func (p *ReaderPage) SetSize(width, height int) {
	p.width = width
	p.viewport.Width = width
	p.viewport.Height = max(1, height)
	if p.article != nil {
		p.debounce.Debounce(p.render)
	}
}

// SetStyles switches palettes and re-renders.
func (p *ReaderPage) SetStyles(s Styles) {
	p.styles = s
	if p.article != nil {
		p.render()
	}
}

// RenderedWidth is the wrap width of the current content.
func (p *ReaderPage) RenderedWidth() int { return p.rendered }

// Article returns the article on display.
func (p *ReaderPage) Article() *blog.Article { return p.article }

// Markdown builds the document for a: title, meta line, tags and body.
func Markdown(a *blog.Article) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", a.Title)

	meta := []string{blog.FormatDate(a.CreatedAt, blog.LayoutDate)}
	if a.Author.Name != "" {
		meta = append(meta, a.Author.Name)
	}
	if a.Category != nil && a.Category.Name != "" {
		meta = append(meta, a.Category.Name)
	}
	meta = append(meta, fmt.Sprintf("%d views", a.ViewCount))
	fmt.Fprintf(&sb, "*%s*\n\n", strings.Join(meta, " · "))

	if len(a.Tags) > 0 {
		tags := make([]string, len(a.Tags))
		for i, t := range a.Tags {
			tags[i] = "`#" + t.Name + "`"
		}
		sb.WriteString(strings.Join(tags, " ") + "\n\n")
	}

	body := blog.Markdown(a.Content)
	// sample bodies repeat the title as their first heading
	body = strings.TrimPrefix(strings.TrimSpace(body), "# "+a.Title)
	sb.WriteString(strings.TrimSpace(body))
	sb.WriteString("\n")
	return sb.String()
}

// CommentsMarkdown renders a comment thread; replies are quoted under their
// parent.
func CommentsMarkdown(comments []blog.Comment) string {
	var sb strings.Builder
	sb.WriteString("\n---\n\n")
	n := countComments(comments)
	if n == 0 {
		sb.WriteString("## Comments\n\nNo comments yet.\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "## Comments (%d)\n", n)
	for _, c := range comments {
		writeComment(&sb, c, "")
	}
	return sb.String()
}

func countComments(comments []blog.Comment) int {
	n := len(comments)
	for _, c := range comments {
		n += countComments(c.Replies)
	}
	return n
}

func writeComment(sb *strings.Builder, c blog.Comment, quote string) {
	name := c.Author.Name
	if name == "" {
		name = "anonymous"
	}
	fmt.Fprintf(sb, "%s\n%s**%s** · %s\n%s\n", quote, quote, name, blog.FormatDate(c.CreatedAt, blog.LayoutDate), quote)
	for _, line := range strings.Split(strings.TrimSpace(blog.Markdown(c.Content)), "\n") {
		sb.WriteString(strings.TrimRight(quote+line, " ") + "\n")
	}
	for _, r := range c.Replies {
		writeComment(sb, r, quote+"> ")
	}
}

func (p *ReaderPage) render() {
	if p.article == nil {
		return
	}
	width := NewLayoutConfig(p.width, 0).ReaderWidth(p.wrap)
	style := "light"
	if p.styles.Theme.IsDark {
		style = "dark"
	}
	md := Markdown(p.article)
	switch {
	case p.commentsErr != nil:
		md += "\n---\n\n*Comments unavailable.*\n"
	case p.commentsLoaded:
		md += CommentsMarkdown(p.comments)
	}
	out := md
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		out, err = r.Render(md)
	}
	if err != nil {
		logging.Get(logging.CategoryUI).Warn("markdown render failed: %v", err)
		out = md
	}
	p.rendered = width
	p.viewport.SetContent(strings.TrimRight(out, "\n"))
}

// Update scrolls the viewport.
func (p *ReaderPage) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return cmd
}

// View renders the body.
func (p *ReaderPage) View() string {
	return p.viewport.View()
}

// Title is the header text.
func (p *ReaderPage) Title() string {
	if p.article == nil {
		return p.slug
	}
	return blog.Truncate(p.article.Title, 60)
}

// Status is the footer position text.
func (p *ReaderPage) Status() string {
	status := fmt.Sprintf("%3.f%%", p.viewport.ScrollPercent()*100)
	if p.article != nil && p.origin.Offline() {
		status += " · offline (" + string(p.origin) + ")"
	}
	return status
}

// Help is the footer key help.
func (p *ReaderPage) Help() string {
	return helpLine(p.keys.Down, p.keys.Up, p.keys.Back, p.keys.ToggleTheme, p.keys.Quit)
}

// Close cancels a pending re-render.
func (p *ReaderPage) Close() {
	p.debounce.Cancel()
}
