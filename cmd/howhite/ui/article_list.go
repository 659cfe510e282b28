package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"howhite/internal/blog"
	"howhite/internal/feed"
	"howhite/internal/logging"
	"howhite/internal/observe"
	"howhite/internal/virtual"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// ListOptions configures the article list.
type ListOptions struct {
	ItemHeight     int
	Overscan       int
	ScrollingDelay time.Duration
	MouseWheel     bool
}

// ArticleListPage shows every article through a virtual scroll window: only
// the rows inside the window (plus overscan) are rendered each frame.
type ArticleListPage struct {
	styles  Styles
	keys    KeyMap
	opts    ListOptions
	scroll  *virtual.Scroll[blog.Article]
	vp      *observe.Viewport
	release func()
	nav     listNav
	cache   *RenderCache
	width   int
	origin  feed.Origin
	loaded  bool
	err     error
}

// NewArticleListPage creates the page. Timers for the scrolling indicator
// come from sched.
func NewArticleListPage(sched virtual.Scheduler, opts ListOptions, styles Styles) (*ArticleListPage, error) {
	scroll, err := virtual.NewScroll[blog.Article](nil, float64(opts.ItemHeight), sched,
		virtual.WithOverscan(opts.Overscan),
		virtual.WithScrollingDelay(opts.ScrollingDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("article list: %w", err)
	}
	vp := observe.NewViewport(0)
	p := &ArticleListPage{
		styles: styles,
		keys:   DefaultKeyMap(),
		opts:   opts,
		scroll: scroll,
		vp:     vp,
		nav:    listNav{vp: vp, rowHeight: opts.ItemHeight},
		cache:  NewRenderCache(512),
		width:  MinRowWidth,
	}
	p.release = scroll.Bind(vp)
	return p, nil
}

// SetArticles replaces the collection.
func (p *ArticleListPage) SetArticles(items []blog.Article, origin feed.Origin) {
	p.scroll.SetItems(items)
	p.vp.SetContentHeight(math.Max(p.scroll.TotalHeight(), 1))
	p.origin = origin
	p.loaded = true
	p.err = nil
	p.nav.clamp(len(items))
	logging.UIDebug("Article list holds %d articles (%s)", len(items), origin)
}

// SetError shows a load failure.
func (p *ArticleListPage) SetError(err error) {
	p.err = err
	p.loaded = true
}

// SetSize sets the body size in cells.
func (p *ArticleListPage) SetSize(width, height int) {
	p.width = max(MinRowWidth, width)
	p.vp.Resize(float64(max(0, height)))
	p.nav.ensureVisible()
}

// SetStyles switches palettes.
func (p *ArticleListPage) SetStyles(s Styles) {
	p.styles = s
}

// SetItemHeight changes the row height, e.g. after a config reload.
func (p *ArticleListPage) SetItemHeight(h int) error {
	if err := p.scroll.SetItemHeight(float64(h)); err != nil {
		return err
	}
	p.opts.ItemHeight = h
	p.nav.rowHeight = h
	p.vp.SetContentHeight(math.Max(p.scroll.TotalHeight(), 1))
	p.nav.ensureVisible()
	p.cache.Clear()
	return nil
}

// Selected returns the article under the cursor.
func (p *ArticleListPage) Selected() (blog.Article, bool) {
	w := p.scroll.Window()
	for _, vi := range w.Items {
		if vi.Index == p.nav.cursor {
			return vi.Item, true
		}
	}
	return blog.Article{}, false
}

// Cursor returns the selected index.
func (p *ArticleListPage) Cursor() int { return p.nav.cursor }

// Window exposes the current render window.
func (p *ArticleListPage) Window() virtual.Window[blog.Article] { return p.scroll.Window() }

// Viewport exposes the observed viewport.
func (p *ArticleListPage) Viewport() *observe.Viewport { return p.vp }

// IsScrolling reports whether a scroll burst is in progress.
func (p *ArticleListPage) IsScrolling() bool { return p.scroll.IsScrolling() }

func (p *ArticleListPage) count() int {
	return int(math.Round(p.scroll.TotalHeight() / p.scroll.ItemHeight()))
}

// Update handles navigation. It returns a command when the user opens an
// article or a tag.
func (p *ArticleListPage) Update(msg tea.Msg) tea.Cmd {
	n := p.count()
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.Down):
			p.nav.move(1, n)
		case key.Matches(msg, p.keys.Up):
			p.nav.move(-1, n)
		case key.Matches(msg, p.keys.PageDown):
			p.nav.page(1, n)
		case key.Matches(msg, p.keys.PageUp):
			p.nav.page(-1, n)
		case key.Matches(msg, p.keys.Home):
			p.nav.top()
		case key.Matches(msg, p.keys.End):
			p.nav.bottom(n)
		case key.Matches(msg, p.keys.Open):
			if a, ok := p.Selected(); ok {
				return openArticle(a.Slug)
			}
		case key.Matches(msg, p.keys.OpenTag):
			if a, ok := p.Selected(); ok && len(a.Tags) > 0 {
				return openTag(a.Tags[0].Slug)
			}
		}
	case tea.MouseMsg:
		if !p.opts.MouseWheel || msg.Action != tea.MouseActionPress {
			return nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelDown:
			p.nav.wheel(1, n)
		case tea.MouseButtonWheelUp:
			p.nav.wheel(-1, n)
		}
	}
	return nil
}

// View renders the visible body lines.
func (p *ArticleListPage) View() string {
	h := p.nav.height()
	switch {
	case !p.loaded:
		return strings.Join(sliceLines([]string{p.styles.Muted.Render("  Loading articles...")}, 0, h), "\n")
	case p.err != nil:
		return strings.Join(sliceLines([]string{p.styles.Error.Render("  " + p.err.Error())}, 0, h), "\n")
	}

	w := p.scroll.Window()
	if w.Empty() {
		return strings.Join(sliceLines([]string{p.styles.Muted.Render("  No articles yet.")}, 0, h), "\n")
	}

	rh := p.opts.ItemHeight
	lines := make([]string, 0, w.Len()*rh)
	for _, vi := range w.Items {
		selected := vi.Index == p.nav.cursor
		k := rowKey(vi.Item, p.width, rh, selected, p.styles.Theme.IsDark)
		row := p.cache.GetOrCompute(k, func() string {
			return strings.Join(articleRow(p.styles, vi.Item, p.width, rh, selected), "\n")
		})
		lines = append(lines, strings.Split(row, "\n")...)
	}
	from := p.nav.offset() - int(w.Items[0].OffsetTop)
	return strings.Join(sliceLines(lines, from, h), "\n")
}

// Status is the footer position text.
func (p *ArticleListPage) Status() string {
	w := p.scroll.Window()
	n := p.count()
	if n == 0 {
		return ""
	}
	first := p.nav.offset() / p.opts.ItemHeight
	last := min(n, (p.nav.offset()+p.nav.height()+p.opts.ItemHeight-1)/p.opts.ItemHeight)
	status := fmt.Sprintf("%d-%d of %d · rendering %d", first+1, last, n, w.Len())
	if p.scroll.IsScrolling() {
		status += " · scrolling"
	}
	if p.origin.Offline() {
		status += " · offline (" + string(p.origin) + ")"
	}
	return status
}

// Help is the footer key help.
func (p *ArticleListPage) Help() string {
	return helpLine(p.keys.Down, p.keys.Up, p.keys.Open, p.keys.OpenTag, p.keys.ToggleTheme, p.keys.Quit)
}

// Close releases the viewport binding and settle timer.
func (p *ArticleListPage) Close() {
	if p.release != nil {
		p.release()
	}
	p.scroll.Close()
}
