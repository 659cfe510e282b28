package ui

import (
	"fmt"
	"strings"
	"time"

	"howhite/internal/blog"
	"howhite/internal/feed"
	"howhite/internal/logging"
	"howhite/internal/observe"
	"howhite/internal/virtual"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// LoadingOptions configures the tag page's incremental growth.
type LoadingOptions struct {
	ItemHeight   int
	InitialItems int
	Increment    int
	Threshold    int // trailing margin in lines
	Latency      time.Duration
	MouseWheel   bool
}

// TagPage lists the articles of one tag and reveals them a few at a time as
// the sentinel after the last row nears the bottom of the viewport.
type TagPage struct {
	styles    Styles
	keys      KeyMap
	opts      LoadingOptions
	sched     virtual.Scheduler
	vp        *observe.Viewport
	container *observe.Container
	nav       listNav
	spinner   spinner.Model
	ticking   bool
	width     int

	loader  *virtual.Loader[blog.Article]
	release func()
	unsub   func()

	tag      blog.Tag
	origin   feed.Origin
	loaded   bool
	err      error
	endCount int
}

// NewTagPage creates an empty tag page.
func NewTagPage(sched virtual.Scheduler, opts LoadingOptions, styles Styles) *TagPage {
	vp := observe.NewViewport(0)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner
	return &TagPage{
		styles:    styles,
		keys:      DefaultKeyMap(),
		opts:      opts,
		sched:     sched,
		vp:        vp,
		container: observe.NewContainer(vp),
		nav:       listNav{vp: vp, rowHeight: opts.ItemHeight},
		spinner:   sp,
		width:     MinRowWidth,
	}
}

// SetCollection shows a tag's articles, replacing any previous tag.
func (p *TagPage) SetCollection(tag blog.Tag, items []blog.Article, origin feed.Origin) error {
	p.teardown()

	loader, err := virtual.NewLoader(items, p.sched,
		virtual.WithInitialItems(p.opts.InitialItems),
		virtual.WithIncrement(p.opts.Increment),
		virtual.WithThreshold(float64(p.opts.Threshold)),
		virtual.WithLatency(p.opts.Latency),
		virtual.WithOnEndReached(func() {
			p.endCount++
			logging.UIDebug("Tag %s: all %d articles shown", tag.Slug, len(items))
		}),
	)
	if err != nil {
		return fmt.Errorf("tag page: %w", err)
	}
	p.loader = loader
	p.tag = tag
	p.origin = origin
	p.loaded = true
	p.err = nil
	p.nav.cursor = 0
	p.vp.ScrollTo(0)

	p.unsub = loader.OnChange(p.sync)
	p.syncExtent()
	p.release = loader.Mount(p.container, p.sentinelTop())
	return nil
}

// SetError shows a load failure.
func (p *TagPage) SetError(tag string, err error) {
	p.teardown()
	p.tag = blog.Tag{Name: tag, Slug: tag}
	p.err = err
	p.loaded = true
}

// Reset shows the loading state for a new tag.
func (p *TagPage) Reset(slug string) {
	p.teardown()
	p.tag = blog.Tag{Name: slug, Slug: slug}
	p.loaded = false
	p.err = nil
}

func (p *TagPage) sentinelTop() float64 {
	return float64(p.loader.VisibleCount() * p.opts.ItemHeight)
}

func (p *TagPage) syncExtent() {
	n := p.loader.VisibleCount()
	p.vp.SetContentHeight(float64(n*p.opts.ItemHeight + StatusHeight))
	p.nav.clamp(n)
}

// sync runs after every loader transition: grow the scrollable extent, then
// move the sentinel below the new last row.
func (p *TagPage) sync() {
	if p.loader == nil {
		return
	}
	p.syncExtent()
	p.loader.PlaceSentinel(p.sentinelTop())
}

// SetSize sets the body size in cells.
func (p *TagPage) SetSize(width, height int) {
	p.width = max(MinRowWidth, width)
	p.vp.Resize(float64(max(0, height)))
	p.nav.ensureVisible()
}

// SetStyles switches palettes.
func (p *TagPage) SetStyles(s Styles) {
	p.styles = s
	p.spinner.Style = s.Spinner
}

// Tag returns the tag on display.
func (p *TagPage) Tag() blog.Tag { return p.tag }

// Loader exposes the incremental loader, nil before a collection is set.
func (p *TagPage) Loader() *virtual.Loader[blog.Article] { return p.loader }

// Viewport exposes the observed viewport.
func (p *TagPage) Viewport() *observe.Viewport { return p.vp }

// EndReachedCount reports how many times the collection became exhausted.
func (p *TagPage) EndReachedCount() int { return p.endCount }

func (p *TagPage) visible() []blog.Article {
	if p.loader == nil {
		return nil
	}
	return p.loader.VisibleItems()
}

// Update handles navigation and spinner ticks.
func (p *TagPage) Update(msg tea.Msg) tea.Cmd {
	n := len(p.visible())
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if p.loader != nil && p.loader.IsLoading() {
			var cmd tea.Cmd
			p.spinner, cmd = p.spinner.Update(msg)
			return cmd
		}
		p.ticking = false
		return nil
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
		case key.Matches(msg, p.keys.LoadMore):
			if p.loader != nil {
				p.loader.LoadMore()
			}
		case key.Matches(msg, p.keys.Open):
			if items := p.visible(); p.nav.cursor < len(items) {
				return openArticle(items[p.nav.cursor].Slug)
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

// SpinnerCmd starts the spinner when a load is running and it is idle.
func (p *TagPage) SpinnerCmd() tea.Cmd {
	if p.ticking || p.loader == nil || !p.loader.IsLoading() {
		return nil
	}
	p.ticking = true
	return p.spinner.Tick
}

// View renders the visible body lines: the windowed rows, then the status
// line where the sentinel sits.
func (p *TagPage) View() string {
	h := p.nav.height()
	switch {
	case !p.loaded:
		return strings.Join(sliceLines([]string{p.styles.Muted.Render("  Loading tag " + p.tag.Slug + "...")}, 0, h), "\n")
	case p.err != nil:
		return strings.Join(sliceLines([]string{p.styles.Error.Render("  " + p.err.Error())}, 0, h), "\n")
	}

	items := p.visible()
	rh := p.opts.ItemHeight
	off := p.nav.offset()
	w := virtual.ComputeWindow(items, float64(rh), 1, float64(off), float64(h))

	var lines []string
	base := 0
	if !w.Empty() {
		base = w.StartIndex * rh
		for _, vi := range w.Items {
			lines = append(lines, articleRow(p.styles, vi.Item, p.width, rh, vi.Index == p.nav.cursor)...)
		}
	}
	if w.Empty() || w.EndIndex == len(items)-1 {
		lines = append(lines, p.statusLine())
	}
	return strings.Join(sliceLines(lines, off-base, h), "\n")
}

func (p *TagPage) statusLine() string {
	switch {
	case p.loader.Len() == 0:
		return p.styles.Muted.Render("  No articles with this tag yet.")
	case p.loader.IsLoading():
		return "  " + p.spinner.View() + p.styles.Muted.Render(" Loading more articles...")
	case !p.loader.HasMoreItems():
		return p.styles.Subtitle.Render("  · no more articles ·")
	default:
		return ""
	}
}

// Title is the header text.
func (p *TagPage) Title() string {
	if p.loader == nil {
		return "#" + p.tag.Name
	}
	return fmt.Sprintf("#%s · %d articles", p.tag.Name, p.loader.Len())
}

// Status is the footer position text.
func (p *TagPage) Status() string {
	if p.loader == nil {
		return ""
	}
	status := fmt.Sprintf("showing %d of %d", p.loader.VisibleCount(), p.loader.Len())
	if p.origin.Offline() {
		status += " · offline (" + string(p.origin) + ")"
	}
	return status
}

// Help is the footer key help.
func (p *TagPage) Help() string {
	return helpLine(p.keys.Down, p.keys.Up, p.keys.Open, p.keys.LoadMore, p.keys.Back, p.keys.Quit)
}

func (p *TagPage) teardown() {
	if p.unsub != nil {
		p.unsub()
		p.unsub = nil
	}
	if p.release != nil {
		p.release()
		p.release = nil
	}
	if p.loader != nil {
		p.loader.Close()
		p.loader = nil
	}
	p.endCount = 0
	p.ticking = false
}

// Close releases the sentinel and cancels any pending growth.
func (p *TagPage) Close() {
	p.teardown()
}
