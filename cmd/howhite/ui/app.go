package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"howhite/internal/blog"
	"howhite/internal/config"
	"howhite/internal/feed"
	"howhite/internal/logging"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Page identifies a screen.
type Page int

const (
	PageList Page = iota
	PageTag
	PageReader
)

// Messages flowing through Update.
type (
	articlesLoadedMsg struct {
		res feed.Articles
		err error
	}
	tagLoadedMsg struct {
		slug string
		res  feed.TagArticles
		err  error
	}
	articleLoadedMsg struct {
		slug   string
		a      *blog.Article
		origin feed.Origin
		err    error
	}
	commentsLoadedMsg struct {
		articleID string
		comments  []blog.Comment
		err       error
	}
	openArticleMsg struct{ slug string }
	openTagMsg     struct{ slug string }

	// ConfigReloadedMsg delivers a config the watcher re-read from disk.
	ConfigReloadedMsg struct{ Config *config.Config }
)

func openArticle(slug string) tea.Cmd {
	return func() tea.Msg { return openArticleMsg{slug: slug} }
}

func openTag(slug string) tea.Cmd {
	return func() tea.Msg { return openTagMsg{slug: slug} }
}

// Options configures the App.
type Options struct {
	Source    *feed.Source
	Scheduler *ProgramScheduler
	Config    *config.Config
	StartPage Page
	TagSlug   string // initial tag for PageTag
	Slug      string // initial article for PageReader
	Timeout   time.Duration
}

// App is the root model. It owns the three pages and routes messages to the
// active one.
type App struct {
	source  *feed.Source
	sched   *ProgramScheduler
	keys    KeyMap
	styles  Styles
	timeout time.Duration

	page    Page
	history []Page
	start   Options
	layout  LayoutConfig

	list   *ArticleListPage
	tag    *TagPage
	reader *ReaderPage
}

// NewApp builds the model from config.
func NewApp(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewProgramScheduler()
	}
	if opts.Source == nil {
		opts.Source = feed.NewSource(nil)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = cfg.GetAPITimeout()
	}
	styles := NewStyles(ThemeFor(cfg.UI.Theme))

	list, err := NewArticleListPage(opts.Scheduler, ListOptions{
		ItemHeight:     cfg.List.ItemHeight,
		Overscan:       cfg.List.Overscan,
		ScrollingDelay: cfg.GetScrollingDelay(),
		MouseWheel:     cfg.UI.MouseWheel,
	}, styles)
	if err != nil {
		return nil, err
	}
	tag := NewTagPage(opts.Scheduler, LoadingOptions{
		ItemHeight:   cfg.List.ItemHeight,
		InitialItems: cfg.Loading.InitialItems,
		Increment:    cfg.Loading.Increment,
		Threshold:    cfg.Loading.Threshold,
		Latency:      cfg.GetLoadingLatency(),
		MouseWheel:   cfg.UI.MouseWheel,
	}, styles)

	a := &App{
		source:  opts.Source,
		sched:   opts.Scheduler,
		keys:    DefaultKeyMap(),
		styles:  styles,
		timeout: opts.Timeout,
		page:    PageList,
		start:   opts,
		layout:  NewLayoutConfig(80, 24),
		list:    list,
		tag:     tag,
		reader:  NewReaderPage(opts.Scheduler, cfg.UI.WordWrap, styles),
	}
	return a, nil
}

// Init starts the scheduler listener and the first loads.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.sched.Listen(), a.loadArticles()}
	switch a.start.StartPage {
	case PageTag:
		cmds = append(cmds, openTag(a.start.TagSlug))
	case PageReader:
		cmds = append(cmds, openArticle(a.start.Slug))
	}
	return tea.Batch(cmds...)
}

func (a *App) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.timeout)
}

func (a *App) loadArticles() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		res, err := a.source.Articles(ctx)
		return articlesLoadedMsg{res: res, err: err}
	}
}

func (a *App) loadTag(slug string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		res, err := a.source.TagArticles(ctx, slug)
		return tagLoadedMsg{slug: slug, res: res, err: err}
	}
}

func (a *App) loadArticle(slug string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		art, origin, err := a.source.Article(ctx, slug)
		return articleLoadedMsg{slug: slug, a: art, origin: origin, err: err}
	}
}

func (a *App) loadComments(art blog.Article) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := a.ctx()
		defer cancel()
		comments, _, err := a.source.Comments(ctx, art)
		return commentsLoadedMsg{articleID: art.ID, comments: comments, err: err}
	}
}

// Page returns the active page.
func (a *App) Page() Page { return a.page }

// Styles returns the active styles.
func (a *App) Styles() Styles { return a.styles }

// List, TagPage and Reader expose the pages.
func (a *App) List() *ArticleListPage { return a.list }
func (a *App) TagPage() *TagPage      { return a.tag }
func (a *App) Reader() *ReaderPage    { return a.reader }

func (a *App) navigate(p Page) {
	if p != a.page {
		a.history = append(a.history, a.page)
		a.page = p
	}
}

func (a *App) back() {
	if len(a.history) == 0 {
		a.page = PageList
		return
	}
	a.page = a.history[len(a.history)-1]
	a.history = a.history[:len(a.history)-1]
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case timerFiredMsg:
		a.sched.Run(msg)
		cmds = append(cmds, a.sched.Listen())

	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			a.Close()
			return a, tea.Quit
		case key.Matches(msg, a.keys.ToggleTheme):
			a.setStyles(a.styles.Toggle())
		case key.Matches(msg, a.keys.Back) && a.page != PageList:
			a.back()
		case key.Matches(msg, a.keys.Refresh) && a.page == PageList:
			cmds = append(cmds, a.loadArticles())
		default:
			cmds = append(cmds, a.active(msg))
		}

	case tea.MouseMsg:
		cmds = append(cmds, a.active(msg))

	case articlesLoadedMsg:
		if msg.err != nil {
			a.list.SetError(msg.err)
		} else {
			a.list.SetArticles(msg.res.Items, msg.res.Origin)
		}

	case openTagMsg:
		a.tag.Reset(msg.slug)
		a.navigate(PageTag)
		cmds = append(cmds, a.loadTag(msg.slug))

	case tagLoadedMsg:
		if msg.slug != a.tag.Tag().Slug {
			break
		}
		if msg.err != nil {
			a.tag.SetError(msg.slug, msg.err)
		} else if err := a.tag.SetCollection(msg.res.Tag, msg.res.Items, msg.res.Origin); err != nil {
			a.tag.SetError(msg.slug, err)
		}

	case openArticleMsg:
		a.reader.Reset(msg.slug)
		a.navigate(PageReader)
		cmds = append(cmds, a.loadArticle(msg.slug))

	case articleLoadedMsg:
		if msg.err != nil {
			a.reader.SetError(msg.err)
		} else {
			a.reader.SetArticle(msg.a, msg.origin)
			cmds = append(cmds, a.loadComments(*msg.a))
		}

	case commentsLoadedMsg:
		a.reader.SetComments(msg.articleID, msg.comments, msg.err)

	case ConfigReloadedMsg:
		a.applyConfig(msg.Config)

	default:
		// spinner ticks and anything else the pages understand
		cmds = append(cmds, a.tag.Update(msg))
	}

	cmds = append(cmds, a.tag.SpinnerCmd())
	return a, tea.Batch(cmds...)
}

func (a *App) active(msg tea.Msg) tea.Cmd {
	switch a.page {
	case PageTag:
		return a.tag.Update(msg)
	case PageReader:
		return a.reader.Update(msg)
	default:
		return a.list.Update(msg)
	}
}

func (a *App) resize(width, height int) {
	a.layout = NewLayoutConfig(width, height)
	body := a.layout.BodyHeight()
	a.list.SetSize(a.layout.RowWidth(), body)
	a.tag.SetSize(a.layout.RowWidth(), body)
	a.reader.SetSize(width, body)
}

func (a *App) setStyles(s Styles) {
	a.styles = s
	a.list.SetStyles(s)
	a.tag.SetStyles(s)
	a.reader.SetStyles(s)
}

func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	logging.UI("Applying reloaded config")
	if next := ThemeFor(cfg.UI.Theme); next.IsDark != a.styles.Theme.IsDark {
		a.setStyles(NewStyles(next))
	}
	if err := a.list.SetItemHeight(cfg.List.ItemHeight); err != nil {
		logging.Get(logging.CategoryUI).Warn("ignoring list.item_height: %v", err)
	}
}

// View implements tea.Model.
func (a *App) View() string {
	var title, status, help, body string
	switch a.page {
	case PageTag:
		title, status, help, body = a.tag.Title(), a.tag.Status(), a.tag.Help(), a.tag.View()
	case PageReader:
		title, status, help, body = a.reader.Title(), a.reader.Status(), a.reader.Help(), a.reader.View()
	default:
		title, status, help, body = "Howhite · Articles", a.list.Status(), a.list.Help(), a.list.View()
	}

	width := a.layout.TerminalWidth
	var sb strings.Builder
	sb.WriteString(a.styles.Header.Render(fit(title, max(1, width-2))))
	sb.WriteString("\n")
	sb.WriteString(a.styles.RenderDivider(width))
	sb.WriteString("\n")
	sb.WriteString(body)
	sb.WriteString("\n")
	sb.WriteString(a.styles.RenderDivider(width))
	sb.WriteString("\n")
	footer := help
	if status != "" {
		footer = fmt.Sprintf("%s  │  %s", status, help)
	}
	sb.WriteString(a.styles.Footer.Render(fit(footer, max(1, width-2))))
	return sb.String()
}

// Close tears down every page. Safe to call more than once.
func (a *App) Close() {
	a.list.Close()
	a.tag.Close()
	a.reader.Close()
	a.sched.Close()
}
