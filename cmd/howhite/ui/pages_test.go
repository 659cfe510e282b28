package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"howhite/internal/blog"
	"howhite/internal/feed"
	"howhite/internal/virtual/virtualtest"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeArticles(n int) []blog.Article {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]blog.Article, n)
	for i := range out {
		out[i] = blog.Article{
			ID:        fmt.Sprintf("a-%d", i),
			Title:     fmt.Sprintf("Article %03d", i),
			Slug:      fmt.Sprintf("article-%03d", i),
			Excerpt:   "Excerpt text",
			CreatedAt: base.Add(-time.Duration(i) * time.Hour),
			Author:    blog.User{Name: "ada"},
			Tags:      []blog.Tag{{ID: "tag-1", Name: "Go", Slug: "go"}},
		}
	}
	return out
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}

func newListPage(t *testing.T, sched *virtualtest.Scheduler) *ArticleListPage {
	t.Helper()
	p, err := NewArticleListPage(sched, ListOptions{
		ItemHeight:     3,
		Overscan:       2,
		ScrollingDelay: 100 * time.Millisecond,
		MouseWheel:     true,
	}, NewStyles(LightTheme()))
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func TestArticleListRendersOnlyTheWindow(t *testing.T) {
	p := newListPage(t, virtualtest.New())
	p.SetSize(60, 12)
	p.SetArticles(makeArticles(1000), feed.OriginAPI)

	w := p.Window()
	assert.Equal(t, 0, w.StartIndex)
	assert.Equal(t, 6, w.EndIndex) // 4 visible rows plus overscan 2
	assert.Equal(t, 7, w.Len())

	view := p.View()
	assert.Equal(t, 12, lineCount(view))
	assert.Contains(t, view, "Article 000")
	assert.Contains(t, view, "Article 003")
	assert.NotContains(t, view, "Article 010")
	assert.Equal(t, "1-4 of 1000 · rendering 7", p.Status())
}

func TestArticleListJumpToEndAndSettle(t *testing.T) {
	sched := virtualtest.New()
	p := newListPage(t, sched)
	p.SetSize(60, 12)
	p.SetArticles(makeArticles(1000), feed.OriginAPI)

	p.Update(keyRunes("G"))
	assert.Equal(t, 999, p.Cursor())
	assert.Equal(t, 2988.0, p.Viewport().Sample().ScrollOffset)

	w := p.Window()
	assert.Equal(t, 994, w.StartIndex)
	assert.Equal(t, 999, w.EndIndex)
	assert.True(t, p.IsScrolling())
	assert.Contains(t, p.Status(), "997-1000 of 1000")
	assert.Contains(t, p.Status(), "scrolling")
	assert.Contains(t, p.View(), "Article 999")

	sched.Advance(100 * time.Millisecond)
	assert.False(t, p.IsScrolling())
	assert.NotContains(t, p.Status(), "scrolling")

	cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, openArticleMsg{slug: "article-999"}, cmd())

	cmd = p.Update(keyRunes("#"))
	require.NotNil(t, cmd)
	assert.Equal(t, openTagMsg{slug: "go"}, cmd())
}

func TestArticleListCursorFollowsKeysAndWheel(t *testing.T) {
	p := newListPage(t, virtualtest.New())
	p.SetSize(60, 12)
	p.SetArticles(makeArticles(50), feed.OriginAPI)

	p.Update(keyRunes("j"))
	p.Update(keyRunes("j"))
	assert.Equal(t, 2, p.Cursor())
	p.Update(keyRunes("k"))
	assert.Equal(t, 1, p.Cursor())

	// moving past the fourth row scrolls just enough to show it
	for range 4 {
		p.Update(keyRunes("j"))
	}
	assert.Equal(t, 5, p.Cursor())
	assert.Equal(t, 6.0, p.Viewport().Sample().ScrollOffset)

	p.Update(keyRunes("g"))
	assert.Equal(t, 0, p.Cursor())
	assert.Equal(t, 0.0, p.Viewport().Sample().ScrollOffset)

	p.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	assert.Equal(t, 3.0, p.Viewport().Sample().ScrollOffset)
	assert.Equal(t, 1, p.Cursor(), "cursor is dragged into view")

	p.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 15.0, p.Viewport().Sample().ScrollOffset)
}

func TestArticleListStates(t *testing.T) {
	p := newListPage(t, virtualtest.New())
	p.SetSize(60, 6)
	assert.Contains(t, p.View(), "Loading articles")

	p.SetError(errors.New("backend down"))
	assert.Contains(t, p.View(), "backend down")

	p.SetArticles(nil, feed.OriginSample)
	assert.Contains(t, p.View(), "No articles yet.")
	assert.Empty(t, p.Status())
	assert.Nil(t, p.Update(tea.KeyMsg{Type: tea.KeyEnter}))

	p.SetArticles(makeArticles(3), feed.OriginCache)
	assert.Contains(t, p.Status(), "offline (cache)")
}

func TestArticleListItemHeightChange(t *testing.T) {
	p := newListPage(t, virtualtest.New())
	p.SetSize(60, 12)
	p.SetArticles(makeArticles(100), feed.OriginAPI)

	require.NoError(t, p.SetItemHeight(4))
	assert.Equal(t, 400.0, p.Window().TotalHeight)
	assert.Error(t, p.SetItemHeight(0))
	assert.Equal(t, 400.0, p.Window().TotalHeight)
}

func TestArticleListCachesRows(t *testing.T) {
	p := newListPage(t, virtualtest.New())
	p.SetSize(60, 12)
	p.SetArticles(makeArticles(20), feed.OriginAPI)

	first := p.View()
	_, misses := p.cache.Stats()
	second := p.View()
	hits, misses2 := p.cache.Stats()
	assert.Equal(t, first, second)
	assert.Equal(t, misses, misses2)
	assert.Equal(t, 7, hits)
}

func newTagPage(t *testing.T, sched *virtualtest.Scheduler) *TagPage {
	t.Helper()
	p := NewTagPage(sched, LoadingOptions{
		ItemHeight:   3,
		InitialItems: 5,
		Increment:    5,
		Threshold:    2,
		Latency:      200 * time.Millisecond,
		MouseWheel:   true,
	}, NewStyles(LightTheme()))
	t.Cleanup(p.Close)
	return p
}

func TestTagPageGrowsWhenSentinelNears(t *testing.T) {
	sched := virtualtest.New()
	p := newTagPage(t, sched)
	p.SetSize(60, 10)

	tag := blog.Tag{ID: "tag-1", Name: "Go", Slug: "go"}
	require.NoError(t, p.SetCollection(tag, makeArticles(12), feed.OriginAPI))
	assert.Equal(t, "showing 5 of 12", p.Status())
	assert.Equal(t, "#Go · 12 articles", p.Title())
	assert.False(t, p.Loader().IsLoading())
	assert.Equal(t, 15.0, p.Loader().Sentinel().Top())

	// scrolling to the bottom brings the sentinel within the margin
	p.Update(keyRunes("G"))
	require.True(t, p.Loader().IsLoading())
	assert.Contains(t, p.View(), "Loading more articles...")
	assert.NotNil(t, p.SpinnerCmd())
	assert.Nil(t, p.SpinnerCmd(), "spinner already ticking")

	sched.Advance(200 * time.Millisecond)
	assert.False(t, p.Loader().IsLoading())
	assert.Equal(t, "showing 10 of 12", p.Status())
	assert.Equal(t, 30.0, p.Loader().Sentinel().Top())
	assert.Equal(t, 21.0, p.Viewport().MaxOffset())
	assert.Zero(t, p.EndReachedCount())

	p.Update(keyRunes("G"))
	require.True(t, p.Loader().IsLoading())
	sched.Advance(200 * time.Millisecond)

	assert.Equal(t, "showing 12 of 12", p.Status())
	assert.False(t, p.Loader().HasMoreItems())
	assert.Equal(t, 1, p.EndReachedCount())

	p.Update(keyRunes("G"))
	view := p.View()
	assert.Contains(t, view, "Article 011")
	assert.Contains(t, view, "no more articles")
	assert.Equal(t, 10, lineCount(view))
	assert.Equal(t, 1, p.EndReachedCount(), "end fires once")
}

func TestTagPageLoadMoreKeyAndOpen(t *testing.T) {
	sched := virtualtest.New()
	p := newTagPage(t, sched)
	p.SetSize(60, 10)
	require.NoError(t, p.SetCollection(blog.Tag{Name: "Go", Slug: "go"}, makeArticles(30), feed.OriginCache))
	assert.Contains(t, p.Status(), "offline (cache)")

	p.Update(keyRunes("m"))
	assert.True(t, p.Loader().IsLoading())
	p.Update(keyRunes("m"))
	sched.Advance(200 * time.Millisecond)
	assert.Equal(t, 10, p.Loader().VisibleCount(), "one growth per load")

	p.Update(keyRunes("j"))
	cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, openArticleMsg{slug: "article-001"}, cmd())
}

func TestTagPageEmptyAndReplace(t *testing.T) {
	sched := virtualtest.New()
	p := newTagPage(t, sched)
	p.SetSize(60, 10)

	require.NoError(t, p.SetCollection(blog.Tag{Name: "Empty", Slug: "empty"}, nil, feed.OriginSample))
	assert.Equal(t, 1, p.EndReachedCount())
	assert.Contains(t, p.View(), "No articles with this tag yet.")

	require.NoError(t, p.SetCollection(blog.Tag{Name: "Go", Slug: "go"}, makeArticles(12), feed.OriginAPI))
	p.Update(keyRunes("m"))
	require.True(t, p.Loader().IsLoading())

	// a new tag drops the in-flight growth of the old one
	p.Reset("design")
	assert.Nil(t, p.Loader())
	assert.Contains(t, p.View(), "Loading tag design")
	assert.Zero(t, sched.Pending())
	_, scroll := p.Viewport().ListenerCount()
	assert.Zero(t, scroll)

	p.SetError("design", errors.New("not found"))
	assert.Contains(t, p.View(), "not found")
}

func TestTagPageRejectsBadOptions(t *testing.T) {
	p := NewTagPage(virtualtest.New(), LoadingOptions{ItemHeight: 3, InitialItems: 0, Increment: 5}, NewStyles(LightTheme()))
	defer p.Close()
	err := p.SetCollection(blog.Tag{Slug: "go"}, makeArticles(3), feed.OriginAPI)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tag page")
}

func TestReaderMarkdown(t *testing.T) {
	a := makeArticles(1)[0]
	a.Category = &blog.Category{Name: "Engineering"}
	a.ViewCount = 12
	a.Content = "<h1>Article 000</h1><p>Hello <strong>there</strong></p>"

	md := Markdown(&a)
	assert.True(t, strings.HasPrefix(md, "# Article 000\n"))
	assert.Equal(t, 1, strings.Count(md, "Article 000"), "duplicate heading stripped")
	assert.Contains(t, md, "2024-03-01 · ada · Engineering · 12 views")
	assert.Contains(t, md, "`#Go`")
	assert.Contains(t, md, "**there**")
}

func TestReaderComments(t *testing.T) {
	r := NewReaderPage(virtualtest.New(), 0, NewStyles(LightTheme()))
	defer r.Close()
	r.SetSize(80, 200)

	a := makeArticles(1)[0]
	a.Content = "Body."
	r.SetArticle(&a, feed.OriginSample)
	assert.NotContains(t, r.View(), "Comments")

	// a thread for some other article is dropped
	r.SetComments("other", blog.SampleComments(a), nil)
	assert.Nil(t, r.Comments())

	r.SetComments(a.ID, blog.SampleComments(a), nil)
	require.Len(t, r.Comments(), 2)
	view := r.View()
	assert.Contains(t, view, "Comments")
	assert.Contains(t, view, "reader")
	assert.Contains(t, view, "gopher")

	r.SetComments(a.ID, nil, errors.New("boom"))
	assert.Contains(t, r.View(), "unavailable")

	// a new article starts without comments
	b := makeArticles(2)[1]
	r.SetArticle(&b, feed.OriginSample)
	assert.Nil(t, r.Comments())
	assert.NotContains(t, r.View(), "unavailable")
}

func TestCommentsMarkdown(t *testing.T) {
	assert.Contains(t, CommentsMarkdown(nil), "No comments yet.")

	a := makeArticles(1)[0]
	md := CommentsMarkdown(blog.SampleComments(a))
	assert.Contains(t, md, "## Comments (3)\n")
	assert.Contains(t, md, "**reader**")
	assert.Contains(t, md, "> **Howhite**", "replies are quoted under their parent")

	anon := CommentsMarkdown([]blog.Comment{{Content: "hi"}})
	assert.Contains(t, anon, "**anonymous**")
}

func TestReaderResizeIsDebounced(t *testing.T) {
	sched := virtualtest.New()
	r := NewReaderPage(sched, 0, NewStyles(LightTheme()))
	defer r.Close()

	r.Reset("article-000")
	assert.Contains(t, r.View(), "Loading article-000")

	a := makeArticles(1)[0]
	a.Content = "Some body text."
	r.SetArticle(&a, feed.OriginSample)
	assert.Equal(t, 76, r.RenderedWidth())
	assert.Contains(t, r.Status(), "offline (sample)")

	r.SetSize(100, 20)
	r.SetSize(120, 20)
	assert.Equal(t, 76, r.RenderedWidth())
	sched.Advance(DefaultResizeDuration)
	assert.Equal(t, 116, r.RenderedWidth())
	assert.Contains(t, r.View(), "body")

	r.SetError(errors.New("gone"))
	assert.Nil(t, r.Article())
	assert.Contains(t, r.View(), "gone")
}
