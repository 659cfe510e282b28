package blog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "hel...", Truncate("hello", 3))
	assert.Equal(t, "示例...", Truncate("示例文章标题", 2), "truncation counts runes, not bytes")
	assert.Equal(t, "...", Truncate("abc", -1))
}

func TestExcerpt(t *testing.T) {
	a := Article{Content: "<p>Hello <b>world</b></p><script>alert(1)</script><p>again</p>"}
	assert.Equal(t, "Hello world again", Excerpt(a, 200))
	assert.Equal(t, "Hello...", Excerpt(a, 5))

	a.Excerpt = "  Custom\nexcerpt  "
	assert.Equal(t, "Custom excerpt", Excerpt(a, 200))

	assert.Empty(t, Excerpt(Article{}, 10))
}

func TestMarkdown(t *testing.T) {
	md := Markdown(`<h2>Title</h2><p>Some <strong>bold</strong> and <a href="https://x.dev">a link</a>.</p><pre><code>x := 1
y := 2</code></pre><ul><li>one</li><li>two</li></ul>`)

	assert.Contains(t, md, "## Title")
	assert.Contains(t, md, "**bold**")
	assert.Contains(t, md, "[a link](https://x.dev)")
	assert.Contains(t, md, "```\nx := 1\ny := 2\n```")
	assert.Contains(t, md, "- one")
	assert.NotContains(t, md, "\n\n\n")

	plain := "# Already markdown\n\ntext"
	assert.Equal(t, plain, Markdown(plain))
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)
	assert.Equal(t, "2024-03-05 07:08:09", FormatDate(ts, ""))
	assert.Equal(t, "2024-03-05", FormatDate(ts, LayoutDate))
	assert.Equal(t, "03-05", FormatDate(ts, LayoutMonthDay))
	assert.Empty(t, FormatDate(time.Time{}, LayoutDate))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "0 seconds ago"},
		{time.Second, "1 second ago"},
		{90 * time.Second, "1 minute ago"},
		{5 * time.Hour, "5 hours ago"},
		{3 * 24 * time.Hour, "3 days ago"},
		{65 * 24 * time.Hour, "2 months ago"},
		{800 * 24 * time.Hour, "2 years ago"},
		{-time.Hour, "0 seconds ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RelativeTime(now.Add(-tt.ago), now), tt.ago.String())
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", Slugify("  Hello World  "))
	assert.Equal(t, "go-is-fun", Slugify("Go -- is fun!"))
	assert.Equal(t, "a_b", Slugify("a_b"))
	assert.Equal(t, "", Slugify("示例"))
}

func TestTagColor(t *testing.T) {
	assert.Equal(t, "#10b981", TagColor(Tag{Color: "#10b981"}))
	assert.Equal(t, "#10b981", TagColor(Tag{Color: "10b981"}))
	assert.Equal(t, DefaultTagColor, TagColor(Tag{}))
	assert.Equal(t, DefaultTagColor, TagColor(Tag{Color: "red"}))
}

func TestFilterByTag(t *testing.T) {
	articles := SampleArticles(time.Now())
	goArticles := FilterByTag(articles, "tag-1")
	require.NotEmpty(t, goArticles)
	for _, a := range goArticles {
		assert.True(t, a.HasTag("tag-1"))
	}
	assert.Empty(t, FilterByTag(articles, "missing"))
}

func TestSearchAndCategoryFilter(t *testing.T) {
	articles := SampleArticles(time.Now())

	hits := Search(articles, "  SENTINELS   loading ")
	require.Len(t, hits, 1)
	assert.Equal(t, "sentinels-margins-and-the-art-of-loading-early", hits[0].Slug)

	// tag names and body text count too
	assert.Len(t, Search(articles, "terminal"), len(Search(articles, "Terminal")))
	assert.NotEmpty(t, Search(articles, "sample article"))
	assert.Empty(t, Search(articles, "   "))
	assert.Empty(t, Search(articles, "sentinels nonsense"))

	eng := FilterByCategory(articles, "cat-1")
	require.NotEmpty(t, eng)
	for _, a := range eng {
		assert.Equal(t, "engineering", a.Category.Slug)
	}
	assert.Empty(t, FilterByCategory([]Article{{ID: "x"}}, "cat-1"))
}

func TestSampleComments(t *testing.T) {
	a := SampleArticles(time.Now())[2]
	assert.True(t, IsSample(a))
	assert.False(t, IsSample(Article{ID: "remote-sample-1"}))
	comments := SampleComments(a)
	require.Len(t, comments, 2)
	for _, c := range comments {
		assert.Equal(t, a.Slug, c.Article.Slug)
		assert.Equal(t, CommentApproved, c.Status)
		assert.True(t, c.CreatedAt.After(a.CreatedAt))
	}
	require.Len(t, comments[0].Replies, 1)
	assert.Equal(t, comments[0].ID, comments[0].Replies[0].ParentID)

	cat, ok := SampleCategory("notes")
	require.True(t, ok)
	assert.Equal(t, "cat-2", cat.ID)
	_, ok = SampleCategory("nope")
	assert.False(t, ok)
}

func TestSampleData(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	articles := SampleArticles(now)
	require.Len(t, articles, 24)

	seen := map[string]bool{}
	for i, a := range articles {
		assert.False(t, seen[a.Slug], "duplicate slug %s", a.Slug)
		seen[a.Slug] = true
		assert.True(t, strings.HasPrefix(a.Content, "# "+a.Title))
		if i > 0 {
			assert.True(t, a.CreatedAt.Before(articles[i-1].CreatedAt), "newest first")
		}
	}

	total := 0
	for _, tag := range SampleTags() {
		assert.Equal(t, len(FilterByTag(articles, tag.ID)), tag.ArticleCount)
		total += tag.ArticleCount
	}
	assert.Greater(t, total, len(articles))

	tag, ok := SampleTag("terminal")
	require.True(t, ok)
	assert.Equal(t, "tag-2", tag.ID)
	_, ok = SampleTag("nope")
	assert.False(t, ok)

	sum := 0
	for _, c := range SampleCategories() {
		sum += c.ArticleCount
	}
	assert.Equal(t, len(articles), sum)
}

func TestPaginationDefaults(t *testing.T) {
	p := PaginationParams{PageSize: 50}.WithDefaults()
	assert.Equal(t, PaginationParams{Page: 1, PageSize: 50, SortField: "createdAt", SortOrder: SortDesc}, p)
}
