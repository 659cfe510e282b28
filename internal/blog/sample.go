package blog

import (
	"fmt"
	"strings"
	"time"
)

// Sample data is shown when the backend is unreachable and the cache is
// empty. It is large enough to exercise the virtual list and the tag page.

var sampleTags = []Tag{
	{ID: "tag-1", Name: "Go", Slug: "go", Color: "#3b82f6"},
	{ID: "tag-2", Name: "Terminal", Slug: "terminal", Color: "#10b981"},
	{ID: "tag-3", Name: "Performance", Slug: "performance", Color: "#f59e0b"},
	{ID: "tag-4", Name: "Design", Slug: "design", Color: "#ef4444"},
}

var sampleCategories = []Category{
	{ID: "cat-1", Name: "Engineering", Slug: "engineering"},
	{ID: "cat-2", Name: "Notes", Slug: "notes"},
	{ID: "cat-3", Name: "Projects", Slug: "projects"},
}

var sampleTitles = []string{
	"Rendering ten thousand rows without breaking a sweat",
	"Debouncing scroll events the boring way",
	"What overscan buys you",
	"Sentinels, margins and the art of loading early",
	"A tour of the article cache",
	"Keeping the event loop single threaded",
	"Measuring viewport height in a terminal",
	"Why the list page never blocks",
	"Colour palettes for light and dark terminals",
	"Markdown in the terminal with glamour",
	"Paging versus slicing: a decision record",
	"Teardown-safe timers",
	"Reading the blog offline",
	"Tag badges and contrast",
	"Config hot reload with fsnotify",
	"Structured logs you can grep",
	"The home feed, fetched in parallel",
	"Testing timers without sleeping",
	"SQLite in WAL mode for a tiny cache",
	"Keyboard shortcuts worth remembering",
	"From HTML to markdown in forty lines",
	"Request ids for every API call",
	"A small scheduler interface",
	"Closing thoughts on windowing",
}

// SampleAuthor is the author of every sample article.
var SampleAuthor = User{ID: "author-1", Name: "Howhite", Role: RoleAuthor, IsActive: true}

// SampleArticles returns the built-in articles, newest first, dated relative
// to now.
func SampleArticles(now time.Time) []Article {
	out := make([]Article, 0, len(sampleTitles))
	for i, title := range sampleTitles {
		created := now.Add(-time.Duration(i*26+3) * time.Hour)
		published := created
		tags := []Tag{sampleTags[i%len(sampleTags)]}
		if i%3 == 0 {
			tags = append(tags, sampleTags[(i+1)%len(sampleTags)])
		}
		cat := sampleCategories[i%len(sampleCategories)]
		out = append(out, Article{
			ID:          fmt.Sprintf("sample-%d", i+1),
			Title:       title,
			Slug:        Slugify(title),
			Content:     sampleBody(title, tags),
			Status:      StatusPublished,
			Author:      SampleAuthor,
			Category:    &cat,
			Tags:        tags,
			ViewCount:   (len(sampleTitles) - i) * 37,
			LikeCount:   (len(sampleTitles) - i) * 3,
			PublishedAt: &published,
			CreatedAt:   created,
			UpdatedAt:   created,
		})
	}
	return out
}

func sampleBody(title string, tags []Tag) string {
	return fmt.Sprintf(`# %s

This is a sample article shown while the blog backend is unavailable.
It is tagged **%s** and exists so the list and tag pages have something
to scroll through.

## Notes

- Every row in the list is rendered only while it is in the window.
- The tag page grows five articles at a time.

`+"```go\nfmt.Println(%q)\n```\n", title, tags[0].Name, title)
}

// SampleTags returns the built-in tags with article counts filled in.
func SampleTags() []Tag {
	counts := map[string]int{}
	for _, a := range SampleArticles(time.Time{}) {
		for _, t := range a.Tags {
			counts[t.ID]++
		}
	}
	out := make([]Tag, len(sampleTags))
	for i, t := range sampleTags {
		t.ArticleCount = counts[t.ID]
		out[i] = t
	}
	return out
}

// SampleCategories returns the built-in categories.
func SampleCategories() []Category {
	out := make([]Category, len(sampleCategories))
	copy(out, sampleCategories)
	for i := range out {
		out[i].ArticleCount = (len(sampleTitles) + len(sampleCategories) - 1 - i) / len(sampleCategories)
	}
	return out
}

// SampleTag looks a sample tag up by slug.
func SampleTag(slug string) (Tag, bool) {
	for _, t := range SampleTags() {
		if t.Slug == slug {
			return t, true
		}
	}
	return Tag{}, false
}

// IsSample reports whether a is one of the built-in articles.
func IsSample(a Article) bool { return strings.HasPrefix(a.ID, "sample-") }

// SampleCategory looks a sample category up by slug.
func SampleCategory(slug string) (Category, bool) {
	for _, c := range SampleCategories() {
		if c.Slug == slug {
			return c, true
		}
	}
	return Category{}, false
}

// SampleComments returns a short approved thread for a, dated after the
// article was created.
func SampleComments(a Article) []Comment {
	ref := ArticleRef{ID: a.ID, Title: a.Title, Slug: a.Slug}
	at := func(h int) time.Time { return a.CreatedAt.Add(time.Duration(h) * time.Hour) }
	reply := Comment{
		ID:        a.ID + "-c2",
		Content:   "Glad it helped. The tag page uses the same trick.",
		Author:    CommentAuthor{Name: SampleAuthor.Name},
		Article:   ref,
		Status:    CommentApproved,
		ParentID:  a.ID + "-c1",
		CreatedAt: at(3),
		UpdatedAt: at(3),
	}
	return []Comment{
		{
			ID:        a.ID + "-c1",
			Content:   "Clear write-up, thanks. Bookmarked for the next refactor.",
			Author:    CommentAuthor{Name: "reader"},
			Article:   ref,
			Status:    CommentApproved,
			Replies:   []Comment{reply},
			CreatedAt: at(1),
			UpdatedAt: at(1),
		},
		{
			ID:        a.ID + "-c3",
			Content:   "Would love a follow-up with benchmarks.",
			Author:    CommentAuthor{Name: "gopher"},
			Article:   ref,
			Status:    CommentApproved,
			CreatedAt: at(5),
			UpdatedAt: at(5),
		},
	}
}
