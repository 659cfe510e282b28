package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"howhite/internal/blog"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func slugs(articles []blog.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Slug
	}
	return out
}

func TestOpenMigratesSchema(t *testing.T) {
	c := openTestCache(t)

	v, err := SchemaVersion(c.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)

	// reopening an up-to-date file is a no-op
	require.NoError(t, c.Close())
	again, err := Open(c.Path())
	require.NoError(t, err)
	defer again.Close()
	v, err = SchemaVersion(again.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v)
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestArticlesRoundTripNewestFirst(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	articles := blog.SampleArticles(now)

	// insert in reverse to prove ordering comes from created_at
	reversed := make([]blog.Article, len(articles))
	for i, a := range articles {
		reversed[len(articles)-1-i] = a
	}
	require.NoError(t, c.PutArticles(ctx, reversed))

	got, err := c.Articles(ctx, 0)
	require.NoError(t, err)
	if diff := cmp.Diff(slugs(articles), slugs(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, got[0].CreatedAt.Equal(articles[0].CreatedAt))
	assert.Equal(t, articles[0].Tags, got[0].Tags)

	first5, err := c.Articles(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, slugs(articles[:5]), slugs(first5))
}

func TestArticlesByTagAndSlug(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	articles := blog.SampleArticles(time.Now())
	require.NoError(t, c.PutArticles(ctx, articles))

	got, err := c.ArticlesByTag(ctx, "tag-2")
	require.NoError(t, err)
	assert.Equal(t, slugs(blog.FilterByTag(articles, "tag-2")), slugs(got))

	a, err := c.ArticleBySlug(ctx, articles[3].Slug)
	require.NoError(t, err)
	assert.Equal(t, articles[3].Title, a.Title)

	_, err = c.ArticleBySlug(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReplacingArticleRelinksTags(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	a := blog.Article{ID: "a1", Slug: "one", Title: "One", Tags: []blog.Tag{{ID: "go"}, {ID: "tui"}}}
	require.NoError(t, c.PutArticles(ctx, []blog.Article{a}))

	a.Tags = []blog.Tag{{ID: "tui"}}
	a.Title = "One, revised"
	require.NoError(t, c.PutArticles(ctx, []blog.Article{a}))

	byGo, err := c.ArticlesByTag(ctx, "go")
	require.NoError(t, err)
	assert.Empty(t, byGo)

	byTUI, err := c.ArticlesByTag(ctx, "tui")
	require.NoError(t, err)
	require.Len(t, byTUI, 1)
	assert.Equal(t, "One, revised", byTUI[0].Title)
}

func TestTags(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.PutTags(ctx, blog.SampleTags()))

	tags, err := c.Tags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, len(blog.SampleTags()))
	for i := 1; i < len(tags); i++ {
		assert.LessOrEqual(t, tags[i-1].Name, tags[i].Name)
	}

	tag, err := c.TagBySlug(ctx, "terminal")
	require.NoError(t, err)
	assert.Equal(t, "tag-2", tag.ID)

	_, err = c.TagBySlug(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatsPruneClear(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	st, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Articles)
	assert.True(t, st.LastFetch.IsZero())

	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return old }
	require.NoError(t, c.PutArticles(ctx, []blog.Article{{ID: "stale", Slug: "stale"}}))

	fresh := old.Add(30 * 24 * time.Hour)
	c.now = func() time.Time { return fresh }
	require.NoError(t, c.PutArticles(ctx, []blog.Article{{ID: "fresh", Slug: "fresh"}}))
	require.NoError(t, c.PutTags(ctx, blog.SampleTags()))

	st, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.Articles)
	assert.EqualValues(t, len(blog.SampleTags()), st.Tags)
	assert.True(t, st.LastFetch.Equal(fresh))
	assert.Positive(t, st.SizeBytes)

	n, err := c.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = c.Prune(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	left, err := c.Articles(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, slugs(left))

	require.NoError(t, c.Clear(ctx))
	st, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Articles)
	assert.Zero(t, st.Tags)
}

func TestEmptyWritesAreNoops(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.PutArticles(ctx, nil))
	require.NoError(t, c.PutTags(ctx, nil))
	got, err := c.Articles(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
