package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"howhite/internal/blog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListArticlesKeepsPageMeta(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/articles", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "desc", r.URL.Query().Get("sortOrder"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{{"id": "a1", "title": "First", "slug": "first"}},
			"meta": map[string]any{"total": 1, "page": 1, "pageSize": 50, "totalPages": 1},
		})
	})

	page, err := c.ListArticles(context.Background(), blog.PaginationParams{PageSize: 50}.WithDefaults())
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "First", page.Data[0].Title)
	assert.Equal(t, 1, page.Meta.Total)
	assert.Equal(t, 50, page.Meta.PageSize)
}

func TestGetUnwrapsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags/slug/go":
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "tag-1", "name": "Go", "slug": "go"}})
		case "/api/tags/popular":
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			// bare body, no envelope
			writeJSON(w, http.StatusOK, []map[string]any{{"id": "tag-1"}, {"id": "tag-2"}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	tag, err := c.GetTag(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, "tag-1", tag.ID)
	assert.Equal(t, "Go", tag.Name)

	tags, err := c.PopularTags(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestListTagsAcceptsPageOrList(t *testing.T) {
	paged := true
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if paged {
			writeJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{"data": []map[string]any{{"id": "t1"}}, "meta": map[string]any{"total": 1}},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": "t1"}, {"id": "t2"}}})
	})

	tags, err := c.ListTags(context.Background(), blog.PaginationParams{})
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	paged = false
	tags, err = c.ListTags(context.Background(), blog.PaginationParams{})
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/articles/slug/missing" {
			writeJSON(w, http.StatusNotFound, map[string]any{"statusCode": 404, "message": "Article not found", "error": "Not Found"})
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "upstream exploded")
	})
	ctx := context.Background()

	_, err := c.GetArticle(ctx, "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "get article missing")
	assert.Contains(t, err.Error(), "Article not found")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.NotEmpty(t, apiErr.RequestID)

	_, err = c.LatestArticles(ctx, 5)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": "a1"}}})
	})
	ctx := context.Background()

	_, err := c.FeaturedArticles(ctx, 3)
	assert.True(t, IsUnauthorized(err))

	c.SetToken("tok")
	got, err := c.FeaturedArticles(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestArticleByIDAndSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/api/articles/a1":
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "a1", "slug": "first"}})
		case "/api/search/articles":
			q := r.URL.Query()
			assert.Equal(t, "virtual scroll", q.Get("query"))
			assert.Equal(t, "10", q.Get("pageSize"))
			assert.Equal(t, "createdAt", q.Get("sortField"))
			writeJSON(w, http.StatusOK, map[string]any{
				"data": []map[string]any{{"id": "a1", "title": "Windowing"}},
				"meta": map[string]any{"total": 7, "page": 1, "pageSize": 10, "totalPages": 1},
			})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	a, err := c.GetArticleByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "first", a.Slug)

	page, err := c.SearchArticles(ctx, "virtual scroll", blog.PaginationParams{PageSize: 10}.WithDefaults())
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Windowing", page.Data[0].Title)
	assert.Equal(t, 7, page.Meta.Total)
}

func TestCommentsAndCategories(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/comments":
			assert.Equal(t, "a1", r.URL.Query().Get("articleId"))
			writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{
				"id": "c1", "content": "nice", "status": "approved",
				"author":  map[string]any{"name": "reader"},
				"replies": []map[string]any{{"id": "c2", "parentId": "c1"}},
			}}})
		case "/api/categories":
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{"id": "cat-1", "slug": "engineering"}}})
		case "/api/categories/slug/notes":
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "cat-2", "name": "Notes", "articleCount": 4}})
		case "/api/categories/tree":
			writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{{
				"id": "cat-1", "children": []map[string]any{{"id": "cat-9"}},
			}}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	comments, err := c.ListComments(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, blog.CommentApproved, comments[0].Status)
	assert.Equal(t, "reader", comments[0].Author.Name)
	require.Len(t, comments[0].Replies, 1)
	assert.Equal(t, "c1", comments[0].Replies[0].ParentID)

	cats, err := c.ListCategories(ctx, blog.PaginationParams{Page: 2})
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "engineering", cats[0].Slug)

	cat, err := c.GetCategory(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, "Notes", cat.Name)
	assert.Equal(t, 4, cat.ArticleCount)

	tree, err := c.CategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "cat-9", tree[0].Children[0].ID)

	_, err = c.GetCategory(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestContextCancel(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	})
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.LatestArticles(ctx, 5)
	require.ErrorIs(t, err, context.Canceled)
}
