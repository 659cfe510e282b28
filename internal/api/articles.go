package api

import (
	"context"
	"fmt"
	"net/url"

	"howhite/internal/blog"
)

// ListArticles returns one page of articles.
func (c *Client) ListArticles(ctx context.Context, p blog.PaginationParams) (*blog.Page[blog.Article], error) {
	var page blog.Page[blog.Article]
	if err := c.getPage(ctx, "/articles", pageQuery(p), &page); err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return &page, nil
}

// GetArticle fetches an article by slug.
func (c *Client) GetArticle(ctx context.Context, slug string) (*blog.Article, error) {
	var a blog.Article
	if err := c.get(ctx, "/articles/slug/"+url.PathEscape(slug), nil, &a); err != nil {
		return nil, fmt.Errorf("get article %s: %w", slug, err)
	}
	return &a, nil
}

// GetArticleByID fetches an article by id.
func (c *Client) GetArticleByID(ctx context.Context, id string) (*blog.Article, error) {
	var a blog.Article
	if err := c.get(ctx, "/articles/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, fmt.Errorf("get article %s: %w", id, err)
	}
	return &a, nil
}

// LatestArticles returns the most recent articles.
func (c *Client) LatestArticles(ctx context.Context, limit int) ([]blog.Article, error) {
	return c.articleList(ctx, "/articles/recent", limit, "latest articles")
}

// FeaturedArticles returns the editor's picks.
func (c *Client) FeaturedArticles(ctx context.Context, limit int) ([]blog.Article, error) {
	return c.articleList(ctx, "/articles/featured", limit, "featured articles")
}

func (c *Client) articleList(ctx context.Context, path string, limit int, what string) ([]blog.Article, error) {
	var out []blog.Article
	if err := c.get(ctx, path, limitQuery(limit), &out); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return out, nil
}
