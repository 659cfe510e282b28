package api

import (
	"context"
	"fmt"
	"net/url"

	"howhite/internal/blog"
)

// ListComments returns the approved comments of an article, replies nested.
func (c *Client) ListComments(ctx context.Context, articleID string) ([]blog.Comment, error) {
	var out []blog.Comment
	q := url.Values{"articleId": {articleID}}
	if err := c.get(ctx, "/comments", q, &out); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}

// SearchArticles runs a full-text article search and returns one page.
func (c *Client) SearchArticles(ctx context.Context, query string, p blog.PaginationParams) (*blog.Page[blog.Article], error) {
	q := pageQuery(p)
	q.Set("query", query)
	var out blog.Page[blog.Article]
	if err := c.getPage(ctx, "/search/articles", q, &out); err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	return &out, nil
}
