package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"howhite/internal/blog"
)

// ListCategories returns all categories.
func (c *Client) ListCategories(ctx context.Context, p blog.PaginationParams) ([]blog.Category, error) {
	var out []blog.Category
	if err := c.get(ctx, "/categories", pageQuery(p), &out); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// GetCategory fetches a category by slug.
func (c *Client) GetCategory(ctx context.Context, slug string) (*blog.Category, error) {
	var cat blog.Category
	if err := c.get(ctx, "/categories/slug/"+url.PathEscape(slug), nil, &cat); err != nil {
		return nil, fmt.Errorf("get category %s: %w", slug, err)
	}
	return &cat, nil
}

// CategoryTree returns top-level categories with their children.
func (c *Client) CategoryTree(ctx context.Context) ([]blog.Category, error) {
	var out []blog.Category
	if err := c.get(ctx, "/categories/tree", nil, &out); err != nil {
		return nil, fmt.Errorf("category tree: %w", err)
	}
	return out, nil
}

// ListTags returns all tags. The backend answers either with a page or with a
// bare list; both are accepted.
func (c *Client) ListTags(ctx context.Context, p blog.PaginationParams) ([]blog.Tag, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/tags", pageQuery(p), &raw); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	var list []blog.Tag
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var page blog.Page[blog.Tag]
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return page.Data, nil
}

// GetTag fetches a tag by slug.
func (c *Client) GetTag(ctx context.Context, slug string) (*blog.Tag, error) {
	var t blog.Tag
	if err := c.get(ctx, "/tags/slug/"+url.PathEscape(slug), nil, &t); err != nil {
		return nil, fmt.Errorf("get tag %s: %w", slug, err)
	}
	return &t, nil
}

// PopularTags returns the most used tags.
func (c *Client) PopularTags(ctx context.Context, limit int) ([]blog.Tag, error) {
	var out []blog.Tag
	if err := c.get(ctx, "/tags/popular", limitQuery(limit), &out); err != nil {
		return nil, fmt.Errorf("popular tags: %w", err)
	}
	return out, nil
}
