package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"howhite/internal/blog"
	"howhite/internal/logging"
)

// SearchPageSize is how many results one search returns.
const SearchPageSize = 10

var (
	// ErrEmptyQuery is returned for a blank search.
	ErrEmptyQuery = errors.New("empty search query")
	// ErrUnknownCategory is returned when no source knows the category.
	ErrUnknownCategory = errors.New("unknown category")
)

// SearchResults is the first page of a search.
type SearchResults struct {
	Query string
	Items []blog.Article
	// Total counts every match, including those past the first page.
	Total  int
	Origin Origin
}

// CategoryArticles is the collection behind a category page.
type CategoryArticles struct {
	Category blog.Category
	Items    []blog.Article
	Origin   Origin
}

// Search finds articles matching query. Offline the cached articles, or the
// sample set, are matched word by word.
func (s *Source) Search(ctx context.Context, query string) (SearchResults, error) {
	defer logging.Begin(logging.CategoryFeed, "feed.Search", "").End(nil)

	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResults{}, ErrEmptyQuery
	}
	if s.backend != nil {
		p := blog.PaginationParams{Page: 1, PageSize: SearchPageSize}.WithDefaults()
		page, err := s.backend.SearchArticles(ctx, query, p)
		if err == nil {
			s.writeArticles(ctx, page.Data)
			total := max(page.Meta.Total, len(page.Data))
			return SearchResults{Query: query, Items: page.Data, Total: total, Origin: OriginAPI}, nil
		}
		if ctx.Err() != nil {
			return SearchResults{}, ctx.Err()
		}
		backendFailed("Search "+query, err)
	}

	pool, origin := s.offlineArticles(ctx)
	hits := blog.Search(pool, query)
	res := SearchResults{Query: query, Items: hits, Total: len(hits), Origin: origin}
	if len(hits) > SearchPageSize {
		res.Items = hits[:SearchPageSize]
	}
	return res, nil
}

// Categories lists the categories. Offline they are collected from the
// cached articles.
func (s *Source) Categories(ctx context.Context) ([]blog.Category, Origin, error) {
	if s.backend != nil {
		cats, err := s.backend.ListCategories(ctx, blog.PaginationParams{})
		if err == nil {
			return cats, OriginAPI, nil
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		backendFailed("Categories", err)
	}
	pool, origin := s.offlineArticles(ctx)
	if origin == OriginSample {
		return blog.SampleCategories(), OriginSample, nil
	}
	return categoriesOf(pool), OriginCache, nil
}

// CategoryArticles resolves a category by slug and its articles. Like the
// web category page it filters one page of articles by category id.
func (s *Source) CategoryArticles(ctx context.Context, slug string) (CategoryArticles, error) {
	defer logging.Begin(logging.CategoryFeed, "feed.CategoryArticles", "").End(nil)

	if s.backend != nil {
		res, err := s.categoryFromBackend(ctx, slug)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return CategoryArticles{}, ctx.Err()
		}
		backendFailed("Category "+slug, err)
	}

	pool, origin := s.offlineArticles(ctx)
	if origin == OriginCache {
		for _, c := range categoriesOf(pool) {
			if c.Slug == slug {
				return CategoryArticles{Category: c, Items: blog.FilterByCategory(pool, c.ID), Origin: OriginCache}, nil
			}
		}
	}
	cat, ok := blog.SampleCategory(slug)
	if !ok {
		return CategoryArticles{}, fmt.Errorf("category %q: %w", slug, ErrUnknownCategory)
	}
	items := blog.FilterByCategory(blog.SampleArticles(s.now()), cat.ID)
	return CategoryArticles{Category: cat, Items: items, Origin: OriginSample}, nil
}

func (s *Source) categoryFromBackend(ctx context.Context, slug string) (CategoryArticles, error) {
	cat, err := s.backend.GetCategory(ctx, slug)
	if err != nil {
		return CategoryArticles{}, err
	}
	page, err := s.backend.ListArticles(ctx, blog.PaginationParams{Page: 1, PageSize: TagPageSize}.WithDefaults())
	if err != nil {
		return CategoryArticles{}, err
	}
	s.writeArticles(ctx, page.Data)
	return CategoryArticles{Category: *cat, Items: blog.FilterByCategory(page.Data, cat.ID), Origin: OriginAPI}, nil
}

// Comments returns the approved comments of a. Comments are not cached:
// offline only sample articles have a thread.
func (s *Source) Comments(ctx context.Context, a blog.Article) ([]blog.Comment, Origin, error) {
	if s.backend != nil {
		comments, err := s.backend.ListComments(ctx, a.ID)
		if err == nil {
			return comments, OriginAPI, nil
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		backendFailed("Comments "+a.Slug, err)
	}
	if blog.IsSample(a) {
		return blog.SampleComments(a), OriginSample, nil
	}
	return nil, OriginCache, nil
}

// offlineArticles returns every cached article, or the sample set when the
// cache is empty or missing.
func (s *Source) offlineArticles(ctx context.Context) ([]blog.Article, Origin) {
	if s.cache != nil {
		items, err := s.cache.Articles(ctx, 0)
		if err != nil {
			logging.FeedWarn("Reading cached articles failed: %v", err)
		} else if len(items) > 0 {
			return items, OriginCache
		}
	}
	return blog.SampleArticles(s.now()), OriginSample
}

// categoriesOf collects the distinct categories of articles in first-seen
// order, counting their articles.
func categoriesOf(articles []blog.Article) []blog.Category {
	var out []blog.Category
	index := map[string]int{}
	for _, a := range articles {
		if a.Category == nil {
			continue
		}
		i, ok := index[a.Category.ID]
		if !ok {
			i = len(out)
			index[a.Category.ID] = i
			c := *a.Category
			c.ArticleCount = 0
			c.Children = nil
			out = append(out, c)
		}
		out[i].ArticleCount++
	}
	return out
}
