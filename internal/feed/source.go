// Package feed resolves the article collections the pages display.
//
// Every lookup tries the REST backend first and writes what it gets through
// to the SQLite cache. When the backend fails the cache answers, and when the
// cache has nothing the built-in sample data does, so the UI always has a
// collection to show. The result says where it came from.
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"howhite/internal/api"
	"howhite/internal/blog"
	"howhite/internal/logging"
	"howhite/internal/store"
)

// Origin names where a collection came from.
type Origin string

const (
	OriginAPI    Origin = "api"
	OriginCache  Origin = "cache"
	OriginSample Origin = "sample"
)

// Offline reports whether the data did not come from the backend.
func (o Origin) Offline() bool { return o != OriginAPI }

// TagPageSize is how many articles the tag page asks for in one request.
const TagPageSize = 50

// ErrUnknownTag is returned when no source knows the requested tag.
var ErrUnknownTag = errors.New("unknown tag")

// ErrUnknownArticle is returned when no source knows the requested article.
var ErrUnknownArticle = errors.New("unknown article")

// Backend is the part of the REST client the feed uses. *api.Client
// satisfies it.
type Backend interface {
	ListArticles(ctx context.Context, p blog.PaginationParams) (*blog.Page[blog.Article], error)
	GetArticle(ctx context.Context, slug string) (*blog.Article, error)
	GetTag(ctx context.Context, slug string) (*blog.Tag, error)
	ListTags(ctx context.Context, p blog.PaginationParams) ([]blog.Tag, error)
	PopularTags(ctx context.Context, limit int) ([]blog.Tag, error)
	FeaturedArticles(ctx context.Context, limit int) ([]blog.Article, error)
	LatestArticles(ctx context.Context, limit int) ([]blog.Article, error)
	CategoryTree(ctx context.Context) ([]blog.Category, error)
	GetArticleByID(ctx context.Context, id string) (*blog.Article, error)
	SearchArticles(ctx context.Context, query string, p blog.PaginationParams) (*blog.Page[blog.Article], error)
	ListCategories(ctx context.Context, p blog.PaginationParams) ([]blog.Category, error)
	GetCategory(ctx context.Context, slug string) (*blog.Category, error)
	ListComments(ctx context.Context, articleID string) ([]blog.Comment, error)
}

var _ Backend = (*api.Client)(nil)

// Articles is a resolved article collection.
type Articles struct {
	Items  []blog.Article
	Origin Origin
}

// TagArticles is the collection behind a tag page.
type TagArticles struct {
	Tag    blog.Tag
	Items  []blog.Article
	Origin Origin
}

// Source resolves collections. A nil backend means offline mode; a nil
// cache disables write-through.
type Source struct {
	backend  Backend
	cache    *store.Cache
	pageSize int
	now      func() time.Time
}

// Option configures a Source.
type Option func(*Source)

// WithCache enables write-through and offline reads.
func WithCache(c *store.Cache) Option {
	return func(s *Source) { s.cache = c }
}

// WithPageSize sets the page size of the article list request.
func WithPageSize(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock sets the clock used to date sample data.
func WithClock(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// NewSource creates a Source. backend may be nil.
func NewSource(backend Backend, opts ...Option) *Source {
	s := &Source{
		backend:  backend,
		pageSize: blog.DefaultPageSize,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Online reports whether a backend is configured.
func (s *Source) Online() bool { return s.backend != nil }

// Articles returns the first page of articles, newest first.
func (s *Source) Articles(ctx context.Context) (Articles, error) {
	defer logging.Begin(logging.CategoryFeed, "feed.Articles", "").End(nil)

	if s.backend != nil {
		page, err := s.backend.ListArticles(ctx, blog.PaginationParams{PageSize: s.pageSize}.WithDefaults())
		if err == nil {
			s.writeArticles(ctx, page.Data)
			return Articles{Items: page.Data, Origin: OriginAPI}, nil
		}
		if ctx.Err() != nil {
			return Articles{}, ctx.Err()
		}
		backendFailed("Article list", err)
	}

	if s.cache != nil {
		items, err := s.cache.Articles(ctx, s.pageSize)
		if err != nil {
			logging.FeedWarn("Article list from cache failed: %v", err)
		} else if len(items) > 0 {
			return Articles{Items: items, Origin: OriginCache}, nil
		}
	}
	return Articles{Items: blog.SampleArticles(s.now()), Origin: OriginSample}, nil
}

// TagArticles resolves a tag by slug and the articles carrying it. Like the
// web tag page it fetches one page of TagPageSize articles and filters them
// by tag id locally.
func (s *Source) TagArticles(ctx context.Context, slug string) (TagArticles, error) {
	defer logging.Begin(logging.CategoryFeed, "feed.TagArticles", "").End(nil)

	if s.backend != nil {
		res, err := s.tagFromBackend(ctx, slug)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return TagArticles{}, ctx.Err()
		}
		backendFailed("Tag "+slug, err)
	}

	if s.cache != nil {
		if tag, err := s.cache.TagBySlug(ctx, slug); err == nil {
			items, err := s.cache.ArticlesByTag(ctx, tag.ID)
			if err == nil && len(items) > 0 {
				return TagArticles{Tag: *tag, Items: items, Origin: OriginCache}, nil
			}
		}
	}

	tag, ok := blog.SampleTag(slug)
	if !ok {
		return TagArticles{}, fmt.Errorf("tag %q: %w", slug, ErrUnknownTag)
	}
	items := blog.FilterByTag(blog.SampleArticles(s.now()), tag.ID)
	return TagArticles{Tag: tag, Items: items, Origin: OriginSample}, nil
}

func (s *Source) tagFromBackend(ctx context.Context, slug string) (TagArticles, error) {
	tag, err := s.backend.GetTag(ctx, slug)
	if err != nil {
		return TagArticles{}, err
	}
	page, err := s.backend.ListArticles(ctx, blog.PaginationParams{Page: 1, PageSize: TagPageSize}.WithDefaults())
	if err != nil {
		return TagArticles{}, err
	}
	s.writeTags(ctx, []blog.Tag{*tag})
	s.writeArticles(ctx, page.Data)
	return TagArticles{Tag: *tag, Items: blog.FilterByTag(page.Data, tag.ID), Origin: OriginAPI}, nil
}

// Article resolves one article by slug. A slug the backend does not know is
// retried as an article id.
func (s *Source) Article(ctx context.Context, slug string) (*blog.Article, Origin, error) {
	if s.backend != nil {
		a, err := s.backend.GetArticle(ctx, slug)
		if api.IsNotFound(err) {
			a, err = s.backend.GetArticleByID(ctx, slug)
		}
		if err == nil {
			s.writeArticles(ctx, []blog.Article{*a})
			return a, OriginAPI, nil
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		backendFailed("Article "+slug, err)
	}
	if s.cache != nil {
		if a, err := s.cache.ArticleBySlug(ctx, slug); err == nil {
			return a, OriginCache, nil
		}
	}
	for _, a := range blog.SampleArticles(s.now()) {
		if a.Slug == slug || a.ID == slug {
			return &a, OriginSample, nil
		}
	}
	return nil, "", fmt.Errorf("article %q: %w", slug, ErrUnknownArticle)
}

// Tags returns every known tag.
func (s *Source) Tags(ctx context.Context) ([]blog.Tag, Origin, error) {
	if s.backend != nil {
		tags, err := s.backend.ListTags(ctx, blog.PaginationParams{})
		if err == nil {
			s.writeTags(ctx, tags)
			return tags, OriginAPI, nil
		}
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		backendFailed("Tags", err)
	}
	if s.cache != nil {
		if tags, err := s.cache.Tags(ctx); err == nil && len(tags) > 0 {
			return tags, OriginCache, nil
		}
	}
	return blog.SampleTags(), OriginSample, nil
}

// backendFailed logs a backend error that is about to be answered from a
// fallback.
func backendFailed(what string, err error) {
	if api.IsUnauthorized(err) {
		logging.FeedWarn("%s: backend rejected the token (api.token / HOWHITE_TOKEN), falling back: %v", what, err)
		return
	}
	logging.FeedWarn("%s from backend failed, falling back: %v", what, err)
}

func (s *Source) writeArticles(ctx context.Context, items []blog.Article) {
	if s.cache == nil {
		return
	}
	if err := s.cache.PutArticles(ctx, items); err != nil {
		logging.FeedWarn("Cache write-through failed: %v", err)
	}
}

func (s *Source) writeTags(ctx context.Context, tags []blog.Tag) {
	if s.cache == nil {
		return
	}
	if err := s.cache.PutTags(ctx, tags); err != nil {
		logging.FeedWarn("Cache write-through failed: %v", err)
	}
}
