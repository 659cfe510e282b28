package feed

import (
	"context"
	"sync"

	"howhite/internal/blog"
	"howhite/internal/logging"

	"golang.org/x/sync/errgroup"
)

// Home section sizes.
const (
	HomeFeatured = 3
	HomeLatest   = 6
	HomeTags     = 10
)

// Home is the landing summary: featured and latest articles, the category
// tree and popular tags.
type Home struct {
	Featured   []blog.Article
	Latest     []blog.Article
	Categories []blog.Category
	Tags       []blog.Tag
	// Fallbacks lists the sections that did not come from the backend.
	Fallbacks []string
}

// Offline reports whether any section fell back.
func (h Home) Offline() bool { return len(h.Fallbacks) > 0 }

// Home fetches the four sections in parallel. A failing section falls back
// to sample data on its own; only cancellation fails the whole call.
func (s *Source) Home(ctx context.Context) (Home, error) {
	defer logging.Begin(logging.CategoryFeed, "feed.Home", "").End(nil)

	var (
		home Home
		mu   sync.Mutex
	)
	fellBack := func(section string, err error) {
		if err != nil {
			backendFailed("Home "+section, err)
		}
		mu.Lock()
		home.Fallbacks = append(home.Fallbacks, section)
		mu.Unlock()
	}
	sample := blog.SampleArticles(s.now())

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if s.backend != nil {
			items, err := s.backend.FeaturedArticles(egCtx, HomeFeatured)
			if err == nil {
				home.Featured = items
				return nil
			}
			if egCtx.Err() != nil {
				return egCtx.Err()
			}
			fellBack("featured", err)
		} else {
			fellBack("featured", nil)
		}
		home.Featured = sample[:HomeFeatured]
		return nil
	})

	eg.Go(func() error {
		if s.backend != nil {
			items, err := s.backend.LatestArticles(egCtx, HomeLatest)
			if err == nil {
				home.Latest = items
				return nil
			}
			if egCtx.Err() != nil {
				return egCtx.Err()
			}
			fellBack("latest", err)
		} else {
			fellBack("latest", nil)
		}
		home.Latest = sample[:HomeLatest]
		return nil
	})

	eg.Go(func() error {
		if s.backend != nil {
			cats, err := s.backend.CategoryTree(egCtx)
			if err == nil {
				home.Categories = cats
				return nil
			}
			if egCtx.Err() != nil {
				return egCtx.Err()
			}
			fellBack("categories", err)
		} else {
			fellBack("categories", nil)
		}
		home.Categories = blog.SampleCategories()
		return nil
	})

	eg.Go(func() error {
		if s.backend != nil {
			tags, err := s.backend.PopularTags(egCtx, HomeTags)
			if err == nil {
				home.Tags = tags
				return nil
			}
			if egCtx.Err() != nil {
				return egCtx.Err()
			}
			fellBack("tags", err)
		} else {
			fellBack("tags", nil)
		}
		home.Tags = blog.SampleTags()
		return nil
	})

	if err := eg.Wait(); err != nil {
		return Home{}, err
	}
	return home, nil
}
