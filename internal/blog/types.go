// Package blog defines the Howhite blog domain: the resources served by the
// REST backend, text helpers used by every page, and the built-in sample data
// shown when neither the backend nor the cache can supply articles.
package blog

import "time"

// ArticleStatus is the publication state of an article.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
	StatusArchived  ArticleStatus = "archived"
)

// CommentStatus is the moderation state of a comment.
type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentRejected CommentStatus = "rejected"
)

// UserRole is the role of an account.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleEditor     UserRole = "editor"
	RoleAuthor     UserRole = "author"
	RoleSubscriber UserRole = "subscriber"
)

// User is an account, usually seen as an article author.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Role      UserRole  `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Article is a blog post.
type Article struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	Content     string        `json:"content"`
	Excerpt     string        `json:"excerpt,omitempty"`
	CoverImage  string        `json:"coverImage,omitempty"`
	Status      ArticleStatus `json:"status"`
	Author      User          `json:"author"`
	Category    *Category     `json:"category,omitempty"`
	Tags        []Tag         `json:"tags,omitempty"`
	ViewCount   int           `json:"viewCount"`
	LikeCount   int           `json:"likeCount"`
	PublishedAt *time.Time    `json:"publishedAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// HasTag reports whether the article carries the tag with the given id.
func (a Article) HasTag(tagID string) bool {
	for _, t := range a.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// Category groups articles.
type Category struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description,omitempty"`
	ArticleCount int        `json:"articleCount,omitempty"`
	Children     []Category `json:"children,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Tag labels articles. Color is a #rrggbb string.
type Tag struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Color        string    `json:"color,omitempty"`
	ArticleCount int       `json:"articleCount,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CommentAuthor identifies the writer of a comment.
type CommentAuthor struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// ArticleRef is the short article reference embedded in comments.
type ArticleRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Comment is a reader comment with optional nested replies.
type Comment struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Author    CommentAuthor `json:"author"`
	Article   ArticleRef    `json:"article"`
	Status    CommentStatus `json:"status"`
	ParentID  string        `json:"parentId,omitempty"`
	Replies   []Comment     `json:"replies,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Pagination defaults used by the backend.
const (
	DefaultPage      = 1
	DefaultPageSize  = 10
	DefaultSortField = "createdAt"
)

// PaginationParams selects one page of a listing. Zero values mean backend
// defaults.
type PaginationParams struct {
	Page      int
	PageSize  int
	SortField string
	SortOrder SortOrder
}

// WithDefaults fills unset fields with the backend defaults.
func (p PaginationParams) WithDefaults() PaginationParams {
	if p.Page <= 0 {
		p.Page = DefaultPage
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.SortField == "" {
		p.SortField = DefaultSortField
	}
	if p.SortOrder == "" {
		p.SortOrder = SortDesc
	}
	return p
}

// PageMeta describes a page of results.
type PageMeta struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

