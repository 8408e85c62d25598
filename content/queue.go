package content

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"folio/access"
	"folio/common"
	"folio/models"
)

const (
	StatusAll = "all"

	defaultPostLimit    = 10
	defaultCommentLimit = 20
	maxLimit            = 100
)

// Query filters a moderation listing. An empty Status means "all": for
// posts that is every status except trash, for comments every status.
type Query struct {
	Status string `form:"status"`
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

type PublicQuery struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
}

type Listing[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

func pageBounds(page, limit, fallback int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = fallback
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func pageCount(total int64, limit int) int {
	return int((total + int64(limit) - 1) / int64(limit))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likeAny matches term literally against any of the columns. Case is
// folded for ASCII letters only, as SQLite's LOWER does.
func likeAny(term string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" {
			return db
		}
		pattern := "%" + likeEscaper.Replace(asciiLower(term)) + "%"
		clauses := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			clauses[i] = "LOWER(" + c + ") LIKE ? ESCAPE '\\'"
			args[i] = pattern
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// ListPosts is the admin post queue, newest first.
func (s *Service) ListPosts(ctx context.Context, actor access.Actor, q Query) (*Listing[PostView], error) {
	status := strings.TrimSpace(q.Status)
	if status != "" && status != StatusAll {
		if _, err := ParsePostStatus(status); err != nil {
			return nil, err
		}
	}
	if err := actor.Require(access.ManageContent); err != nil {
		return nil, err
	}
	page, limit := pageBounds(q.Page, q.Limit, defaultPostLimit)

	filter := func(db *gorm.DB) *gorm.DB {
		if status == "" || status == StatusAll {
			db = db.Where("status <> ?", string(PostTrash))
		} else {
			db = db.Where("status = ?", status)
		}
		return db.Scopes(likeAny(q.Search, "title", "content", "category"))
	}

	var total int64
	if err := s.conn(ctx).Model(&models.Post{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, common.Storage("count posts", err)
	}
	var posts []models.Post
	if err := s.conn(ctx).Scopes(filter).Order("created_at DESC, id DESC").
		Limit(limit).Offset((page - 1) * limit).Find(&posts).Error; err != nil {
		return nil, common.Storage("list posts", err)
	}

	return &Listing[PostView]{Items: postViews(posts), Total: total, Page: page, Pages: pageCount(total, limit)}, nil
}

// ListComments is the admin comment queue, newest first, with the title
// of the post each comment belongs to.
func (s *Service) ListComments(ctx context.Context, actor access.Actor, q Query) (*Listing[CommentView], error) {
	status := strings.TrimSpace(q.Status)
	if status != "" && status != StatusAll {
		if _, err := ParseCommentStatus(status); err != nil {
			return nil, err
		}
	}
	if err := actor.Require(access.ManageContent); err != nil {
		return nil, err
	}
	page, limit := pageBounds(q.Page, q.Limit, defaultCommentLimit)

	filter := func(db *gorm.DB) *gorm.DB {
		if status != "" && status != StatusAll {
			db = db.Where("status = ?", status)
		}
		return db.Scopes(likeAny(q.Search, "content", "name", "email"))
	}

	var total int64
	if err := s.conn(ctx).Model(&models.Comment{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, common.Storage("count comments", err)
	}
	var comments []models.Comment
	if err := s.conn(ctx).Scopes(filter).Order("created_at DESC, id DESC").
		Limit(limit).Offset((page - 1) * limit).Find(&comments).Error; err != nil {
		return nil, common.Storage("list comments", err)
	}

	titles, err := s.postTitles(ctx, comments)
	if err != nil {
		return nil, err
	}
	items := make([]CommentView, len(comments))
	for i, c := range comments {
		items[i] = CommentView{Comment: c, PostTitle: titles[c.PostID]}
	}

	return &Listing[CommentView]{Items: items, Total: total, Page: page, Pages: pageCount(total, limit)}, nil
}

func (s *Service) postTitles(ctx context.Context, comments []models.Comment) (map[uint]string, error) {
	titles := make(map[uint]string)
	if len(comments) == 0 {
		return titles, nil
	}
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.PostID)
	}
	var posts []models.Post
	if err := s.conn(ctx).Select("id", "title").Where("id IN ?", dedupe(ids)).Find(&posts).Error; err != nil {
		return nil, common.Storage("load post titles", err)
	}
	for _, p := range posts {
		titles[p.ID] = p.Title
	}
	return titles, nil
}

// ListPublishedPosts is the public listing. Only published posts are
// visible, whoever asks.
func (s *Service) ListPublishedPosts(ctx context.Context, q PublicQuery) (*Listing[PostView], error) {
	page, limit := pageBounds(q.Page, q.Limit, defaultPostLimit)

	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("status = ?", string(PostPublished))
		if c := strings.TrimSpace(q.Category); c != "" && c != StatusAll {
			db = db.Where("category = ?", c)
		}
		return db.Scopes(likeAny(q.Search, "title", "content", "category"))
	}

	var total int64
	if err := s.conn(ctx).Model(&models.Post{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, common.Storage("count posts", err)
	}
	var posts []models.Post
	if err := s.conn(ctx).Scopes(filter).Order("created_at DESC, id DESC").
		Limit(limit).Offset((page - 1) * limit).Find(&posts).Error; err != nil {
		return nil, common.Storage("list posts", err)
	}

	return &Listing[PostView]{Items: postViews(posts), Total: total, Page: page, Pages: pageCount(total, limit)}, nil
}

func (s *Service) PublishedPostBySlug(ctx context.Context, slug string) (*PostView, error) {
	return s.publishedPost(ctx, "slug = ?", slug)
}

func (s *Service) PublishedPostByID(ctx context.Context, id uint) (*PostView, error) {
	return s.publishedPost(ctx, "id = ?", id)
}

func (s *Service) publishedPost(ctx context.Context, query string, arg any) (*PostView, error) {
	var post models.Post
	err := s.conn(ctx).Preload("Gallery", galleryByPosition).
		Where(query, arg).Where("status = ?", string(PostPublished)).First(&post).Error
	if err != nil {
		return nil, common.FromDB(err, "post", "load post")
	}
	view := NewPostView(&post)
	return &view, nil
}

// AllPublished returns every published post without content, newest
// first.
func (s *Service) AllPublished(ctx context.Context) ([]PostView, error) {
	var posts []models.Post
	err := s.conn(ctx).Select("id", "title", "slug", "category", "status", "created_at", "updated_at").
		Where("status = ?", string(PostPublished)).Order("created_at DESC").Find(&posts).Error
	if err != nil {
		return nil, common.Storage("list posts", err)
	}
	return postViews(posts), nil
}

// Categories lists the distinct categories of published posts.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.conn(ctx).Model(&models.Post{}).
		Where("status = ? AND category <> ''", string(PostPublished)).
		Distinct("category").Order("category").Pluck("category", &categories).Error
	if err != nil {
		return nil, common.Storage("list categories", err)
	}
	return categories, nil
}

// ListApprovedComments returns the approved comments of a published post,
// newest first. Pending and trashed comments are never exposed.
func (s *Service) ListApprovedComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var count int64
	if err := s.conn(ctx).Model(&models.Post{}).
		Where("id = ? AND status = ?", postID, string(PostPublished)).Count(&count).Error; err != nil {
		return nil, common.Storage("load post", err)
	}
	if count == 0 {
		return nil, common.NotFound("post")
	}

	comments := []models.Comment{}
	err := s.conn(ctx).Where("post_id = ? AND status = ?", postID, string(CommentApproved)).
		Order("created_at DESC, id DESC").Find(&comments).Error
	if err != nil {
		return nil, common.Storage("list comments", err)
	}
	return comments, nil
}

// ListModActions returns the audit trail, newest first.
func (s *Service) ListModActions(ctx context.Context, actor access.Actor, page, limit int) (*Listing[models.ModAction], error) {
	if err := actor.Require(access.ManageUsers); err != nil {
		return nil, err
	}
	page, limit = pageBounds(page, limit, defaultCommentLimit)

	var total int64
	if err := s.conn(ctx).Model(&models.ModAction{}).Count(&total).Error; err != nil {
		return nil, common.Storage("count mod actions", err)
	}
	actions := []models.ModAction{}
	if err := s.conn(ctx).Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&actions).Error; err != nil {
		return nil, common.Storage("list mod actions", err)
	}
	return &Listing[models.ModAction]{Items: actions, Total: total, Page: page, Pages: pageCount(total, limit)}, nil
}
