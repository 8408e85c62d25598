// Package blog is the public read API: published posts, categories,
// approved comments, and comment submission.
package blog

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"folio/admin"
	"folio/analytics"
	"folio/cache"
	"folio/common"
	"folio/content"
	"folio/models"
)

type BlogModule struct {
	db        *gorm.DB
	content   *content.Service
	cache     *cache.PageCache
	limiter   *RateLimiter
	analytics *analytics.AnalyticsModule
}

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // posts are written by staff and may embed HTML
	),
)

// NewBlogModule wires the public API. The cache, limiter and analytics
// collaborators are optional.
func NewBlogModule(db *gorm.DB, svc *content.Service, pc *cache.PageCache, limiter *RateLimiter, tracker *analytics.AnalyticsModule) *BlogModule {
	return &BlogModule{db: db, content: svc, cache: pc, limiter: limiter, analytics: tracker}
}

func (b *BlogModule) RegisterRoutes(router *gin.Engine) {
	posts := router.Group("/api/posts")
	{
		posts.GET("", b.index)
		posts.GET("/categories", b.categories)
		if b.cache != nil {
			posts.GET("/slug/:slug", b.cache.Middleware("slug"), b.post)
		} else {
			posts.GET("/slug/:slug", b.post)
		}
		posts.GET("/:id", b.postByID)
		posts.POST("/:id/like", b.limited(b.like)...)
		posts.POST("/:id/view", b.view)
		posts.GET("/:id/comments", b.comments)
		posts.POST("/:id/comments", b.limited(admin.OptionalActor(b.db), b.createComment)...)
	}
}

// limited puts the per-client limiter in front of anonymous writes.
func (b *BlogModule) limited(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	if b.limiter == nil {
		return handlers
	}
	return append([]gin.HandlerFunc{b.limiter.Middleware()}, handlers...)
}

type publicComment struct {
	ID         uint      `json:"id"`
	ParentID   *uint     `json:"parent_id"`
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	AuthorRole string    `json:"author_role"`
	Depth      int       `json:"depth"`
	CreatedAt  time.Time `json:"created_at"`
}

func newPublicComment(c models.Comment) publicComment {
	return publicComment{
		ID:         c.ID,
		ParentID:   c.ParentID,
		Name:       c.Name,
		Content:    c.Content,
		AuthorRole: c.AuthorRole,
		Depth:      c.Depth,
		CreatedAt:  c.CreatedAt,
	}
}

func (b *BlogModule) index(c *gin.Context) {
	var q content.PublicQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.Fail(c, common.Invalid(err))
		return
	}

	posts, err := b.content.ListPublishedPosts(c.Request.Context(), q)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (b *BlogModule) categories(c *gin.Context) {
	categories, err := b.content.Categories(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (b *BlogModule) post(c *gin.Context) {
	post, err := b.content.PublishedPostBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		common.Fail(c, err)
		return
	}

	post.HTML = renderMarkdown(post.Content)
	c.JSON(http.StatusOK, post)
}

func (b *BlogModule) postByID(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	post, err := b.content.PublishedPostByID(c.Request.Context(), id)
	if err != nil {
		common.Fail(c, err)
		return
	}

	post.HTML = renderMarkdown(post.Content)
	c.JSON(http.StatusOK, post)
}

func (b *BlogModule) like(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	likes, err := b.content.Like(c.Request.Context(), id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (b *BlogModule) view(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	err = b.analytics.TrackVisit(c, id, func() error {
		return b.content.RecordView(c.Request.Context(), id)
	})
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (b *BlogModule) comments(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	comments, err := b.content.ListApprovedComments(c.Request.Context(), id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	out := make([]publicComment, len(comments))
	for i, cm := range comments {
		out[i] = newPublicComment(cm)
	}
	c.JSON(http.StatusOK, gin.H{"comments": out})
}

func (b *BlogModule) createComment(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	var in content.CommentInput
	if err := common.Bind(c, &in); err != nil {
		common.Fail(c, err)
		return
	}

	comment, err := b.content.CreateComment(c.Request.Context(), admin.ActorFrom(c), id, in)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "comment submitted for moderation",
		"comment": newPublicComment(comment.Comment),
	})
}

func renderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return source
	}
	return buf.String()
}
