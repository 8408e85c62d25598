// Package admin exposes authentication and the moderation API. Handlers
// translate HTTP into content.Service calls; every rule lives in the
// service.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"folio/common"
	"folio/config"
	"folio/content"
)

type AdminModule struct {
	db      *gorm.DB
	content *content.Service
	cfg     *config.Config
}

func NewAdminModule(db *gorm.DB, svc *content.Service, cfg *config.Config) *AdminModule {
	return &AdminModule{
		db:      db,
		content: svc,
		cfg:     cfg,
	}
}

func (a *AdminModule) RegisterRoutes(router *gin.Engine) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", a.register)
		auth.POST("/login", a.login)
		auth.POST("/logout", a.logout)
		auth.GET("/me", RequireActor(a.db), a.me)
		auth.PUT("/update-profile", RequireActor(a.db), a.updateProfile)
		auth.POST("/check-email", a.checkEmail)
	}

	adminGroup := router.Group("/api/admin")
	adminGroup.Use(RequireActor(a.db))
	{
		adminGroup.GET("/posts", a.listPosts)
		adminGroup.POST("/posts", a.createPost)
		adminGroup.PUT("/posts/bulk", a.bulkPublish)
		adminGroup.GET("/posts/:id", a.getPost)
		adminGroup.PUT("/posts/:id", a.updatePost)
		adminGroup.PUT("/posts/:id/status", a.setPostStatus)
		adminGroup.DELETE("/posts/:id", a.deletePost)
		adminGroup.POST("/posts/:id/duplicate", a.duplicatePost)
		adminGroup.DELETE("/posts/:id/gallery/:imageId", a.removeGalleryImage)
		adminGroup.GET("/comments", a.listComments)
		adminGroup.PUT("/comments/:id/status", a.setCommentStatus)
		adminGroup.DELETE("/comments/:id", a.deleteComment)
		adminGroup.GET("/audit", a.listModActions)
	}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type bulkRequest struct {
	IDs     []uint `json:"ids"`
	Publish *bool  `json:"publish" binding:"required"`
}

func (a *AdminModule) listPosts(c *gin.Context) {
	var q content.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		common.Fail(c, common.Invalid(err))
		return
	}

	posts, err := a.content.ListPosts(c.Request.Context(), ActorFrom(c), q)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (a *AdminModule) createPost(c *gin.Context) {
	var in content.PostInput
	if err := common.Bind(c, &in); err != nil {
		common.Fail(c, err)
		return
	}

	post, err := a.content.CreatePost(c.Request.Context(), ActorFrom(c), in)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.Logf(c, "admin: post %d created by user %d", post.ID, ActorFrom(c).UserID)
	c.JSON(http.StatusCreated, post)
}

func (a *AdminModule) getPost(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	post, err := a.content.GetPost(c.Request.Context(), ActorFrom(c), id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (a *AdminModule) updatePost(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	var in content.PostUpdate
	if err := common.Bind(c, &in); err != nil {
		common.Fail(c, err)
		return
	}

	post, err := a.content.UpdatePost(c.Request.Context(), ActorFrom(c), id, in)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (a *AdminModule) setPostStatus(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req statusRequest
	if err := common.Bind(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	post, err := a.content.SetPostStatus(c.Request.Context(), ActorFrom(c), id, req.Status)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (a *AdminModule) deletePost(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	force := c.Query("force") == "true"

	result, err := a.content.DeletePost(c.Request.Context(), ActorFrom(c), id, force)
	if err != nil {
		common.Fail(c, err)
		return
	}
	if result.PermanentlyDeleted {
		common.Logf(c, "admin: post %d permanently deleted by user %d", id, ActorFrom(c).UserID)
	}
	c.JSON(http.StatusOK, gin.H{"permanently_deleted": result.PermanentlyDeleted})
}

func (a *AdminModule) bulkPublish(c *gin.Context) {
	var req bulkRequest
	if err := common.Bind(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	result, err := a.content.BulkSetPostPublished(c.Request.Context(), ActorFrom(c), req.IDs, *req.Publish)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *AdminModule) duplicatePost(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	post, err := a.content.DuplicatePost(c.Request.Context(), ActorFrom(c), id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (a *AdminModule) removeGalleryImage(c *gin.Context) {
	postID, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	imageID, err := common.ParamID(c, "imageId")
	if err != nil {
		common.Fail(c, err)
		return
	}

	if err := a.content.RemoveGalleryImage(c.Request.Context(), ActorFrom(c), postID, imageID); err != nil {
		common.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *AdminModule) listComments(c *gin.Context) {
	var q content.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		common.Fail(c, common.Invalid(err))
		return
	}

	comments, err := a.content.ListComments(c.Request.Context(), ActorFrom(c), q)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (a *AdminModule) setCommentStatus(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}
	var req statusRequest
	if err := common.Bind(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	comment, err := a.content.SetCommentStatus(c.Request.Context(), ActorFrom(c), id, req.Status)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (a *AdminModule) deleteComment(c *gin.Context) {
	id, err := common.ParamID(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	removed, err := a.content.DeleteComment(c.Request.Context(), ActorFrom(c), id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (a *AdminModule) listModActions(c *gin.Context) {
	actions, err := a.content.ListModActions(c.Request.Context(), ActorFrom(c),
		common.QueryInt(c, "page", 1), common.QueryInt(c, "limit", 0))
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, actions)
}
