package content

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"folio/access"
	"folio/common"
	"folio/database"
	"folio/models"
)

var (
	adminActor  = access.Actor{UserID: 1, Role: access.RoleAdmin}
	editorActor = access.Actor{UserID: 2, Role: access.RoleEditor}
	viewerActor = access.Actor{UserID: 3, Role: access.RoleViewer}
)

type recordingCache struct {
	mu    sync.Mutex
	slugs []string
}

func (r *recordingCache) InvalidatePost(slug string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slugs = append(r.slugs, slug)
}

func (r *recordingCache) invalidated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.slugs...)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := common.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func setupService(t *testing.T, opts Options) (*Service, *gorm.DB, *recordingCache) {
	t.Helper()
	db := setupTestDB(t)
	cache := &recordingCache{}
	opts.Invalidator = cache
	return NewService(db, opts), db, cache
}

var postSeq atomic.Int64

func createTestPost(t *testing.T, db *gorm.DB, status PostStatus, galleryPaths ...string) *models.Post {
	t.Helper()
	n := postSeq.Add(1)
	post := &models.Post{
		Title:     fmt.Sprintf("Test Post %d", n),
		Slug:      fmt.Sprintf("test-post-%d", n),
		Content:   "Some test content for the post body.",
		Category:  "engineering",
		Author:    "Ada",
		Status:    string(status),
		CreatedAt: time.Now().Add(time.Duration(n) * time.Millisecond),
	}
	for i, p := range galleryPaths {
		post.Gallery = append(post.Gallery, models.GalleryImage{Path: p, Position: i})
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func createTestComment(t *testing.T, db *gorm.DB, postID uint, parent *models.Comment, status CommentStatus) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		PostID:  postID,
		Name:    "Visitor",
		Email:   "visitor@example.com",
		Content: "Nice post",
		Status:  string(status),
	}
	if parent != nil {
		comment.ParentID = &parent.ID
		comment.Depth = parent.Depth + 1
	}
	require.NoError(t, db.Create(comment).Error)
	return comment
}

func reloadPost(t *testing.T, db *gorm.DB, id uint) models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, db.First(&post, id).Error)
	return post
}
