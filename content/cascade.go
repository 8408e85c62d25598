package content

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"folio/access"
	"folio/common"
	"folio/models"
)

type DeleteResult struct {
	PermanentlyDeleted bool `json:"permanently_deleted"`
}

// DeletePost hard deletes a post that is already in trash, or any post
// when force is set. Otherwise the request becomes a move to trash.
// Gallery rows and comments go with the post through the foreign keys.
func (s *Service) DeletePost(ctx context.Context, actor access.Actor, id uint, force bool) (DeleteResult, error) {
	if err := actor.Require(access.ManageContent); err != nil {
		return DeleteResult{}, err
	}

	var post models.Post
	if err := s.conn(ctx).Select("id", "slug", "status").First(&post, id).Error; err != nil {
		return DeleteResult{}, common.FromDB(err, "post", "load post")
	}

	if PostStatus(post.Status) != PostTrash && !force {
		if _, err := s.SetPostStatus(ctx, actor, id, string(PostTrash)); err != nil {
			return DeleteResult{}, err
		}
		return DeleteResult{PermanentlyDeleted: false}, nil
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		details := fmt.Sprintf("slug=%s status=%s forced=%t", post.Slug, post.Status, force)
		return LogModAction(tx, actor, "post.hard_delete", "post", id, details)
	})
	if err != nil {
		return DeleteResult{}, common.FromDB(err, "post", "delete post")
	}

	hardDeletes.WithLabelValues("post").Inc()
	s.invalidate(post.Slug)
	return DeleteResult{PermanentlyDeleted: true}, nil
}

// DuplicatePost copies a post and its gallery into a new draft in one
// transaction. Counters start from zero.
func (s *Service) DuplicatePost(ctx context.Context, actor access.Actor, id uint) (*PostView, error) {
	if err := actor.Require(access.ManageContent); err != nil {
		return nil, err
	}

	var dup models.Post
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var src models.Post
		if err := tx.Preload("Gallery", galleryByPosition).First(&src, id).Error; err != nil {
			return err
		}

		slug, err := uniqueSlug(tx, fmt.Sprintf("%s-copy-%d", src.Slug, s.now().UnixMilli()), 0)
		if err != nil {
			return err
		}

		dup = models.Post{
			Title:             "Copy of " + src.Title,
			Slug:              slug,
			Content:           src.Content,
			Category:          src.Category,
			Author:            src.Author,
			AuthorImage:       src.AuthorImage,
			AuthorLinkedIn:    src.AuthorLinkedIn,
			LinkedInFollowers: src.LinkedInFollowers,
			CoverImage:        src.CoverImage,
			ReadTime:          src.ReadTime,
			Status:            string(PostDraft),
		}
		for _, img := range src.Gallery {
			dup.Gallery = append(dup.Gallery, models.GalleryImage{Path: img.Path, Position: img.Position})
		}
		return tx.Create(&dup).Error
	})
	if err != nil {
		return nil, common.FromDB(err, "post", "duplicate post")
	}

	view := NewPostView(&dup)
	return &view, nil
}

// DeleteComment permanently removes a trashed comment and every reply
// beneath it. The subtree is walked breadth-first and deleted deepest
// level first, so no row is ever left pointing at a missing parent.
// Returns the number of comments removed.
func (s *Service) DeleteComment(ctx context.Context, actor access.Actor, id uint) (int64, error) {
	if err := actor.Require(access.ManageContent); err != nil {
		return 0, err
	}

	var comment models.Comment
	if err := s.conn(ctx).First(&comment, id).Error; err != nil {
		return 0, common.FromDB(err, "comment", "load comment")
	}
	if CommentStatus(comment.Status) != CommentTrash {
		return 0, common.Validation("comment must be in trash before it can be deleted")
	}

	var removed int64
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		levels, err := commentSubtree(tx, id)
		if err != nil {
			return err
		}
		for i := len(levels) - 1; i >= 0; i-- {
			res := tx.Where("id IN ?", levels[i]).Delete(&models.Comment{})
			if res.Error != nil {
				return res.Error
			}
			removed += res.RowsAffected
		}
		if removed == 0 {
			return gorm.ErrRecordNotFound
		}
		details := fmt.Sprintf("post=%d removed=%d", comment.PostID, removed)
		return LogModAction(tx, actor, "comment.hard_delete", "comment", id, details)
	})
	if err != nil {
		return 0, common.FromDB(err, "comment", "delete comment")
	}

	hardDeletes.WithLabelValues("comment").Add(float64(removed))
	return removed, nil
}

// commentSubtree returns the ids under root grouped by depth, root first.
func commentSubtree(tx *gorm.DB, root uint) ([][]uint, error) {
	levels := [][]uint{{root}}
	seen := map[uint]bool{root: true}
	frontier := levels[0]

	for len(frontier) > 0 {
		var children []uint
		if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		next := children[:0]
		for _, c := range children {
			if !seen[c] {
				seen[c] = true
				next = append(next, c)
			}
		}
		if len(next) == 0 {
			break
		}
		levels = append(levels, next)
		frontier = next
	}
	return levels, nil
}
