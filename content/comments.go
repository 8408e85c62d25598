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
	AuthorVisitor = "visitor"
	AuthorAdmin   = "admin"
)

type CommentInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Content  string `json:"content" validate:"required,max=2000"`
	ParentID *uint  `json:"parent_id"`
}

// CreateComment queues a comment for moderation. New comments are always
// pending, whoever writes them. Replies must target a live comment on the
// same post and stay within the configured thread depth.
func (s *Service) CreateComment(ctx context.Context, actor access.Actor, postID uint, in CommentInput) (*CommentView, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Content = strings.TrimSpace(in.Content)
	if err := validate.Struct(in); err != nil {
		return nil, common.Invalid(err)
	}
	if err := actor.Require(access.Comment); err != nil {
		return nil, err
	}
	moderator := actor.Can(access.ManageContent)

	comment := models.Comment{
		PostID:     postID,
		ParentID:   in.ParentID,
		Name:       in.Name,
		Email:      in.Email,
		Content:    in.Content,
		AuthorRole: AuthorVisitor,
		Status:     string(CommentPending),
	}
	if moderator {
		comment.AuthorRole = AuthorAdmin
	}

	var title string
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "title", "status").First(&post, postID).Error; err != nil {
			return err
		}
		status := PostStatus(post.Status)
		if status == PostTrash || (!moderator && status != PostPublished) {
			return gorm.ErrRecordNotFound
		}
		title = post.Title

		if in.ParentID != nil {
			var parent models.Comment
			if err := tx.First(&parent, *in.ParentID).Error; err != nil {
				return common.FromDB(err, "parent comment", "load parent comment")
			}
			if parent.PostID != postID {
				return common.Validation("parent comment belongs to another post")
			}
			if CommentStatus(parent.Status) == CommentTrash {
				return common.Validation("cannot reply to a deleted comment")
			}
			comment.Depth = parent.Depth + 1
			if comment.Depth >= s.maxDepth {
				return common.Validation("reply thread is limited to %d levels", s.maxDepth)
			}
		}

		return tx.Create(&comment).Error
	})
	if err != nil {
		return nil, common.FromDB(err, "post", "create comment")
	}

	commentsCreated.WithLabelValues(comment.AuthorRole).Inc()
	return &CommentView{Comment: comment, PostTitle: title}, nil
}

// SetCommentStatus moves a comment along the comment transition table,
// with the same ordering of checks as SetPostStatus.
func (s *Service) SetCommentStatus(ctx context.Context, actor access.Actor, id uint, target string) (*CommentView, error) {
	to, err := ParseCommentStatus(target)
	if err != nil {
		return nil, err
	}
	if err := actor.Require(access.ManageContent); err != nil {
		return nil, err
	}

	db := s.conn(ctx)
	for attempt := 0; attempt < 2; attempt++ {
		var comment models.Comment
		if err := db.First(&comment, id).Error; err != nil {
			return nil, common.FromDB(err, "comment", "load comment")
		}

		from := CommentStatus(comment.Status)
		if from == to {
			return &CommentView{Comment: comment}, nil
		}
		if !from.CanBecome(to) {
			return nil, common.Validation("illegal comment transition %s -> %s", from, to)
		}

		res := db.Model(&models.Comment{}).
			Where("id = ? AND status = ?", id, string(from)).
			Update("status", string(to))
		if res.Error != nil {
			return nil, common.Storage("update comment status", res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}

		statusTransitions.WithLabelValues("comment", string(from), string(to)).Inc()
		comment.Status = string(to)
		return &CommentView{Comment: comment}, nil
	}

	return nil, common.Conflict("comment %d was modified concurrently, retry", id)
}
