package content

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"folio/access"
	"folio/common"
	"folio/models"
)

const (
	maxSlugLength  = 50
	wordsPerMinute = 200
)

type PostInput struct {
	Title             string   `json:"title" validate:"required,min=2,max=200"`
	Content           string   `json:"content" validate:"required,min=5"`
	Category          string   `json:"category" validate:"required,min=2,max=50"`
	Author            string   `json:"author" validate:"required,min=2,max=100"`
	AuthorImage       string   `json:"author_image" validate:"omitempty,max=500"`
	AuthorLinkedIn    string   `json:"author_linkedin" validate:"omitempty,url"`
	LinkedInFollowers int      `json:"linkedin_followers" validate:"gte=0"`
	CoverImage        string   `json:"cover_image" validate:"omitempty,max=500"`
	Status            string   `json:"status" validate:"omitempty,oneof=draft published"`
	Gallery           []string `json:"gallery" validate:"dive,required,max=500"`
}

// PostUpdate carries a partial edit. It has no status field; edits never
// move a post through its lifecycle. Gallery paths are appended.
type PostUpdate struct {
	Title             *string  `json:"title" validate:"omitempty,min=2,max=200"`
	Content           *string  `json:"content" validate:"omitempty,min=5"`
	Category          *string  `json:"category" validate:"omitempty,min=2,max=50"`
	Author            *string  `json:"author" validate:"omitempty,min=2,max=100"`
	AuthorImage       *string  `json:"author_image" validate:"omitempty,max=500"`
	AuthorLinkedIn    *string  `json:"author_linkedin" validate:"omitempty,url"`
	LinkedInFollowers *int     `json:"linkedin_followers" validate:"omitempty,gte=0"`
	CoverImage        *string  `json:"cover_image" validate:"omitempty,max=500"`
	Gallery           []string `json:"gallery" validate:"dive,required,max=500"`
}

func (s *Service) CreatePost(ctx context.Context, actor access.Actor, in PostInput) (*PostView, error) {
	if err := validate.Struct(in); err != nil {
		return nil, common.Invalid(err)
	}
	if err := actor.Require(access.ManageContent); err != nil {
		return nil, err
	}

	status := PostDraft
	if in.Status != "" {
		status = PostStatus(in.Status)
	}

	post := models.Post{
		Title:             strings.TrimSpace(in.Title),
		Content:           in.Content,
		Category:          strings.TrimSpace(in.Category),
		Author:            strings.TrimSpace(in.Author),
		AuthorImage:       in.AuthorImage,
		AuthorLinkedIn:    in.AuthorLinkedIn,
		LinkedInFollowers: in.LinkedInFollowers,
		CoverImage:        in.CoverImage,
		ReadTime:          readTime(in.Content),
		Status:            string(status),
		Gallery:           newGallery(in.Gallery, 0),
	}

	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := uniqueSlug(tx, generateSlug(post.Title), 0)
		if err != nil {
			return err
		}
		post.Slug = slug
		return tx.Create(&post).Error
	})
	if err != nil {
		return nil, common.FromDB(err, "post", "create post")
	}

	view := NewPostView(&post)
	return &view, nil
}

func (s *Service) UpdatePost(ctx context.Context, actor access.Actor, id uint, in PostUpdate) (*PostView, error) {
	if err := validate.Struct(in); err != nil {
		return nil, common.Invalid(err)
	}
	if err := actor.Require(access.ManageContent); err != nil {
		return nil, err
	}

	var post models.Post
	var oldSlug string
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		oldSlug = post.Slug

		updates := map[string]any{}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			slug, err := uniqueSlug(tx, generateSlug(title), id)
			if err != nil {
				return err
			}
			updates["title"] = title
			updates["slug"] = slug
		}
		if in.Content != nil {
			updates["content"] = *in.Content
			updates["read_time"] = readTime(*in.Content)
		}
		if in.Category != nil {
			updates["category"] = strings.TrimSpace(*in.Category)
		}
		if in.Author != nil {
			updates["author"] = strings.TrimSpace(*in.Author)
		}
		if in.AuthorImage != nil {
			updates["author_image"] = *in.AuthorImage
		}
		if in.AuthorLinkedIn != nil {
			updates["author_linkedin"] = *in.AuthorLinkedIn
		}
		if in.LinkedInFollowers != nil {
			updates["linkedin_followers"] = *in.LinkedInFollowers
		}
		if in.CoverImage != nil {
			updates["cover_image"] = *in.CoverImage
		}
		if len(updates) > 0 {
			if err := tx.Model(&post).Updates(updates).Error; err != nil {
				return err
			}
		}

		if len(in.Gallery) > 0 {
			var last int
			if err := tx.Model(&models.GalleryImage{}).Where("post_id = ?", id).
				Select("COALESCE(MAX(position), -1)").Scan(&last).Error; err != nil {
				return err
			}
			images := newGallery(in.Gallery, last+1)
			for i := range images {
				images[i].PostID = id
			}
			if err := tx.Create(&images).Error; err != nil {
				return err
			}
		}

		return tx.Preload("Gallery", galleryByPosition).First(&post, id).Error
	})
	if err != nil {
		return nil, common.FromDB(err, "post", "update post")
	}

	s.invalidate(oldSlug, post.Slug)
	view := NewPostView(&post)
	return &view, nil
}

// SetPostStatus moves a post along the post transition table. Requesting
// the current status is a successful no-op. The write is guarded by the
// status it was read with; a lost race is re-evaluated once.
func (s *Service) SetPostStatus(ctx context.Context, actor access.Actor, id uint, target string) (*PostView, error) {
	to, err := ParsePostStatus(target)
	if err != nil {
		return nil, err
	}
	if err := actor.Require(access.ManageContent); err != nil {
		return nil, err
	}

	db := s.conn(ctx)
	for attempt := 0; attempt < 2; attempt++ {
		var post models.Post
		if err := db.First(&post, id).Error; err != nil {
			return nil, common.FromDB(err, "post", "load post")
		}

		from := PostStatus(post.Status)
		if from == to {
			view := NewPostView(&post)
			return &view, nil
		}
		if !from.CanBecome(to) {
			return nil, common.Validation("illegal post transition %s -> %s", from, to)
		}

		now := s.now()
		res := db.Model(&models.Post{}).
			Where("id = ? AND status = ?", id, string(from)).
			Updates(map[string]any{"status": string(to), "updated_at": now})
		if res.Error != nil {
			return nil, common.Storage("update post status", res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}

		statusTransitions.WithLabelValues("post", string(from), string(to)).Inc()
		s.invalidate(post.Slug)

		post.Status = string(to)
		post.UpdatedAt = now
		view := NewPostView(&post)
		return &view, nil
	}

	return nil, common.Conflict("post %d was modified concurrently, retry", id)
}

// GetPost returns any post, whatever its status, for editing.
func (s *Service) GetPost(ctx context.Context, actor access.Actor, id uint) (*PostView, error) {
	if err := actor.Require(access.ManageContent); err != nil {
		return nil, err
	}
	var post models.Post
	if err := s.conn(ctx).Preload("Gallery", galleryByPosition).First(&post, id).Error; err != nil {
		return nil, common.FromDB(err, "post", "load post")
	}
	view := NewPostView(&post)
	return &view, nil
}

func (s *Service) RemoveGalleryImage(ctx context.Context, actor access.Actor, postID, imageID uint) error {
	if err := actor.Require(access.ManageContent); err != nil {
		return err
	}

	var post models.Post
	if err := s.conn(ctx).Select("id", "slug").First(&post, postID).Error; err != nil {
		return common.FromDB(err, "post", "load post")
	}
	res := s.conn(ctx).Where("id = ? AND post_id = ?", imageID, postID).Delete(&models.GalleryImage{})
	if res.Error != nil {
		return common.Storage("delete gallery image", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("gallery image")
	}

	s.invalidate(post.Slug)
	return nil
}

// RecordView counts a read of a published post.
func (s *Service) RecordView(ctx context.Context, id uint) error {
	res := s.conn(ctx).Model(&models.Post{}).
		Where("id = ? AND status = ?", id, string(PostPublished)).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return common.Storage("record view", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("post")
	}
	return nil
}

// Like increments the like counter of a published post and returns the
// new total.
func (s *Service) Like(ctx context.Context, id uint) (int, error) {
	var post models.Post
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).
			Where("id = ? AND status = ?", id, string(PostPublished)).
			UpdateColumn("likes", gorm.Expr("likes + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Select("id", "slug", "likes").First(&post, id).Error
	})
	if err != nil {
		return 0, common.FromDB(err, "post", "like post")
	}

	s.invalidate(post.Slug)
	return post.Likes, nil
}

func newGallery(paths []string, start int) []models.GalleryImage {
	if len(paths) == 0 {
		return nil
	}
	images := make([]models.GalleryImage, len(paths))
	for i, p := range paths {
		images[i] = models.GalleryImage{Path: strings.TrimSpace(p), Position: start + i}
	}
	return images
}

// uniqueSlug returns base, or base with the first free numeric suffix.
// The post identified by exceptID may keep its own slug.
func uniqueSlug(tx *gorm.DB, base string, exceptID uint) (string, error) {
	if base == "" {
		base = "post"
	}
	candidate := base
	for n := 2; ; n++ {
		var count int64
		if err := tx.Model(&models.Post{}).Where("slug = ? AND id <> ?", candidate, exceptID).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

var (
	foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	nonSlug     = regexp.MustCompile(`[^a-z0-9]+`)
	htmlTag     = regexp.MustCompile(`<[^>]*>`)
)

// generateSlug lowercases the title, folds accents, and joins the
// remaining alphanumeric runs with dashes, capped at 50 characters.
func generateSlug(title string) string {
	folded, _, err := transform.String(foldAccents, title)
	if err != nil {
		folded = title
	}
	slug := nonSlug.ReplaceAllString(strings.ToLower(folded), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	return slug
}

// readTime estimates minutes to read at 200 words per minute, ignoring
// markup. Never less than one minute.
func readTime(content string) int {
	words := len(strings.Fields(htmlTag.ReplaceAllString(content, " ")))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
