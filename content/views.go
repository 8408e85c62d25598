package content

import (
	"time"

	"folio/models"
)

// PostView is the serialized form of a post. IsPublished is computed from
// Status and never read from storage.
type PostView struct {
	ID                uint                  `json:"id"`
	Title             string                `json:"title"`
	Slug              string                `json:"slug"`
	Content           string                `json:"content"`
	HTML              string                `json:"html,omitempty"`
	Category          string                `json:"category"`
	Author            string                `json:"author"`
	AuthorImage       string                `json:"author_image"`
	AuthorLinkedIn    string                `json:"author_linkedin"`
	LinkedInFollowers int                   `json:"linkedin_followers"`
	CoverImage        string                `json:"cover_image"`
	ReadTime          int                   `json:"read_time"`
	Status            PostStatus            `json:"status"`
	IsPublished       bool                  `json:"is_published"`
	Views             int                   `json:"views"`
	Likes             int                   `json:"likes"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	Gallery           []models.GalleryImage `json:"gallery,omitempty"`
}

func NewPostView(p *models.Post) PostView {
	status := PostStatus(p.Status)
	return PostView{
		ID:                p.ID,
		Title:             p.Title,
		Slug:              p.Slug,
		Content:           p.Content,
		Category:          p.Category,
		Author:            p.Author,
		AuthorImage:       p.AuthorImage,
		AuthorLinkedIn:    p.AuthorLinkedIn,
		LinkedInFollowers: p.LinkedInFollowers,
		CoverImage:        p.CoverImage,
		ReadTime:          p.ReadTime,
		Status:            status,
		IsPublished:       status == PostPublished,
		Views:             p.Views,
		Likes:             p.Likes,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Gallery:           p.Gallery,
	}
}

func postViews(posts []models.Post) []PostView {
	out := make([]PostView, len(posts))
	for i := range posts {
		out[i] = NewPostView(&posts[i])
	}
	return out
}

type CommentView struct {
	models.Comment
	PostTitle string `json:"post_title,omitempty"`
}
