package content

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/common"
	"folio/models"
)

func validPost(title string) PostInput {
	return PostInput{
		Title:    title,
		Content:  "Body text long enough to pass validation.",
		Category: "engineering",
		Author:   "Ada Lovelace",
	}
}

func TestCreatePost_DefaultsToDraft(t *testing.T) {
	svc, _, _ := setupService(t, Options{})

	view, err := svc.CreatePost(context.Background(), editorActor, validPost("Hello, World!"))
	require.NoError(t, err)
	assert.Equal(t, PostDraft, view.Status)
	assert.False(t, view.IsPublished)
	assert.Equal(t, "hello-world", view.Slug)
	assert.Equal(t, 1, view.ReadTime)
}

func TestCreatePost_StatusAndGallery(t *testing.T) {
	svc, _, _ := setupService(t, Options{})

	in := validPost("Launch notes")
	in.Status = "published"
	in.Gallery = []string{"/img/a.png", "/img/b.png"}
	view, err := svc.CreatePost(context.Background(), editorActor, in)
	require.NoError(t, err)
	assert.True(t, view.IsPublished)
	require.Len(t, view.Gallery, 2)
	assert.Equal(t, 0, view.Gallery[0].Position)
	assert.Equal(t, 1, view.Gallery[1].Position)

	in.Status = "trash"
	_, err = svc.CreatePost(context.Background(), editorActor, in)
	assert.True(t, common.IsKind(err, common.KindValidation))
}

func TestCreatePost_SlugCollisionsGetSuffix(t *testing.T) {
	svc, _, _ := setupService(t, Options{})

	var slugs []string
	for i := 0; i < 3; i++ {
		view, err := svc.CreatePost(context.Background(), editorActor, validPost("Same Title"))
		require.NoError(t, err)
		slugs = append(slugs, view.Slug)
	}
	assert.Equal(t, []string{"same-title", "same-title-2", "same-title-3"}, slugs)
}

func TestCreatePost_RequiresManageContent(t *testing.T) {
	svc, _, _ := setupService(t, Options{})

	_, err := svc.CreatePost(context.Background(), viewerActor, validPost("Nope"))
	assert.True(t, common.IsKind(err, common.KindAuthorization))

	_, err = svc.CreatePost(context.Background(), editorActor, PostInput{Title: "x"})
	assert.True(t, common.IsKind(err, common.KindValidation))
}

func TestUpdatePost(t *testing.T) {
	svc, db, cache := setupService(t, Options{})
	post := createTestPost(t, db, PostPublished, "/img/first.png")

	title := "A Brand New Title"
	content := strings.Repeat("word ", 450)
	view, err := svc.UpdatePost(context.Background(), editorActor, post.ID, PostUpdate{
		Title:   &title,
		Content: &content,
		Gallery: []string{"/img/second.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, "a-brand-new-title", view.Slug)
	assert.Equal(t, PostPublished, view.Status)
	assert.Equal(t, 3, view.ReadTime)
	require.Len(t, view.Gallery, 2)
	assert.Equal(t, "/img/second.png", view.Gallery[1].Path)
	assert.Equal(t, 1, view.Gallery[1].Position)
	assert.ElementsMatch(t, []string{post.Slug, "a-brand-new-title"}, cache.invalidated())
}

func TestUpdatePost_KeepsOwnSlug(t *testing.T) {
	svc, db, _ := setupService(t, Options{})
	post := createTestPost(t, db, PostDraft)

	view, err := svc.UpdatePost(context.Background(), editorActor, post.ID, PostUpdate{Title: &post.Title})
	require.NoError(t, err)
	assert.Equal(t, post.Slug, view.Slug)

	_, err = svc.UpdatePost(context.Background(), editorActor, 9999, PostUpdate{Title: &post.Title})
	assert.True(t, common.IsKind(err, common.KindNotFound))
}

func TestRemoveGalleryImage(t *testing.T) {
	svc, db, cache := setupService(t, Options{})
	post := createTestPost(t, db, PostPublished, "/img/a.png", "/img/b.png")
	var images []models.GalleryImage
	require.NoError(t, db.Where("post_id = ?", post.ID).Order("position").Find(&images).Error)

	require.NoError(t, svc.RemoveGalleryImage(context.Background(), editorActor, post.ID, images[0].ID))
	assert.Equal(t, []string{post.Slug}, cache.invalidated())

	err := svc.RemoveGalleryImage(context.Background(), editorActor, post.ID, images[0].ID)
	assert.True(t, common.IsKind(err, common.KindNotFound))

	view, err := svc.GetPost(context.Background(), editorActor, post.ID)
	require.NoError(t, err)
	require.Len(t, view.Gallery, 1)
	assert.Equal(t, "/img/b.png", view.Gallery[0].Path)
}

func TestCounters_PublishedOnly(t *testing.T) {
	svc, db, _ := setupService(t, Options{})
	live := createTestPost(t, db, PostPublished)
	draft := createTestPost(t, db, PostDraft)

	require.NoError(t, svc.RecordView(context.Background(), live.ID))
	require.NoError(t, svc.RecordView(context.Background(), live.ID))
	assert.Equal(t, 2, reloadPost(t, db, live.ID).Views)

	likes, err := svc.Like(context.Background(), live.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)

	assert.True(t, common.IsKind(svc.RecordView(context.Background(), draft.ID), common.KindNotFound))
	_, err = svc.Like(context.Background(), draft.ID)
	assert.True(t, common.IsKind(err, common.KindNotFound))
	assert.Zero(t, reloadPost(t, db, draft.ID).Likes)
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Go: Concurrency & You!  ", "go-concurrency-you"},
		{"Crème Brûlée à la carte", "creme-brulee-a-la-carte"},
		{"---", ""},
		{strings.Repeat("abcde ", 20), "abcde-abcde-abcde-abcde-abcde-abcde-abcde-abcde-ab"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, generateSlug(tt.title))
		})
	}
}

func TestReadTime(t *testing.T) {
	assert.Equal(t, 1, readTime(""))
	assert.Equal(t, 1, readTime("<p>short</p>"))
	assert.Equal(t, 1, readTime(strings.Repeat("w ", 200)))
	assert.Equal(t, 2, readTime(strings.Repeat("w ", 201)))
	assert.Equal(t, 2, readTime("<div>"+strings.Repeat("w ", 300)+"</div>"))
}
