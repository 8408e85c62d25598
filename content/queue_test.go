package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/common"
)

func postIDs(items []PostView) []uint {
	ids := make([]uint, len(items))
	for i, p := range items {
		ids[i] = p.ID
	}
	return ids
}

func TestLifecycle_PublishTrashRestore(t *testing.T) {
	svc, _, _ := setupService(t, Options{})
	ctx := context.Background()

	created, err := svc.CreatePost(ctx, editorActor, PostInput{
		Title:    "Lifecycle post",
		Content:  "A post that travels through every state.",
		Category: "process",
		Author:   "Editor",
	})
	require.NoError(t, err)
	assert.Equal(t, PostDraft, created.Status)

	public := func() []uint {
		l, err := svc.ListPublishedPosts(ctx, PublicQuery{})
		require.NoError(t, err)
		return postIDs(l.Items)
	}
	adminAll := func() []uint {
		l, err := svc.ListPosts(ctx, editorActor, Query{Status: "all"})
		require.NoError(t, err)
		return postIDs(l.Items)
	}

	_, err = svc.SetPostStatus(ctx, editorActor, created.ID, "published")
	require.NoError(t, err)
	assert.Contains(t, public(), created.ID)

	_, err = svc.SetPostStatus(ctx, editorActor, created.ID, "trash")
	require.NoError(t, err)
	assert.NotContains(t, public(), created.ID)
	assert.NotContains(t, adminAll(), created.ID)

	_, err = svc.SetPostStatus(ctx, editorActor, created.ID, "draft")
	require.NoError(t, err)
	assert.NotContains(t, public(), created.ID)
	assert.Contains(t, adminAll(), created.ID)
}

func TestListPosts_Filters(t *testing.T) {
	svc, db, _ := setupService(t, Options{})
	draft := createTestPost(t, db, PostDraft)
	published := createTestPost(t, db, PostPublished)
	trashed := createTestPost(t, db, PostTrash)
	require.NoError(t, db.Model(published).Update("title", "Scaling SQLite Writes").Error)

	all, err := svc.ListPosts(context.Background(), editorActor, Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
	assert.Equal(t, []uint{published.ID, draft.ID}, postIDs(all.Items))

	trash, err := svc.ListPosts(context.Background(), editorActor, Query{Status: "trash"})
	require.NoError(t, err)
	assert.Equal(t, []uint{trashed.ID}, postIDs(trash.Items))

	found, err := svc.ListPosts(context.Background(), editorActor, Query{Status: "all", Search: "sqlite WRITES"})
	require.NoError(t, err)
	assert.Equal(t, []uint{published.ID}, postIDs(found.Items))

	_, err = svc.ListPosts(context.Background(), editorActor, Query{Status: "archived"})
	assert.True(t, common.IsKind(err, common.KindValidation))

	_, err = svc.ListPosts(context.Background(), viewerActor, Query{})
	assert.True(t, common.IsKind(err, common.KindAuthorization))
}

func TestListPosts_SearchIsLiteral(t *testing.T) {
	svc, db, _ := setupService(t, Options{})
	percent := createTestPost(t, db, PostDraft)
	plain := createTestPost(t, db, PostDraft)
	require.NoError(t, db.Model(percent).Update("title", "100% Uptime").Error)
	require.NoError(t, db.Model(plain).Update("title", "1000 Requests").Error)

	tests := []struct {
		search string
		want   []uint
	}{
		{"100%", []uint{percent.ID}},
		{"%", []uint{percent.ID}},
		{"100", []uint{plain.ID, percent.ID}},
		{"_", []uint{}},
		{`\`, []uint{}},
	}
	for _, tt := range tests {
		found, err := svc.ListPosts(context.Background(), editorActor, Query{Search: tt.search})
		require.NoError(t, err, tt.search)
		assert.Equal(t, tt.want, postIDs(found.Items), tt.search)
	}
}

func TestListPosts_Pagination(t *testing.T) {
	svc, db, _ := setupService(t, Options{})
	for i := 0; i < 5; i++ {
		createTestPost(t, db, PostDraft)
	}

	page, err := svc.ListPosts(context.Background(), editorActor, Query{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.Pages)
	assert.Len(t, page.Items, 1)

	capped, err := svc.ListPosts(context.Background(), editorActor, Query{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, capped.Items, 5)
	assert.Equal(t, 1, capped.Pages)
}

func TestListComments(t *testing.T) {
	svc, db, _ := setupService(t, Options{})
	post := createTestPost(t, db, PostPublished)
	pending := createTestComment(t, db, post.ID, nil, CommentPending)
	trashed := createTestComment(t, db, post.ID, nil, CommentTrash)
	require.NoError(t, db.Model(trashed).Update("email", "Spammer@Example.net").Error)

	all, err := svc.ListComments(context.Background(), editorActor, Query{Status: "all"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
	assert.Equal(t, post.Title, all.Items[0].PostTitle)

	onlyPending, err := svc.ListComments(context.Background(), editorActor, Query{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, onlyPending.Items, 1)
	assert.Equal(t, pending.ID, onlyPending.Items[0].ID)

	found, err := svc.ListComments(context.Background(), editorActor, Query{Search: "spammer@"})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, trashed.ID, found.Items[0].ID)

	_, err = svc.ListComments(context.Background(), editorActor, Query{Status: "published"})
	assert.True(t, common.IsKind(err, common.KindValidation))
}

func TestPublicReads(t *testing.T) {
	svc, db, _ := setupService(t, Options{})
	live := createTestPost(t, db, PostPublished, "/img/1.png")
	draft := createTestPost(t, db, PostDraft)
	require.NoError(t, db.Model(draft).Update("category", "secret").Error)
	approved := createTestComment(t, db, live.ID, nil, CommentApproved)
	createTestComment(t, db, live.ID, nil, CommentPending)
	createTestComment(t, db, live.ID, nil, CommentTrash)

	view, err := svc.PublishedPostBySlug(context.Background(), live.Slug)
	require.NoError(t, err)
	assert.True(t, view.IsPublished)
	assert.Len(t, view.Gallery, 1)

	_, err = svc.PublishedPostBySlug(context.Background(), draft.Slug)
	assert.True(t, common.IsKind(err, common.KindNotFound))

	view, err = svc.PublishedPostByID(context.Background(), live.ID)
	require.NoError(t, err)
	assert.Equal(t, live.Slug, view.Slug)
	assert.Len(t, view.Gallery, 1)

	_, err = svc.PublishedPostByID(context.Background(), draft.ID)
	assert.True(t, common.IsKind(err, common.KindNotFound))
	_, err = svc.PublishedPostByID(context.Background(), 9999)
	assert.True(t, common.IsKind(err, common.KindNotFound))

	comments, err := svc.ListApprovedComments(context.Background(), live.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, approved.ID, comments[0].ID)

	_, err = svc.ListApprovedComments(context.Background(), draft.ID)
	assert.True(t, common.IsKind(err, common.KindNotFound))

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"engineering"}, categories)

	filtered, err := svc.ListPublishedPosts(context.Background(), PublicQuery{Category: "secret"})
	require.NoError(t, err)
	assert.Empty(t, filtered.Items)
}

func TestListModActions_RequiresManageUsers(t *testing.T) {
	svc, db, _ := setupService(t, Options{})
	post := createTestPost(t, db, PostTrash)
	_, err := svc.DeletePost(context.Background(), editorActor, post.ID, false)
	require.NoError(t, err)

	_, err = svc.ListModActions(context.Background(), editorActor, 1, 10)
	assert.True(t, common.IsKind(err, common.KindAuthorization))

	actions, err := svc.ListModActions(context.Background(), adminActor, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), actions.Total)
	assert.Equal(t, "post.hard_delete", actions.Items[0].Action)
}
