package content

import "folio/common"

type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
	PostTrash     PostStatus = "trash"
)

type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentTrash    CommentStatus = "trash"
)

// Allowed transitions. Leaving trash always goes back to the initial
// state (draft or pending); trash -> published/approved is illegal.
var (
	postTransitions = map[PostStatus][]PostStatus{
		PostDraft:     {PostPublished, PostTrash},
		PostPublished: {PostDraft, PostTrash},
		PostTrash:     {PostDraft},
	}
	commentTransitions = map[CommentStatus][]CommentStatus{
		CommentPending:  {CommentApproved, CommentTrash},
		CommentApproved: {CommentPending, CommentTrash},
		CommentTrash:    {CommentPending},
	}
)

func ParsePostStatus(s string) (PostStatus, error) {
	st := PostStatus(s)
	if _, ok := postTransitions[st]; !ok {
		return "", common.Validation("invalid post status %q", s)
	}
	return st, nil
}

func ParseCommentStatus(s string) (CommentStatus, error) {
	st := CommentStatus(s)
	if _, ok := commentTransitions[st]; !ok {
		return "", common.Validation("invalid comment status %q", s)
	}
	return st, nil
}

func (from PostStatus) CanBecome(to PostStatus) bool {
	return contains(postTransitions[from], to)
}

func (from CommentStatus) CanBecome(to CommentStatus) bool {
	return contains(commentTransitions[from], to)
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
