package content

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"folio/access"
	"folio/common"
	"folio/models"
)

type BulkOutcome string

const (
	BulkUpdated      BulkOutcome = "updated"
	BulkNotFound     BulkOutcome = "not_found"
	BulkSkippedTrash BulkOutcome = "skipped_trash"
)

type BulkItem struct {
	ID     uint        `json:"id"`
	Result BulkOutcome `json:"result"`
}

// BulkResult reports what a bulk publish actually did. Count is the
// number of rows the UPDATE matched, not the number of ids submitted.
type BulkResult struct {
	Submitted int        `json:"submitted"`
	Count     int64      `json:"count"`
	Results   []BulkItem `json:"results"`
}

// BulkSetPostPublished publishes or unpublishes a batch of posts with a
// single UPDATE. Trashed posts are never touched; bulk publishing is not
// a way out of trash. The capability check covers the whole batch.
func (s *Service) BulkSetPostPublished(ctx context.Context, actor access.Actor, ids []uint, publish bool) (*BulkResult, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil, common.Validation("ids must be a non-empty list")
	}
	if err := actor.Require(access.ManageContent); err != nil {
		return nil, err
	}

	to := PostDraft
	if publish {
		to = PostPublished
	}

	result := &BulkResult{Submitted: len(ids)}
	var existing []models.Post
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id", "slug", "status").Where("id IN ?", ids).Find(&existing).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Post{}).
			Where("id IN ? AND status <> ?", ids, string(PostTrash)).
			Updates(map[string]any{"status": string(to), "updated_at": s.now()})
		if res.Error != nil {
			return res.Error
		}
		result.Count = res.RowsAffected

		details := fmt.Sprintf("status=%s submitted=%d matched=%d", to, result.Submitted, result.Count)
		return LogModAction(tx, actor, "post.bulk_status", "post", 0, details)
	})
	if err != nil {
		return nil, common.FromDB(err, "post", "bulk update posts")
	}

	byID := make(map[uint]models.Post, len(existing))
	for _, p := range existing {
		byID[p.ID] = p
	}

	var slugs []string
	for _, id := range ids {
		item := BulkItem{ID: id, Result: BulkNotFound}
		if p, ok := byID[id]; ok {
			if PostStatus(p.Status) == PostTrash {
				item.Result = BulkSkippedTrash
			} else {
				item.Result = BulkUpdated
				slugs = append(slugs, p.Slug)
			}
		}
		bulkRows.WithLabelValues(string(item.Result)).Inc()
		result.Results = append(result.Results, item)
	}

	s.invalidate(slugs...)
	return result, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
