// Package content owns the post and comment lifecycle: status
// transitions, delete cascades, bulk publishing and the moderation views.
// Every operation takes the acting access.Actor and checks its
// capabilities itself.
package content

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Invalidator drops cached public renderings of a post.
type Invalidator interface {
	InvalidatePost(slug string)
}

type Options struct {
	Invalidator    Invalidator
	MaxThreadDepth int
	Now            func() time.Time
}

type Service struct {
	db       *gorm.DB
	cache    Invalidator
	maxDepth int
	now      func() time.Time
}

var validate = validator.New()

func NewService(db *gorm.DB, opts Options) *Service {
	s := &Service{
		db:       db,
		cache:    opts.Invalidator,
		maxDepth: opts.MaxThreadDepth,
		now:      opts.Now,
	}
	if s.maxDepth <= 0 {
		s.maxDepth = 8
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Service) invalidate(slugs ...string) {
	if s.cache == nil {
		return
	}
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		s.cache.InvalidatePost(slug)
	}
}

func galleryByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position, id")
}
