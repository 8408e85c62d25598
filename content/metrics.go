package content

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "status_transitions_total",
			Help:      "Status transitions applied to posts and comments.",
		},
		[]string{"kind", "from", "to"},
	)

	hardDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "hard_deletes_total",
			Help:      "Posts and comments permanently removed.",
		},
		[]string{"kind"},
	)

	bulkRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "bulk_rows_total",
			Help:      "Per-id outcomes of bulk publish requests.",
		},
		[]string{"result"},
	)

	commentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "comments_created_total",
			Help:      "Comments accepted into the moderation queue.",
		},
		[]string{"author_role"},
	)
)
