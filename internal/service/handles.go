package service

import (
	"context"
	"fmt"

	"github.com/sakif/student-dashboard/internal/analytics"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/repository"
)

// compile-time check that LinkedHandles feeds the cache warmer
var _ analytics.HandleSource = (*LinkedHandles)(nil)

// LinkedHandles lists the analytics handle-sets of every student who linked
// at least one supported platform. Students sharing the same handles
// (case-insensitively) yield one set.
type LinkedHandles struct {
	links repository.LinksRepository
}

func NewLinkedHandles(links repository.LinksRepository) *LinkedHandles {
	return &LinkedHandles{links: links}
}

func (h *LinkedHandles) ListHandleSets(ctx context.Context) ([][]model.PlatformHandle, error) {
	rows, err := h.links.ListLinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/handles: %w", err)
	}

	sets := make([][]model.PlatformHandle, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for i := range rows {
		set := rows[i].AnalyticsHandles()
		if len(set) == 0 {
			continue
		}
		key := analytics.Key(set)
		if seen[key] {
			continue
		}
		seen[key] = true
		sets = append(sets, set)
	}
	return sets, nil
}
