package services

import (
	"context"

	"golang.org/x/sync/singleflight"

	"finboss/internal/core"
	applog "finboss/internal/log"
)

const msgLoadAnalytics = "Failed to load analytics"

type AnalyticsAPI interface {
	CategoryBreakdown(ctx context.Context) (core.Envelope[[]core.CategoryBreakdown], error)
}

// AnalyticsService owns the category breakdown report.
type AnalyticsService struct {
	*base[[]core.CategoryBreakdown]
	client AnalyticsAPI
	group  singleflight.Group
}

func NewAnalyticsService(client AnalyticsAPI, logger *applog.Logger) *AnalyticsService {
	return &AnalyticsService{
		base:   newBase[[]core.CategoryBreakdown](nil, logger, applog.ComponentAnalytics, nil),
		client: client,
	}
}

// LoadCategoryBreakdown replaces the report wholesale. Concurrent calls
// share one request.
func (s *AnalyticsService) LoadCategoryBreakdown(ctx context.Context) {
	_, _, _ = s.group.Do("category", func() (any, error) {
		execute(ctx, s.base, operation[[]core.CategoryBreakdown, []core.CategoryBreakdown]{
			name: applog.OpAnalyze,
			call: unwrap(msgLoadAnalytics, s.client.CategoryBreakdown),
			merge: func(_ []core.CategoryBreakdown, fresh []core.CategoryBreakdown) []core.CategoryBreakdown {
				return append([]core.CategoryBreakdown(nil), fresh...)
			},
		})
		return nil, nil
	})
}
