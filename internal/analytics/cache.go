package analytics

import (
	"context"
	"time"

	"github.com/sakif/student-dashboard/internal/model"
)

// Cache stores aggregation results by handle-set key.
//
// Implementations treat their own failures as misses and log them: a cache
// outage must degrade to slower responses, never to errors.
// Values are shared between requests and must not be mutated by callers.
type Cache interface {
	Get(ctx context.Context, key string) (*model.CombinedAnalytics, bool)
	Set(ctx context.Context, key string, value *model.CombinedAnalytics, ttl time.Duration)
	Delete(ctx context.Context, key string)
}
