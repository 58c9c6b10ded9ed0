package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/internal/cache"
	"github.com/AlanSteinbarth/Kalkulator-dla-biegaczy/pkg/profile"
)

// CachedPredictor memoises another predictor's answers per profile.
// Identical profiles arriving together share one call.
type CachedPredictor struct {
	next  Predictor
	cache *cache.Cache[*Prediction]
}

// NewCached wraps next with a cache whose entries live for ttl.
func NewCached(next Predictor, ttl time.Duration) *CachedPredictor {
	return &CachedPredictor{
		next:  next,
		cache: cache.New[*Prediction](ttl),
	}
}

// Name returns the wrapped predictor's name.
func (c *CachedPredictor) Name() string {
	return c.next.Name()
}

// Predict returns a cached prediction or asks the wrapped predictor.
func (c *CachedPredictor) Predict(ctx context.Context, p profile.Profile) (*Prediction, error) {
	return c.cache.GetOrLoad(ctx, profileKey(p), func(ctx context.Context) (*Prediction, error) {
		return c.next.Predict(ctx, p)
	})
}

// Stats exposes cache counters.
func (c *CachedPredictor) Stats() cache.Stats {
	return c.cache.Stats()
}

func profileKey(p profile.Profile) string {
	return fmt.Sprintf("%d|%s|%.4f", p.Age, p.Gender, p.Pace)
}
