package ebay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flipflow/flipflow/internal/gateway"
)

// quotaTTLSeconds keeps a day bucket alive slightly past midnight so a
// late read can still see yesterday's count.
const quotaTTLSeconds = 90000

// The check and the increment must be one atomic step, otherwise two
// workers racing at the limit both get through.
var quotaScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local ttl = tonumber(ARGV[2])

	local current = tonumber(redis.call("GET", key) or "0")
	if current + 1 > limit then
		return {0, current}
	end

	local v = redis.call("INCR", key)
	if v == 1 then
		redis.call("EXPIRE", key, ttl)
	end
	return {1, v}
`)

// QuotaLimiter meters gateway calls against the marketplace's daily API
// quota. With Redis the count is shared across processes; without it the
// limiter degrades to a process-local counter.
type QuotaLimiter struct {
	redis *redis.Client
	limit int

	mu         sync.Mutex
	localDay   string
	localCount int

	now func() time.Time
}

// NewQuotaLimiter creates a limiter for dailyLimit calls per UTC day.
// redisClient may be nil.
func NewQuotaLimiter(redisClient *redis.Client, dailyLimit int) *QuotaLimiter {
	return &QuotaLimiter{
		redis: redisClient,
		limit: dailyLimit,
		now:   time.Now,
	}
}

func (q *QuotaLimiter) key() string {
	return fmt.Sprintf("flipflow:quota:ebay:%s", q.now().UTC().Format("2006-01-02"))
}

// Allow consumes one call from today's quota. Returns a rate-limit
// gateway error once the quota is exhausted.
func (q *QuotaLimiter) Allow(ctx context.Context) error {
	if q.redis == nil {
		return q.allowLocal()
	}

	result, err := quotaScript.Run(ctx, q.redis, []string{q.key()}, q.limit, quotaTTLSeconds).Slice()
	if err != nil {
		return gateway.WrapError(gateway.KindTransport, "quota", err)
	}
	if result[0].(int64) == 0 {
		return gateway.NewError(gateway.KindRateLimit, "quota",
			fmt.Sprintf("daily call limit %d exhausted", q.limit))
	}
	return nil
}

func (q *QuotaLimiter) allowLocal() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	day := q.now().UTC().Format("2006-01-02")
	if day != q.localDay {
		q.localDay = day
		q.localCount = 0
	}
	if q.localCount+1 > q.limit {
		return gateway.NewError(gateway.KindRateLimit, "quota",
			fmt.Sprintf("daily call limit %d exhausted", q.limit))
	}
	q.localCount++
	return nil
}

// Usage returns today's consumed call count and the configured limit.
func (q *QuotaLimiter) Usage(ctx context.Context) (used, limit int, err error) {
	if q.redis == nil {
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.now().UTC().Format("2006-01-02") != q.localDay {
			return 0, q.limit, nil
		}
		return q.localCount, q.limit, nil
	}

	n, err := q.redis.Get(ctx, q.key()).Int()
	if err != nil && err != redis.Nil {
		return 0, q.limit, gateway.WrapError(gateway.KindTransport, "quota", err)
	}
	return n, q.limit, nil
}
