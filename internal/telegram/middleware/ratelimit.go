package middleware

import (
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	warningInterval   = 30 * time.Second
	cleanupInterval   = 10 * time.Minute
	inactiveThreshold = time.Hour
)

// userBucket is one user's token bucket plus warning bookkeeping.
type userBucket struct {
	mu            sync.Mutex
	tokens        float64
	lastRefill    time.Time
	warningsSent  int
	lastWarningAt time.Time
}

// take refills the bucket for the elapsed time and consumes one token,
// reporting whether one was available.
func (b *userBucket) take(now time.Time, capacity, refillRate float64) bool {
	b.tokens += now.Sub(b.lastRefill).Seconds() * refillRate
	if b.tokens > capacity {
		b.tokens = capacity
	}
	b.lastRefill = now

	if b.tokens < 1.0 {
		return false
	}

	b.tokens--
	b.warningsSent = 0
	return true
}

// RateLimiterMiddleware applies a per-user token bucket. The bucket holds
// burstSize tokens and refills at the sustained per-minute rate, so short
// bursts pass but sustained flooding does not.
type RateLimiterMiddleware struct {
	mu         sync.RWMutex
	buckets    map[int64]*userBucket
	capacity   float64
	refillRate float64
	logger     *zap.Logger
	api        *tgbotapi.BotAPI
}

func NewRateLimiterMiddleware(
	requestsPerMinute int,
	burstSize int,
	logger *zap.Logger,
	api *tgbotapi.BotAPI,
) *RateLimiterMiddleware {
	if burstSize < 1 {
		burstSize = 1
	}

	rl := &RateLimiterMiddleware{
		buckets:    make(map[int64]*userBucket),
		capacity:   float64(burstSize),
		refillRate: float64(requestsPerMinute) / 60.0,
		logger:     logger,
		api:        api,
	}
	go rl.evictInactive()

	return rl
}

func (rl *RateLimiterMiddleware) Handle(update tgbotapi.Update, next func(tgbotapi.Update)) {
	userID, chatID, _ := classifyUpdate(update)
	if userID == 0 {
		// Service updates carry no sender worth limiting.
		next(update)
		return
	}

	if !rl.allow(userID, chatID) {
		rl.logger.Warn("rate limit exceeded",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", chatID),
		)
		return
	}

	next(update)
}

func (rl *RateLimiterMiddleware) allow(userID, chatID int64) bool {
	bucket := rl.bucketFor(userID)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	now := time.Now()
	if bucket.take(now, rl.capacity, rl.refillRate) {
		return true
	}

	if now.Sub(bucket.lastWarningAt) > warningInterval {
		bucket.warningsSent++
		bucket.lastWarningAt = now
		rl.sendWarning(chatID, bucket.warningsSent)
	}

	return false
}

func (rl *RateLimiterMiddleware) bucketFor(userID int64) *userBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.buckets[userID]
	if !ok {
		bucket = &userBucket{tokens: rl.capacity, lastRefill: time.Now()}
		rl.buckets[userID] = bucket
	}

	return bucket
}

func (rl *RateLimiterMiddleware) sendWarning(chatID int64, warningCount int) {
	var text string
	switch {
	case warningCount == 1:
		text = "⚠️ 请求太快了，请稍等片刻。"
	case warningCount == 2:
		text = "⚠️ 已超出请求限制，请等待约30秒后再试。"
	default:
		text = "🛑 请求过于频繁，请等待一分钟后再试。"
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := rl.api.Send(msg); err != nil {
		rl.logger.Error("failed to send rate limit warning",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

// evictInactive drops buckets for users idle longer than inactiveThreshold
// so the map does not grow without bound.
func (rl *RateLimiterMiddleware) evictInactive() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		rl.mu.Lock()
		for userID, bucket := range rl.buckets {
			bucket.mu.Lock()
			idle := now.Sub(bucket.lastRefill) > inactiveThreshold
			bucket.mu.Unlock()

			if idle {
				delete(rl.buckets, userID)
				rl.logger.Debug("evicted idle user from rate limiter",
					zap.Int64("user_id", userID))
			}
		}
		rl.mu.Unlock()
	}
}
