// Package cache keeps authored quiz definitions in redis. Quizzes are
// read-only to students, so a short TTL is the only invalidation needed.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"coursehub/logger"
	courseModels "coursehub/models/course"
)

const quizKeyPrefix = "quiz:detail:"

// QuizLoader is the slow path, normally repository.Store.LoadQuizWithQuestions
// bound to a nil tx.
type QuizLoader func(ctx context.Context, quizID string) (*courseModels.Quiz, []courseModels.Question, error)

type QuizCache struct {
	rdb   *redis.Client
	ttl   time.Duration
	load  QuizLoader
	group singleflight.Group
	log   *logger.Logger
}

// NewQuizCache works without redis: a nil client turns it into a plain
// loader that still collapses concurrent loads of the same quiz.
func NewQuizCache(rdb *redis.Client, ttl time.Duration, load QuizLoader, baseLog *logger.Logger) *QuizCache {
	return &QuizCache{rdb: rdb, ttl: ttl, load: load, log: baseLog.With("cache", "QuizCache")}
}

type quizEntry struct {
	Quiz      *courseModels.Quiz      `json:"quiz"`
	Questions []courseModels.Question `json:"questions"`
}

func (c *QuizCache) Get(ctx context.Context, quizID string) (*courseModels.Quiz, []courseModels.Question, error) {
	key := quizKeyPrefix + quizID

	if c.rdb != nil {
		val, err := c.rdb.Get(ctx, key).Result()
		if err == nil {
			var entry quizEntry
			if json.Unmarshal([]byte(val), &entry) == nil && entry.Quiz != nil {
				return entry.Quiz, entry.Questions, nil
			}
		} else if err != redis.Nil {
			c.log.Warn("quiz cache read failed", "quizID", quizID, "error", err)
		}
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		quiz, questions, err := c.load(ctx, quizID)
		if err != nil {
			return nil, err
		}
		entry := quizEntry{Quiz: quiz, Questions: questions}
		if c.rdb != nil {
			if data, err := json.Marshal(entry); err == nil {
				if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
					c.log.Warn("quiz cache write failed", "quizID", quizID, "error", err)
				}
			}
		}
		return entry, nil
	})
	if err != nil {
		return nil, nil, err
	}
	entry := v.(quizEntry)
	return entry.Quiz, entry.Questions, nil
}

func (c *QuizCache) Invalidate(ctx context.Context, quizID string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, quizKeyPrefix+quizID).Err()
}
