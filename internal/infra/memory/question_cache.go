package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"quizwhiz-service/internal/app"
	"quizwhiz-service/internal/domain"
)

// QuestionCache caches quiz question lists with TTL to avoid repeated DB hits.
// Quiz creation and existence checks go straight to the wrapped store.
type QuestionCache struct {
	store app.QuestionStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(store app.QuestionStore, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedQuestions),
	}
}

func (c *QuestionCache) CreateQuiz(ctx context.Context) (string, error) {
	return c.store.CreateQuiz(ctx)
}

func (c *QuestionCache) QuizExists(ctx context.Context, quizID string) (bool, error) {
	if _, ok := c.cached(quizID, c.clock()); ok {
		return true, nil
	}
	return c.store.QuizExists(ctx, quizID)
}

func (c *QuestionCache) LoadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	if questions, ok := c.cached(quizID, c.clock()); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		now := c.clock()
		if questions, ok := c.cached(quizID, now); ok {
			return questions, nil
		}

		questions, err := c.store.LoadQuestions(ctx, quizID)
		if err != nil {
			return nil, err
		}

		expiresAt := now.Add(c.ttlWithJitter())
		c.mu.Lock()
		c.cache[quizID] = cachedQuestions{
			questions: questions,
			expiresAt: expiresAt,
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) cached(quizID string, now time.Time) ([]domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[quizID]
	if !ok || !entry.expiresAt.After(now) {
		return nil, false
	}
	return entry.questions, true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
