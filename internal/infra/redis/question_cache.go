package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"quizwhiz-service/internal/app"
	"quizwhiz-service/internal/domain"
)

// QuestionCache caches quiz question lists in Redis (hash per quiz) and falls back to the store on a miss.
// Questions are stored as: HSET quiz:{quizID}:questions {position} {question JSON}
type QuestionCache struct {
	client *redis.Client
	store  app.QuestionStore
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

type cachedQuestion struct {
	ID      int64             `json:"id"`
	Text    string            `json:"question"`
	Options map[string]string `json:"options"`
	Correct string            `json:"correct"`
}

func NewQuestionCache(client *redis.Client, store app.QuestionStore, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) CreateQuiz(ctx context.Context) (string, error) {
	return c.store.CreateQuiz(ctx)
}

func (c *QuestionCache) QuizExists(ctx context.Context, quizID string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(quizID)).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	return c.store.QuizExists(ctx, quizID)
}

func (c *QuestionCache) LoadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	if questions, ok := c.cached(ctx, quizID); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.cached(ctx, quizID); ok {
			return questions, nil
		}

		questions, err := c.store.LoadQuestions(ctx, quizID)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			return questions, nil
		}

		key := c.key(quizID)
		pipe := c.client.TxPipeline()
		pipe.Del(ctx, key)
		for i, q := range questions {
			raw, err := json.Marshal(toCached(q))
			if err != nil {
				return nil, err
			}
			pipe.HSet(ctx, key, strconv.Itoa(i), raw)
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) cached(ctx context.Context, quizID string) ([]domain.Question, bool) {
	fields, err := c.client.HGetAll(ctx, c.key(quizID)).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}

	type positioned struct {
		pos int
		q   domain.Question
	}
	entries := make([]positioned, 0, len(fields))
	for field, raw := range fields {
		pos, err := strconv.Atoi(field)
		if err != nil {
			return nil, false
		}
		var cq cachedQuestion
		if err := json.Unmarshal([]byte(raw), &cq); err != nil {
			return nil, false
		}
		entries = append(entries, positioned{pos: pos, q: fromCached(cq)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].pos < entries[j].pos })

	questions := make([]domain.Question, len(entries))
	for i, e := range entries {
		questions[i] = e.q
	}
	return questions, true
}

func (c *QuestionCache) key(quizID string) string {
	return "quiz:" + quizID + ":questions"
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func toCached(q domain.Question) cachedQuestion {
	options := make(map[string]string, len(q.Options))
	for opt, text := range q.Options {
		options[string(opt)] = text
	}
	return cachedQuestion{ID: q.ID, Text: q.Text, Options: options, Correct: string(q.Correct)}
}

func fromCached(cq cachedQuestion) domain.Question {
	options := make(map[domain.Option]string, len(cq.Options))
	for opt, text := range cq.Options {
		options[domain.Option(opt)] = text
	}
	return domain.Question{ID: cq.ID, Text: cq.Text, Options: options, Correct: domain.Option(cq.Correct)}
}
