package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quizwhiz-service/internal/app"
	"quizwhiz-service/internal/domain"
)

// QuestionStore reads the question bank and quiz orders from Postgres.
type QuestionStore struct {
	pool    *pgxpool.Pool
	perQuiz int
}

func NewQuestionStore(pool *pgxpool.Pool, perQuiz int) *QuestionStore {
	return &QuestionStore{pool: pool, perQuiz: perQuiz}
}

// CreateQuiz inserts a quiz row and a random ordered sample of the bank in one transaction.
func (s *QuestionStore) CreateQuiz(ctx context.Context) (string, error) {
	quizID := app.NewQuizID()

	err := s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO quizzes (quiz_id) VALUES ($1)`, quizID); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO quiz_questions (quiz_id, question_id, position)
			SELECT $1::text, id, ROW_NUMBER() OVER (ORDER BY r) - 1
			FROM (SELECT id, random() AS r FROM questions ORDER BY r LIMIT $2::int) AS sampled`,
			quizID, s.perQuiz,
		)
		if err != nil {
			return fmt.Errorf("sample questions: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotEnoughQuestions
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return quizID, nil
}

func (s *QuestionStore) QuizExists(ctx context.Context, quizID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quizzes WHERE quiz_id = $1)`, quizID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check quiz: %w", err)
	}
	return exists, nil
}

func (s *QuestionStore) LoadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT q.id, q.question, q.option_a, q.option_b, q.option_c, q.option_d, q.correct_option
		FROM quiz_questions qq
		JOIN questions q ON q.id = qq.question_id
		WHERE qq.quiz_id = $1
		ORDER BY qq.position`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q          domain.Question
			a, b, c, d string
			correct    string
		)
		if err := rows.Scan(&q.ID, &q.Text, &a, &b, &c, &d, &correct); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Options = map[domain.Option]string{domain.OptionA: a, domain.OptionB: b, domain.OptionC: c, domain.OptionD: d}
		q.Correct = domain.Option(correct)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(questions) == 0 {
		exists, err := s.QuizExists(ctx, quizID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.ErrQuizNotFound
		}
	}
	return questions, nil
}

func (s *QuestionStore) CountQuestions(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

// InsertQuestions bulk-loads the bank with COPY.
func (s *QuestionStore) InsertQuestions(ctx context.Context, questions []domain.Question) error {
	rows := make([][]interface{}, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, []interface{}{
			q.Text,
			q.Options[domain.OptionA], q.Options[domain.OptionB], q.Options[domain.OptionC], q.Options[domain.OptionD],
			string(q.Correct),
		})
	}
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"questions"},
		[]string{"question", "option_a", "option_b", "option_c", "option_d", "correct_option"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy questions: %w", err)
	}
	return nil
}
