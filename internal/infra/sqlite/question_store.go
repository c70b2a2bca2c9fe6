package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
	"quizwhiz-service/internal/app"
	"quizwhiz-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS questions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	question TEXT NOT NULL,
	option_a TEXT NOT NULL,
	option_b TEXT NOT NULL,
	option_c TEXT NOT NULL,
	option_d TEXT NOT NULL,
	correct_option TEXT NOT NULL CHECK (correct_option IN ('A', 'B', 'C', 'D'))
);

CREATE TABLE IF NOT EXISTS quizzes (
	quiz_id TEXT PRIMARY KEY,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS quiz_questions (
	quiz_id TEXT NOT NULL REFERENCES quizzes(quiz_id),
	question_id INTEGER NOT NULL REFERENCES questions(id),
	position INTEGER NOT NULL,
	PRIMARY KEY (quiz_id, question_id)
);
`

// QuestionStore keeps the question bank and quiz orders in a SQLite file.
type QuestionStore struct {
	db      *sql.DB
	perQuiz int
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string, perQuiz int) (*QuestionStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time; also keeps ":memory:" databases on a single connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &QuestionStore{db: db, perQuiz: perQuiz}, nil
}

func (s *QuestionStore) Close() error {
	return s.db.Close()
}

// CreateQuiz stores a new quiz with a random, ordered sample of the bank.
func (s *QuestionStore) CreateQuiz(ctx context.Context) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	ids, err := sampleIDs(ctx, tx, s.perQuiz)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", domain.ErrNotEnoughQuestions
	}

	quizID := app.NewQuizID()
	if _, err := tx.ExecContext(ctx, `INSERT INTO quizzes (quiz_id) VALUES (?)`, quizID); err != nil {
		return "", fmt.Errorf("insert quiz: %w", err)
	}
	for position, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_questions (quiz_id, question_id, position) VALUES (?, ?, ?)`,
			quizID, id, position,
		); err != nil {
			return "", fmt.Errorf("insert quiz question: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return quizID, nil
}

func sampleIDs(ctx context.Context, tx *sql.Tx, limit int) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM questions ORDER BY RANDOM() LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *QuestionStore) QuizExists(ctx context.Context, quizID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM quizzes WHERE quiz_id = ?`, quizID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check quiz: %w", err)
	}
	return true, nil
}

// LoadQuestions returns the quiz's questions in their stored order.
func (s *QuestionStore) LoadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.question, q.option_a, q.option_b, q.option_c, q.option_d, q.correct_option
		FROM quiz_questions qq
		JOIN questions q ON q.id = qq.question_id
		WHERE qq.quiz_id = ?
		ORDER BY qq.position ASC`, quizID)
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
			return nil, err
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
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

func (s *QuestionStore) InsertQuestions(ctx context.Context, questions []domain.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO questions (question, option_a, option_b, option_c, option_d, correct_option)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, q := range questions {
		if _, err := stmt.ExecContext(ctx,
			q.Text,
			q.Options[domain.OptionA], q.Options[domain.OptionB], q.Options[domain.OptionC], q.Options[domain.OptionD],
			string(q.Correct),
		); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	return tx.Commit()
}
