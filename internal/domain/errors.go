package domain

import "errors"

var (
	// ErrInvalidQuiz is returned when a join targets an unknown quiz.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrEmptyName is returned when the trimmed display name is empty.
	ErrEmptyName = errors.New("empty display name")
	// ErrDuplicateName is returned when another connected participant already uses the name.
	ErrDuplicateName = errors.New("display name already taken")
	// ErrQuizNotFound indicates the question store has no quiz with the given id.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNoQuestionSource is returned at startup when the bank is empty and nothing can seed it.
	ErrNoQuestionSource = errors.New("question source is missing")
	// ErrNotEnoughQuestions indicates the bank holds no questions to sample from.
	ErrNotEnoughQuestions = errors.New("question bank is empty")
)

// JoinErrorMessage returns the text shown to a player whose join was rejected.
func JoinErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidQuiz):
		return "Invalid quiz link."
	case errors.Is(err, ErrEmptyName):
		return "Please enter your name."
	case errors.Is(err, ErrDuplicateName):
		return "Name already taken in this quiz."
	default:
		return "Unable to join this quiz."
	}
}
