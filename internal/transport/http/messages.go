package http

import "encoding/json"

// Inbound command types.
const (
	CommandJoinQuiz     = "join_quiz"
	CommandStartQuiz    = "start_quiz"
	CommandSubmitAnswer = "submit_answer"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type joinPayload struct {
	QuizID string `json:"quizId"`
	Name   string `json:"name"`
}

type startPayload struct {
	QuizID string `json:"quizId"`
}

type answerPayload struct {
	QuizID string `json:"quizId"`
	Answer string `json:"answer"`
}

func encode(event string, payload any) ([]byte, error) {
	return json.Marshal(outboundMessage{Type: event, Payload: payload})
}
