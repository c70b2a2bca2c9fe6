package questionbank

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"quizwhiz-service/internal/domain"
)

var columns = []string{"question", "option_a", "option_b", "option_c", "option_d", "correct_option"}

// Parse reads a question bank CSV with the header
// question,option_a,option_b,option_c,option_d,correct_option.
// Returned questions carry no ids; the store assigns them.
func Parse(r io.Reader) ([]domain.Question, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var questions []domain.Question
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		field := func(col string) string {
			return strings.TrimSpace(record[index[col]])
		}

		text := field("question")
		if text == "" {
			return nil, fmt.Errorf("line %d: empty question", line)
		}
		correct, ok := domain.ParseOption(field("correct_option"))
		if !ok {
			return nil, fmt.Errorf("line %d: correct option %q is not one of A-D", line, field("correct_option"))
		}
		questions = append(questions, domain.Question{
			Text: text,
			Options: map[domain.Option]string{
				domain.OptionA: field("option_a"),
				domain.OptionB: field("option_b"),
				domain.OptionC: field("option_c"),
				domain.OptionD: field("option_d"),
			},
			Correct: correct,
		})
	}
	return questions, nil
}
