package app

import (
	"context"
	"fmt"

	"studyrag/internal/model"
)

// Canned queries for one-click study actions. The topic, when given,
// narrows both retrieval and the model's focus.
var quickActionQueries = map[model.Mode]struct {
	general string
	scoped  string
}{
	model.ModeSummary:    {"Summarize the study material.", "Summarize the study material about %s."},
	model.ModePoints:     {"List the most important points in the study material.", "List the most important points about %s."},
	model.ModeFlashcards: {"Create flashcards covering the study material.", "Create flashcards about %s."},
	model.ModeExam:       {"Write practice exam questions based on the study material.", "Write practice exam questions about %s."},
	model.ModeExplain:    {"Explain the main topic of the study material.", "Explain %s."},
}

// QuickAction runs a chat turn from a canned query for the given mode, so
// the client does not have to phrase the request itself.
func (s *ChatService) QuickAction(ctx context.Context, sessionID string, mode model.Mode, topic string) (*ChatResult, error) {
	parsed, err := model.ParseMode(string(mode))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	queries, ok := quickActionQueries[parsed]
	if !ok {
		return nil, fmt.Errorf("%w: mode %q has no quick action", ErrInvalidInput, parsed)
	}
	message := queries.general
	if topic != "" {
		message = fmt.Sprintf(queries.scoped, topic)
	}
	return s.SendMessage(ctx, ChatInput{SessionID: sessionID, Message: message, Mode: parsed})
}
