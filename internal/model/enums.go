package model

import "fmt"

// Category classifies a session's study material.
type Category string

const (
	CategoryNotes          Category = "notes"
	CategoryQuestionPapers Category = "question_papers"
)

// ParseCategory validates a category coming in at the boundary.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryNotes, CategoryQuestionPapers:
		return Category(s), nil
	case "":
		return CategoryNotes, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole validates a message role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant, RoleSystem:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Mode selects the instruction framing for a chat turn. It changes the
// prompt template only, never the retrieval behavior.
type Mode string

const (
	ModeChat       Mode = "chat"
	ModeExplain    Mode = "explain"
	ModeSummary    Mode = "summary"
	ModePoints     Mode = "points"
	ModeFlashcards Mode = "flashcards"
	ModeExam       Mode = "exam"
)

// ParseMode validates a conversation mode. Empty defaults to chat.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeChat, ModeExplain, ModeSummary, ModePoints, ModeFlashcards, ModeExam:
		return Mode(s), nil
	case "":
		return ModeChat, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}
