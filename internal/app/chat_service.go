package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studyrag/internal/ai"
	"studyrag/internal/history"
	"studyrag/internal/model"
	"studyrag/internal/repository"
	"studyrag/internal/vectorstore"
)

// ModelClient generates a reply for a prompt. Satisfied by ai.LLM.
type ModelClient interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// ChatOptions tunes a ChatService.
type ChatOptions struct {
	// MaxContextMessages caps how many recent transcript messages are
	// replayed into the prompt.
	MaxContextMessages int
	// RetrieveAll, when set, ranks every indexed chunk instead of
	// truncating at TopK.
	RetrieveAll bool
	TopK        int
}

// ChatInput is one turn of conversation.
type ChatInput struct {
	SessionID string
	Message   string
	Mode      model.Mode
}

type ChatResult struct {
	Response  string
	Sources   []model.SourceRef
	Timestamp time.Time
}

// ChatService runs a chat turn end to end: record the user message,
// retrieve relevant chunks, build the prompt, call the model, record the
// reply, and bump the session's last-used time. Turns on the same session
// are serialized so the transcript interleaves whole turns.
type ChatService struct {
	sessions  *repository.SessionRepository
	retriever *Retriever
	hist      *history.Log
	cache     HistoryCache
	llm       ModelClient
	locks     *Locks
	log       zerolog.Logger
	opts      ChatOptions
}

func NewChatService(
	sessions *repository.SessionRepository,
	retriever *Retriever,
	hist *history.Log,
	cache HistoryCache,
	llm ModelClient,
	locks *Locks,
	log zerolog.Logger,
	opts ChatOptions,
) *ChatService {
	if opts.MaxContextMessages <= 0 {
		opts.MaxContextMessages = 20
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &ChatService{
		sessions:  sessions,
		retriever: retriever,
		hist:      hist,
		cache:     cache,
		llm:       llm,
		locks:     locks,
		log:       log,
		opts:      opts,
	}
}

func (s *ChatService) SendMessage(ctx context.Context, input ChatInput) (*ChatResult, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}
	mode, err := model.ParseMode(string(input.Mode))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	unlock := s.locks.Acquire(input.SessionID)
	defer unlock()

	// Existence is checked under the session lock so a concurrent delete
	// cannot slip between the check and the appends below and have this
	// turn resurrect artifacts for a dead session.
	if err := s.checkSession(input.SessionID); err != nil {
		return nil, err
	}

	prior, err := s.hist.ReadAll(input.SessionID)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	// The user message is durable before anything fallible runs, so a
	// failed turn still leaves the question in the transcript.
	if _, err := s.hist.Append(input.SessionID, model.Message{
		SessionID: input.SessionID,
		Role:      model.RoleUser,
		Content:   input.Message,
	}); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}
	s.invalidateCache(ctx, input.SessionID)

	results := s.retrieveContext(ctx, input.SessionID, input.Message)

	messages := s.buildPrompt(mode, results, prior, input.Message)
	reply, err := s.llm.Complete(ctx, messages)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", input.SessionID).Msg("model completion failed")
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	sources := sourcesFromResults(results)
	assistant, err := s.hist.Append(input.SessionID, model.Message{
		SessionID: input.SessionID,
		Role:      model.RoleAssistant,
		Content:   reply,
		Sources:   sources,
	})
	if err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}
	s.invalidateCache(ctx, input.SessionID)

	if err := s.sessions.Touch(input.SessionID, time.Now()); err != nil {
		s.log.Warn().Err(err).Str("session_id", input.SessionID).Msg("failed to touch session")
	}

	// The result carries the timestamp the transcript actually holds.
	return &ChatResult{Response: reply, Sources: sources, Timestamp: assistant.Timestamp}, nil
}

// retrieveContext degrades to an unassisted turn when retrieval fails;
// the turn proceeds with no excerpts rather than erroring out.
func (s *ChatService) retrieveContext(ctx context.Context, sessionID, message string) []vectorstore.Result {
	k := vectorstore.TopK(s.opts.TopK)
	if s.opts.RetrieveAll {
		k = vectorstore.TopKAll
	}
	results, err := s.retriever.Retrieve(ctx, sessionID, message, k)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("retrieval failed, answering without context")
		return nil
	}
	return results
}

func (s *ChatService) buildPrompt(mode model.Mode, results []vectorstore.Result, prior []model.Message, userMessage string) []ai.ChatMessage {
	messages := make([]ai.ChatMessage, 0, len(prior)+2)
	messages = append(messages, ai.ChatMessage{
		Role:    string(model.RoleSystem),
		Content: promptForMode(mode) + formatContext(results),
	})
	if n := len(prior); n > s.opts.MaxContextMessages {
		prior = prior[n-s.opts.MaxContextMessages:]
	}
	for _, m := range prior {
		if m.Role == model.RoleSystem {
			continue
		}
		messages = append(messages, ai.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return append(messages, ai.ChatMessage{Role: string(model.RoleUser), Content: userMessage})
}

// GetHistory returns the session transcript, read through the cache when
// one is configured.
func (s *ChatService) GetHistory(ctx context.Context, sessionID string) ([]model.Message, error) {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	if s.cache != nil {
		cached, ok, err := s.cache.GetHistory(ctx, sessionID)
		if err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("history cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	messages, err := s.hist.ReadAll(sessionID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		dirty, dirtyErr := s.cache.IsDirty(ctx, sessionID)
		if dirtyErr != nil {
			s.log.Warn().Err(dirtyErr).Str("session_id", sessionID).Msg("history cache dirty check failed")
		} else if !dirty {
			if err := s.cache.SetHistory(ctx, sessionID, messages); err != nil {
				s.log.Warn().Err(err).Str("session_id", sessionID).Msg("history cache write failed")
			}
		}
	}
	return messages, nil
}

// ClearHistory empties the transcript but keeps the session, its documents,
// and its index intact.
func (s *ChatService) ClearHistory(ctx context.Context, sessionID string) error {
	unlock := s.locks.Acquire(sessionID)
	defer unlock()

	if err := s.checkSession(sessionID); err != nil {
		return err
	}

	if err := s.hist.Clear(sessionID); err != nil {
		return err
	}
	s.invalidateCache(ctx, sessionID)
	return nil
}

func (s *ChatService) checkSession(sessionID string) error {
	session, err := s.sessions.GetByID(sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

func (s *ChatService) invalidateCache(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkDirty(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("history cache dirty mark failed")
	}
	if err := s.cache.DeleteHistory(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("history cache eviction failed")
	}
}

func sourcesFromResults(results []vectorstore.Result) []model.SourceRef {
	if len(results) == 0 {
		return nil
	}
	sources := make([]model.SourceRef, len(results))
	for i, r := range results {
		sources[i] = model.SourceRef{
			ChunkID:    r.ChunkID,
			DocumentID: r.Metadata.DocumentID,
			Filename:   r.Metadata.Filename,
			Category:   model.Category(r.Metadata.Category),
			Score:      r.Score,
		}
	}
	return sources
}
