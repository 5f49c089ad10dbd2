package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studyrag/internal/history"
	"studyrag/internal/model"
	"studyrag/internal/repository"
	"studyrag/internal/vectorstore"
)

// HistoryCache is a read-through cache for session transcripts. A nil
// implementation is acceptable; all methods tolerate being skipped. The
// dirty marker keeps a concurrent reader from re-populating the cache
// with a transcript read mid-turn.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, sessionID string) error
	MarkDirty(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}

// SessionService manages the session lifecycle and owns the cross-store
// deletion order: vector and history artifacts are removed before the
// registry rows, so a failed delete can always be retried to completion.
type SessionService struct {
	sessions *repository.SessionRepository
	docs     *repository.DocumentRepository
	vectors  *vectorstore.Registry
	hist     *history.Log
	cache    HistoryCache
	locks    *Locks
	log      zerolog.Logger
}

func NewSessionService(
	sessions *repository.SessionRepository,
	docs *repository.DocumentRepository,
	vectors *vectorstore.Registry,
	hist *history.Log,
	cache HistoryCache,
	locks *Locks,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		docs:     docs,
		vectors:  vectors,
		hist:     hist,
		cache:    cache,
		locks:    locks,
		log:      log,
	}
}

func (s *SessionService) Create(name string, category model.Category) (*model.Session, error) {
	cat, err := model.ParseCategory(string(category))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	now := time.Now()
	session := &model.Session{
		ID:        "sess-" + uuid.NewString(),
		Name:      name,
		Category:  cat,
		CreatedAt: now,
		LastUsed:  now,
	}
	if session.Name == "" {
		session.Name = "Session " + now.Format("2006-01-02 15:04")
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}
	s.log.Info().Str("session_id", session.ID).Str("category", string(cat)).Msg("session created")
	return session, nil
}

func (s *SessionService) Get(id string) (*model.Session, error) {
	session, err := s.sessions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

func (s *SessionService) List() ([]model.Session, error) {
	return s.sessions.List()
}

func (s *SessionService) ListByCategory(category model.Category) ([]model.Session, error) {
	cat, err := model.ParseCategory(string(category))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.sessions.ListByCategory(cat)
}

// Update renames and/or recategorizes a session. Nil fields are left
// untouched; created_at and last_used never change here.
func (s *SessionService) Update(id string, name *string, category *model.Category) (*model.Session, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	if category != nil {
		cat, err := model.ParseCategory(string(*category))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		category = &cat
	}
	if err := s.sessions.Update(id, name, category); err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (s *SessionService) Touch(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.sessions.Touch(id, time.Now())
}

func (s *SessionService) ListDocuments(sessionID string) ([]model.Document, error) {
	if _, err := s.Get(sessionID); err != nil {
		return nil, err
	}
	return s.docs.ListBySessionID(sessionID)
}

// Delete removes a session and everything it owns. Artifacts go first and
// their removal is idempotent, so if the registry delete fails the operation
// can be retried; files are never left behind without a registry row.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	unlock := s.locks.Acquire(id)
	defer unlock()

	if err := s.vectors.Delete(id); err != nil {
		return fmt.Errorf("delete vector artifacts: %w", err)
	}
	if err := s.hist.Delete(id); err != nil {
		return fmt.Errorf("delete history artifact: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.DeleteHistory(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("session_id", id).Msg("failed to evict cached history")
		}
	}
	if err := s.sessions.DeleteCascade(id); err != nil {
		return err
	}
	s.log.Info().Str("session_id", id).Msg("session deleted")
	return nil
}
