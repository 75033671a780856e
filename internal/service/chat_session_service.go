package service

import (
	"context"

	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/pkg/logger"
	"kidsgpt-be/internal/repository/memory"
	"kidsgpt-be/pkg/chat/session"

	"github.com/google/uuid"
)

// IChatSessionService hands out one session manager per signed-in user and
// browser tab. Tabs do not share state.
type IChatSessionService interface {
	Acquire(ctx context.Context, userId uuid.UUID, tabId string) (*session.Manager, error)
	Release(userId uuid.UUID, tabId string)
}

type chatSessionService struct {
	sessions   *memory.SessionRepository
	families   IFamilyService
	newManager func() *session.Manager
	logger     logger.ILogger
}

func NewChatSessionService(
	sessions *memory.SessionRepository,
	families IFamilyService,
	newManager func() *session.Manager,
	log logger.ILogger,
) IChatSessionService {
	return &chatSessionService{
		sessions:   sessions,
		families:   families,
		newManager: newManager,
		logger:     log,
	}
}

// Acquire returns the tab's manager, loading the user's records on first
// use. The profile is read every time so a parent's age change reaches the
// child's open tabs.
func (s *chatSessionService) Acquire(ctx context.Context, userId uuid.UUID, tabId string) (*session.Manager, error) {
	profile, err := s.families.Profile(ctx, userId)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperr.NotFound("profile")
	}

	manager, created := s.sessions.GetOrCreate(userId, tabId, s.newManager)
	if !created && manager.State() != session.StateUnauthenticated {
		manager.SetAge(profile.Age)
		return manager, nil
	}

	err = manager.Init(ctx, session.Identity{
		UserId: userId,
		Role:   profile.Role,
		Age:    profile.Age,
	})
	if err != nil && err != session.ErrSessionClosed {
		// The manager is ready with empty lists and a notice; serve it.
		s.logger.Warn("CHAT", "Session opened without records", map[string]interface{}{
			"user_id": userId.String(),
			"tab_id":  tabId,
			"error":   err.Error(),
		})
	}
	if created {
		s.logger.Debug("CHAT", "Session opened", map[string]interface{}{
			"user_id":  userId.String(),
			"tab_id":   tabId,
			"sessions": s.sessions.Count(),
		})
	}
	return manager, nil
}

// Release is sign-out for one tab.
func (s *chatSessionService) Release(userId uuid.UUID, tabId string) {
	s.sessions.Delete(userId, tabId)
}
