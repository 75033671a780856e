package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/pkg/logger"
	"kidsgpt-be/internal/repository/specification"
	"kidsgpt-be/internal/repository/unitofwork"
	"kidsgpt-be/pkg/chat/session"
	"kidsgpt-be/pkg/llm"

	"github.com/google/uuid"
)

const personalityExtractPrompt = `Below is a personality quiz conversation with a child.
Describe the child in a kind, encouraging way. Reply with JSON only:
{"summary": "two or three sentences", "traits": ["..."], "interests": ["..."], "learning_style": "visual, auditory, reading or hands-on"}

Conversation:
%s`

type IPersonalityService interface {
	Extract(ctx context.Context, userId, conversationId uuid.UUID, personalKey string) (*dto.PersonalityProfileResponse, error)
	Get(ctx context.Context, userId uuid.UUID) (*dto.PersonalityProfileResponse, error)
}

type personalityService struct {
	uowFactory unitofwork.RepositoryFactory
	provider   llm.LLMProvider
	keys       session.KeyResolver
	logger     logger.ILogger
}

func NewPersonalityService(uowFactory unitofwork.RepositoryFactory, provider llm.LLMProvider, keys session.KeyResolver, log logger.ILogger) IPersonalityService {
	return &personalityService{
		uowFactory: uowFactory,
		provider:   provider,
		keys:       keys,
		logger:     log,
	}
}

type extractedPersonality struct {
	Summary       string   `json:"summary"`
	Traits        []string `json:"traits"`
	Interests     []string `json:"interests"`
	LearningStyle string   `json:"learning_style"`
}

// Extract reads a personality-quiz conversation and stores the derived profile.
// Running it again replaces the previous profile.
func (s *personalityService) Extract(ctx context.Context, userId, conversationId uuid.UUID, personalKey string) (*dto.PersonalityProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, apperr.NotFound("conversation")
	}
	if conversation.Type != entity.ConversationTypePersonalityQuiz {
		return nil, apperr.BadRequest("only personality quiz conversations can be summarized")
	}

	messages, err := uow.MessageRepository().FindAll(ctx, specification.ByConversationID{ConversationID: conversationId})
	if err != nil {
		return nil, err
	}
	if !hasRole(messages, entity.MessageRoleUser) {
		return nil, apperr.BadRequest("the quiz has no answers yet")
	}

	apiKey, err := s.keys.ResolveAPIKey(ctx, userId, personalKey)
	if err != nil {
		return nil, err
	}

	raw, err := s.provider.Generate(ctx, fmt.Sprintf(personalityExtractPrompt, transcript(messages)),
		llm.WithAPIKey(apiKey),
		llm.WithTemperature(0.3),
		llm.WithMaxTokens(600),
	)
	if err != nil {
		s.logger.Warn("PERSONALITY", "Extraction call failed", map[string]interface{}{"error": err.Error()})
		return nil, mapProviderError(err)
	}

	extracted, err := parsePersonality(raw)
	if err != nil {
		s.logger.Warn("PERSONALITY", "Extraction reply was not usable", map[string]interface{}{"raw": raw})
		return nil, err
	}

	now := time.Now()
	convId := conversationId
	profile := &entity.PersonalityProfile{
		Id:             uuid.New(),
		UserId:         userId,
		ConversationId: &convId,
		Summary:        extracted.Summary,
		Traits:         cleanList(extracted.Traits),
		Interests:      cleanList(extracted.Interests),
		LearningStyle:  strings.TrimSpace(extracted.LearningStyle),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uow.PersonalityProfileRepository().Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("save personality profile: %w", err)
	}
	return toPersonalityResponse(profile), nil
}

func (s *personalityService) Get(ctx context.Context, userId uuid.UUID) (*dto.PersonalityProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, err := uow.PersonalityProfileRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, apperr.NotFound("personality profile")
	}
	return toPersonalityResponse(profile), nil
}

func parsePersonality(raw string) (*extractedPersonality, error) {
	start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("personality reply has no JSON object")
	}
	var out extractedPersonality
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("decode personality reply: %w", err)
	}
	out.Summary = strings.TrimSpace(out.Summary)
	if out.Summary == "" {
		return nil, fmt.Errorf("personality reply has no summary")
	}
	return &out, nil
}

func transcript(messages []*entity.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		speaker := "Child"
		if m.Role == entity.MessageRoleAssistant {
			speaker = "Quiz"
		}
		fmt.Fprintf(&sb, "%s: %s\n", speaker, m.Content)
	}
	return sb.String()
}

func hasRole(messages []*entity.Message, role entity.MessageRole) bool {
	for _, m := range messages {
		if m.Role == role {
			return true
		}
	}
	return false
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, v := range in {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func toPersonalityResponse(p *entity.PersonalityProfile) *dto.PersonalityProfileResponse {
	return &dto.PersonalityProfileResponse{
		Summary:        p.Summary,
		Traits:         p.Traits,
		Interests:      p.Interests,
		LearningStyle:  p.LearningStyle,
		UpdatedAt:      p.UpdatedAt,
		ConversationId: p.ConversationId,
	}
}
