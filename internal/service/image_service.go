package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/pkg/logger"
	"kidsgpt-be/pkg/chat/completion"
	"kidsgpt-be/pkg/chat/session"
	"kidsgpt-be/pkg/imagegen"
	"kidsgpt-be/pkg/llm"

	"github.com/google/uuid"
)

const childSafeImagePrefix = "A friendly, colorful illustration suitable for children, with no violence, scary imagery or text: "

type IImageService interface {
	Generate(ctx context.Context, userId uuid.UUID, personalKey string, req *dto.GenerateImageRequest) (*entity.GeneratedImage, error)
	// GenerateInto appends the prompt and the resulting image to a conversation.
	GenerateInto(ctx context.Context, actions session.Actions, userId, conversationId uuid.UUID, personalKey string, req *dto.GenerateImageRequest) (*entity.Message, error)
}

type imageService struct {
	generator imagegen.Generator
	keys      session.KeyResolver
	logger    logger.ILogger
}

func NewImageService(generator imagegen.Generator, keys session.KeyResolver, log logger.ILogger) IImageService {
	return &imageService{
		generator: generator,
		keys:      keys,
		logger:    log,
	}
}

func (s *imageService) Generate(ctx context.Context, userId uuid.UUID, personalKey string, req *dto.GenerateImageRequest) (*entity.GeneratedImage, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, apperr.BadRequest("prompt is required")
	}

	apiKey, err := s.keys.ResolveAPIKey(ctx, userId, personalKey)
	if err != nil {
		return nil, err
	}

	res, err := s.generator.Generate(ctx, imagegen.Request{
		Prompt:  childSafeImagePrefix + prompt,
		Size:    req.Size,
		Quality: req.Quality,
		Style:   req.Style,
		APIKey:  apiKey,
	})
	if err != nil {
		s.logger.Warn("IMAGE", "Image generation failed", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return nil, mapProviderError(err)
	}

	return &entity.GeneratedImage{
		Url:           res.URL,
		Prompt:        prompt,
		RevisedPrompt: res.RevisedPrompt,
		Size:          res.Size,
		Quality:       res.Quality,
		Style:         res.Style,
	}, nil
}

func (s *imageService) GenerateInto(ctx context.Context, actions session.Actions, userId, conversationId uuid.UUID, personalKey string, req *dto.GenerateImageRequest) (*entity.Message, error) {
	image, err := s.Generate(ctx, userId, personalKey, req)
	if err != nil {
		return nil, err
	}

	if _, err := actions.AddMessageToConversation(ctx, conversationId, &entity.Message{
		Role:    entity.MessageRoleUser,
		Content: fmt.Sprintf("Draw: %s", image.Prompt),
	}); err != nil {
		return nil, err
	}
	return actions.AddMessageToConversation(ctx, conversationId, &entity.Message{
		Role:           entity.MessageRoleAssistant,
		Content:        "Here is the picture you asked for!",
		GeneratedImage: image,
	})
}

// mapProviderError turns provider failures into request errors the HTTP
// layer can report.
func mapProviderError(err error) error {
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		return apperr.BadRequest("%s", completion.MissingKeyText)
	case errors.Is(err, llm.ErrInvalidAPIKey):
		return apperr.BadRequest("%s", completion.InvalidKeyText)
	case errors.Is(err, llm.ErrRateLimited):
		return fmt.Errorf("%w: %s", apperr.ErrRateLimited, completion.RateLimitedText)
	case errors.Is(err, imagegen.ErrInvalidRequest):
		return apperr.BadRequest("%s", err.Error())
	default:
		return err
	}
}
