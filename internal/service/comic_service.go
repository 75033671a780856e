package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/pkg/logger"
	"kidsgpt-be/internal/repository/specification"
	"kidsgpt-be/internal/repository/unitofwork"
	"kidsgpt-be/pkg/chat/session"
	"kidsgpt-be/pkg/imagegen"
	"kidsgpt-be/pkg/llm"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultComicStyle      = "cartoon"
	defaultPanelCount      = 4
	panelRenderConcurrency = 3
)

const sceneSplitPrompt = `Split this children's story into exactly %d comic panels.
Reply with a JSON array only, one object per panel: [{"scene": "what the picture shows", "caption": "one short sentence for the reader"}].
Keep everything friendly and suitable for children.

Story:
%s`

type IComicService interface {
	CreateComic(ctx context.Context, userId uuid.UUID, personalKey string, req *dto.CreateComicRequest) (*dto.ComicResponse, error)
	ListComics(ctx context.Context, userId uuid.UUID) ([]dto.ComicResponse, error)
	GetComic(ctx context.Context, userId, comicId uuid.UUID) (*dto.ComicResponse, error)
	DeleteComic(ctx context.Context, userId, comicId uuid.UUID) error

	CreateCharacter(ctx context.Context, userId uuid.UUID, req *dto.CreateCharacterRequest) (*dto.CharacterResponse, error)
	ListCharacters(ctx context.Context, userId uuid.UUID) ([]dto.CharacterResponse, error)
	DeleteCharacter(ctx context.Context, userId, characterId uuid.UUID) error
}

type comicService struct {
	uowFactory unitofwork.RepositoryFactory
	provider   llm.LLMProvider
	generator  imagegen.Generator
	keys       session.KeyResolver
	logger     logger.ILogger
}

func NewComicService(
	uowFactory unitofwork.RepositoryFactory,
	provider llm.LLMProvider,
	generator imagegen.Generator,
	keys session.KeyResolver,
	log logger.ILogger,
) IComicService {
	return &comicService{
		uowFactory: uowFactory,
		provider:   provider,
		generator:  generator,
		keys:       keys,
		logger:     log,
	}
}

func (s *comicService) CreateComic(ctx context.Context, userId uuid.UUID, personalKey string, req *dto.CreateComicRequest) (*dto.ComicResponse, error) {
	story := strings.TrimSpace(req.Story)
	if story == "" {
		return nil, apperr.BadRequest("story is required")
	}
	style := req.Style
	if style == "" {
		style = defaultComicStyle
	}
	panelCount := req.PanelCount
	if panelCount <= 0 {
		panelCount = defaultPanelCount
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	var characters []*entity.Character
	if len(req.CharacterIds) > 0 {
		found, err := uow.CharacterRepository().FindAll(ctx,
			specification.ByIDs{IDs: req.CharacterIds},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return nil, err
		}
		if len(found) != len(uniqueIds(req.CharacterIds)) {
			return nil, apperr.NotFound("character")
		}
		characters = found
	}

	apiKey, err := s.keys.ResolveAPIKey(ctx, userId, personalKey)
	if err != nil {
		return nil, err
	}

	scenes := s.splitScenes(ctx, story, panelCount, apiKey)
	cast := describeCast(characters)

	panels := make([]entity.ComicPanel, len(scenes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(panelRenderConcurrency)
	for i, sc := range scenes {
		panels[i] = entity.ComicPanel{
			Index:   i,
			Scene:   sc.Scene,
			Caption: sc.Caption,
			Prompt:  panelPrompt(style, sc.Scene, cast),
		}
		g.Go(func() error {
			res, err := s.generator.Generate(gctx, imagegen.Request{Prompt: panels[i].Prompt, APIKey: apiKey})
			if err != nil {
				return fmt.Errorf("panel %d: %w", i+1, err)
			}
			panels[i].ImageUrl = res.URL
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("COMIC", "Panel rendering failed", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return nil, mapProviderError(err)
	}

	comic := &entity.Comic{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     strings.TrimSpace(req.Title),
		Story:     story,
		Style:     style,
		Panels:    panels,
		CreatedAt: time.Now(),
	}
	if err := uow.ComicRepository().Create(ctx, comic); err != nil {
		return nil, fmt.Errorf("save comic: %w", err)
	}

	s.logger.Info("COMIC", "Comic created", map[string]interface{}{
		"comic_id": comic.Id.String(),
		"panels":   len(panels),
	})
	res := toComicResponse(comic)
	return &res, nil
}

type comicScene struct {
	Scene   string `json:"scene"`
	Caption string `json:"caption"`
}

// splitScenes asks the model for panel scenes and falls back to splitting the
// story by sentences when the reply is unusable.
func (s *comicService) splitScenes(ctx context.Context, story string, n int, apiKey string) []comicScene {
	raw, err := s.provider.Generate(ctx, fmt.Sprintf(sceneSplitPrompt, n, story),
		llm.WithAPIKey(apiKey),
		llm.WithTemperature(0.4),
		llm.WithMaxTokens(800),
	)
	if err == nil {
		if scenes, ok := parseScenes(raw, n); ok {
			return scenes
		}
		s.logger.Debug("COMIC", "Scene split reply was not usable JSON", map[string]interface{}{"raw": raw})
	} else {
		s.logger.Warn("COMIC", "Scene split call failed, splitting by sentence", map[string]interface{}{"error": err.Error()})
	}
	return sentenceScenes(story, n)
}

func parseScenes(raw string, n int) ([]comicScene, bool) {
	start, end := strings.Index(raw, "["), strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, false
	}
	var scenes []comicScene
	if err := json.Unmarshal([]byte(raw[start:end+1]), &scenes); err != nil {
		return nil, false
	}
	out := make([]comicScene, 0, len(scenes))
	for _, sc := range scenes {
		sc.Scene = strings.TrimSpace(sc.Scene)
		sc.Caption = strings.TrimSpace(sc.Caption)
		if sc.Scene == "" {
			continue
		}
		out = append(out, sc)
	}
	if len(out) == 0 {
		return nil, false
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, true
}

var sentenceEnd = regexp.MustCompile(`[^.!?]+[.!?]*`)

// sentenceScenes spreads the story's sentences over at most n panels.
func sentenceScenes(story string, n int) []comicScene {
	var sentences []string
	for _, m := range sentenceEnd.FindAllString(story, -1) {
		if t := strings.TrimSpace(m); t != "" {
			sentences = append(sentences, t)
		}
	}
	if len(sentences) == 0 {
		return []comicScene{{Scene: story, Caption: story}}
	}
	if len(sentences) < n {
		n = len(sentences)
	}

	scenes := make([]comicScene, n)
	per := len(sentences) / n
	extra := len(sentences) % n
	idx := 0
	for i := 0; i < n; i++ {
		size := per
		if i < extra {
			size++
		}
		text := strings.Join(sentences[idx:idx+size], " ")
		scenes[i] = comicScene{Scene: text, Caption: text}
		idx += size
	}
	return scenes
}

func describeCast(characters []*entity.Character) string {
	if len(characters) == 0 {
		return ""
	}
	parts := make([]string, len(characters))
	for i, c := range characters {
		parts[i] = fmt.Sprintf("%s (%s)", c.Name, c.Description)
	}
	return strings.Join(parts, "; ")
}

func panelPrompt(style, scene, cast string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "A %s style comic panel for children. Scene: %s.", style, scene)
	if cast != "" {
		fmt.Fprintf(&sb, " Characters: %s.", cast)
	}
	sb.WriteString(" No text or speech bubbles. Friendly, colorful and safe for kids.")
	return sb.String()
}

func uniqueIds(ids []uuid.UUID) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func (s *comicService) ListComics(ctx context.Context, userId uuid.UUID) ([]dto.ComicResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	comics, err := uow.ComicRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	res := make([]dto.ComicResponse, 0, len(comics))
	for _, c := range comics {
		res = append(res, toComicResponse(c))
	}
	return res, nil
}

func (s *comicService) GetComic(ctx context.Context, userId, comicId uuid.UUID) (*dto.ComicResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	comic, err := s.requireComic(ctx, uow, userId, comicId)
	if err != nil {
		return nil, err
	}
	res := toComicResponse(comic)
	return &res, nil
}

func (s *comicService) DeleteComic(ctx context.Context, userId, comicId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := s.requireComic(ctx, uow, userId, comicId); err != nil {
		return err
	}
	return uow.ComicRepository().Delete(ctx, comicId)
}

func (s *comicService) requireComic(ctx context.Context, uow unitofwork.UnitOfWork, userId, comicId uuid.UUID) (*entity.Comic, error) {
	comic, err := uow.ComicRepository().FindOne(ctx,
		specification.ByID{ID: comicId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if comic == nil {
		return nil, apperr.NotFound("comic")
	}
	return comic, nil
}

func (s *comicService) CreateCharacter(ctx context.Context, userId uuid.UUID, req *dto.CreateCharacterRequest) (*dto.CharacterResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.BadRequest("character name is required")
	}
	character := &entity.Character{
		Id:          uuid.New(),
		UserId:      userId,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   time.Now(),
	}
	if req.ImageUrl != "" {
		url := req.ImageUrl
		character.ImageUrl = &url
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.CharacterRepository().Create(ctx, character); err != nil {
		return nil, err
	}
	res := toCharacterResponse(character)
	return &res, nil
}

func (s *comicService) ListCharacters(ctx context.Context, userId uuid.UUID) ([]dto.CharacterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	characters, err := uow.CharacterRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "name"},
	)
	if err != nil {
		return nil, err
	}
	res := make([]dto.CharacterResponse, 0, len(characters))
	for _, c := range characters {
		res = append(res, toCharacterResponse(c))
	}
	return res, nil
}

func (s *comicService) DeleteCharacter(ctx context.Context, userId, characterId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	found, err := uow.CharacterRepository().FindAll(ctx,
		specification.ByID{ID: characterId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return apperr.NotFound("character")
	}
	return uow.CharacterRepository().Delete(ctx, characterId)
}

func toComicResponse(c *entity.Comic) dto.ComicResponse {
	panels := make([]dto.ComicPanelResponse, len(c.Panels))
	for i, p := range c.Panels {
		panels[i] = dto.ComicPanelResponse{Index: p.Index, Scene: p.Scene, Caption: p.Caption, ImageUrl: p.ImageUrl}
	}
	return dto.ComicResponse{
		Id:        c.Id,
		Title:     c.Title,
		Story:     c.Story,
		Style:     c.Style,
		Panels:    panels,
		CreatedAt: c.CreatedAt,
	}
}

func toCharacterResponse(c *entity.Character) dto.CharacterResponse {
	return dto.CharacterResponse{
		Id:          c.Id,
		Name:        c.Name,
		Description: c.Description,
		ImageUrl:    c.ImageUrl,
		CreatedAt:   c.CreatedAt,
	}
}
