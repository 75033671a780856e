package controller

import (
	"errors"
	"regexp"

	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/pkg/serverutils"
	"kidsgpt-be/internal/service"
	"kidsgpt-be/pkg/chat/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	HeaderTabID       = "X-Tab-Id"
	HeaderPersonalKey = "X-OpenAI-Key"

	defaultTabID = "default"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	GetSession(ctx *fiber.Ctx) error
	CloseSession(ctx *fiber.Ctx) error
	SelectConversation(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	GenerateImage(ctx *fiber.Ctx) error
	ExtractPersonality(ctx *fiber.Ctx) error
	GetPersonality(ctx *fiber.Ctx) error
	DismissNotice(ctx *fiber.Ctx) error
}

type chatController struct {
	sessions    service.IChatSessionService
	images      service.IImageService
	personality service.IPersonalityService
	jwtSecret   string
	actions     actionHandlers
}

func NewChatController(
	sessions service.IChatSessionService,
	images service.IImageService,
	personality service.IPersonalityService,
	jwtSecret string,
) IChatController {
	c := &chatController{
		sessions:    sessions,
		images:      images,
		personality: personality,
		jwtSecret:   jwtSecret,
	}
	c.actions = actionHandlers{resolve: func(ctx *fiber.Ctx) (session.Actions, error) {
		_, m, err := c.manager(ctx)
		return m, err
	}}
	return c
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("/session", c.GetSession)
	h.Delete("/session", c.CloseSession)

	c.actions.register(h)
	h.Put("/conversations/current", c.SelectConversation)
	h.Post("/conversations/:id/messages", c.SendMessage)
	h.Post("/conversations/:id/images", c.GenerateImage)
	h.Post("/conversations/:id/personality", c.ExtractPersonality)
	h.Get("/personality", c.GetPersonality)

	h.Delete("/notices/:id", c.DismissNotice)
}

// manager resolves the caller's session for the requesting tab.
func (c *chatController) manager(ctx *fiber.Ctx) (uuid.UUID, *session.Manager, error) {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return uuid.Nil, nil, err
	}
	tab, err := tabID(ctx)
	if err != nil {
		return uuid.Nil, nil, err
	}
	m, err := c.sessions.Acquire(ctx.UserContext(), userId, tab)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return userId, m, nil
}

var tabIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func tabID(ctx *fiber.Ctx) (string, error) {
	id := ctx.Get(HeaderTabID)
	if id == "" {
		return defaultTabID, nil
	}
	if !tabIDPattern.MatchString(id) {
		return "", apperr.BadRequest("%s must be 1-64 letters, digits, '-' or '_'", HeaderTabID)
	}
	return id, nil
}

func pathID(ctx *fiber.Ctx, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.BadRequest("invalid %s id", what)
	}
	return id, nil
}

// sessionError maps manager errors onto HTTP status classes.
func sessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrNoIdentity):
		return apperr.ErrUnauthorized
	case errors.Is(err, session.ErrUnknownConversation):
		return apperr.NotFound("conversation")
	case errors.Is(err, session.ErrUnknownFolder):
		return apperr.NotFound("folder")
	case errors.Is(err, session.ErrSessionClosed):
		return apperr.Conflict("%s", "session closed while the request was in flight")
	}
	return err
}

func (c *chatController) GetSession(ctx *fiber.Ctx) error {
	_, m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get session", toSessionStateResponse(m.Snapshot())))
}

func (c *chatController) CloseSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	tab, err := tabID(ctx)
	if err != nil {
		return err
	}
	c.sessions.Release(userId, tab)
	return ctx.JSON(serverutils.SuccessResponse[any]("Success close session", nil))
}

func (c *chatController) SelectConversation(ctx *fiber.Ctx) error {
	_, m, err := c.manager(ctx)
	if err != nil {
		return err
	}

	var req dto.SelectConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := m.SelectConversation(req.ConversationId); err != nil {
		return sessionError(err)
	}
	var res *dto.ConversationResponse
	if conv := m.CurrentConversation(); conv != nil {
		r := toConversationResponse(conv)
		res = &r
	}
	return ctx.JSON(serverutils.SuccessResponse("Success select conversation", res))
}

// SendMessage blocks until the assistant reply (or its failure notice) is
// ready. A reply for a conversation the tab has since left comes back with
// Discarded set.
func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	_, m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "conversation")
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := m.SendMessage(ctx.UserContext(), session.SendInput{
		ConversationId: id,
		Content:        req.Content,
		Attachments:    toAttachments(req.Attachments),
		PersonalKey:    ctx.Get(HeaderPersonalKey),
	})
	if err != nil {
		return sessionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success send message", toSendMessageResponse(res)))
}

func (c *chatController) GenerateImage(ctx *fiber.Ctx) error {
	userId, m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "conversation")
	if err != nil {
		return err
	}

	var req dto.GenerateImageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	msg, err := c.images.GenerateInto(ctx.UserContext(), m, userId, id, ctx.Get(HeaderPersonalKey), &req)
	if err != nil {
		return sessionError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success generate image", toMessageResponse(msg)))
}

func (c *chatController) ExtractPersonality(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "conversation")
	if err != nil {
		return err
	}

	res, err := c.personality.Extract(ctx.UserContext(), userId, id, ctx.Get(HeaderPersonalKey))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success extract personality", res))
}

func (c *chatController) GetPersonality(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	res, err := c.personality.Get(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get personality", res))
}

func (c *chatController) DismissNotice(ctx *fiber.Ctx) error {
	_, m, err := c.manager(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "notice")
	if err != nil {
		return err
	}
	m.DismissNotice(id)
	return ctx.JSON(serverutils.SuccessResponse[any]("Success dismiss notice", nil))
}
