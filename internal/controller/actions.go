package controller

import (
	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/pkg/serverutils"
	"kidsgpt-be/pkg/chat/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const msgNoChange = "No changes made"

// actionHandlers serves the conversation and folder mutations. The chat tab
// resolves its session manager; the parent view resolves a read-only binding
// whose mutations return no record.
type actionHandlers struct {
	resolve  func(ctx *fiber.Ctx) (session.Actions, error)
	readOnly bool
}

type conversationLookup interface {
	Conversation(id uuid.UUID) *entity.Conversation
}

func (h actionHandlers) register(r fiber.Router) {
	r.Post("/conversations", h.CreateConversation)
	r.Delete("/conversations/:id", h.DeleteConversation)
	r.Put("/conversations/:id/move", h.MoveConversation)

	r.Post("/folders", h.CreateFolder)
	r.Put("/folders/:id", h.RenameFolder)
	r.Delete("/folders/:id", h.DeleteFolder)
}

func (h actionHandlers) CreateConversation(ctx *fiber.Ctx) error {
	actions, err := h.resolve(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	convType := entity.ConversationTypeRegular
	if req.Type != "" {
		convType = entity.ConversationType(req.Type)
	}

	conv, err := actions.CreateNewConversation(ctx.UserContext(), req.FolderId, convType)
	if err != nil {
		return sessionError(err)
	}
	if conv == nil {
		return h.done(ctx, msgNoChange)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create conversation", toConversationResponse(conv)))
}

func (h actionHandlers) DeleteConversation(ctx *fiber.Ctx) error {
	actions, err := h.resolve(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "conversation")
	if err != nil {
		return err
	}
	if err := actions.DeleteConversation(ctx.UserContext(), id); err != nil {
		return sessionError(err)
	}
	return h.done(ctx, "Success delete conversation")
}

func (h actionHandlers) MoveConversation(ctx *fiber.Ctx) error {
	actions, err := h.resolve(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "conversation")
	if err != nil {
		return err
	}

	var req dto.MoveConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := actions.MoveConversation(ctx.UserContext(), id, req.FolderId); err != nil {
		return sessionError(err)
	}

	lookup, ok := actions.(conversationLookup)
	if !ok {
		return h.done(ctx, msgNoChange)
	}
	conv := lookup.Conversation(id)
	if conv == nil {
		return apperr.NotFound("conversation")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success move conversation", toConversationResponse(conv)))
}

func (h actionHandlers) CreateFolder(ctx *fiber.Ctx) error {
	actions, err := h.resolve(ctx)
	if err != nil {
		return err
	}

	var req dto.FolderRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	folder, err := actions.CreateFolder(ctx.UserContext(), req.Name)
	if err != nil {
		return sessionError(err)
	}
	if folder == nil {
		return h.done(ctx, msgNoChange)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create folder", toFolderResponse(folder)))
}

func (h actionHandlers) RenameFolder(ctx *fiber.Ctx) error {
	actions, err := h.resolve(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "folder")
	if err != nil {
		return err
	}

	var req dto.FolderRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := actions.RenameFolder(ctx.UserContext(), id, req.Name); err != nil {
		return sessionError(err)
	}
	return h.done(ctx, "Success rename folder")
}

func (h actionHandlers) DeleteFolder(ctx *fiber.Ctx) error {
	actions, err := h.resolve(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "folder")
	if err != nil {
		return err
	}
	if err := actions.DeleteFolder(ctx.UserContext(), id); err != nil {
		return sessionError(err)
	}
	return h.done(ctx, "Success delete folder")
}

func (h actionHandlers) done(ctx *fiber.Ctx, msg string) error {
	if h.readOnly {
		msg = msgNoChange
	}
	return ctx.JSON(serverutils.SuccessResponse[any](msg, nil))
}
