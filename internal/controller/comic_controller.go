package controller

import (
	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/pkg/serverutils"
	"kidsgpt-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IComicController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	CreateCharacter(ctx *fiber.Ctx) error
	GetCharacters(ctx *fiber.Ctx) error
	DeleteCharacter(ctx *fiber.Ctx) error
}

type comicController struct {
	service   service.IComicService
	jwtSecret string
}

func NewComicController(service service.IComicService, jwtSecret string) IComicController {
	return &comicController{service: service, jwtSecret: jwtSecret}
}

func (c *comicController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/comic/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("/characters", c.GetCharacters)
	h.Post("/characters", c.CreateCharacter)
	h.Delete("/characters/:id", c.DeleteCharacter)
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Get("/:id", c.Show)
	h.Delete("/:id", c.Delete)
}

func (c *comicController) Create(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateComicRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateComic(ctx.UserContext(), userId, ctx.Get(HeaderPersonalKey), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create comic", res))
}

func (c *comicController) GetAll(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.ListComics(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all comics", res))
}

func (c *comicController) Show(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "comic")
	if err != nil {
		return err
	}
	res, err := c.service.GetComic(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get comic", res))
}

func (c *comicController) Delete(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "comic")
	if err != nil {
		return err
	}
	if err := c.service.DeleteComic(ctx.UserContext(), userId, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete comic", nil))
}

func (c *comicController) CreateCharacter(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateCharacterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateCharacter(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create character", res))
}

func (c *comicController) GetCharacters(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.ListCharacters(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get characters", res))
}

func (c *comicController) DeleteCharacter(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "character")
	if err != nil {
		return err
	}
	if err := c.service.DeleteCharacter(ctx.UserContext(), userId, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete character", nil))
}
