package controller

import (
	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/pkg/serverutils"
	"kidsgpt-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IProfileController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Me(ctx *fiber.Ctx) error
	UpdateMe(ctx *fiber.Ctx) error
	UpdateChildAge(ctx *fiber.Ctx) error
	SetParentPIN(ctx *fiber.Ctx) error
	VerifyParentPIN(ctx *fiber.Ctx) error
	GetFamily(ctx *fiber.Ctx) error
	SetFamilyAPIKey(ctx *fiber.Ctx) error
}

type profileController struct {
	service   service.IFamilyService
	jwtSecret string
}

func NewProfileController(service service.IFamilyService, jwtSecret string) IProfileController {
	return &profileController{service: service, jwtSecret: jwtSecret}
}

func (c *profileController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/profile/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Post("/register", c.Register)
	h.Get("/me", c.Me)
	h.Put("/me", c.UpdateMe)
	h.Put("/children/:id/age", c.UpdateChildAge)
	h.Put("/pin", c.SetParentPIN)
	h.Post("/pin/verify", c.VerifyParentPIN)

	f := r.Group("/family/v1")
	f.Use(serverutils.JwtMiddleware(c.jwtSecret))
	f.Get("", c.GetFamily)
	f.Put("/api-key", c.SetFamilyAPIKey)
}

func (c *profileController) Register(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.RegisterProfileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Register(ctx.UserContext(), userId, serverutils.Email(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success register profile", res))
}

func (c *profileController) Me(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.GetProfile(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get profile", res))
}

func (c *profileController) UpdateMe(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateProfileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.UpdateProfile(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update profile", res))
}

func (c *profileController) UpdateChildAge(ctx *fiber.Ctx) error {
	parentId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	childId, err := pathID(ctx, "child")
	if err != nil {
		return err
	}

	var req dto.UpdateChildAgeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.UpdateChildAge(ctx.UserContext(), parentId, childId, req.Age); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success update age", nil))
}

func (c *profileController) SetParentPIN(ctx *fiber.Ctx) error {
	parentId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.ParentPinRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.SetParentPIN(ctx.UserContext(), parentId, req.Pin); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success set PIN", nil))
}

func (c *profileController) VerifyParentPIN(ctx *fiber.Ctx) error {
	parentId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.ParentPinRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}

	valid, err := c.service.VerifyParentPIN(ctx.UserContext(), parentId, req.Pin)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success verify PIN", dto.VerifyParentPinResponse{Valid: valid}))
}

func (c *profileController) GetFamily(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	res, err := c.service.GetFamily(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get family", res))
}

func (c *profileController) SetFamilyAPIKey(ctx *fiber.Ctx) error {
	parentId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.SetFamilyAPIKeyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.BadRequest("%s", err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.service.SetFamilyAPIKey(ctx.UserContext(), parentId, req.APIKey); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success update family API key", nil))
}
