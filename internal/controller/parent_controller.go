package controller

import (
	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/pkg/serverutils"
	"kidsgpt-be/internal/service"
	"kidsgpt-be/pkg/chat/projection"
	"kidsgpt-be/pkg/chat/session"

	"github.com/gofiber/fiber/v2"
)

const HeaderParentPin = "X-Parent-Pin"

type IParentController interface {
	RegisterRoutes(r fiber.Router)
	Overview(ctx *fiber.Ctx) error
}

type parentController struct {
	families  service.IFamilyService
	projector *projection.Projector
	jwtSecret string
}

func NewParentController(families service.IFamilyService, projector *projection.Projector, jwtSecret string) IParentController {
	return &parentController{families: families, projector: projector, jwtSecret: jwtSecret}
}

func (c *parentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/parents/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Use(c.requireParent)
	h.Get("/overview", c.Overview)

	// the monitoring view exposes the chat mutations, bound read-only
	actions := actionHandlers{
		resolve: func(*fiber.Ctx) (session.Actions, error) {
			return projection.ReadOnlyActions{}, nil
		},
		readOnly: true,
	}
	actions.register(h)
}

// requireParent rejects children and parents whose PIN header does not match.
func (c *parentController) requireParent(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	profile, err := c.families.Profile(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	if !profile.IsParent() {
		return apperr.Forbidden("%s", "parents only")
	}
	ok, err := c.families.VerifyParentPIN(ctx.UserContext(), userId, ctx.Get(HeaderParentPin))
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbidden("%s", "parent PIN required")
	}
	return ctx.Next()
}

// Overview is the parent dashboard: children with summaries and every child
// conversation tagged with its owner.
func (c *parentController) Overview(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}
	view, err := c.projector.Project(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get overview", toParentOverviewResponse(view)))
}
