package controller

import (
	"errors"

	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/pkg/apperr"
	"kidsgpt-be/internal/pkg/serverutils"
	"kidsgpt-be/internal/service"
	"kidsgpt-be/pkg/navigation"

	"github.com/gofiber/fiber/v2"
)

type INavigationController interface {
	RegisterRoutes(r fiber.Router)
	Resolve(ctx *fiber.Ctx) error
}

type navigationController struct {
	families  service.IFamilyService
	jwtSecret string
}

func NewNavigationController(families service.IFamilyService, jwtSecret string) INavigationController {
	return &navigationController{families: families, jwtSecret: jwtSecret}
}

func (c *navigationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/navigation/v1")
	h.Get("/resolve", c.Resolve)
}

// Resolve answers where a client may go. The token is optional; a missing or
// invalid one resolves as an anonymous viewer.
func (c *navigationController) Resolve(ctx *fiber.Ctx) error {
	viewer, err := c.viewer(ctx)
	if err != nil {
		return err
	}
	d := navigation.Resolve(ctx.Query("path", navigation.PathRoot), viewer)
	return ctx.JSON(serverutils.SuccessResponse("Success resolve route", dto.ResolveRouteResponse{
		Path:        d.Path,
		Allowed:     d.Allowed,
		Redirect:    d.Redirect,
		PinRequired: d.PinRequired,
	}))
}

func (c *navigationController) viewer(ctx *fiber.Ctx) (navigation.Viewer, error) {
	token := serverutils.BearerToken(ctx)
	if token == "" {
		return navigation.Viewer{}, nil
	}
	claims, err := serverutils.ParseToken(token, c.jwtSecret)
	if err != nil {
		return navigation.Viewer{}, nil
	}
	profile, err := c.families.Profile(ctx.UserContext(), claims.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		// Signed in but not registered yet; only public pages apply.
		return navigation.Viewer{}, nil
	}
	if err != nil {
		return navigation.Viewer{}, err
	}
	return navigation.Viewer{
		Authenticated: true,
		Role:          navigation.Role(profile.Role),
		HasParentPin:  profile.ParentPinHash != nil,
	}, nil
}
