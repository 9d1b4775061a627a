package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core/team"
	"github.com/gyermekkert/admin/core/user"
)

type teamApi struct {
	svc *team.Service
}

func registerTeamAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *team.Service) {
	api := teamApi{svc: svc}

	tg := g.Group("/teams", jwt)
	tg.GET("", api.query)
	tg.GET("/:id", api.retrieve)

	// membership and roster changes are admin-only
	tg.POST("", api.create, adminMiddleware())
	tg.PUT("/:id", api.update, adminMiddleware())
	tg.DELETE("/:id", api.destroy, adminMiddleware())
	tg.POST("/:id/members", api.addMember, adminMiddleware())
	tg.DELETE("/:id/members/:userID", api.removeMember, adminMiddleware())
}

func (api *teamApi) trapErr(err error, msg string) error {
	switch errors.Cause(err) {
	case team.ErrNotFound, user.ErrNotFound:
		return errHttpNotFound
	}
	return errors.Wrap(err, msg)
}

func (api *teamApi) create(ctx echo.Context) error {
	var data team.NewTeam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeam")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating team")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *teamApi) query(ctx echo.Context) error {
	teams, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teams")
	}
	if teams == nil {
		teams = []team.Team{}
	}
	return ctx.JSON(http.StatusOK, teams)
}

func (api *teamApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return api.trapErr(err, "finding team by ID")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teamApi) update(ctx echo.Context) error {
	var data team.UpdateTeam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeam")
	}

	t, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return api.trapErr(err, "updating team")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teamApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return api.trapErr(err, "deleting team")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teamApi) addMember(ctx echo.Context) error {
	var data struct {
		UserID string `json:"user_id"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding member payload")
	}

	if err := api.svc.AddMember(ctx.Request().Context(), ctx.Param("id"), data.UserID); err != nil {
		return api.trapErr(err, "adding team member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teamApi) removeMember(ctx echo.Context) error {
	if err := api.svc.RemoveMember(ctx.Request().Context(), ctx.Param("id"), ctx.Param("userID")); err != nil {
		return api.trapErr(err, "removing team member")
	}
	return ctx.NoContent(http.StatusNoContent)
}
