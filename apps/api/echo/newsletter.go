package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core/newsletter"
)

type newsletterApi struct {
	svc *newsletter.Service
}

func registerNewsletterAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *newsletter.Service) {
	api := newsletterApi{svc: svc}

	ng := g.Group("/newsletters", jwt, adminisztracioMiddleware())
	ng.POST("", api.create)
	ng.GET("", api.query)
	ng.POST("/parse-html", api.parseHTML)
	ng.GET("/:id", api.retrieve)
	ng.PUT("/:id", api.update)
	ng.DELETE("/:id", api.destroy)
	ng.POST("/:id/components/reorder", api.reorder)
	ng.POST("/:id/send", api.send)
	ng.POST("/:id/forms/:formID", api.linkForm)
	ng.DELETE("/:id/forms/:formID", api.unlinkForm)

	fg := g.Group("/forms", jwt, adminisztracioMiddleware())
	fg.POST("", api.createForm)
	fg.GET("", api.queryForms)
	fg.GET("/:id", api.retrieveForm)
	fg.PUT("/:id", api.updateForm)
	fg.DELETE("/:id", api.destroyForm)
}

func (api *newsletterApi) trapErr(err error, msg string) error {
	switch errors.Cause(err) {
	case newsletter.ErrNotFound, newsletter.ErrFormNotFound:
		return errHttpNotFound
	}
	return errors.Wrap(err, msg)
}

func (api *newsletterApi) create(ctx echo.Context) error {
	var data newsletter.NewNewsletter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNewsletter")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	n, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating newsletter")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *newsletterApi) query(ctx echo.Context) error {
	ns, err := api.svc.Query(ctx.Request().Context(), ctx.QueryParam("campus"))
	if err != nil {
		return errors.Wrap(err, "querying newsletters")
	}
	if ns == nil {
		ns = []newsletter.Newsletter{}
	}
	return ctx.JSON(http.StatusOK, ns)
}

func (api *newsletterApi) retrieve(ctx echo.Context) error {
	n, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return api.trapErr(err, "finding newsletter by ID")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *newsletterApi) update(ctx echo.Context) error {
	var data newsletter.UpdateNewsletter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateNewsletter")
	}

	n, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return api.trapErr(err, "updating newsletter")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *newsletterApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return api.trapErr(err, "deleting newsletter")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *newsletterApi) reorder(ctx echo.Context) error {
	var data newsletter.MoveComponent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MoveComponent")
	}

	n, err := api.svc.Move(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == newsletter.ErrBadPosition {
			return echo.NewHTTPError(http.StatusBadRequest, "component position out of range")
		}
		return api.trapErr(err, "moving component")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *newsletterApi) send(ctx echo.Context) error {
	var data newsletter.SendRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendRequest")
	}

	if err := api.svc.Send(ctx.Request().Context(), ctx.Param("id"), data); err != nil {
		return api.trapErr(err, "sending newsletter")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Newsletter queued for delivery."})
}

func (api *newsletterApi) parseHTML(ctx echo.Context) error {
	var data struct {
		HTML string `json:"html"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding html payload")
	}

	components := newsletter.ParseHTML(data.HTML)
	if components == nil {
		components = []newsletter.Component{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"components": components})
}

func (api *newsletterApi) linkForm(ctx echo.Context) error {
	if err := api.svc.LinkForm(ctx.Request().Context(), ctx.Param("id"), ctx.Param("formID")); err != nil {
		return api.trapErr(err, "linking form")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *newsletterApi) unlinkForm(ctx echo.Context) error {
	if err := api.svc.UnlinkForm(ctx.Request().Context(), ctx.Param("id"), ctx.Param("formID")); err != nil {
		return api.trapErr(err, "unlinking form")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *newsletterApi) createForm(ctx echo.Context) error {
	var data newsletter.NewForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewForm")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	f, err := api.svc.CreateForm(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating form")
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *newsletterApi) queryForms(ctx echo.Context) error {
	forms, err := api.svc.QueryForms(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying forms")
	}
	if forms == nil {
		forms = []newsletter.Form{}
	}
	return ctx.JSON(http.StatusOK, forms)
}

func (api *newsletterApi) retrieveForm(ctx echo.Context) error {
	f, err := api.svc.GetFormByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return api.trapErr(err, "finding form by ID")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *newsletterApi) updateForm(ctx echo.Context) error {
	var data newsletter.UpdateForm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateForm")
	}

	f, err := api.svc.UpdateForm(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return api.trapErr(err, "updating form")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *newsletterApi) destroyForm(ctx echo.Context) error {
	if err := api.svc.DeleteForm(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return api.trapErr(err, "deleting form")
	}
	return ctx.NoContent(http.StatusNoContent)
}
