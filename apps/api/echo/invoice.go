package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/invoice"
)

type invoiceApi struct {
	conf *core.Config
	svc  *invoice.Service
}

func registerInvoiceAPI(g *echo.Group, jwt echo.MiddlewareFunc, conf *core.Config, svc *invoice.Service) {
	api := invoiceApi{
		conf: conf,
		svc:  svc,
	}

	ig := g.Group("/invoices", jwt, adminisztracioMiddleware())
	ig.POST("/recognize", api.recognize)
	ig.POST("", api.create)
	ig.GET("", api.query)
	ig.GET("/dashboard", api.dashboard)
	ig.GET("/:id", api.retrieve)
	ig.GET("/:id/file", api.fileURL)
	ig.DELETE("/:id", api.destroy)
}

func (api *invoiceApi) recognize(ctx echo.Context) error {
	filename, contentType, data, err := readFormFile(ctx, "file")
	if err != nil {
		return err
	}

	res, err := api.svc.Recognize(ctx.Request().Context(), filename, contentType, data)
	if err != nil {
		return errors.Wrap(err, "recognizing invoice")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *invoiceApi) create(ctx echo.Context) error {
	var data invoice.NewInvoice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInvoice")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	inv, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating invoice")
	}
	return ctx.JSON(http.StatusCreated, inv)
}

func (api *invoiceApi) query(ctx echo.Context) error {
	filter := new(invoice.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []invoice.Invoice{})
	}

	invs, err := api.svc.Query(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying invoices")
	}
	if invs == nil {
		invs = []invoice.Invoice{}
	}
	return ctx.JSON(http.StatusOK, invs)
}

func (api *invoiceApi) dashboard(ctx echo.Context) error {
	filter := new(invoice.DashboardFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to DashboardFilter")
	}

	d, err := api.svc.Dashboard(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "deriving dashboard")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *invoiceApi) retrieve(ctx echo.Context) error {
	inv, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == invoice.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding invoice by ID")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *invoiceApi) fileURL(ctx echo.Context) error {
	url, err := api.svc.FileURL(ctx.Request().Context(), ctx.Param("id"), api.conf.Storage.SignedURLTTL)
	if err != nil {
		if errors.Cause(err) == invoice.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "signing invoice file URL")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"url": url})
}

func (api *invoiceApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == invoice.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting invoice")
	}
	return ctx.NoContent(http.StatusNoContent)
}
