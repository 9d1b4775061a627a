package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core/payroll"
)

type payrollApi struct {
	svc *payroll.Service
}

func registerPayrollAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *payroll.Service) {
	api := payrollApi{svc: svc}

	pg := g.Group("/payroll", jwt, adminisztracioMiddleware())
	pg.POST("/extract", api.extract)
	pg.POST("/tax/extract", api.extractTax)
	pg.POST("/save", api.save)
	pg.GET("/records", api.queryRecords)
	pg.GET("/records/:id", api.retrieveRecord)
	pg.PUT("/records/:id", api.updateRecord)
	pg.DELETE("/records/:id", api.destroyRecord)
	pg.GET("/records/:id/tax-share", api.taxShare)
	pg.GET("/summaries", api.querySummaries)
}

func (api *payrollApi) extract(ctx echo.Context) error {
	filename, contentType, data, err := readFormFile(ctx, "file")
	if err != nil {
		return err
	}
	kind := ctx.FormValue("kind")

	res, err := api.svc.ExtractDocument(ctx.Request().Context(), kind, filename, contentType, data)
	if err != nil {
		return errors.Wrap(err, "extracting payroll document")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *payrollApi) extractTax(ctx echo.Context) error {
	filename, contentType, data, err := readFormFile(ctx, "file")
	if err != nil {
		return err
	}

	res, err := api.svc.ExtractTax(ctx.Request().Context(), filename, contentType, data)
	if err != nil {
		return errors.Wrap(err, "extracting tax document")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *payrollApi) save(ctx echo.Context) error {
	var data payroll.SaveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveRequest")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	summary, err := api.svc.Save(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving payroll batch")
	}
	return ctx.JSON(http.StatusCreated, summary)
}

func (api *payrollApi) queryRecords(ctx echo.Context) error {
	filter := new(payroll.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []payroll.Record{})
	}

	records, err := api.svc.Records(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying payroll records")
	}
	if records == nil {
		records = []payroll.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *payrollApi) retrieveRecord(ctx echo.Context) error {
	rec, err := api.svc.RecordByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == payroll.ErrRecordNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding payroll record by ID")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *payrollApi) updateRecord(ctx echo.Context) error {
	var data payroll.UpdateRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}

	rec, err := api.svc.UpdateRecord(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == payroll.ErrRecordNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating payroll record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *payrollApi) destroyRecord(ctx echo.Context) error {
	if err := api.svc.DeleteRecord(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == payroll.ErrRecordNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting payroll record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *payrollApi) taxShare(ctx echo.Context) error {
	share, err := api.svc.RecordTaxShare(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == payroll.ErrRecordNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "computing tax share")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"tax_share": share})
}

func (api *payrollApi) querySummaries(ctx echo.Context) error {
	filter := new(payroll.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []payroll.Summary{})
	}

	summaries, err := api.svc.Summaries(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying payroll summaries")
	}
	if summaries == nil {
		summaries = []payroll.Summary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}
