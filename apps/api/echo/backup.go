package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core"
	"github.com/gyermekkert/admin/core/backup"
)

type backupApi struct {
	conf *core.Config
	svc  *backup.Service
}

func registerBackupAPI(g *echo.Group, jwt echo.MiddlewareFunc, conf *core.Config, svc *backup.Service) {
	api := backupApi{
		conf: conf,
		svc:  svc,
	}

	bg := g.Group("/backups", jwt, adminMiddleware())
	bg.POST("/run", api.run)
	bg.GET("", api.queryRuns)
	bg.GET("/schedule", api.getSchedule)
	bg.PUT("/schedule", api.saveSchedule)
	bg.GET("/:id/download", api.download)
}

func (api *backupApi) run(ctx echo.Context) error {
	run, err := api.svc.Run(ctx.Request().Context(), backup.KindManual)
	if err != nil {
		if errors.Cause(err) == backup.ErrRunning {
			return echo.NewHTTPError(http.StatusConflict, "a backup is already running")
		}
		return errors.Wrap(err, "running backup")
	}
	return ctx.JSON(http.StatusCreated, run)
}

func (api *backupApi) queryRuns(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))

	runs, err := api.svc.QueryRuns(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "querying backup runs")
	}
	if runs == nil {
		runs = []backup.Run{}
	}
	return ctx.JSON(http.StatusOK, runs)
}

func (api *backupApi) getSchedule(ctx echo.Context) error {
	sched, err := api.svc.GetSchedule(ctx.Request().Context())
	if err != nil {
		if errors.Cause(err) == backup.ErrNoSchedule {
			return errHttpNotFound
		}
		return errors.Wrap(err, "fetching backup schedule")
	}
	return ctx.JSON(http.StatusOK, sched)
}

func (api *backupApi) saveSchedule(ctx echo.Context) error {
	var data backup.SaveSchedule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveSchedule")
	}

	sched, err := api.svc.SaveSchedule(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving backup schedule")
	}
	return ctx.JSON(http.StatusOK, sched)
}

func (api *backupApi) download(ctx echo.Context) error {
	run, err := api.svc.GetRun(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == backup.ErrRunNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding backup run by ID")
	}

	url, err := api.svc.DownloadURL(run, api.conf.Storage.SignedURLTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, "backup run has no archive")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"url": url})
}
