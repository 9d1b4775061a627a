package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core/attendance"
	"github.com/gyermekkert/admin/core/user"
)

var errBadDateParam = echo.NewHTTPError(http.StatusBadRequest, "invalid or missing date; use yyyy-mm-dd")

type attendanceApi struct {
	svc    *attendance.Service
	usrSvc *user.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, usrSvc *user.Service) {
	api := attendanceApi{
		svc:    svc,
		usrSvc: usrSvc,
	}

	ag := g.Group("/attendance", jwt)

	// class visibility is enforced per context user; roster changes are
	// office-level operations
	cg := ag.Group("/classes")
	cg.POST("", api.createClass, adminisztracioMiddleware())
	cg.GET("", api.queryClasses)
	cg.GET("/:id", api.retrieveClass)
	cg.PUT("/:id", api.updateClass, adminisztracioMiddleware())
	cg.DELETE("/:id", api.destroyClass, adminisztracioMiddleware())
	cg.GET("/:id/students", api.queryStudents)
	cg.GET("/:id/sheet", api.sheet)
	cg.PUT("/:id/sheet", api.saveSheet)
	cg.GET("/:id/report", api.report)

	sg := ag.Group("/students", adminisztracioMiddleware())
	sg.POST("", api.createStudent)
	sg.PUT("/:id", api.updateStudent)
	sg.DELETE("/:id", api.destroyStudent)
}

func (api *attendanceApi) trapErr(err error, msg string) error {
	switch errors.Cause(err) {
	case attendance.ErrClassNotFound, attendance.ErrStudentNotFound:
		return errHttpNotFound
	case attendance.ErrNotVisible:
		return errHttpForbidden
	}
	return errors.Wrap(err, msg)
}

func (api *attendanceApi) createClass(ctx echo.Context) error {
	var data attendance.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	c, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *attendanceApi) queryClasses(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	classes, err := api.svc.Classes(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []attendance.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *attendanceApi) retrieveClass(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	c, err := api.svc.GetClass(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return api.trapErr(err, "finding class by ID")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *attendanceApi) updateClass(ctx echo.Context) error {
	var data attendance.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}

	c, err := api.svc.UpdateClass(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return api.trapErr(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *attendanceApi) destroyClass(ctx echo.Context) error {
	if err := api.svc.DeleteClass(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return api.trapErr(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) createStudent(ctx echo.Context) error {
	var data attendance.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	s, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return api.trapErr(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *attendanceApi) queryStudents(ctx echo.Context) error {
	students, err := api.svc.Students(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return api.trapErr(err, "querying students")
	}
	if students == nil {
		students = []attendance.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *attendanceApi) updateStudent(ctx echo.Context) error {
	var data struct {
		Name string `json:"name"`
	}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding student name")
	}

	s, err := api.svc.UpdateStudent(ctx.Request().Context(), ctx.Param("id"), data.Name)
	if err != nil {
		return api.trapErr(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *attendanceApi) destroyStudent(ctx echo.Context) error {
	if err := api.svc.DeleteStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return api.trapErr(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) sheet(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	date, err := time.Parse("2006-01-02", ctx.QueryParam("date"))
	if err != nil {
		return errBadDateParam
	}

	entries, err := api.svc.Sheet(ctx.Request().Context(), usr, ctx.Param("id"), date)
	if err != nil {
		return api.trapErr(err, "fetching sheet")
	}
	if entries == nil {
		entries = []attendance.SheetEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *attendanceApi) saveSheet(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data attendance.SheetSave
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SheetSave")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	if err := api.svc.SaveSheet(ctx.Request().Context(), usr, ctx.Param("id"), data); err != nil {
		return api.trapErr(err, "saving sheet")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) report(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	from, err := time.Parse("2006-01-02", ctx.QueryParam("from"))
	if err != nil {
		return errBadDateParam
	}
	to, err := time.Parse("2006-01-02", ctx.QueryParam("to"))
	if err != nil {
		return errBadDateParam
	}

	entries, err := api.svc.Report(ctx.Request().Context(), usr, ctx.Param("id"), from, to)
	if err != nil {
		return api.trapErr(err, "building report")
	}
	if entries == nil {
		entries = []attendance.ReportEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}
