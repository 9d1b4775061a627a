package echoapi

import (
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gyermekkert/admin/core"
)

var errBadFileToken = echo.NewHTTPError(http.StatusForbidden, "invalid or expired download link")

type filesApi struct {
	files core.FileStore
}

// registerFilesAPI serves stored documents. Access control is the signed
// token itself, so no JWT is required here.
func registerFilesAPI(g *echo.Group, files core.FileStore) {
	api := filesApi{files: files}

	g.GET("/files/*", api.download)
}

func (api *filesApi) download(ctx echo.Context) error {
	filePath := ctx.Param("*")
	expires, err := strconv.ParseInt(ctx.QueryParam("expires"), 10, 64)
	if err != nil {
		return errBadFileToken
	}

	if err := api.files.VerifyToken(filePath, expires, ctx.QueryParam("token")); err != nil {
		return errBadFileToken
	}

	rc, err := api.files.Download(ctx.Request().Context(), filePath)
	if err != nil {
		return errors.Wrap(err, "opening stored file")
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+path.Base(filePath)+`"`)
	return ctx.Stream(http.StatusOK, contentType, rc)
}
