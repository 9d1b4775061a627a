package echoapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// 20MB; scanned invoices and payroll sheets stay well under this.
const maxUploadBytes = 20 << 20

var errMissingFile = echo.NewHTTPError(http.StatusBadRequest, "missing file")

// readFormFile extracts an uploaded document from a multipart form.
func readFormFile(ctx echo.Context, field string) (filename, contentType string, data []byte, err error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		return "", "", nil, errMissingFile
	}
	if fh.Size > maxUploadBytes {
		return "", "", nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	f, err := fh.Open()
	if err != nil {
		return "", "", nil, errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	data, err = io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return "", "", nil, errors.Wrap(err, "reading uploaded file")
	}
	return fh.Filename, fh.Header.Get("Content-Type"), data, nil
}
