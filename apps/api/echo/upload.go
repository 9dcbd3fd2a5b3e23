package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Iamayomi/academic-management-platform/core"
)

// saveUpload stores the multipart file of `field` and returns its path.
// It returns "" when the request is not multipart or carries no such file.
func saveUpload(ctx echo.Context, storage core.FileStorage, field string) (string, error) {
	if !strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return "", nil
	}
	fh, err := ctx.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", errors.Wrap(err, "reading form file")
	}

	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening form file")
	}
	defer func() { _ = f.Close() }()

	return storage.Save(ctx.Request().Context(), fh.Filename, f)
}

// discardUpload removes a file saved for a request that failed afterwards.
func discardUpload(ctx echo.Context, storage core.FileStorage, fp string) {
	if fp != "" {
		_ = storage.Delete(ctx.Request().Context(), fp)
	}
}

// saveFileOrText stores the uploaded file of `field`, or else text as a text file.
// It returns "" when neither is provided.
func saveFileOrText(ctx echo.Context, storage core.FileStorage, field, text string) (string, error) {
	fp, err := saveUpload(ctx, storage, field)
	if err != nil || fp != "" {
		return fp, err
	}
	if text == "" {
		return "", nil
	}
	return storage.SaveText(ctx.Request().Context(), "text", text)
}
