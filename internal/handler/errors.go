package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/portal/internal/middleware"
)

// Template names and titles used by the error pages.
const (
	NotFoundTemplate = "static/404"
	ErrorTemplate    = "static/error"
	NotFoundTitle    = "404 - Page Not Found"
	notFoundMessage  = "Not found"
)

// NotFound answers a request no route matched, in the representation the
// client prefers: an HTML page, a JSON object or plain text. The status is
// always 404.
func NotFound(c echo.Context) error {
	if accepts(c, mimeHTML) {
		return c.Render(http.StatusNotFound, NotFoundTemplate, echo.Map{
			"url":   requestURL(c),
			"title": NotFoundTitle,
		})
	}
	if accepts(c, mimeJSON) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": notFoundMessage})
	}
	return c.String(http.StatusNotFound, notFoundMessage)
}

func requestURL(c echo.Context) string {
	req := c.Request()
	if req.RequestURI != "" {
		return req.RequestURI
	}
	return req.URL.RequestURI()
}

// ErrorHandler renders unhandled errors with the same negotiation as
// NotFound. Server errors are logged and their details withheld.
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message := statusAndMessage(err)
		if code >= http.StatusInternalServerError {
			logger.Error("unhandled error",
				zap.String("request_id", middleware.RequestIDFromContext(c)),
				zap.String("path", c.Request().URL.Path),
				zap.Error(err),
			)
		}

		var rerr error
		switch {
		case c.Request().Method == http.MethodHead:
			rerr = c.NoContent(code)
		case code == http.StatusNotFound:
			rerr = NotFound(c)
		default:
			rerr = renderError(c, code, message)
		}
		if rerr != nil {
			logger.Warn("render error response", zap.Error(rerr))
			if !c.Response().Committed {
				_ = c.String(code, message)
			}
		}
	}
}

func statusAndMessage(err error) (int, string) {
	code := http.StatusInternalServerError
	message := ""

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else if he.Message != nil {
			message = fmt.Sprint(he.Message)
		}
	}
	if code >= http.StatusInternalServerError || message == "" {
		message = http.StatusText(code)
	}
	return code, message
}

func renderError(c echo.Context, code int, message string) error {
	if accepts(c, mimeHTML) {
		return c.Render(code, ErrorTemplate, echo.Map{
			"title":   fmt.Sprintf("%d - %s", code, http.StatusText(code)),
			"status":  code,
			"message": message,
		})
	}
	if accepts(c, mimeJSON) {
		return c.JSON(code, map[string]string{"error": message})
	}
	return c.String(code, message)
}
