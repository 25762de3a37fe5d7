package http

import (
	"errors"
	"log/slog"
	"net/http"

	"parceltrack/internal/adapters/in/http/api"
	"parceltrack/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// KindUnauthorized is reported when the identity headers are missing or malformed.
const KindUnauthorized = "Unauthorized"

func statusOf(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindInvalidTransition, errs.KindConflict:
		return http.StatusConflict
	case errs.KindInvalidState:
		return http.StatusUnprocessableEntity
	case errs.KindDependencyFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageOf keeps store and collaborator details out of responses.
func messageOf(kind errs.Kind, err error) string {
	switch kind {
	case errs.KindConflict:
		return "the resource was changed concurrently or already exists, retry with fresh data"
	case errs.KindDependencyFailure:
		var dep *errs.DependencyFailureError
		if errors.As(err, &dep) {
			return dep.Dependency + " is unavailable"
		}
		return "a dependency is unavailable"
	case errs.KindInternal:
		return "internal error"
	default:
		return err.Error()
	}
}

func kindOfStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return string(errs.KindValidation)
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return string(errs.KindForbidden)
	case http.StatusNotFound:
		return string(errs.KindNotFound)
	case http.StatusMethodNotAllowed:
		return "MethodNotAllowed"
	default:
		if code >= http.StatusInternalServerError {
			return string(errs.KindInternal)
		}
		return http.StatusText(code)
	}
}

// NewErrorHandler renders every error as {"kind", "message"}.
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var body api.Error
		var code int

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			code = httpErr.Code
			body = api.Error{Kind: kindOfStatus(code), Message: httpMessage(httpErr)}
		} else {
			kind := errs.KindOf(err)
			code = statusOf(kind)
			body = api.Error{Kind: string(kind), Message: messageOf(kind, err)}
		}

		if code >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, body)
		}
		if err != nil {
			logger.Error("failed to write error response", "error", err)
		}
	}
}

func httpMessage(e *echo.HTTPError) string {
	if e.Code >= http.StatusInternalServerError {
		return "internal error"
	}
	if s, ok := e.Message.(string); ok {
		return s
	}
	return http.StatusText(e.Code)
}

func warningsOf(warnings []error) []api.Warning {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]api.Warning, 0, len(warnings))
	for _, w := range warnings {
		kind := errs.KindOf(w)
		out = append(out, api.Warning{Kind: string(kind), Message: messageOf(kind, w)})
	}
	return out
}
