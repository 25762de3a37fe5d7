package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/labstack/echo/v4"
)

// RequestValidator checks requests against the OpenAPI document before they reach
// a handler. Requests for paths the document does not describe pass through.
func RequestValidator(doc *openapi3.T) (echo.MiddlewareFunc, error) {
	// Match on path only, whatever host the server is reached on.
	doc.Servers = nil
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, err
	}

	options := &openapi3filter.Options{
		AuthenticationFunc:  openapi3filter.NoopAuthenticationFunc,
		SkipSettingDefaults: true,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route, pathParams, err := router.FindRoute(req)
			if err != nil {
				if errors.Is(err, routers.ErrPathNotFound) || errors.Is(err, routers.ErrMethodNotAllowed) {
					return next(c)
				}
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err = openapi3filter.ValidateRequest(req.Context(), input); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, validationMessage(err))
			}
			return next(c)
		}
	}, nil
}

func validationMessage(err error) string {
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if field := strings.Join(schemaErr.JSONPointer(), "."); field != "" {
			return "invalid value for " + field + ": " + schemaErr.Reason
		}
		return "invalid request: " + schemaErr.Reason
	}

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		reason := reqErr.Reason
		if reason == "" && reqErr.Err != nil {
			reason = reqErr.Err.Error()
		}
		if reqErr.Parameter != nil {
			return "invalid parameter " + reqErr.Parameter.Name + ": " + reason
		}
		if reqErr.RequestBody != nil {
			return "invalid request body: " + reason
		}
		return reason
	}
	return err.Error()
}
