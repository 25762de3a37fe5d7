package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"parceltrack/internal/adapters/in/http/api"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/swaggo/swag"
)

var registerDocsOnce sync.Once

// registerDocs publishes the OpenAPI document to the swagger UI. swag panics on a
// second registration under the same name.
func registerDocs() {
	registerDocsOnce.Do(func() {
		swag.Register(swag.Name, &swag.Spec{
			InfoInstanceName: swag.Name,
			SwaggerTemplate:  string(api.RawSpec()),
		})
	})
}

// NewRouter builds the echo application: error rendering, request logging, identity
// extraction and contract validation in front of the generated routes.
func NewRouter(server *Server, logger *slog.Logger) (*echo.Echo, error) {
	if logger == nil {
		logger = slog.Default()
	}

	doc, err := api.GetSwagger()
	if err != nil {
		return nil, err
	}
	validator, err := RequestValidator(doc)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewErrorHandler(logger)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.RequestID != "" {
				attrs = append(attrs, slog.String("requestId", v.RequestID))
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(context.Background(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(IdentityMiddleware())
	e.Use(validator)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/api/openapi.json", func(c echo.Context) error {
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, api.RawSpec())
	})

	registerDocs()
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api.RegisterHandlers(e, server)
	return e, nil
}
