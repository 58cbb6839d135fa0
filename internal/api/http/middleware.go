package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-gateway/internal/auth"
	"github.com/spec-kit/auth-gateway/internal/observability"
	"github.com/spec-kit/auth-gateway/pkg/util"
)

const requestIDKey = "request_id"

// MiddlewareConfig bundles dependencies for the global middleware chain.
type MiddlewareConfig struct {
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Reporter    observability.Reporter
	Development bool
	Timeout     time.Duration
}

// RegisterMiddlewares attaches global middlewares: request id, timeout, error
// responding and request logging.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	app.Use(requestIDMiddleware())
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
	app.Use(errorHandlingMiddleware(cfg))
	app.Use(requestLoggerMiddleware(cfg.Logger, cfg.Metrics))
}

func requestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(requestIDKey, id)
		c.Set(fiber.HeaderXRequestID, id)
		return c.Next()
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware is the terminal stage for every failure. Anything
// unclassified is wrapped as a non-operational internal error; only
// operational messages reach the caller outside development.
func errorHandlingMiddleware(cfg MiddlewareConfig) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				cfg.Logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				err = util.NewInternalError(nil)
			}
			if err != nil {
				respondError(c, cfg, util.ToDomainError(err))
				err = nil
			}
		}()
		return c.Next()
	}
}

func respondError(c *fiber.Ctx, cfg MiddlewareConfig, domainErr *util.DomainError) {
	if cfg.Metrics != nil {
		cfg.Metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
	}

	if domainErr.Operational {
		cfg.Logger.Warn("request rejected",
			zap.String("code", domainErr.Code),
			zap.Int("status", domainErr.HTTPStatus),
			zap.String("path", c.Path()),
			zap.Any("details", domainErr.Details))
	} else {
		cfg.Logger.Error("request failed", zap.Error(domainErr), zap.String("path", c.Path()))
		if cfg.Reporter != nil {
			rctx := observability.ReportContext{
				Path:   c.Path(),
				Method: c.Method(),
			}
			if identity, ok := auth.IdentityFromContext(c); ok {
				rctx.SubjectID = identity.SubjectID
			}
			if id, ok := c.Locals(requestIDKey).(string); ok {
				rctx.RequestID = id
			}
			cfg.Reporter.Report(domainErr, rctx)
		}
	}

	message := domainErr.Message
	if !domainErr.Operational && cfg.Development && domainErr.Err != nil {
		message = domainErr.Err.Error()
	}

	response := fiber.Map{
		"message":    message,
		"code":       domainErr.Code,
		"statusCode": domainErr.HTTPStatus,
	}
	if len(domainErr.Details) > 0 {
		response["details"] = domainErr.Details
	}

	c.Status(domainErr.HTTPStatus)
	_ = c.JSON(response)
}

func requestLoggerMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		metrics.RecordRequest(c.Path(), c.Method(), status, duration)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		}
		if id, ok := c.Locals(requestIDKey).(string); ok {
			fields = append(fields, zap.String("request_id", id))
		}
		logger.Info("request handled", fields...)
		return err
	}
}
