// Package middleware provides HTTP middleware for the Fiber server.
package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"patrol_server/pkg/apperr"
	"patrol_server/pkg/logger"
	"patrol_server/pkg/response"
)

// ErrorHandler is the global Fiber error handler. It converts AppErrors
// to the standard response envelope and hides internal details.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID := c.Locals("request_id")

		var appErr *apperr.AppError
		if errors.As(err, &appErr) {
			logEntry := logger.WithFields(map[string]interface{}{
				"request_id": requestID,
				"method":     c.Method(),
				"path":       c.Path(),
				"error_code": appErr.Code,
				"status":     appErr.HTTPStatus(),
			})

			if appErr.HTTPStatus() >= 500 {
				logEntry.WithError(appErr).Error("request failed")
			} else {
				logEntry.Warn("request rejected: %s", appErr.Message)
			}

			return response.Error(c, appErr.HTTPStatus(), appErr.Code, appErr.Message)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			logger.WithFields(map[string]interface{}{
				"request_id": requestID,
				"method":     c.Method(),
				"path":       c.Path(),
				"status":     fiberErr.Code,
			}).Warn("request rejected: %s", fiberErr.Message)

			return response.Error(c, fiberErr.Code, mapHTTPStatusToCode(fiberErr.Code), fiberErr.Message)
		}

		// Unknown error: log with detail, return a generic 500.
		logger.WithFields(map[string]interface{}{
			"request_id": requestID,
			"method":     c.Method(),
			"path":       c.Path(),
		}).WithError(err).Error("unhandled error")

		return response.Error(c, fiber.StatusInternalServerError,
			apperr.CodeInternalError, "internal server error")
	}
}

// RequestID attaches a unique ID to every request.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals("request_id", requestID)
		c.Set("X-Request-ID", requestID)
		return c.Next()
	}
}

// RequestLogger logs each request with latency and status.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		entry := logger.WithFields(map[string]interface{}{
			"request_id": c.Locals("request_id"),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.IP(),
		})

		switch {
		case status >= 500:
			entry.Error("request completed")
		case status >= 400:
			entry.Warn("request completed")
		default:
			entry.Info("request completed")
		}

		return err
	}
}

// Recover converts panics into 500 responses instead of crashing the
// server.
func Recover() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(map[string]interface{}{
					"request_id": c.Locals("request_id"),
					"method":     c.Method(),
					"path":       c.Path(),
					"panic":      r,
				}).Error("panic recovered")

				err = response.Error(c, fiber.StatusInternalServerError,
					apperr.CodeInternalError, "internal server error")
			}
		}()
		return c.Next()
	}
}

func mapHTTPStatusToCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return apperr.CodeBadRequest
	case fiber.StatusNotFound:
		return apperr.CodeNotFound
	case fiber.StatusConflict:
		return apperr.CodeConflict
	case fiber.StatusRequestTimeout:
		return apperr.CodeTimeout
	case fiber.StatusServiceUnavailable:
		return apperr.CodeStoreUnavailable
	default:
		return apperr.CodeInternalError
	}
}
