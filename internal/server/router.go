package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/script-hub/script-hub/internal/artifact"
	"github.com/script-hub/script-hub/internal/logging"
	"github.com/script-hub/script-hub/internal/manager"
)

// ScriptContentType marks every cache response as executable script text,
// including the sentinel bodies for disabled/missing artifacts.
const ScriptContentType = "application/javascript; charset=utf-8"

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger     *logrus.Logger
	Manager    *manager.Manager
	Bindings   []Binding
	ListenPort int
}

const contextKeyRequestID = "_scripthub_request_id"

// NewApp builds a Fiber application with the pattern-dispatch middleware and
// structured error handling. Paths matching no binding fall through to any
// handler registered after it (diagnostics routes, then Fiber's 404).
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Manager == nil {
		return nil, errors.New("cache manager is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware())
	app.Use(dispatchMiddleware(opts))

	return app, nil
}

// requestIDMiddleware 为每个请求生成 UUID 并回写响应头。
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// dispatchMiddleware 依次尝试每个绑定的模式，首个捕获成功的绑定决定要执行
// 的缓存操作；全部不匹配时交还给后续 handler。
func dispatchMiddleware(opts AppOptions) fiber.Handler {
	return func(c fiber.Ctx) error {
		path := string(c.Request().URI().Path())
		if isDiagnosticsPath(path) {
			return c.Next()
		}

		for _, binding := range opts.Bindings {
			groups := binding.Pattern.FindStringSubmatch(path)
			if groups == nil {
				continue
			}
			return serveCacheOperation(c, opts, binding.Kind, groups)
		}
		return c.Next()
	}
}

func serveCacheOperation(c fiber.Ctx, opts AppOptions, kind artifact.Kind, groups []string) error {
	started := time.Now()
	requestID := RequestID(c)
	ctx := c.Context()

	var (
		result artifact.Result
		err    error
		script string
	)
	switch kind {
	case artifact.KindBundle:
		script = groups[1]
		result, err = opts.Manager.Bundle(ctx, script)
	case artifact.KindCompile:
		script = groups[1]
		result, err = opts.Manager.Compile(ctx, script)
	case artifact.KindTranspile:
		script = groups[1]
		result, err = opts.Manager.Transpile(ctx, script)
	case artifact.KindRemote:
		script = groups[1] + "/" + groups[2]
		result, err = opts.Manager.Remote(ctx, groups[1], groups[2])
	default:
		return c.Next()
	}

	if err != nil {
		return renderOperationError(c, opts.Logger, kind, script, requestID, started, err)
	}

	c.Set("Content-Type", ScriptContentType)
	c.Set("X-Script-Hub-Cache-Hit", fmt.Sprintf("%t", result.CacheHit()))
	if requestID != "" {
		c.Set("X-Request-ID", requestID)
	}

	logDispatch(opts.Logger, kind, script, requestID, result, started)
	return c.Status(fiber.StatusOK).SendString(result.Text())
}

func renderOperationError(c fiber.Ctx, logger *logrus.Logger, kind artifact.Kind, script, requestID string, started time.Time, err error) error {
	fields := logging.RequestFields(string(kind), script, false)
	fields["action"] = "dispatch"
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	fields["error"] = err.Error()
	if requestID != "" {
		fields["request_id"] = requestID
	}

	if errors.Is(err, manager.ErrScriptRequired) || errors.Is(err, manager.ErrHandleRequired) {
		logger.WithFields(fields).Warn("dispatch_rejected")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "script_required"})
	}

	// Generator 故障或意外 I/O：真正的失败，终止本次请求
	logger.WithFields(fields).Error("dispatch_failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "generation_failed"})
}

func logDispatch(logger *logrus.Logger, kind artifact.Kind, script, requestID string, result artifact.Result, started time.Time) {
	fields := logging.RequestFields(string(kind), script, result.CacheHit())
	fields["action"] = "dispatch"
	fields["status"] = dispatchStatus(result)
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if requestID != "" {
		fields["request_id"] = requestID
	}
	logger.WithFields(fields).Info("dispatch_complete")
}

func dispatchStatus(result artifact.Result) string {
	switch result.Status {
	case artifact.StatusHit:
		return "hit"
	case artifact.StatusGenerated:
		return "generated"
	case artifact.StatusDisabled:
		return "disabled"
	case artifact.StatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}
