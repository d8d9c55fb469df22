package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/script-hub/script-hub/internal/manager"
)

// RegisterCacheRoutes 暴露 /-/caches 诊断接口：查询各缓存种类状态与已注册
// 远程源，并提供显式的整体清空操作（唯一的缓存失效手段）。
func RegisterCacheRoutes(app *fiber.App, m *manager.Manager) {
	if app == nil || m == nil {
		return
	}

	app.Get("/-/caches", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"kinds":   m.Kinds(),
			"sources": m.Sources(),
		})
	})

	app.Post("/-/caches/clear", func(c fiber.Ctx) error {
		if err := m.Clear(c.Context()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "cache_clear_failed"})
		}
		return c.JSON(fiber.Map{"cleared": true})
	})
}
