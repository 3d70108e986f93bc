package handlers

import (
	"sqlquest/logger"
	"sqlquest/middleware"
	"sqlquest/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAchievementRoutes(router fiber.Router, achievements *services.AchievementService, log *logger.Logger) {
	router.Get("/user/achievements", func(c *fiber.Ctx) error {
		views, err := achievements.GetAchievements(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(views)
	})

	router.Post("/achievements/:id/claim", func(c *fiber.Ctx) error {
		res, err := achievements.Claim(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, log, err)
		}
		return respondOK(c, res)
	})
}

func SetupStoreRoutes(router fiber.Router, store *services.StoreService, log *logger.Logger) {
	router.Get("/store/items", func(c *fiber.Ctx) error {
		items, err := store.ListItems(c.UserContext())
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(items)
	})

	router.Get("/user/purchases", func(c *fiber.Ctx) error {
		ids, err := store.GetPurchases(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(ids)
	})

	router.Post("/store/items/:id/purchase", func(c *fiber.Ctx) error {
		res, err := store.Purchase(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, log, err)
		}
		return respondOK(c, res)
	})
}
