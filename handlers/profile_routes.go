package handlers

import (
	"sqlquest/logger"
	"sqlquest/middleware"
	"sqlquest/models"
	"sqlquest/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(router fiber.Router, profiles *services.ProfileService, store *services.StoreService, ranking *services.RankingService, rewards *services.RewardService, log *logger.Logger) {
	router.Get("/user/profile", func(c *fiber.Ctx) error {
		p, err := profiles.GetProfile(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(p)
	})

	// Either field may be sent; the icon must be owned or the default.
	router.Patch("/user/profile", func(c *fiber.Ctx) error {
		var req struct {
			DisplayName *string `json:"display_name"`
			AvatarIcon  *string `json:"avatar_icon"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": services.OutcomeInvalidInput, "error": "invalid request body"})
		}
		userID := middleware.UserID(c)
		if userID == "" {
			return respondError(c, log, services.ErrNotAuthenticated)
		}

		// Check the name up front so a bad name leaves the icon untouched.
		if req.DisplayName != nil {
			if _, err := services.NormalizeDisplayName(*req.DisplayName); err != nil {
				return respondError(c, log, err)
			}
		}

		var p *models.Profile
		var err error
		if req.AvatarIcon != nil {
			if p, err = store.EquipIcon(c.UserContext(), userID, *req.AvatarIcon); err != nil {
				return respondError(c, log, err)
			}
		}
		if req.DisplayName != nil {
			if p, err = profiles.UpdateDisplayName(c.UserContext(), userID, *req.DisplayName); err != nil {
				return respondError(c, log, err)
			}
		}
		if p == nil {
			if p, err = profiles.GetProfile(c.UserContext(), userID); err != nil {
				return respondError(c, log, err)
			}
		}
		return respondOK(c, p)
	})

	router.Post("/user/tutorial/complete", func(c *fiber.Ctx) error {
		p, err := profiles.MarkTutorialCompleted(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, log, err)
		}
		return respondOK(c, p)
	})

	router.Get("/ranking", func(c *fiber.Ctx) error {
		top, err := ranking.Top(c.UserContext(), c.QueryInt("limit", 0))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(top)
	})

	router.Get("/user/rewards", func(c *fiber.Ctx) error {
		grants, err := rewards.ListRewardGrants(c.UserContext(), middleware.UserID(c), c.QueryInt("limit", 20))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(grants)
	})

	router.Get("/user/rewards/stream", rewards.StreamUserRewardsSSE)
}

func SetupAdminRoutes(router fiber.Router, catalog *services.CatalogService, log *logger.Logger) {
	admin := router.Group("/admin", middleware.RequireRole("admin"))

	admin.Post("/catalog/import", func(c *fiber.Ctx) error {
		stats, err := catalog.ImportBytes(c.UserContext(), c.Body())
		if err != nil {
			return respondError(c, log, err)
		}
		return respondOK(c, stats)
	})
}
