package handlers

import (
	"sqlquest/logger"
	"sqlquest/middleware"
	"sqlquest/models"
	"sqlquest/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(router fiber.Router, progression *services.ProgressionService, log *logger.Logger) {
	router.Get("/user/progress", func(c *fiber.Ctx) error {
		records, err := progression.GetProgress(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(records)
	})

	router.Get("/content/:type", func(c *fiber.Ctx) error {
		items, err := progression.ListContent(c.UserContext(), middleware.UserID(c), models.ContentType(c.Params("type")))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(items)
	})

	router.Post("/content/:type/:id/attempts", func(c *fiber.Ctx) error {
		id, err := intParam(c, "id")
		if err != nil {
			return respondError(c, log, err)
		}
		rec, err := progression.RecordAttempt(c.UserContext(), middleware.UserID(c), models.ContentType(c.Params("type")), id)
		if err != nil {
			return respondError(c, log, err)
		}
		return respondOK(c, rec)
	})

	router.Post("/content/:type/:id/submit", func(c *fiber.Ctx) error {
		id, err := intParam(c, "id")
		if err != nil {
			return respondError(c, log, err)
		}
		var req struct {
			Answer string `json:"answer"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": services.OutcomeInvalidInput, "error": "invalid request body"})
		}
		res, err := progression.CompleteWithValidation(c.UserContext(), middleware.UserID(c), models.ContentType(c.Params("type")), id, req.Answer)
		if err != nil {
			return respondError(c, log, err)
		}
		if !res.Success {
			return c.JSON(fiber.Map{"status": services.OutcomeValidationFailed, "result": res})
		}
		return respondOK(c, res)
	})

	router.Post("/lessons/:id/progress", func(c *fiber.Ctx) error {
		id, err := intParam(c, "id")
		if err != nil {
			return respondError(c, log, err)
		}
		var req struct {
			Percentage *int `json:"percentage"`
		}
		if err := c.BodyParser(&req); err != nil || req.Percentage == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": services.OutcomeInvalidInput, "error": "percentage is required"})
		}
		res, err := progression.RecordProgress(c.UserContext(), middleware.UserID(c), id, *req.Percentage)
		if err != nil {
			return respondError(c, log, err)
		}
		return respondOK(c, res)
	})

	router.Post("/materials/:id/read", func(c *fiber.Ctx) error {
		id, err := intParam(c, "id")
		if err != nil {
			return respondError(c, log, err)
		}
		res, err := progression.MarkMaterialRead(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return respondError(c, log, err)
		}
		return respondOK(c, res)
	})

	router.Post("/materials/:id/save", func(c *fiber.Ctx) error {
		id, err := intParam(c, "id")
		if err != nil {
			return respondError(c, log, err)
		}
		if err := progression.SaveMaterial(c.UserContext(), middleware.UserID(c), id); err != nil {
			return respondError(c, log, err)
		}
		return respondOK(c, fiber.Map{"material_id": id, "saved": true})
	})

	router.Delete("/materials/:id/save", func(c *fiber.Ctx) error {
		id, err := intParam(c, "id")
		if err != nil {
			return respondError(c, log, err)
		}
		if err := progression.UnsaveMaterial(c.UserContext(), middleware.UserID(c), id); err != nil {
			return respondError(c, log, err)
		}
		return respondOK(c, fiber.Map{"material_id": id, "saved": false})
	})

	router.Get("/user/materials/saved", func(c *fiber.Ctx) error {
		items, err := progression.ListSavedMaterials(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(items)
	})

	router.Get("/lessons/:id/notes", func(c *fiber.Ctx) error {
		id, err := intParam(c, "id")
		if err != nil {
			return respondError(c, log, err)
		}
		notes, err := progression.ListNotes(c.UserContext(), middleware.UserID(c), id)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(notes)
	})

	router.Post("/lessons/:id/notes", func(c *fiber.Ctx) error {
		id, err := intParam(c, "id")
		if err != nil {
			return respondError(c, log, err)
		}
		var req struct {
			Content          string `json:"content"`
			TimestampSeconds int    `json:"timestamp_seconds"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": services.OutcomeInvalidInput, "error": "invalid request body"})
		}
		note, err := progression.CreateNote(c.UserContext(), middleware.UserID(c), id, req.Content, req.TimestampSeconds)
		if err != nil {
			return respondError(c, log, err)
		}
		return respondOK(c, note)
	})

	router.Patch("/notes/:id", func(c *fiber.Ctx) error {
		var req services.NoteUpdate
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": services.OutcomeInvalidInput, "error": "invalid request body"})
		}
		note, err := progression.UpdateNote(c.UserContext(), middleware.UserID(c), c.Params("id"), req)
		if err != nil {
			return respondError(c, log, err)
		}
		return respondOK(c, note)
	})

	router.Delete("/notes/:id", func(c *fiber.Ctx) error {
		if err := progression.DeleteNote(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return respondError(c, log, err)
		}
		return respondOK(c, fiber.Map{"id": c.Params("id"), "deleted": true})
	})
}
