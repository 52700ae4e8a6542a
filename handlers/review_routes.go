// handlers/review_routes.go
package handlers

import (
	"peer-review-system/middleware"
	"peer-review-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SetupReviewRoutes wires the assignment and deadline engine's exposed
// surface. Everything lives behind the gateway user context; mutating
// endpoints additionally require an admin role.
func SetupReviewRoutes(app *fiber.App, pool *services.ReviewerPoolService, monitor *services.DeadlineMonitorService) {
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	// Assign reviewers to a submission. 422 on a business failure
	// (insufficient reviewers, unknown submission); warnings ride along on
	// success.
	admin.Post("/submissions/:id/assign-reviewers", func(c *fiber.Ctx) error {
		submissionID := c.Params("id")
		if _, err := uuid.Parse(submissionID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid submission ID"})
		}

		var opts services.AssignmentOptions
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&opts); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error":   "invalid JSON",
					"details": err.Error(),
				})
			}
		}

		result := pool.AssignReviewers(submissionID, "", opts)
		if !result.Success {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(result)
		}
		return c.JSON(result)
	})

	// Run one sweep on demand (the scheduler runs the same thing
	// periodically; the sweep is idempotent either way).
	admin.Post("/deadlines/process", func(c *fiber.Ctx) error {
		result, err := monitor.ProcessDeadlines()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "sweep failed",
				"details": err.Error(),
			})
		}
		return c.JSON(result)
	})

	admin.Get("/deadlines", func(c *fiber.Ctx) error {
		statuses, err := monitor.GetDeadlineStatuses()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "failed to load deadline statuses",
				"details": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"count":     len(statuses),
			"deadlines": statuses,
		})
	})

	admin.Post("/assignments/:id/extend", func(c *fiber.Ctx) error {
		assignmentID := c.Params("id")
		if _, err := uuid.Parse(assignmentID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid assignment ID"})
		}

		var req struct {
			AdditionalHours int    `json:"additional_hours"`
			Reason          string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "invalid JSON",
				"details": err.Error(),
			})
		}
		if req.AdditionalHours <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "additional_hours must be > 0"})
		}

		extended, err := monitor.ExtendDeadline(assignmentID, req.AdditionalHours, req.Reason)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "failed to extend deadline",
				"details": err.Error(),
			})
		}
		if !extended {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "assignment not found or already terminal",
			})
		}
		return c.JSON(fiber.Map{"message": "deadline extended", "extended": true})
	})
}
