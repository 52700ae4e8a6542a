// handlers/submission.go
package handlers

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"peer-review-system/middleware"
	"peer-review-system/models"
	"peer-review-system/services"
	"peer-review-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// SetupSubmissionRoutes wires submission intake. Intake is what triggers
// reviewer assignment: a new submission immediately gets its reviewer pool
// unless the caller defers with assign=false.
func SetupSubmissionRoutes(app *fiber.App, db *gorm.DB, pool *services.ReviewerPoolService) {
	secured := app.Group("/s", middleware.UserContextMiddleware())

	secured.Post("/submissions", func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "user context missing"})
		}

		title := c.FormValue("title")
		if title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
		}
		taskType := c.FormValue("task_type")

		submission := &models.Submission{
			ID:       uuid.NewString(),
			UserID:   userID,
			Title:    title,
			TaskType: taskType,
			Status:   models.SubmissionSubmitted,
		}
		submission.Slug = fmt.Sprintf("%s-%s", slug.Make(title), submission.ID[:8])

		// Optional attachment, stored in R2 when configured.
		if fileHeader, err := c.FormFile("attachment"); err == nil && fileHeader != nil {
			if !utils.R2Enabled() {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "attachment storage is not configured",
				})
			}
			key := fmt.Sprintf("submissions/%s/%s", submission.ID, filepath.Base(fileHeader.Filename))
			url, err := utils.UploadAttachmentToR2(fileHeader, key)
			if err != nil {
				log.Printf("[SUBMIT] attachment upload failed: %v", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "failed to store attachment",
					"details": err.Error(),
				})
			}
			submission.ContentURL = &url
		}

		if err := db.Create(submission).Error; err != nil {
			log.Printf("[SUBMIT] DB error creating submission: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create submission"})
		}

		// Assign reviewers right away unless the caller opts out. A
		// short-handed pool is reported, not fatal: the submission exists
		// either way and assignment can be retried by an admin.
		var assignment *services.AssignmentResult
		if c.FormValue("assign") != "false" {
			result := pool.AssignReviewers(submission.ID, userID, services.AssignmentOptions{})
			assignment = &result
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"submission": submission,
			"assignment": assignment,
		})
	})

	secured.Get("/submissions/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid submission ID"})
		}

		var submission models.Submission
		if err := db.First(&submission, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "submission not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}

		var assignments []models.ReviewAssignment
		if err := db.Where("submission_id = ?", id).
			Order("assigned_at ASC").
			Find(&assignments).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error loading assignments"})
		}

		return c.JSON(fiber.Map{
			"submission":  submission,
			"assignments": assignments,
		})
	})
}
