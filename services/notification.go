package services

import (
	"errors"
	"fmt"
	"log"

	"peer-review-system/models"
	"peer-review-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationService stores in-app notifications and, when SMTP is
// configured, mirrors them to email. Email delivery is always best-effort;
// the stored row is what reminder idempotency keys off.
type NotificationService struct {
	DB *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{DB: db}
}

// NotifyAssignment records an assignment notification for the reviewer.
func (s *NotificationService) NotifyAssignment(reviewerID, submissionID, assignmentID string, deadline string) error {
	n := &models.Notification{
		ID:           uuid.NewString(),
		UserID:       reviewerID,
		Type:         models.NotificationReviewAssigned,
		Title:        "New review assignment",
		Body:         fmt.Sprintf("You have been assigned a submission to review. Deadline: %s.", deadline),
		AssignmentID: &assignmentID,
		SubmissionID: &submissionID,
	}
	if err := s.DB.Create(n).Error; err != nil {
		return err
	}
	s.mailTo(reviewerID, n.Title, n.Body)
	return nil
}

// ReminderAlreadySent reports whether a reminder for this assignment and
// checkpoint interval was already recorded. The notification row written by
// SendReminder is itself the dedupe record.
func (s *NotificationService) ReminderAlreadySent(assignmentID string, intervalHours int) (bool, error) {
	var n models.Notification
	err := s.DB.
		Where("type = ? AND assignment_id = ? AND reminder_interval_hours = ?",
			models.NotificationReviewReminder, assignmentID, intervalHours).
		First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SendReminder records (and best-effort emails) one deadline reminder.
func (s *NotificationService) SendReminder(reviewerID, submissionID, assignmentID string, intervalHours int) error {
	n := &models.Notification{
		ID:                    uuid.NewString(),
		UserID:                reviewerID,
		Type:                  models.NotificationReviewReminder,
		Title:                 fmt.Sprintf("Review due in %dh", intervalHours),
		Body:                  fmt.Sprintf("Your review deadline is about %d hour(s) away.", intervalHours),
		AssignmentID:          &assignmentID,
		SubmissionID:          &submissionID,
		ReminderIntervalHours: &intervalHours,
	}
	if err := s.DB.Create(n).Error; err != nil {
		return err
	}
	s.mailTo(reviewerID, n.Title, n.Body)
	return nil
}

// NotifyReassignment tells the replacement reviewer about their new
// assignment and the original reviewer that theirs was handed off.
func (s *NotificationService) NotifyReassignment(newReviewerID, oldReviewerID, submissionID, newAssignmentID string) {
	replacement := &models.Notification{
		ID:           uuid.NewString(),
		UserID:       newReviewerID,
		Type:         models.NotificationReviewReassigned,
		Title:        "Review reassigned to you",
		Body:         "A missed review has been reassigned to you.",
		AssignmentID: &newAssignmentID,
		SubmissionID: &submissionID,
	}
	if err := s.DB.Create(replacement).Error; err != nil {
		log.Printf("[NOTIFY] ⚠️ failed to store reassignment notification for %s: %v", newReviewerID, err)
	}
	original := &models.Notification{
		ID:           uuid.NewString(),
		UserID:       oldReviewerID,
		Type:         models.NotificationReviewReassigned,
		Title:        "Missed review reassigned",
		Body:         "Your missed review has been reassigned to another reviewer.",
		SubmissionID: &submissionID,
	}
	if err := s.DB.Create(original).Error; err != nil {
		log.Printf("[NOTIFY] ⚠️ failed to store reassignment notice for %s: %v", oldReviewerID, err)
	}
}

// NotifyPenalty records a sanction notification for the reviewer.
func (s *NotificationService) NotifyPenalty(reviewerID, submissionID, body string) {
	n := &models.Notification{
		ID:           uuid.NewString(),
		UserID:       reviewerID,
		Type:         models.NotificationReviewPenalty,
		Title:        "Review deadline missed",
		Body:         body,
		SubmissionID: &submissionID,
	}
	if err := s.DB.Create(n).Error; err != nil {
		log.Printf("[NOTIFY] ⚠️ failed to store penalty notification for %s: %v", reviewerID, err)
	}
	s.mailTo(reviewerID, n.Title, n.Body)
}

// mailTo emails the user's address when SMTP is configured. Failures only
// log; the stored notification already happened.
func (s *NotificationService) mailTo(externalUserID, subject, body string) {
	if !utils.MailConfigured() {
		return
	}
	var user models.ReviewerUser
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&user).Error; err != nil || user.Email == "" {
		return
	}
	if err := utils.SendMail([]string{user.Email}, subject, "<p>"+body+"</p>"); err != nil {
		log.Printf("[NOTIFY] ⚠️ email to %s failed: %v", user.Email, err)
	}
}
