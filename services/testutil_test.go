package services

import (
	"testing"
	"time"

	"peer-review-system/models"
	"peer-review-system/utils"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fastBackoff keeps retry sleeps out of test runtime.
var fastBackoff = utils.BackoffPolicy{InitialDelay: time.Millisecond, MaxRetries: 3}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One shared in-memory database: the pool must not open a second
	// connection and land in a fresh empty one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.ReviewerUser{},
		&models.Submission{},
		&models.ReviewAssignment{},
		&models.XpTransaction{},
		&models.Notification{},
		&models.AdminAuditLog{},
	))
	return db
}

// testEngine bundles the full service graph over one test database with a
// controllable clock.
type testEngine struct {
	db      *gorm.DB
	pool    *ReviewerPoolService
	monitor *DeadlineMonitorService
	ledger  *LedgerService
	clock   time.Time
}

func newTestEngine(t *testing.T, policy ReviewPolicy) *testEngine {
	t.Helper()
	db := newTestDB(t)

	audit := NewAuditService(db)
	notifications := NewNotificationService(db)
	ledger := NewLedgerService(db)
	ledger.Backoff = fastBackoff

	pool := NewReviewerPoolService(db, policy, audit, notifications)
	pool.Backoff = fastBackoff
	monitor := NewDeadlineMonitorService(db, policy, ledger, audit, notifications, pool)
	monitor.Backoff = fastBackoff

	e := &testEngine{
		db:      db,
		pool:    pool,
		monitor: monitor,
		ledger:  ledger,
		// A Tuesday noon: deadline math stays clear of weekends unless a
		// test moves the clock on purpose.
		clock: time.Date(2025, time.March, 4, 12, 0, 0, 0, time.UTC),
	}
	pool.now = func() time.Time { return e.clock }
	monitor.now = func() time.Time { return e.clock }
	return e
}

type reviewerOpt func(*models.ReviewerUser)

func withXP(xp int64) reviewerOpt {
	return func(u *models.ReviewerUser) { u.TotalXP = xp }
}

func withRole(role string) reviewerOpt {
	return func(u *models.ReviewerUser) { u.Role = role }
}

func withMissed(n int) reviewerOpt {
	return func(u *models.ReviewerUser) { u.MissedReviews = n }
}

func withPreferences(p models.ReviewPreferences) reviewerOpt {
	return func(u *models.ReviewerUser) { u.Preferences = p }
}

func withPausedUntil(until time.Time) reviewerOpt {
	return func(u *models.ReviewerUser) { u.ReviewPausedUntil = &until }
}

func withPermanentPause() reviewerOpt {
	return func(u *models.ReviewerUser) { u.ReviewPausedPermanently = true }
}

// seedReviewer inserts a reviewer-capable user and returns its external ID.
func seedReviewer(t *testing.T, db *gorm.DB, externalID string, opts ...reviewerOpt) string {
	t.Helper()
	user := models.ReviewerUser{
		ID:             uuid.NewString(),
		ExternalUserID: externalID,
		Username:       externalID,
		Email:          externalID + "@example.com",
		Role:           models.RoleReviewer,
		TotalXP:        200,
	}
	for _, opt := range opts {
		opt(&user)
	}
	require.NoError(t, db.Create(&user).Error)
	return user.ExternalUserID
}

func seedSubmission(t *testing.T, db *gorm.DB, authorID string) *models.Submission {
	t.Helper()
	sub := models.Submission{
		ID:     uuid.NewString(),
		UserID: authorID,
		Title:  "Test Submission",
		Slug:   "test-submission-" + uuid.NewString()[:8],
		Status: models.SubmissionSubmitted,
	}
	require.NoError(t, db.Create(&sub).Error)
	return &sub
}

func seedAssignment(t *testing.T, db *gorm.DB, submissionID, reviewerID string, status models.AssignmentStatus, deadline time.Time) *models.ReviewAssignment {
	t.Helper()
	a := models.ReviewAssignment{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		ReviewerID:   reviewerID,
		Status:       status,
		Deadline:     deadline,
		AssignedAt:   deadline.Add(-48 * time.Hour),
	}
	require.NoError(t, db.Create(&a).Error)
	return &a
}

func loadReviewer(t *testing.T, db *gorm.DB, externalID string) *models.ReviewerUser {
	t.Helper()
	var user models.ReviewerUser
	require.NoError(t, db.Where("external_user_id = ?", externalID).First(&user).Error)
	return &user
}

func loadAssignment(t *testing.T, db *gorm.DB, id string) *models.ReviewAssignment {
	t.Helper()
	var a models.ReviewAssignment
	require.NoError(t, db.First(&a, "id = ?", id).Error)
	return &a
}

func countPenalties(t *testing.T, db *gorm.DB, reviewerID, submissionID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.XpTransaction{}).
		Where("user_id = ? AND type = ? AND source_id = ?", reviewerID, models.XpTransactionPenalty, submissionID).
		Count(&n).Error)
	return n
}
