package services

import (
	"errors"

	"peer-review-system/models"
	"peer-review-system/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerService owns the XP transaction log. PENALTY entries keyed by
// (user, source) are also the deadline sweep's idempotency oracle.
//
// The existence check below is read-then-write, which leaves a narrow race
// window if two sweeps ever run concurrently. The idx_xp_tx_dedupe composite
// index exists so a deployment can promote it to a unique constraint and get
// an atomic insert-if-absent instead.
type LedgerService struct {
	DB      *gorm.DB
	Backoff utils.BackoffPolicy
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db, Backoff: utils.DefaultBackoff}
}

// RecordTransaction appends one ledger entry and returns it.
func (s *LedgerService) RecordTransaction(userID string, amount int64, txType models.XpTransactionType, description string, sourceID *string) (*models.XpTransaction, error) {
	tx := &models.XpTransaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        txType,
		SourceID:    sourceID,
		Amount:      amount,
		Description: description,
	}
	_, err := utils.WithRetry(func() (struct{}, error) {
		return struct{}{}, s.DB.Create(tx).Error
	}, utils.IsTransient, s.Backoff)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// HasTransaction reports whether any entry of the given type exists for
// (userID, sourceID).
func (s *LedgerService) HasTransaction(userID string, txType models.XpTransactionType, sourceID string) (bool, error) {
	return utils.WithRetry(func() (bool, error) {
		var tx models.XpTransaction
		err := s.DB.
			Where("user_id = ? AND type = ? AND source_id = ?", userID, txType, sourceID).
			First(&tx).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}, utils.IsTransient, s.Backoff)
}

// HasPenaltyFor is the idempotency probe used by the sweep: true means the
// per-miss penalty for this (reviewer, submission) was already applied in a
// prior run.
func (s *LedgerService) HasPenaltyFor(reviewerID, submissionID string) (bool, error) {
	return s.HasTransaction(reviewerID, models.XpTransactionPenalty, submissionID)
}
