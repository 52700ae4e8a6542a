package models

import "time"

type XpTransactionType string

const (
	XpTransactionReward     XpTransactionType = "REWARD"
	XpTransactionPenalty    XpTransactionType = "PENALTY"
	XpTransactionAdjustment XpTransactionType = "ADJUSTMENT"
)

// XpTransaction is one XP ledger entry. Beyond bookkeeping, PENALTY entries
// double as the sweep's idempotency oracle: a PENALTY row for
// (user_id, source_id=submission_id) is durable proof that the miss was
// already penalized, so a re-run (or crash-and-restart) skips straight to
// the status flip.
type XpTransaction struct {
	ID          string            `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string            `gorm:"index:idx_xp_tx_dedupe;not null" json:"user_id"`
	Type        XpTransactionType `gorm:"index:idx_xp_tx_dedupe;not null" json:"type"`
	SourceID    *string           `gorm:"index:idx_xp_tx_dedupe" json:"source_id,omitempty"`
	Amount      int64             `gorm:"not null" json:"amount"`
	Description string            `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at" gorm:"autoCreateTime"`
}
