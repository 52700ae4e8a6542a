package services

import (
	"log"

	"peer-review-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditService writes the admin audit trail. Every write is best-effort:
// failures are logged and swallowed so an audit outage never aborts the
// operation being audited.
type AuditService struct {
	DB *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{DB: db}
}

// LogSystemAction records an engine-driven action under the "system" admin.
func (s *AuditService) LogSystemAction(action, targetType, targetID string, details map[string]any) {
	s.logAction("system", action, targetType, targetID, details)
}

func (s *AuditService) logAction(adminID, action, targetType, targetID string, details map[string]any) {
	entry := &models.AdminAuditLog{
		ID:         uuid.NewString(),
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	}
	if err := s.DB.Create(entry).Error; err != nil {
		log.Printf("[AUDIT] ⚠️ failed to record %s on %s/%s: %v", action, targetType, targetID, err)
	}
}
