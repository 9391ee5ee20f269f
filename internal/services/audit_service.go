package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"pennywise/internal/logger"
	"pennywise/internal/models"
)

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record stores entry with changes serialised as JSON. Failures are logged
// and never reach the caller: the audited operation has already committed.
func (s *auditService) Record(ctx context.Context, entry models.AuditLog, changes map[string]any) {
	log := logger.FromContext(ctx)

	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			log.Errorw("failed to marshal audit changes", "error", err, "action", entry.Action)
			data = []byte("{}")
		}
		entry.Changes = string(data)
	}

	// The request may be cancelled right after commit; the trail must still be written.
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&entry).Error; err != nil {
		log.Errorw("failed to create audit log entry",
			"error", err,
			"user_id", entry.UserID,
			"budget_id", entry.BudgetID,
			"action", entry.Action,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
		)
	}
}
