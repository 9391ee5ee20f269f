package models

import (
	"time"

	"pennywise/internal/uuid"

	"gorm.io/gorm"
)

// ImportBatch records one committed bulk import. The fingerprint identifies
// the (budget, ordered rows) content so a retried submission can be replayed
// instead of committed twice.
type ImportBatch struct {
	ID          string    `gorm:"size:36;primaryKey" json:"id"`
	BudgetID    uint      `gorm:"not null;index:idx_import_batches_fingerprint,priority:1" json:"budget_id"`
	UserID      uint      `gorm:"not null" json:"user_id"`
	Fingerprint string    `gorm:"size:64;not null;index:idx_import_batches_fingerprint,priority:2" json:"fingerprint"`
	RowCount    int       `gorm:"not null" json:"row_count"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new batches
func (b *ImportBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
