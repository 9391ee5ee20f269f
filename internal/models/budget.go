package models

import "time"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Budget groups the categories and transactions a user plans against.
// Every pipeline operation is scoped to a single budget.
type Budget struct {
	Base
	UserID    uint         `gorm:"not null;index" json:"user_id"`
	Name      string       `gorm:"not null" json:"name"`
	Currency  string       `gorm:"size:3;not null;default:USD" json:"currency"`
	Amount    int64        `gorm:"type:bigint;not null" json:"amount"`
	Period    BudgetPeriod `gorm:"not null;default:monthly" json:"period"`
	StartDate time.Time    `gorm:"not null" json:"start_date"`
	IsActive  bool         `gorm:"default:true" json:"is_active"`

	// Relationships
	Categories []Category `gorm:"foreignKey:BudgetID" json:"categories,omitempty"`
}
