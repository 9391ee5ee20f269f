package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// IsValid reports whether t is one of the supported transaction types.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction represents a persisted financial transaction in a budget.
// Amount is stored in cents; Date is a calendar date at midnight UTC.
type Transaction struct {
	Base
	BudgetID      uint            `gorm:"not null;index:idx_transactions_budget_date,priority:1" json:"budget_id"`
	CategoryID    *uint           `gorm:"index" json:"category_id,omitempty"`
	Type          TransactionType `gorm:"not null" json:"type"`
	Amount        int64           `gorm:"type:bigint;not null" json:"amount"`
	Description   string          `json:"description"`
	Date          time.Time       `gorm:"not null;index:idx_transactions_budget_date,priority:2" json:"date"`
	ImportBatchID *string         `gorm:"size:36;index" json:"import_batch_id,omitempty"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
