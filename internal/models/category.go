package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category is a named bucket inside a budget. Limit is the planned amount per
// budget period in cents; zero means no limit was set.
type Category struct {
	Base
	BudgetID uint         `gorm:"not null;index" json:"budget_id"`
	Name     string       `gorm:"not null" json:"name"`
	Type     CategoryType `gorm:"not null" json:"type"`
	Limit    int64        `gorm:"column:limit_amount;type:bigint;not null;default:0" json:"limit"`
}
