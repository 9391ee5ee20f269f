package services

import (
	"context"
	"time"

	"pennywise/internal/assistant"
	"pennywise/internal/models"
	"pennywise/internal/pagination"
)

// BudgetServicer defines the contract for budget lookups scoped to an owner.
type BudgetServicer interface {
	GetBudgetByID(ctx context.Context, userID, budgetID uint) (*models.Budget, error)
	GetUserBudgets(ctx context.Context, userID uint) ([]models.Budget, error)
}

// CategoryServicer defines the contract for category lookups inside a budget.
type CategoryServicer interface {
	GetBudgetCategories(ctx context.Context, budgetID uint) ([]models.Category, error)
	GetCategoryIDs(ctx context.Context, budgetID uint) (map[uint]struct{}, error)
}

// TransactionFilter holds optional filter parameters for transaction queries.
// FromDate and ToDate are inclusive.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *uint
}

// TransactionServicer defines the contract for transaction reads and batch writes.
type TransactionServicer interface {
	GetBudgetTransactions(ctx context.Context, budgetID uint, window pagination.Window, filter TransactionFilter) (*pagination.Page[models.Transaction], error)
	SumByCategory(ctx context.Context, budgetID uint, filter TransactionFilter) ([]assistant.CategoryTotal, error)
	FindImportBatch(ctx context.Context, budgetID uint, fingerprint string, since time.Time) (*models.ImportBatch, error)
	CreateImportBatch(ctx context.Context, batch *models.ImportBatch, txs []models.Transaction) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Record(ctx context.Context, entry models.AuditLog, changes map[string]any)
}
