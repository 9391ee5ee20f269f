package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"pennywise/internal/assistant"
	apperrors "pennywise/internal/errors"
	"pennywise/internal/models"
	"pennywise/internal/pagination"
)

// insertBatchSize bounds the rows per INSERT statement during bulk import.
const insertBatchSize = 100

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// GetBudgetTransactions retrieves one window of a budget's filtered
// transactions, newest first.
func (s *transactionService) GetBudgetTransactions(ctx context.Context, budgetID uint, window pagination.Window, filter TransactionFilter) (*pagination.Page[models.Transaction], error) {
	window = window.Normalize()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("transactions.budget_id = ?", budgetID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").
		Scopes(pagination.Scope(window)).
		Order("transactions.date DESC, transactions.id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	page := pagination.NewPage(transactions, window, totalItems)
	return &page, nil
}

// SumByCategory totals matching transactions per category, largest first.
// Uncategorised transactions are grouped under a nil CategoryID.
func (s *transactionService) SumByCategory(ctx context.Context, budgetID uint, filter TransactionFilter) ([]assistant.CategoryTotal, error) {
	var rows []struct {
		CategoryID *uint
		Name       *string
		Total      int64
		TxCount    int64
	}

	q := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("transactions.category_id AS category_id, categories.name AS name, "+
			"COALESCE(SUM(transactions.amount), 0) AS total, COUNT(*) AS tx_count").
		Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.budget_id = ?", budgetID)
	q = applyTransactionFilters(q, filter)

	if err := q.Group("transactions.category_id, categories.name").
		Order("total DESC").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := make([]assistant.CategoryTotal, len(rows))
	for i, r := range rows {
		totals[i] = assistant.CategoryTotal{CategoryID: r.CategoryID, Total: r.Total, Count: r.TxCount}
		if r.Name != nil {
			totals[i].Name = *r.Name
		}
	}
	return totals, nil
}

// FindImportBatch returns the newest batch with the given fingerprint created
// at or after since, or nil when there is none.
func (s *transactionService) FindImportBatch(ctx context.Context, budgetID uint, fingerprint string, since time.Time) (*models.ImportBatch, error) {
	var batch models.ImportBatch
	err := s.db.WithContext(ctx).
		Where("budget_id = ? AND fingerprint = ? AND created_at >= ?", budgetID, fingerprint, since).
		Order("created_at DESC").
		First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &batch, nil
}

// CreateImportBatch persists the batch record and all of its transactions in
// one database transaction.
func (s *transactionService) CreateImportBatch(ctx context.Context, batch *models.ImportBatch, txs []models.Transaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range txs {
			txs[i].ImportBatchID = &batch.ID
		}
		if err := tx.CreateInBatches(txs, insertBatchSize).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("transactions.date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("transactions.date <= ?", *f.ToDate)
	}
	if f.Type != nil {
		q = q.Where("transactions.type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("transactions.category_id = ?", *f.CategoryID)
	}
	return q
}
