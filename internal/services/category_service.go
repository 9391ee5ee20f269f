package services

import (
	"context"

	"gorm.io/gorm"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/models"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// GetBudgetCategories returns every category of a budget ordered by name.
func (s *categoryService) GetBudgetCategories(ctx context.Context, budgetID uint) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).
		Where("budget_id = ?", budgetID).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryIDs returns the set of category IDs that belong to a budget.
func (s *categoryService) GetCategoryIDs(ctx context.Context, budgetID uint) (map[uint]struct{}, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("budget_id = ?", budgetID).
		Pluck("id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
