package imports

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/logger"
	"pennywise/internal/models"
	"pennywise/internal/uuid"
	"pennywise/internal/validator"
)

// AuditAction is the audit log action recorded for a committed import.
const AuditAction = "BULK_IMPORT"

// Store is the data access the importer needs. CreateBatch must persist the
// batch and all of its transactions atomically.
type Store interface {
	CategoryIDs(ctx context.Context, budgetID uint) (map[uint]struct{}, error)
	FindBatch(ctx context.Context, budgetID uint, fingerprint string, since time.Time) (*models.ImportBatch, error)
	CreateBatch(ctx context.Context, batch *models.ImportBatch, txs []models.Transaction) error
}

// Invalidator is told about every budget whose transactions changed.
type Invalidator interface {
	Invalidate(ctx context.Context, budgetID uint) error
}

// Auditor records committed imports.
type Auditor interface {
	Record(ctx context.Context, entry models.AuditLog, changes map[string]any)
}

// Request is one bulk import submission.
type Request struct {
	UserID    uint
	BudgetID  uint
	Rows      []Row
	IPAddress string
}

// Result describes a committed, or replayed, import.
type Result struct {
	Created   int    `json:"created"`
	Duplicate bool   `json:"duplicate,omitempty"`
	BatchID   string `json:"batch_id"`
}

// Importer commits validated batches.
type Importer struct {
	store       Store
	locker      Locker
	invalidator Invalidator
	auditor     Auditor
	window      time.Duration
	now         func() time.Time
	log         *zap.SugaredLogger
}

// Option customises an Importer.
type Option func(*Importer)

// WithLocker replaces the default in-process budget lock.
func WithLocker(l Locker) Option { return func(i *Importer) { i.locker = l } }

// WithInvalidator registers the cache invalidated after each commit.
func WithInvalidator(inv Invalidator) Option { return func(i *Importer) { i.invalidator = inv } }

// WithAuditor registers the audit trail for committed imports.
func WithAuditor(a Auditor) Option { return func(i *Importer) { i.auditor = a } }

// WithDedupWindow sets how long an identical submission is replayed instead
// of committed again. Zero disables replay.
func WithDedupWindow(d time.Duration) Option { return func(i *Importer) { i.window = d } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(i *Importer) { i.now = now } }

// NewImporter creates an Importer over store.
func NewImporter(store Store, opts ...Option) *Importer {
	i := &Importer{
		store:  store,
		locker: NewMemoryLocker(),
		window: 10 * time.Minute,
		now:    time.Now,
		log:    logger.Named("imports"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ValidationFailed builds the client-facing error for a rejected batch.
func ValidationFailed(issues []Issue) *apperrors.AppError {
	msg := apperrors.ErrValidationFailed.Message
	if len(issues) == 1 {
		msg = "Invalid transaction batch: " + issues[0].String()
	}
	return apperrors.WithDetails(apperrors.ErrValidationFailed, msg, issues)
}

// Commit validates req and persists every row or none of them. A retry with
// the same fingerprint inside the dedup window returns the original result
// with Duplicate set and writes nothing.
func (i *Importer) Commit(ctx context.Context, req Request) (*Result, error) {
	if issues := Validate(req.Rows); len(issues) > 0 {
		return nil, ValidationFailed(issues)
	}

	if err := i.checkCategories(ctx, req); err != nil {
		return nil, err
	}

	fingerprint := Fingerprint(req.BudgetID, req.Rows)

	unlock, err := i.locker.Lock(ctx, req.BudgetID)
	if err != nil {
		if errors.Is(err, ErrLockBusy) {
			return nil, apperrors.Wrap(apperrors.ErrImportInProgress, err)
		}
		i.log.Errorw("Failed to lock budget for import", "budget_id", req.BudgetID, "error", err)
		return nil, apperrors.Wrap(apperrors.ErrImportFailed, err)
	}
	defer unlock()

	if i.window > 0 {
		prior, err := i.store.FindBatch(ctx, req.BudgetID, fingerprint, i.now().Add(-i.window))
		if err != nil {
			i.log.Errorw("Failed to look up prior import", "budget_id", req.BudgetID, "error", err)
			return nil, apperrors.Wrap(apperrors.ErrImportFailed, err)
		}
		if prior != nil {
			i.log.Infow("Replayed duplicate import", "budget_id", req.BudgetID, "batch_id", prior.ID, "rows", prior.RowCount)
			return &Result{Created: prior.RowCount, Duplicate: true, BatchID: prior.ID}, nil
		}
	}

	batch := &models.ImportBatch{
		ID:          uuid.New(),
		BudgetID:    req.BudgetID,
		UserID:      req.UserID,
		Fingerprint: fingerprint,
		RowCount:    len(req.Rows),
	}
	txs := make([]models.Transaction, len(req.Rows))
	for n, row := range req.Rows {
		txs[n] = toTransaction(req.BudgetID, row)
	}

	if err := i.store.CreateBatch(ctx, batch, txs); err != nil {
		i.log.Errorw("Bulk import rolled back", "budget_id", req.BudgetID, "rows", len(txs), "error", err)
		return nil, apperrors.Wrap(apperrors.ErrImportFailed, err)
	}

	// The rows are stored; what follows must not be cut short by the caller
	// going away, or readers keep seeing pre-commit answers.
	committed := context.WithoutCancel(ctx)
	if i.invalidator != nil {
		if err := i.invalidator.Invalidate(committed, req.BudgetID); err != nil {
			i.log.Errorw("Failed to invalidate assistant cache", "budget_id", req.BudgetID, "error", err)
		}
	}
	if i.auditor != nil {
		i.auditor.Record(committed, models.AuditLog{
			UserID:       req.UserID,
			BudgetID:     req.BudgetID,
			Action:       AuditAction,
			ResourceType: "import_batch",
			ResourceID:   batch.ID,
			IPAddress:    req.IPAddress,
		}, map[string]any{
			"created":     len(txs),
			"fingerprint": fingerprint,
		})
	}

	i.log.Infow("Bulk import committed", "budget_id", req.BudgetID, "batch_id", batch.ID, "rows", len(txs))
	return &Result{Created: len(txs), BatchID: batch.ID}, nil
}

func (i *Importer) checkCategories(ctx context.Context, req Request) error {
	needed := false
	for _, r := range req.Rows {
		if r.CategoryID != nil {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}

	known, err := i.store.CategoryIDs(ctx, req.BudgetID)
	if err != nil {
		i.log.Errorw("Failed to load budget categories", "budget_id", req.BudgetID, "error", err)
		return apperrors.Wrap(apperrors.ErrImportFailed, err)
	}

	var issues []Issue
	for n, r := range req.Rows {
		if r.CategoryID == nil {
			continue
		}
		if _, ok := known[uint(*r.CategoryID)]; !ok {
			issues = append(issues, Issue{Index: n, Field: "category_id", Reason: "does not exist in this budget"})
		}
	}
	if len(issues) > 0 {
		return ValidationFailed(issues)
	}
	return nil
}

func toTransaction(budgetID uint, row Row) models.Transaction {
	// Validate guarantees the layout parses.
	date, _ := time.Parse(validator.CalendarDateLayout, row.Date)
	tx := models.Transaction{
		BudgetID:    budgetID,
		Type:        models.TransactionType(row.Type),
		Amount:      models.CentsFromDecimal(row.Amount),
		Description: strings.TrimSpace(row.Description),
		Date:        date,
	}
	if row.CategoryID != nil {
		id := uint(*row.CategoryID)
		tx.CategoryID = &id
	}
	return tx
}
