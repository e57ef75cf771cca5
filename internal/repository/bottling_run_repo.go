package repository

import (
	"context"

	"caskledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BottlingRunRepository defines the data access contract for bottling runs and
// their usage log links.
type BottlingRunRepository interface {
	// CreateWithUsagesTx inserts the run and one link per usage log. If any log
	// is already linked it returns ErrAlreadyLinked and the caller must roll back.
	CreateWithUsagesTx(tx *gorm.DB, run *model.BottlingRun, usageLogIDs []uuid.UUID) error
	FindLinksTx(tx *gorm.DB, usageLogIDs []uuid.UUID) ([]model.BottlingRunUsage, error)

	FindByID(ctx context.Context, id uuid.UUID) (*model.BottlingRun, error)
	// FindByIDForUpdateTx row-locks the run.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.BottlingRun, error)
	// DecrementInventoryTx subtracts qty only if at least qty remains.
	// Returns false when nothing changed.
	DecrementInventoryTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error)

	// List returns every run newest first with its links preloaded.
	List(ctx context.Context) ([]model.BottlingRun, error)
	SumRemainingInventory(ctx context.Context) (int64, error)
}

type bottlingRunRepo struct{ db *gorm.DB }

func NewBottlingRunRepository(db *gorm.DB) BottlingRunRepository { return &bottlingRunRepo{db: db} }

func (r *bottlingRunRepo) CreateWithUsagesTx(tx *gorm.DB, run *model.BottlingRun, usageLogIDs []uuid.UUID) error {
	if err := tx.Omit("Usages").Create(run).Error; err != nil {
		return err
	}
	links := make([]model.BottlingRunUsage, len(usageLogIDs))
	for i, id := range usageLogIDs {
		links[i] = model.BottlingRunUsage{ID: uuid.New(), BottlingRunID: run.ID, UsageLogID: id}
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "usage_log_id"}},
		DoNothing: true,
	}).Create(&links)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(links)) {
		return ErrAlreadyLinked
	}
	run.Usages = links
	return nil
}

func (r *bottlingRunRepo) FindLinksTx(tx *gorm.DB, usageLogIDs []uuid.UUID) ([]model.BottlingRunUsage, error) {
	var links []model.BottlingRunUsage
	if len(usageLogIDs) == 0 {
		return links, nil
	}
	err := tx.Where("usage_log_id IN ?", usageLogIDs).Find(&links).Error
	return links, err
}

func (r *bottlingRunRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.BottlingRun, error) {
	var run model.BottlingRun
	err := r.db.WithContext(ctx).Preload("Usages").First(&run, "id = ?", id).Error
	return &run, err
}

func (r *bottlingRunRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.BottlingRun, error) {
	var run model.BottlingRun
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&run, "id = ?", id).Error
	return &run, err
}

func (r *bottlingRunRepo) DecrementInventoryTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	res := tx.Model(&model.BottlingRun{}).
		Where("id = ? AND remaining_inventory >= ?", id, qty).
		Update("remaining_inventory", gorm.Expr("remaining_inventory - ?", qty))
	return res.RowsAffected == 1, res.Error
}

func (r *bottlingRunRepo) List(ctx context.Context) ([]model.BottlingRun, error) {
	var runs []model.BottlingRun
	err := r.db.WithContext(ctx).Preload("Usages").Order("date DESC, created_at DESC").Find(&runs).Error
	return runs, err
}

func (r *bottlingRunRepo) SumRemainingInventory(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.BottlingRun{}).
		Select("COALESCE(SUM(remaining_inventory), 0)").
		Scan(&total).Error
	return total, err
}
