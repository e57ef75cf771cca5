package repository

import (
	"context"

	"caskledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UsageLogRepository defines the data access contract for usage logs.
// Logs are append-only.
type UsageLogRepository interface {
	CreateTx(tx *gorm.DB, u *model.UsageLog) error
	// FindByIDsForUpdateTx row-locks the given logs in id order. Missing ids
	// are simply absent from the result.
	FindByIDsForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.UsageLog, error)
	// List returns every log newest first with its barrel and run link preloaded.
	List(ctx context.Context) ([]model.UsageLog, error)
}

type usageLogRepo struct{ db *gorm.DB }

func NewUsageLogRepository(db *gorm.DB) UsageLogRepository { return &usageLogRepo{db: db} }

func (r *usageLogRepo) CreateTx(tx *gorm.DB, u *model.UsageLog) error {
	return tx.Omit("Barrel", "Link").Create(u).Error
}

func (r *usageLogRepo) FindByIDsForUpdateTx(tx *gorm.DB, ids []uuid.UUID) ([]model.UsageLog, error) {
	var logs []model.UsageLog
	if len(ids) == 0 {
		return logs, nil
	}
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&logs).Error
	return logs, err
}

func (r *usageLogRepo) List(ctx context.Context) ([]model.UsageLog, error) {
	var logs []model.UsageLog
	err := r.db.WithContext(ctx).
		Preload("Barrel").
		Preload("Link").
		Order("date DESC, created_at DESC").
		Find(&logs).Error
	return logs, err
}
