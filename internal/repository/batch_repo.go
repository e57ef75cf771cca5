package repository

import (
	"context"

	"caskledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BatchRepository defines the data access contract for barrel batches.
// Batches are immutable, so there is no update path.
type BatchRepository interface {
	CreateTx(tx *gorm.DB, b *model.BarrelBatch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.BarrelBatch, error)
	List(ctx context.Context) ([]model.BarrelBatch, error)
}

type batchRepo struct{ db *gorm.DB }

func NewBatchRepository(db *gorm.DB) BatchRepository { return &batchRepo{db: db} }

func (r *batchRepo) CreateTx(tx *gorm.DB, b *model.BarrelBatch) error {
	return tx.Omit("Barrels").Create(b).Error
}

func (r *batchRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.BarrelBatch, error) {
	var b model.BarrelBatch
	err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error
	return &b, err
}

func (r *batchRepo) List(ctx context.Context) ([]model.BarrelBatch, error) {
	var batches []model.BarrelBatch
	err := r.db.WithContext(ctx).Order("purchase_date DESC, created_at DESC").Find(&batches).Error
	return batches, err
}
