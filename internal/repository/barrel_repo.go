package repository

import (
	"context"

	"caskledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// barrelSequenceLockKey identifies the advisory lock that serialises barrel
// code issuance across every process sharing the database.
const barrelSequenceLockKey = 7_411_001

// BarrelUpdate is a partial update of the editable barrel fields.
type BarrelUpdate struct {
	GroupLabel         *string
	CurrentFillPercent *decimal.Decimal
	Status             *model.BarrelStatus
	Notes              *string
}

// BarrelRepository defines the data access contract for barrels.
type BarrelRepository interface {
	// LockSequenceTx blocks until no other transaction is issuing barrel
	// codes; the lock is released at commit/rollback.
	LockSequenceTx(tx *gorm.DB) error
	// MaxSeqNoTx returns the highest sequence number ever issued, 0 when none.
	MaxSeqNoTx(tx *gorm.DB) (int, error)
	CreateManyTx(tx *gorm.DB, barrels []model.Barrel) error

	FindByID(ctx context.Context, id uuid.UUID) (*model.Barrel, error)
	// FindByIDForUpdateTx row-locks the barrel and preloads its batch.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Barrel, error)
	// DecrementFillTx subtracts pct only if at least pct remains, marking the
	// barrel Empty when it reaches zero. Returns false when nothing changed.
	DecrementFillTx(tx *gorm.DB, id uuid.UUID, pct decimal.Decimal) (bool, error)
	UpdateTx(tx *gorm.DB, id uuid.UUID, u BarrelUpdate) error

	List(ctx context.Context) ([]model.Barrel, error)
	CountByBatch(ctx context.Context) (map[uuid.UUID]int64, error)
	// Count counts barrels, optionally restricted to one status.
	Count(ctx context.Context, status *model.BarrelStatus) (int64, error)
}

type barrelRepo struct{ db *gorm.DB }

func NewBarrelRepository(db *gorm.DB) BarrelRepository { return &barrelRepo{db: db} }

func (r *barrelRepo) LockSequenceTx(tx *gorm.DB) error {
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", barrelSequenceLockKey).Error
}

func (r *barrelRepo) MaxSeqNoTx(tx *gorm.DB) (int, error) {
	var last int
	err := tx.Model(&model.Barrel{}).Select("COALESCE(MAX(seq_no), 0)").Scan(&last).Error
	return last, err
}

func (r *barrelRepo) CreateManyTx(tx *gorm.DB, barrels []model.Barrel) error {
	return tx.Omit("Batch").CreateInBatches(barrels, 500).Error
}

func (r *barrelRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Barrel, error) {
	var b model.Barrel
	err := r.db.WithContext(ctx).Preload("Batch").First(&b, "id = ?", id).Error
	return &b, err
}

func (r *barrelRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Barrel, error) {
	var b model.Barrel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	var batch model.BarrelBatch
	if err := tx.First(&batch, "id = ?", b.BatchID).Error; err != nil {
		return nil, err
	}
	b.Batch = &batch
	return &b, nil
}

func (r *barrelRepo) DecrementFillTx(tx *gorm.DB, id uuid.UUID, pct decimal.Decimal) (bool, error) {
	res := tx.Model(&model.Barrel{}).
		Where("id = ? AND current_fill_percent >= ?", id, pct).
		Updates(map[string]interface{}{
			"current_fill_percent": gorm.Expr("current_fill_percent - ?", pct),
			"status":               gorm.Expr("CASE WHEN current_fill_percent - ? <= 0 THEN ? ELSE status END", pct, model.BarrelEmpty),
		})
	return res.RowsAffected == 1, res.Error
}

func (r *barrelRepo) UpdateTx(tx *gorm.DB, id uuid.UUID, u BarrelUpdate) error {
	updates := map[string]interface{}{}
	if u.GroupLabel != nil {
		updates["group_label"] = *u.GroupLabel
	}
	if u.CurrentFillPercent != nil {
		updates["current_fill_percent"] = *u.CurrentFillPercent
	}
	if u.Status != nil {
		updates["status"] = *u.Status
	}
	if u.Notes != nil {
		updates["notes"] = *u.Notes
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&model.Barrel{}).Where("id = ?", id).Updates(updates).Error
}

func (r *barrelRepo) List(ctx context.Context) ([]model.Barrel, error) {
	var barrels []model.Barrel
	err := r.db.WithContext(ctx).Preload("Batch").Order("seq_no ASC").Find(&barrels).Error
	return barrels, err
}

func (r *barrelRepo) CountByBatch(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		BatchID uuid.UUID
		N       int64
	}
	err := r.db.WithContext(ctx).Model(&model.Barrel{}).
		Select("batch_id, COUNT(*) AS n").
		Group("batch_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.BatchID] = row.N
	}
	return out, nil
}

func (r *barrelRepo) Count(ctx context.Context, status *model.BarrelStatus) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Barrel{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
