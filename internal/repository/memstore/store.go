// Package memstore is an in-memory implementation of the repository
// interfaces. Transactions are serialised behind one lock and roll back by
// restoring a snapshot, so the read-check-write sequences in the services see
// the same atomicity they get from Postgres.
//
// Methods ending in Tx must only be called from inside Transaction.
package memstore

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"caskledger/internal/model"
	"caskledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Operation names accepted by FailOn.
const (
	OpCreateBatch    = "batches.create"
	OpCreateBarrels  = "barrels.create"
	OpDecrementFill  = "barrels.decrement_fill"
	OpCreateUsageLog = "usage_logs.create"
	OpCreateRun      = "runs.create"
	OpDecrementStock = "runs.decrement_inventory"
	OpCreateShipment = "shipments.create"
)

var errDuplicateSeqNo = errors.New("memstore: duplicate barrel seq_no")

type tables struct {
	batches   map[uuid.UUID]model.BarrelBatch
	barrels   map[uuid.UUID]model.Barrel
	usageLogs map[uuid.UUID]model.UsageLog
	runs      map[uuid.UUID]model.BottlingRun
	links     map[uuid.UUID]model.BottlingRunUsage // keyed by usage log id
	shipments map[uuid.UUID]model.Shipment
}

func (t tables) clone() tables {
	return tables{
		batches:   maps.Clone(t.batches),
		barrels:   maps.Clone(t.barrels),
		usageLogs: maps.Clone(t.usageLogs),
		runs:      maps.Clone(t.runs),
		links:     maps.Clone(t.links),
		shipments: maps.Clone(t.shipments),
	}
}

type Store struct {
	mu sync.RWMutex
	t  tables

	failMu sync.Mutex
	fail   map[string]error

	now func() time.Time
}

func New() *Store {
	return &Store{
		t: tables{
			batches:   make(map[uuid.UUID]model.BarrelBatch),
			barrels:   make(map[uuid.UUID]model.Barrel),
			usageLogs: make(map[uuid.UUID]model.UsageLog),
			runs:      make(map[uuid.UUID]model.BottlingRun),
			links:     make(map[uuid.UUID]model.BottlingRunUsage),
			shipments: make(map[uuid.UUID]model.Shipment),
		},
		fail: make(map[string]error),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Stores exposes the store through the repository interfaces.
func (s *Store) Stores() repository.Stores {
	return repository.Stores{
		Tx:        s,
		Batches:   batchRepo{s},
		Barrels:   barrelRepo{s},
		UsageLogs: usageLogRepo{s},
		Runs:      runRepo{s},
		Shipments: shipmentRepo{s},
	}
}

// FailOn makes the next call of op return err. Used to exercise rollback.
func (s *Store) FailOn(op string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.fail[op] = err
}

func (s *Store) injected(op string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	err := s.fail[op]
	delete(s.fail, op)
	return err
}

func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.t.clone()
	defer func() {
		if r := recover(); r != nil {
			s.t = snapshot
			panic(r)
		}
		if err != nil {
			s.t = snapshot
		}
	}()
	return fn(nil)
}

// ── Batches ───────────────────────────────────────────────────────────────────

type batchRepo struct{ s *Store }

func (r batchRepo) CreateTx(_ *gorm.DB, b *model.BarrelBatch) error {
	if err := r.s.injected(OpCreateBatch); err != nil {
		return err
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.s.now()
	}
	row := *b
	row.Barrels = nil
	r.s.t.batches[b.ID] = row
	return nil
}

func (r batchRepo) FindByID(_ context.Context, id uuid.UUID) (*model.BarrelBatch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.t.batches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (r batchRepo) List(_ context.Context) ([]model.BarrelBatch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.BarrelBatch, 0, len(r.s.t.batches))
	for _, b := range r.s.t.batches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchaseDate.Equal(out[j].PurchaseDate) {
			return out[i].PurchaseDate.After(out[j].PurchaseDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ── Barrels ───────────────────────────────────────────────────────────────────

type barrelRepo struct{ s *Store }

// LockSequenceTx is a no-op: the transaction already holds the store lock.
func (r barrelRepo) LockSequenceTx(_ *gorm.DB) error { return nil }

func (r barrelRepo) MaxSeqNoTx(_ *gorm.DB) (int, error) {
	last := 0
	for _, b := range r.s.t.barrels {
		last = max(last, b.SeqNo)
	}
	return last, nil
}

func (r barrelRepo) CreateManyTx(_ *gorm.DB, barrels []model.Barrel) error {
	if err := r.s.injected(OpCreateBarrels); err != nil {
		return err
	}
	taken := make(map[int]bool, len(r.s.t.barrels))
	for _, b := range r.s.t.barrels {
		taken[b.SeqNo] = true
	}
	now := r.s.now()
	for i := range barrels {
		b := &barrels[i]
		if taken[b.SeqNo] {
			return errDuplicateSeqNo
		}
		taken[b.SeqNo] = true
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
			b.UpdatedAt = now
		}
		row := *b
		row.Batch = nil
		r.s.t.barrels[b.ID] = row
	}
	return nil
}

func (r barrelRepo) withBatch(b model.Barrel) *model.Barrel {
	if batch, ok := r.s.t.batches[b.BatchID]; ok {
		b.Batch = &batch
	}
	return &b
}

func (r barrelRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Barrel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.t.barrels[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withBatch(b), nil
}

func (r barrelRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Barrel, error) {
	b, ok := r.s.t.barrels[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.withBatch(b), nil
}

func (r barrelRepo) DecrementFillTx(_ *gorm.DB, id uuid.UUID, pct decimal.Decimal) (bool, error) {
	if err := r.s.injected(OpDecrementFill); err != nil {
		return false, err
	}
	b, ok := r.s.t.barrels[id]
	if !ok || b.CurrentFillPercent.LessThan(pct) {
		return false, nil
	}
	b.CurrentFillPercent = b.CurrentFillPercent.Sub(pct)
	if !b.CurrentFillPercent.IsPositive() {
		b.Status = model.BarrelEmpty
	}
	b.UpdatedAt = r.s.now()
	r.s.t.barrels[id] = b
	return true, nil
}

func (r barrelRepo) UpdateTx(_ *gorm.DB, id uuid.UUID, u repository.BarrelUpdate) error {
	b, ok := r.s.t.barrels[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if u.GroupLabel != nil {
		v := *u.GroupLabel
		b.GroupLabel = &v
	}
	if u.CurrentFillPercent != nil {
		b.CurrentFillPercent = *u.CurrentFillPercent
	}
	if u.Status != nil {
		b.Status = *u.Status
	}
	if u.Notes != nil {
		v := *u.Notes
		b.Notes = &v
	}
	b.UpdatedAt = r.s.now()
	r.s.t.barrels[id] = b
	return nil
}

func (r barrelRepo) List(_ context.Context) ([]model.Barrel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Barrel, 0, len(r.s.t.barrels))
	for _, b := range r.s.t.barrels {
		out = append(out, *r.withBatch(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeqNo < out[j].SeqNo })
	return out, nil
}

func (r barrelRepo) CountByBatch(_ context.Context) (map[uuid.UUID]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[uuid.UUID]int64)
	for _, b := range r.s.t.barrels {
		out[b.BatchID]++
	}
	return out, nil
}

func (r barrelRepo) Count(_ context.Context, status *model.BarrelStatus) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, b := range r.s.t.barrels {
		if status == nil || b.Status == *status {
			n++
		}
	}
	return n, nil
}

// ── Usage logs ────────────────────────────────────────────────────────────────

type usageLogRepo struct{ s *Store }

func (r usageLogRepo) CreateTx(_ *gorm.DB, u *model.UsageLog) error {
	if err := r.s.injected(OpCreateUsageLog); err != nil {
		return err
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = r.s.now()
	}
	row := *u
	row.Barrel, row.Link = nil, nil
	r.s.t.usageLogs[u.ID] = row
	return nil
}

func (r usageLogRepo) FindByIDsForUpdateTx(_ *gorm.DB, ids []uuid.UUID) ([]model.UsageLog, error) {
	out := make([]model.UsageLog, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.s.t.usageLogs[id]; ok {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r usageLogRepo) List(_ context.Context) ([]model.UsageLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.UsageLog, 0, len(r.s.t.usageLogs))
	for _, u := range r.s.t.usageLogs {
		if b, ok := r.s.t.barrels[u.BarrelID]; ok {
			u.Barrel = &b
		}
		if l, ok := r.s.t.links[u.ID]; ok {
			u.Link = &l
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ── Bottling runs ─────────────────────────────────────────────────────────────

type runRepo struct{ s *Store }

func (r runRepo) CreateWithUsagesTx(_ *gorm.DB, run *model.BottlingRun, usageLogIDs []uuid.UUID) error {
	if err := r.s.injected(OpCreateRun); err != nil {
		return err
	}
	for _, id := range usageLogIDs {
		if _, linked := r.s.t.links[id]; linked {
			return repository.ErrAlreadyLinked
		}
	}
	now := r.s.now()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
		run.UpdatedAt = now
	}
	links := make([]model.BottlingRunUsage, len(usageLogIDs))
	for i, id := range usageLogIDs {
		links[i] = model.BottlingRunUsage{ID: uuid.New(), BottlingRunID: run.ID, UsageLogID: id, CreatedAt: now}
		r.s.t.links[id] = links[i]
	}
	row := *run
	row.Usages = nil
	r.s.t.runs[run.ID] = row
	run.Usages = links
	return nil
}

func (r runRepo) FindLinksTx(_ *gorm.DB, usageLogIDs []uuid.UUID) ([]model.BottlingRunUsage, error) {
	var out []model.BottlingRunUsage
	for _, id := range usageLogIDs {
		if l, ok := r.s.t.links[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r runRepo) withUsages(run model.BottlingRun) model.BottlingRun {
	run.Usages = nil
	for _, l := range r.s.t.links {
		if l.BottlingRunID == run.ID {
			run.Usages = append(run.Usages, l)
		}
	}
	sort.Slice(run.Usages, func(i, j int) bool {
		return run.Usages[i].UsageLogID.String() < run.Usages[j].UsageLogID.String()
	})
	return run
}

func (r runRepo) FindByID(_ context.Context, id uuid.UUID) (*model.BottlingRun, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	run, ok := r.s.t.runs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	run = r.withUsages(run)
	return &run, nil
}

func (r runRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.BottlingRun, error) {
	run, ok := r.s.t.runs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &run, nil
}

func (r runRepo) DecrementInventoryTx(_ *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	if err := r.s.injected(OpDecrementStock); err != nil {
		return false, err
	}
	run, ok := r.s.t.runs[id]
	if !ok || run.RemainingInventory < qty {
		return false, nil
	}
	run.RemainingInventory -= qty
	run.UpdatedAt = r.s.now()
	r.s.t.runs[id] = run
	return true, nil
}

func (r runRepo) List(_ context.Context) ([]model.BottlingRun, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.BottlingRun, 0, len(r.s.t.runs))
	for _, run := range r.s.t.runs {
		out = append(out, r.withUsages(run))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r runRepo) SumRemainingInventory(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var total int64
	for _, run := range r.s.t.runs {
		total += int64(run.RemainingInventory)
	}
	return total, nil
}

// ── Shipments ─────────────────────────────────────────────────────────────────

type shipmentRepo struct{ s *Store }

func (r shipmentRepo) CreateTx(_ *gorm.DB, sh *model.Shipment) error {
	if err := r.s.injected(OpCreateShipment); err != nil {
		return err
	}
	if sh.ID == uuid.Nil {
		sh.ID = uuid.New()
	}
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = r.s.now()
	}
	row := *sh
	row.BottlingRun = nil
	r.s.t.shipments[sh.ID] = row
	return nil
}

func (r shipmentRepo) sorted(desc bool) []model.Shipment {
	out := make([]model.Shipment, 0, len(r.s.t.shipments))
	for _, sh := range r.s.t.shipments {
		if run, ok := r.s.t.runs[sh.BottlingRunID]; ok {
			sh.BottlingRun = &run
		}
		out = append(out, sh)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if desc {
			a, b = b, a
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}

func (r shipmentRepo) List(_ context.Context) ([]model.Shipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.sorted(true), nil
}

func (r shipmentRepo) LinesBetween(_ context.Context, from, to time.Time) ([]repository.ShipmentLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var lines []repository.ShipmentLine
	for _, sh := range r.sorted(false) {
		if sh.Date.Before(from) || !sh.Date.Before(to) {
			continue
		}
		line := repository.ShipmentLine{Quantity: sh.Quantity, COGS: sh.COGS}
		if sh.BottlingRun != nil {
			line.BottleType = sh.BottlingRun.BottleType
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (r shipmentRepo) SumCOGSSince(_ context.Context, from time.Time) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := decimal.Zero
	for _, sh := range r.s.t.shipments {
		if !sh.Date.Before(from) {
			total = total.Add(sh.COGS)
		}
	}
	return total, nil
}
