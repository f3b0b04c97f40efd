package stock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hasapchy/back-sub001/internal/core/apperror"
	appctx "github.com/hasapchy/back-sub001/internal/core/context"
	"github.com/hasapchy/back-sub001/internal/core/id"
	"github.com/hasapchy/back-sub001/internal/core/tenant"
	"github.com/hasapchy/back-sub001/internal/core/tx"
	"github.com/hasapchy/back-sub001/pkg/logger"
)

// Service is the stock manager. Apply, Move and Revert run in the caller's
// transaction; AdjustStock opens its own.
type Service struct {
	repo      Repository
	catalog   Catalog
	negative  NegativePolicy
	txManager tx.Manager
}

func NewService(repo Repository, catalog Catalog, negative NegativePolicy, txManager tx.Manager) *Service {
	if negative == nil {
		negative = NeverNegative{}
	}
	return &Service{repo: repo, catalog: catalog, negative: negative, txManager: txManager}
}

// Apply performs all adjustments for a recorder as one set. Rows are locked
// in key order and increases on a key run before decreases. Adjustments for
// untracked products are skipped.
func (s *Service) Apply(ctx context.Context, rec Recorder, adjs []Adjustment) ([]Adjustment, error) {
	tracked, err := s.trackedOnly(ctx, adjs)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(tracked, func(i, j int) bool {
		ki, kj := tracked[i].Key(), tracked[j].Key()
		if ki != kj {
			return ki.Less(kj)
		}
		return tracked[i].Delta.GreaterThan(tracked[j].Delta)
	})

	for _, a := range tracked {
		if _, err := s.adjust(ctx, rec, a, true); err != nil {
			return nil, err
		}
	}
	return tracked, nil
}

func (s *Service) trackedOnly(ctx context.Context, adjs []Adjustment) ([]Adjustment, error) {
	out := make([]Adjustment, 0, len(adjs))
	cache := make(map[id.ID]bool)
	for _, a := range adjs {
		if a.Delta.IsZero() {
			continue
		}
		t, ok := cache[a.ProductID]
		if !ok {
			p, err := s.catalog.GetProduct(ctx, a.ProductID)
			if err != nil {
				return nil, err
			}
			t = p.Tracked
			cache[a.ProductID] = t
		}
		if t {
			out = append(out, a)
		}
	}
	return out, nil
}

// adjust moves one key by a.Delta. With checked set, a decreasing operation
// that ends below zero goes through the negative stock policy.
func (s *Service) adjust(ctx context.Context, rec Recorder, a Adjustment, checked bool) (*Balance, error) {
	bal, err := s.repo.GetForUpdate(ctx, a.WarehouseID, a.ProductID)
	if err != nil {
		return nil, fmt.Errorf("lock stock: %w", err)
	}

	resulting := bal.Quantity.Add(a.Delta)
	if checked && resulting.IsNegative() && a.Operation.Decreasing(a.Delta) {
		ok, err := s.negative.Tolerates(ctx, Candidate{
			Operation:   a.Operation,
			WarehouseID: a.WarehouseID,
			ProductID:   a.ProductID,
			Resulting:   resulting,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperror.NewInsufficientStock(
				a.WarehouseID.String(),
				a.ProductID.String(),
				a.Delta.Abs().String(),
				bal.Quantity.String(),
			)
		}
	}

	now := time.Now().UTC()
	bal.Quantity = resulting
	bal.UpdatedAt = now
	if err := s.repo.Save(ctx, bal); err != nil {
		return nil, fmt.Errorf("save stock: %w", err)
	}

	if err := s.repo.AddMovement(ctx, &Movement{
		ID:           id.New(),
		WarehouseID:  a.WarehouseID,
		ProductID:    a.ProductID,
		Operation:    a.Operation,
		Delta:        a.Delta,
		Resulting:    resulting,
		RecorderType: rec.Type,
		RecorderID:   rec.ID,
		CreatedBy:    appctx.GetUserID(ctx),
		CreatedAt:    now,
	}); err != nil {
		return nil, fmt.Errorf("record movement: %w", err)
	}
	return bal, nil
}

// Move transfers qty between warehouses as one pair.
func (s *Service) Move(ctx context.Context, rec Recorder, from, to, productID id.ID, qty decimal.Decimal) error {
	if from == to {
		return apperror.NewValidation("source and destination warehouses must differ")
	}
	_, err := s.Apply(ctx, rec, []Adjustment{
		{WarehouseID: from, ProductID: productID, Delta: qty.Neg(), Operation: OpMovementOut},
		{WarehouseID: to, ProductID: productID, Delta: qty, Operation: OpMovementIn},
	})
	return err
}

// Revert cancels the net effect a recorder still has on every key.
// Restoring stock is unconditional; taking back received stock is checked.
func (s *Service) Revert(ctx context.Context, rec Recorder) error {
	_, err := s.revert(ctx, rec, true)
	return err
}

// Snapshot holds quantities by key as they were before a repost.
type Snapshot map[Key]decimal.Decimal

// RevertForRepost cancels the recorder's net effect without checking the
// quantities in between: only the state after the new adjustments counts.
// VerifyRepost must run once they are applied.
func (s *Service) RevertForRepost(ctx context.Context, rec Recorder) (Snapshot, error) {
	return s.revert(ctx, rec, false)
}

// VerifyRepost refuses a repost that left a key negative and lower than it
// was before, unless the negative stock policy tolerates it.
func (s *Service) VerifyRepost(ctx context.Context, before Snapshot) error {
	keys := make([]Key, 0, len(before))
	for k := range before {
		keys = append(keys, k)
	}
	sortKeys(keys)

	for _, k := range keys {
		bal, err := s.repo.Get(ctx, k.WarehouseID, k.ProductID)
		if err != nil {
			return fmt.Errorf("read stock: %w", err)
		}
		was := before[k]
		if !bal.Quantity.IsNegative() || !bal.Quantity.LessThan(was) {
			continue
		}
		ok, err := s.negative.Tolerates(ctx, Candidate{
			Operation:   OpReceiptReversal,
			WarehouseID: k.WarehouseID,
			ProductID:   k.ProductID,
			Resulting:   bal.Quantity,
		})
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewInsufficientStock(
				k.WarehouseID.String(),
				k.ProductID.String(),
				was.Sub(bal.Quantity).String(),
				was.String(),
			)
		}
	}
	return nil
}

func (s *Service) revert(ctx context.Context, rec Recorder, checked bool) (Snapshot, error) {
	net, keys, err := s.netByKey(ctx, rec)
	if err != nil {
		return nil, err
	}

	before := make(Snapshot, len(keys))
	for _, k := range keys {
		delta := net[k].Neg()
		if delta.IsZero() {
			continue
		}
		op := OpReversal
		if delta.IsNegative() {
			op = OpReceiptReversal
		}
		// net effect was recorded for tracked products only, so no catalog lookup
		bal, err := s.adjust(ctx, rec, Adjustment{
			WarehouseID: k.WarehouseID,
			ProductID:   k.ProductID,
			Delta:       delta,
			Operation:   op,
		}, checked)
		if err != nil {
			return nil, err
		}
		before[k] = bal.Quantity.Sub(delta)
	}
	return before, nil
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

// RecordedKeys returns the sorted keys a recorder still holds a non-zero
// net effect on.
func (s *Service) RecordedKeys(ctx context.Context, rec Recorder) ([]Key, error) {
	net, keys, err := s.netByKey(ctx, rec)
	if err != nil {
		return nil, err
	}
	out := keys[:0]
	for _, k := range keys {
		if !net[k].IsZero() {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *Service) netByKey(ctx context.Context, rec Recorder) (map[Key]decimal.Decimal, []Key, error) {
	moves, err := s.repo.Movements(ctx, MovementFilter{Recorder: &rec})
	if err != nil {
		return nil, nil, fmt.Errorf("load movements: %w", err)
	}

	net := make(map[Key]decimal.Decimal)
	var keys []Key
	for _, m := range moves {
		k := Key{WarehouseID: m.WarehouseID, ProductID: m.ProductID}
		if _, ok := net[k]; !ok {
			keys = append(keys, k)
		}
		net[k] = net[k].Add(m.Delta)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return net, keys, nil
}

// Keys returns the keys of the tracked, non-zero adjustments in adjs.
func (s *Service) Keys(ctx context.Context, adjs []Adjustment) ([]Key, error) {
	tracked, err := s.trackedOnly(ctx, adjs)
	if err != nil {
		return nil, err
	}
	keys := make([]Key, 0, len(tracked))
	for _, a := range tracked {
		keys = append(keys, a.Key())
	}
	return keys, nil
}

// Lock takes row locks on keys in ascending order.
func (s *Service) Lock(ctx context.Context, keys []Key) error {
	sorted := append([]Key(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	for i, k := range sorted {
		if i > 0 && sorted[i-1] == k {
			continue
		}
		if _, err := s.repo.GetForUpdate(ctx, k.WarehouseID, k.ProductID); err != nil {
			return fmt.Errorf("lock stock: %w", err)
		}
	}
	return nil
}

// AdjustStock applies a manual correction in its own unit of work.
func (s *Service) AdjustStock(ctx context.Context, warehouseID, productID id.ID, delta decimal.Decimal, note string) (*Balance, error) {
	if delta.IsZero() {
		return nil, apperror.NewValidation("delta must not be zero")
	}

	var out *Balance
	rec := Recorder{Type: "adjustment", ID: id.New()}
	err := tenant.RunInTx(ctx, s.txManager, func(ctx context.Context) error {
		if _, err := s.catalog.GetWarehouse(ctx, warehouseID); err != nil {
			return err
		}
		p, err := s.catalog.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if !p.Tracked {
			return apperror.NewPreconditionFailed("product is not stock-tracked").
				WithDetail("product_id", productID.String())
		}
		out, err = s.adjust(ctx, rec, Adjustment{
			WarehouseID: warehouseID,
			ProductID:   productID,
			Delta:       delta,
			Operation:   OpAdjustment,
		}, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock adjusted",
		"warehouse_id", warehouseID,
		"product_id", productID,
		"delta", delta.String(),
		"note", note,
	)
	return out, nil
}

func (s *Service) Balance(ctx context.Context, warehouseID, productID id.ID) (*Balance, error) {
	return s.repo.Get(ctx, warehouseID, productID)
}

func (s *Service) Balances(ctx context.Context, warehouseID id.ID) ([]*Balance, error) {
	return s.repo.ListByWarehouse(ctx, warehouseID)
}

func (s *Service) Movements(ctx context.Context, f MovementFilter) ([]*Movement, error) {
	return s.repo.Movements(ctx, f)
}

// CreateProduct registers a product.
func (s *Service) CreateProduct(ctx context.Context, name string, tracked bool) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	p := &Product{ID: id.New(), Name: name, Tracked: tracked, CreatedAt: time.Now().UTC()}
	err := tenant.RunInTx(ctx, s.txManager, func(ctx context.Context) error {
		return s.catalog.CreateProduct(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateWarehouse registers a warehouse.
func (s *Service) CreateWarehouse(ctx context.Context, name string) (*Warehouse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	w := &Warehouse{ID: id.New(), Name: name, CreatedAt: time.Now().UTC()}
	err := tenant.RunInTx(ctx, s.txManager, func(ctx context.Context) error {
		return s.catalog.CreateWarehouse(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Service) Products(ctx context.Context) ([]*Product, error) {
	return s.catalog.ListProducts(ctx)
}

func (s *Service) Warehouses(ctx context.Context) ([]*Warehouse, error) {
	return s.catalog.ListWarehouses(ctx)
}

// Product returns a catalog product.
func (s *Service) Product(ctx context.Context, productID id.ID) (*Product, error) {
	return s.catalog.GetProduct(ctx, productID)
}

// Warehouse returns a catalog warehouse.
func (s *Service) Warehouse(ctx context.Context, warehouseID id.ID) (*Warehouse, error) {
	return s.catalog.GetWarehouse(ctx, warehouseID)
}
