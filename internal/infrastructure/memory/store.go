// Package memory implementa los puertos de persistencia sobre estructuras en
// memoria. Se usa en desarrollo (STORE_BACKEND=memory) y en los tests del
// motor. Las transacciones se serializan con un único mutex y el rollback se
// hace restaurando un snapshot del estado: misma semántica observable que el
// backend PostgreSQL (atomicidad total, sin deadlocks posibles).
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/pos-backend/internal/application/inventory"
	"github.com/tu-usuario/pos-backend/internal/application/sales"
	"github.com/tu-usuario/pos-backend/internal/domain"
	"github.com/tu-usuario/pos-backend/internal/domain/entity"
	"github.com/tu-usuario/pos-backend/internal/domain/repository"
)

type levelKey struct {
	warehouseID string
	itemID      string
}

// state contiene todas las tablas. Los valores se guardan por copia para que
// nadie mute el estado por fuera de los repos.
type state struct {
	warehouses map[string]entity.Warehouse
	levels     map[levelKey]entity.StockLevel
	movements  []entity.StockMovement
	sales      map[string]entity.Sale
	saleItems  map[string][]entity.SaleItem
}

func newState() *state {
	return &state{
		warehouses: make(map[string]entity.Warehouse),
		levels:     make(map[levelKey]entity.StockLevel),
		sales:      make(map[string]entity.Sale),
		saleItems:  make(map[string][]entity.SaleItem),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.levels {
		c.levels[k] = v
	}
	c.movements = append([]entity.StockMovement(nil), s.movements...)
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.saleItems {
		c.saleItems[k] = append([]entity.SaleItem(nil), v...)
	}
	return c
}

// Store es el almacén en memoria. Implementa inventory.TxRunner y
// sales.CheckoutTxRunner; los repositorios se obtienen con los métodos
// *Repository().
type Store struct {
	mu sync.Mutex
	st *state
}

var _ inventory.TxRunner = (*Store)(nil)
var _ sales.CheckoutTxRunner = (*Store)(nil)

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Run ejecuta fn como transacción de inventario: bajo el mutex global, con
// rollback por snapshot si fn falla.
func (s *Store) Run(ctx context.Context, fn func(
	levelRepo repository.StockLevelRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	if err := fn(&levelState{st: s.st}, &movementState{st: s.st}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// RunCheckout igual que Run, con el repositorio de ventas incluido.
func (s *Store) RunCheckout(ctx context.Context, fn func(
	levelRepo repository.StockLevelRepository,
	movRepo repository.StockMovementRepository,
	saleRepo repository.SaleRepository,
) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	if err := fn(&levelState{st: s.st}, &movementState{st: s.st}, &saleState{st: s.st}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// WarehouseRepository repositorio de bodegas atado al almacén (con lock).
func (s *Store) WarehouseRepository() repository.WarehouseRepository {
	return &lockedWarehouses{s: s}
}

// StockLevelRepository repositorio de niveles atado al almacén (con lock).
func (s *Store) StockLevelRepository() repository.StockLevelRepository {
	return &lockedLevels{s: s}
}

// StockMovementRepository repositorio del ledger atado al almacén (con lock).
func (s *Store) StockMovementRepository() repository.StockMovementRepository {
	return &lockedMovements{s: s}
}

// SaleRepository repositorio de ventas atado al almacén (con lock).
func (s *Store) SaleRepository() repository.SaleRepository {
	return &lockedSales{s: s}
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios sin lock, atados a un *state. Los usa el runner dentro de la
// transacción (el mutex ya está tomado).
// ──────────────────────────────────────────────────────────────────────────────

type warehouseState struct{ st *state }

var _ repository.WarehouseRepository = (*warehouseState)(nil)

func (r *warehouseState) Create(w *entity.Warehouse) error {
	for _, existing := range r.st.warehouses {
		if existing.Name == w.Name || existing.Slug == w.Slug {
			return domain.ErrDuplicate
		}
	}
	r.st.warehouses[w.ID] = *w
	return nil
}

func (r *warehouseState) GetByID(id string) (*entity.Warehouse, error) {
	w, ok := r.st.warehouses[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *warehouseState) GetDefault() (*entity.Warehouse, error) {
	for _, w := range r.st.warehouses {
		if w.IsDefault {
			copied := w
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *warehouseState) List(limit, offset int) ([]*entity.Warehouse, error) {
	all := make([]entity.Warehouse, 0, len(r.st.warehouses))
	for _, w := range r.st.warehouses {
		all = append(all, w)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return pageWarehouses(all, limit, offset), nil
}

func (r *warehouseState) SetDefault(id string) error {
	for wid, w := range r.st.warehouses {
		w.IsDefault = wid == id
		r.st.warehouses[wid] = w
	}
	return nil
}

func pageWarehouses(all []entity.Warehouse, limit, offset int) []*entity.Warehouse {
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	out := make([]*entity.Warehouse, 0, len(all))
	for i := range all {
		copied := all[i]
		out = append(out, &copied)
	}
	return out
}

type levelState struct{ st *state }

var _ repository.StockLevelRepository = (*levelState)(nil)

func (r *levelState) Get(warehouseID, itemID string) (*entity.StockLevel, error) {
	if l, ok := r.st.levels[levelKey{warehouseID, itemID}]; ok {
		return &l, nil
	}
	// Par inexistente: fila conceptual en cero
	return &entity.StockLevel{WarehouseID: warehouseID, ItemID: itemID}, nil
}

// GetForUpdate no bloquea nada extra: la transacción entera ya serializa bajo
// el mutex del Store.
func (r *levelState) GetForUpdate(warehouseID, itemID string) (*entity.StockLevel, error) {
	return r.Get(warehouseID, itemID)
}

func (r *levelState) Upsert(level *entity.StockLevel) error {
	r.st.levels[levelKey{level.WarehouseID, level.ItemID}] = *level
	return nil
}

func (r *levelState) ListByWarehouse(warehouseID string, limit, offset int) ([]*entity.StockLevel, error) {
	return r.list(warehouseID, -1, limit, offset)
}

func (r *levelState) ListBelowThreshold(warehouseID string, threshold int64, limit, offset int) ([]*entity.StockLevel, error) {
	return r.list(warehouseID, threshold, limit, offset)
}

func (r *levelState) list(warehouseID string, threshold int64, limit, offset int) ([]*entity.StockLevel, error) {
	var all []entity.StockLevel
	for k, l := range r.st.levels {
		if k.warehouseID != warehouseID {
			continue
		}
		if threshold >= 0 && l.QuantityOnHand > threshold {
			continue
		}
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ItemID < all[j].ItemID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	out := make([]*entity.StockLevel, 0, len(all))
	for i := range all {
		copied := all[i]
		out = append(out, &copied)
	}
	return out, nil
}

type movementState struct{ st *state }

var _ repository.StockMovementRepository = (*movementState)(nil)

func (r *movementState) Create(m *entity.StockMovement) error {
	r.st.movements = append(r.st.movements, *m)
	return nil
}

func (r *movementState) GetByID(id string) (*entity.StockMovement, error) {
	for i := range r.st.movements {
		if r.st.movements[i].ID == id {
			copied := r.st.movements[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *movementState) List(filter repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	var all []entity.StockMovement
	for _, m := range r.st.movements {
		if filter.WarehouseID != "" && m.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.ItemID != "" && m.ItemID != filter.ItemID {
			continue
		}
		if filter.From != nil && m.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && m.CreatedAt.After(*filter.To) {
			continue
		}
		all = append(all, m)
	}
	// Más recientes primero, como el backend SQL
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	out := make([]*entity.StockMovement, 0, len(all))
	for i := range all {
		copied := all[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (r *movementState) SumDeltas(warehouseID, itemID string) (int64, error) {
	var sum int64
	for _, m := range r.st.movements {
		if m.WarehouseID == warehouseID && m.ItemID == itemID {
			sum += m.QuantityDelta
		}
	}
	return sum, nil
}

type saleState struct{ st *state }

var _ repository.SaleRepository = (*saleState)(nil)

func (r *saleState) Create(sale *entity.Sale) error {
	if _, exists := r.st.sales[sale.ID]; exists {
		return domain.ErrDuplicate
	}
	r.st.sales[sale.ID] = *sale
	return nil
}

func (r *saleState) CreateItem(item *entity.SaleItem) error {
	if _, exists := r.st.sales[item.SaleID]; !exists {
		return domain.ErrNotFound
	}
	r.st.saleItems[item.SaleID] = append(r.st.saleItems[item.SaleID], *item)
	return nil
}

func (r *saleState) GetByID(id string) (*entity.Sale, error) {
	s, ok := r.st.sales[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *saleState) GetItemsBySaleID(saleID string) ([]*entity.SaleItem, error) {
	items := r.st.saleItems[saleID]
	out := make([]*entity.SaleItem, 0, len(items))
	for i := range items {
		copied := items[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (r *saleState) List(limit, offset int) ([]*entity.Sale, error) {
	all := make([]entity.Sale, 0, len(r.st.sales))
	for _, s := range r.st.sales {
		all = append(all, s)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	out := make([]*entity.Sale, 0, len(all))
	for i := range all {
		copied := all[i]
		out = append(out, &copied)
	}
	return out, nil
}

func (r *saleState) RecalcTotals(saleID string) (*entity.Sale, error) {
	sale, ok := r.st.sales[saleID]
	if !ok {
		return nil, nil
	}
	subtotal := decimal.Zero
	for _, it := range r.st.saleItems[saleID] {
		subtotal = subtotal.Add(it.LineTotal)
	}
	sale.Subtotal = subtotal
	sale.Total = subtotal.Sub(sale.Discount)
	r.st.sales[saleID] = sale
	return &sale, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Envolturas con lock para acceso fuera de transacción (consultas, setup).
// ──────────────────────────────────────────────────────────────────────────────

type lockedWarehouses struct{ s *Store }

func (l *lockedWarehouses) Create(w *entity.Warehouse) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&warehouseState{st: l.s.st}).Create(w)
}

func (l *lockedWarehouses) GetByID(id string) (*entity.Warehouse, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&warehouseState{st: l.s.st}).GetByID(id)
}

func (l *lockedWarehouses) GetDefault() (*entity.Warehouse, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&warehouseState{st: l.s.st}).GetDefault()
}

func (l *lockedWarehouses) List(limit, offset int) ([]*entity.Warehouse, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&warehouseState{st: l.s.st}).List(limit, offset)
}

func (l *lockedWarehouses) SetDefault(id string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&warehouseState{st: l.s.st}).SetDefault(id)
}

type lockedLevels struct{ s *Store }

func (l *lockedLevels) Get(warehouseID, itemID string) (*entity.StockLevel, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&levelState{st: l.s.st}).Get(warehouseID, itemID)
}

func (l *lockedLevels) GetForUpdate(warehouseID, itemID string) (*entity.StockLevel, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&levelState{st: l.s.st}).GetForUpdate(warehouseID, itemID)
}

func (l *lockedLevels) Upsert(level *entity.StockLevel) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&levelState{st: l.s.st}).Upsert(level)
}

func (l *lockedLevels) ListByWarehouse(warehouseID string, limit, offset int) ([]*entity.StockLevel, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&levelState{st: l.s.st}).ListByWarehouse(warehouseID, limit, offset)
}

func (l *lockedLevels) ListBelowThreshold(warehouseID string, threshold int64, limit, offset int) ([]*entity.StockLevel, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&levelState{st: l.s.st}).ListBelowThreshold(warehouseID, threshold, limit, offset)
}

type lockedMovements struct{ s *Store }

func (l *lockedMovements) Create(m *entity.StockMovement) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&movementState{st: l.s.st}).Create(m)
}

func (l *lockedMovements) GetByID(id string) (*entity.StockMovement, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&movementState{st: l.s.st}).GetByID(id)
}

func (l *lockedMovements) List(filter repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&movementState{st: l.s.st}).List(filter, limit, offset)
}

func (l *lockedMovements) SumDeltas(warehouseID, itemID string) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&movementState{st: l.s.st}).SumDeltas(warehouseID, itemID)
}

type lockedSales struct{ s *Store }

func (l *lockedSales) Create(sale *entity.Sale) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&saleState{st: l.s.st}).Create(sale)
}

func (l *lockedSales) CreateItem(item *entity.SaleItem) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&saleState{st: l.s.st}).CreateItem(item)
}

func (l *lockedSales) GetByID(id string) (*entity.Sale, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&saleState{st: l.s.st}).GetByID(id)
}

func (l *lockedSales) GetItemsBySaleID(saleID string) ([]*entity.SaleItem, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&saleState{st: l.s.st}).GetItemsBySaleID(saleID)
}

func (l *lockedSales) List(limit, offset int) ([]*entity.Sale, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&saleState{st: l.s.st}).List(limit, offset)
}

func (l *lockedSales) RecalcTotals(saleID string) (*entity.Sale, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return (&saleState{st: l.s.st}).RecalcTotals(saleID)
}
