package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/pos-backend/internal/domain"
	"github.com/tu-usuario/pos-backend/internal/domain/entity"
	"github.com/tu-usuario/pos-backend/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo implementación de StockLevelRepository sobre PostgreSQL
// (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

// Get obtiene el nivel actual de un ítem en una bodega. Par inexistente
// devuelve fila en cero, no error.
func (r *StockLevelRepo) Get(warehouseID, itemID string) (*entity.StockLevel, error) {
	query := `
		SELECT warehouse_id, item_id, quantity_on_hand, quantity_reserved, updated_at
		FROM stock_levels WHERE warehouse_id = $1 AND item_id = $2`
	var l entity.StockLevel
	err := r.q.QueryRow(context.Background(), query, warehouseID, itemID).Scan(
		&l.WarehouseID, &l.ItemID, &l.QuantityOnHand, &l.QuantityReserved, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockLevel{WarehouseID: warehouseID, ItemID: itemID}, nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return &l, nil
}

// GetForUpdate obtiene el nivel y bloquea la fila (SELECT FOR UPDATE).
// Si el par (bodega, ítem) no existe todavía, materializa la fila en cero y
// reintenta el bloqueo: sin fila no hay nada que bloquear, y dos transacciones
// concurrentes sobre un par nuevo leerían cero ambas y la segunda pisaría la
// escritura de la primera. Con la fila materializada siempre se sostiene un
// bloqueo real antes de escribir. Espera agotada por bloqueo ajeno retorna
// domain.ErrLockTimeout.
func (r *StockLevelRepo) GetForUpdate(warehouseID, itemID string) (*entity.StockLevel, error) {
	l, err := r.lockRow(warehouseID, itemID)
	if errors.Is(err, pgx.ErrNoRows) {
		init := `
			INSERT INTO stock_levels (warehouse_id, item_id, quantity_on_hand, quantity_reserved, updated_at)
			VALUES ($1, $2, 0, 0, now())
			ON CONFLICT (warehouse_id, item_id) DO NOTHING`
		if _, execErr := r.q.Exec(context.Background(), init, warehouseID, itemID); execErr != nil {
			if isLockTimeout(execErr) {
				return nil, domain.ErrLockTimeout
			}
			return nil, fmt.Errorf("init stock level: %w", execErr)
		}
		// La fila existe ahora (nuestra o de otra tx ya confirmada)
		l, err = r.lockRow(warehouseID, itemID)
	}
	if err != nil {
		if isLockTimeout(err) {
			return nil, domain.ErrLockTimeout
		}
		return nil, fmt.Errorf("get stock level for update: %w", err)
	}
	return l, nil
}

func (r *StockLevelRepo) lockRow(warehouseID, itemID string) (*entity.StockLevel, error) {
	query := `
		SELECT warehouse_id, item_id, quantity_on_hand, quantity_reserved, updated_at
		FROM stock_levels WHERE warehouse_id = $1 AND item_id = $2
		FOR UPDATE`
	var l entity.StockLevel
	err := r.q.QueryRow(context.Background(), query, warehouseID, itemID).Scan(
		&l.WarehouseID, &l.ItemID, &l.QuantityOnHand, &l.QuantityReserved, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Upsert inserta o actualiza la cantidad en mano (por bodega e ítem).
// El CHECK quantity_on_hand >= 0 de la tabla respalda el invariante que el
// Movement Applier ya valida.
func (r *StockLevelRepo) Upsert(level *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (warehouse_id, item_id, quantity_on_hand, quantity_reserved, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (warehouse_id, item_id)
		DO UPDATE SET quantity_on_hand = EXCLUDED.quantity_on_hand, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query,
		level.WarehouseID, level.ItemID, level.QuantityOnHand, level.QuantityReserved,
	)
	if err != nil {
		return fmt.Errorf("upsert stock level: %w", err)
	}
	return nil
}

// ListByWarehouse lista los niveles de una bodega, paginados.
func (r *StockLevelRepo) ListByWarehouse(warehouseID string, limit, offset int) ([]*entity.StockLevel, error) {
	query := `
		SELECT warehouse_id, item_id, quantity_on_hand, quantity_reserved, updated_at
		FROM stock_levels WHERE warehouse_id = $1
		ORDER BY item_id LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, warehouseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()
	return scanLevels(rows)
}

// ListBelowThreshold lista los niveles con existencia en o bajo el umbral.
func (r *StockLevelRepo) ListBelowThreshold(warehouseID string, threshold int64, limit, offset int) ([]*entity.StockLevel, error) {
	query := `
		SELECT warehouse_id, item_id, quantity_on_hand, quantity_reserved, updated_at
		FROM stock_levels WHERE warehouse_id = $1 AND quantity_on_hand <= $2
		ORDER BY quantity_on_hand, item_id LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(context.Background(), query, warehouseID, threshold, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list low stock levels: %w", err)
	}
	defer rows.Close()
	return scanLevels(rows)
}

func scanLevels(rows pgx.Rows) ([]*entity.StockLevel, error) {
	var list []*entity.StockLevel
	for rows.Next() {
		var l entity.StockLevel
		if err := rows.Scan(&l.WarehouseID, &l.ItemID, &l.QuantityOnHand, &l.QuantityReserved, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
