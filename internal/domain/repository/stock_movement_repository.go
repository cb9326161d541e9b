package repository

import (
	"time"

	"github.com/tu-usuario/pos-backend/internal/domain/entity"
)

// MovementFilter filtros opcionales para listar el ledger de movimientos.
type MovementFilter struct {
	WarehouseID string
	ItemID      string
	From        *time.Time
	To          *time.Time
}

// StockMovementRepository define el puerto de persistencia del ledger.
// Solo altas y lecturas: los movimientos nunca se editan ni se borran.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	List(filter MovementFilter, limit, offset int) ([]*entity.StockMovement, error)
	// SumDeltas suma QuantityDelta de todos los movimientos del par (bodega, ítem).
	// Debe coincidir con StockLevel.QuantityOnHand (conciliación del ledger).
	SumDeltas(warehouseID, itemID string) (int64, error)
}
