package repository

import "github.com/tu-usuario/pos-backend/internal/domain/entity"

// StockLevelRepository define el puerto para consultar/actualizar stock por
// bodega+ítem. Usado dentro de transacciones para garantizar consistencia.
type StockLevelRepository interface {
	// Get devuelve el nivel actual. Si el par (bodega, ítem) no existe todavía
	// devuelve una fila conceptual en cero, no un error.
	Get(warehouseID, itemID string) (*entity.StockLevel, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE) y la devuelve.
	// Igual que Get, un par inexistente devuelve la fila en cero.
	GetForUpdate(warehouseID, itemID string) (*entity.StockLevel, error)
	Upsert(level *entity.StockLevel) error
	ListByWarehouse(warehouseID string, limit, offset int) ([]*entity.StockLevel, error)
	// ListBelowThreshold devuelve los niveles con QuantityOnHand <= threshold.
	ListBelowThreshold(warehouseID string, threshold int64, limit, offset int) ([]*entity.StockLevel, error)
}
